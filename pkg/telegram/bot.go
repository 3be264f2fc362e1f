package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/teamslots/pkg/logger"
	"github.com/korjavin/teamslots/pkg/messages"
	"github.com/korjavin/teamslots/pkg/schedule"
)

// API is the part of tgbotapi.BotAPI used by the bot
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot represents a Telegram bot instance
type Bot struct {
	api      API
	messages *messages.Service
	logger   *logger.Logger
}

// CommandHandler is a function that handles a Telegram command
type CommandHandler func(ctx context.Context, message *tgbotapi.Message)

// ActionHandler handles an inline button press decoded into a proposal action
type ActionHandler func(ctx context.Context, callback *tgbotapi.CallbackQuery, action schedule.Action)

// New creates a new Telegram bot instance
func New(token string, msgs *messages.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	bot := NewWithAPI(api, msgs)
	bot.logger.Info("Telegram bot created: @%s", api.Self.UserName)
	return bot, nil
}

// NewWithAPI creates a bot on top of an existing API client
func NewWithAPI(api API, msgs *messages.Service) *Bot {
	return &Bot{
		api:      api,
		messages: msgs,
		logger:   logger.New(""),
	}
}

// Start listens for updates until ctx is done
func (b *Bot) Start(ctx context.Context, commandHandlers map[string]CommandHandler, actionHandler ActionHandler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update, commandHandlers, actionHandler)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update, commandHandlers map[string]CommandHandler, actionHandler ActionHandler) {
	// Create a channel-specific logger if we have a chat ID
	var chatID int64
	if update.Message != nil {
		chatID = update.Message.Chat.ID
	} else if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		chatID = update.CallbackQuery.Message.Chat.ID
	}
	log := b.logger
	if chatID != 0 {
		log = b.logger.With(fmt.Sprintf("%d", chatID))
	}

	// Slots and proposals are owned by the sender, so anonymous updates
	// such as channel posts are dropped.
	if update.Message != nil && update.Message.IsCommand() {
		if update.Message.From == nil {
			log.Warn("Ignoring command without sender: %s", update.Message.Text)
			return
		}
		command := update.Message.Command()
		if handler, ok := commandHandlers[command]; ok {
			log.Info("Handling command: %s from user %s", command, userName(update.Message.From))
			handler(ctx, update.Message)
		}
		return
	}

	if update.CallbackQuery != nil {
		callback := update.CallbackQuery
		if callback.From == nil {
			log.Warn("Ignoring callback %q without sender", callback.Data)
			b.AnswerCallbackQuery(callback.ID, "")
			return
		}
		action, err := schedule.ParseAction(callback.Data)
		if err != nil {
			log.Warn("Ignoring callback %q: %v", callback.Data, err)
			b.AnswerCallbackQuery(callback.ID, "")
			return
		}
		log.Info("Handling callback: %s from user %s", callback.Data, userName(callback.From))
		if actionHandler != nil {
			actionHandler(ctx, callback, action)
		}
	}
}

func userName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return u.UserName
	}
	return fmt.Sprintf("%d", u.ID)
}

// SendMessage sends a text message to a chat
func (b *Bot) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	return b.api.Send(msg)
}

// SendMarkdown sends a Markdown formatted message to a chat
func (b *Bot) SendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return b.api.Send(msg)
}

// Reply answers a message in its chat
func (b *Bot) Reply(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to reply in chat %d: %v", message.Chat.ID, err)
	}
}

// SendMessageWithKeyboard sends a text message with an inline keyboard
func (b *Bot) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return b.api.Send(msg)
}

// AnswerCallbackQuery answers a callback query. A non-empty text is shown
// to the user as an alert.
func (b *Bot) AnswerCallbackQuery(callbackID string, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if text != "" {
		callback = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Error("Failed to answer callback %s: %v", callbackID, err)
	}
}

// EditMessage replaces a message's text and removes its buttons
func (b *Bot) EditMessage(chatID int64, messageID int, text string) (tgbotapi.Message, error) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	return b.api.Send(edit)
}
