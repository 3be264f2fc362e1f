package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/teamslots/pkg/apperr"
	"github.com/korjavin/teamslots/pkg/models"
	"github.com/korjavin/teamslots/pkg/schedule"
	"github.com/korjavin/teamslots/pkg/team"
)

// Handlers maps bot commands and buttons onto the schedule service
type Handlers struct {
	bot      *Bot
	schedule *schedule.Service
	registry *team.Registry
}

// NewHandlers creates the command and button handlers
func NewHandlers(bot *Bot, svc *schedule.Service, registry *team.Registry) *Handlers {
	return &Handlers{bot: bot, schedule: svc, registry: registry}
}

// Commands returns the handlers keyed by command name
func (h *Handlers) Commands() map[string]CommandHandler {
	return map[string]CommandHandler{
		"start":   h.Start,
		"help":    h.Start,
		"setteam": h.SetTeam,
		"addslot": h.AddSlot,
		"me":      h.Me,
		"team":    h.Team,
		"cancel":  h.CancelSlot,
		"pending": h.Pending,
	}
}

// ActorFrom converts a Telegram user into an actor
func ActorFrom(u *tgbotapi.User) models.Actor {
	if u == nil {
		return models.Actor{}
	}
	return models.Actor{
		ID:        strconv.FormatInt(u.ID, 10),
		Username:  u.UserName,
		FirstName: u.FirstName,
	}
}

// Start sends the help text
func (h *Handlers) Start(_ context.Context, message *tgbotapi.Message) {
	if _, err := h.bot.SendMarkdown(message.Chat.ID, h.bot.messages.Welcome()); err != nil {
		h.bot.logger.Error("Failed to send welcome message: %v", err)
	}
}

// SetTeam registers the group the command was sent from
func (h *Handlers) SetTeam(ctx context.Context, message *tgbotapi.Message) {
	chat := message.Chat
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		h.bot.Reply(message, h.bot.messages.SetTeamOutsideGroup())
		return
	}

	if err := h.registry.Register(ctx, models.Destination(chat.ID)); err != nil {
		h.fail(message, err)
		return
	}
	h.bot.Reply(message, h.bot.messages.TeamRegistered(chat.ID))
}

// inTeamChat replies and returns false unless message comes from the
// registered group
func (h *Handlers) inTeamChat(ctx context.Context, message *tgbotapi.Message, command string) bool {
	if _, err := h.registry.Require(ctx); err != nil {
		h.fail(message, err)
		return false
	}

	ok, err := h.registry.IsTeamChat(ctx, message.Chat.ID)
	if err != nil {
		h.fail(message, err)
		return false
	}
	if !ok {
		h.bot.Reply(message, h.bot.messages.WrongChat(command))
		return false
	}
	return true
}

// AddSlot handles /addslot
func (h *Handlers) AddSlot(ctx context.Context, message *tgbotapi.Message) {
	if !h.inTeamChat(ctx, message, "addslot") {
		return
	}

	args, err := ParseAddSlot(strings.Fields(message.CommandArguments()))
	if err != nil {
		h.bot.Reply(message, h.bot.messages.AddSlotUsage())
		return
	}

	_, err = h.schedule.CreateSlot(ctx, schedule.CreateRequest{
		Date:        args.Date,
		Start:       args.Start,
		End:         args.End,
		Description: args.Description,
		Owner:       ActorFrom(message.From),
	})
	if err != nil {
		h.fail(message, err)
	}
}

// Me handles /me [date]
func (h *Handlers) Me(ctx context.Context, message *tgbotapi.Message) {
	if !h.inTeamChat(ctx, message, "me") {
		return
	}

	date := ParseDateArg(strings.Fields(message.CommandArguments()))
	date, slots, err := h.schedule.ListOwn(ctx, ActorFrom(message.From).ID, date)
	if err != nil {
		h.fail(message, err)
		return
	}
	h.bot.Reply(message, h.bot.messages.OwnSlots(date, slots))
}

// Team handles /team [date]
func (h *Handlers) Team(ctx context.Context, message *tgbotapi.Message) {
	if !h.inTeamChat(ctx, message, "team") {
		return
	}

	day, err := h.schedule.ListTeam(ctx, ParseDateArg(strings.Fields(message.CommandArguments())))
	if err != nil {
		h.fail(message, err)
		return
	}
	h.bot.Reply(message, h.bot.messages.TeamSlots(day))
}

// Pending handles /pending
func (h *Handlers) Pending(ctx context.Context, message *tgbotapi.Message) {
	if !h.inTeamChat(ctx, message, "pending") {
		return
	}

	proposals, err := h.schedule.PendingProposals(ctx)
	if err != nil {
		h.fail(message, err)
		return
	}
	h.bot.Reply(message, h.bot.messages.PendingProposals(proposals))
}

// CancelSlot handles /cancel <id>
func (h *Handlers) CancelSlot(ctx context.Context, message *tgbotapi.Message) {
	if !h.inTeamChat(ctx, message, "cancel") {
		return
	}

	args := strings.Fields(message.CommandArguments())
	if len(args) == 0 {
		h.bot.Reply(message, h.bot.messages.CancelUsage())
		return
	}

	if _, err := h.schedule.CancelSlot(ctx, args[0], ActorFrom(message.From)); err != nil {
		h.fail(message, err)
	}
}

// Action handles the Confirm and Cancel buttons of a proposal. A press by
// anyone but the creator only shows them an alert.
func (h *Handlers) Action(ctx context.Context, callback *tgbotapi.CallbackQuery, action schedule.Action) {
	confirmation, err := h.schedule.Handle(ctx, action, ActorFrom(callback.From))

	if apperr.Is(err, apperr.KindAuthorization) {
		h.bot.AnswerCallbackQuery(callback.ID, apperr.UserMessage(err))
		return
	}
	h.bot.AnswerCallbackQuery(callback.ID, "")

	text := apperr.UserMessage(err)
	if err == nil {
		switch action.(type) {
		case schedule.Confirm:
			text = h.bot.messages.ConfirmDone()
			if confirmation != nil && !confirmation.Announced {
				text = h.bot.messages.ConfirmNotAnnounced()
			}
		case schedule.Cancel:
			text = h.bot.messages.CancelDone()
		}
	} else if !apperr.IsUserFacing(err) {
		h.bot.logger.Error("Failed to handle %s: %+v", action.Data(), err)
	}

	if callback.Message == nil {
		return
	}
	if _, err := h.bot.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID, text); err != nil {
		h.bot.logger.Error("Failed to update proposal message: %v", err)
	}
}

// fail replies with the user-facing text of err and logs operational errors
func (h *Handlers) fail(message *tgbotapi.Message, err error) {
	if !apperr.IsUserFacing(err) {
		h.bot.logger.Error("Command %s failed: %+v", message.Command(), err)
	}
	h.bot.Reply(message, apperr.UserMessage(err))
}
