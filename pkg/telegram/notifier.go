package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/teamslots/pkg/models"
	"github.com/korjavin/teamslots/pkg/schedule"
)

// SlotAdded posts a directly added slot to the team chat
func (b *Bot) SlotAdded(_ context.Context, dest models.Destination, slot models.Slot) error {
	_, err := b.SendMessage(int64(dest), b.messages.SlotAdded(slot))
	return err
}

// ProposalRaised posts the overlap warning with the creator's buttons
func (b *Bot) ProposalRaised(_ context.Context, dest models.Destination, p models.Proposal, overlaps []models.Slot) error {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm (creator only)", schedule.Confirm{ID: p.ID}.Data()),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", schedule.Cancel{ID: p.ID}.Data()),
		),
	)
	_, err := b.SendMessageWithKeyboard(int64(dest), b.messages.ProposalRaised(p, overlaps), keyboard)
	return err
}

// SlotConfirmed posts a confirmed proposal and its current overlaps
func (b *Bot) SlotConfirmed(_ context.Context, dest models.Destination, slot models.Slot, overlaps []models.Slot) error {
	_, err := b.SendMessage(int64(dest), b.messages.SlotConfirmed(slot, overlaps))
	return err
}

// SlotRemoved posts a /cancel
func (b *Bot) SlotRemoved(_ context.Context, dest models.Destination, id string, pending bool, actor models.Actor) error {
	_, err := b.SendMessage(int64(dest), b.messages.SlotRemoved(id, pending, actor))
	return err
}

// Reminder posts a slot's reminder
func (b *Bot) Reminder(_ context.Context, dest models.Destination, slot models.Slot, startsAt, now time.Time) error {
	_, err := b.SendMessage(int64(dest), b.messages.Reminder(slot, startsAt, now))
	return err
}
