package telegram

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/teamslots/pkg/clock"
	"github.com/korjavin/teamslots/pkg/messages"
	"github.com/korjavin/teamslots/pkg/models"
	"github.com/korjavin/teamslots/pkg/schedule"
	"github.com/korjavin/teamslots/pkg/storage"
	"github.com/korjavin/teamslots/pkg/team"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	teamChat    = &tgbotapi.Chat{ID: -100, Type: "supergroup"}
	privateChat = &tgbotapi.Chat{ID: 1, Type: "private"}
	alice       = &tgbotapi.User{ID: 1, UserName: "alice", FirstName: "Alice"}
	bob         = &tgbotapi.User{ID: 2, UserName: "bob", FirstName: "Bob"}
)

type fixture struct {
	api      *fakeAPI
	handlers *Handlers
	store    *storage.Store
	registry *team.Registry
}

func newFixture(t *testing.T, register bool) *fixture {
	t.Helper()

	store, err := storage.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	loc := time.FixedZone("IST", 5*3600+1800)
	resolver := clock.New(loc).WithNow(func() time.Time {
		return time.Date(2024, 3, 1, 8, 0, 0, 0, loc)
	})

	api := newFakeAPI()
	bot := NewWithAPI(api, messages.New("NextGen Manager"))
	registry := team.New(store)
	svc := schedule.New(store, registry, resolver, bot, nil)

	if register {
		require.NoError(t, registry.Register(context.Background(), models.Destination(teamChat.ID)))
	}

	return &fixture{
		api:      api,
		handlers: NewHandlers(bot, svc, registry),
		store:    store,
		registry: registry,
	}
}

func (f *fixture) run(from *tgbotapi.User, chat *tgbotapi.Chat, text string) {
	msg := commandMessage(chat, from, text)
	f.handlers.Commands()[msg.Command()](context.Background(), msg)
}

func (f *fixture) press(t *testing.T, from *tgbotapi.User, data string) {
	t.Helper()
	action, err := schedule.ParseAction(data)
	require.NoError(t, err)
	f.handlers.Action(context.Background(), &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    from,
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 42, Chat: teamChat},
	}, action)
}

func (f *fixture) pendingID(t *testing.T) string {
	t.Helper()
	pending, err := f.store.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	return pending[0].ID
}

func (f *fixture) confirmed(t *testing.T) []models.Slot {
	t.Helper()
	slots, err := f.store.ListConfirmed(context.Background(), "")
	require.NoError(t, err)
	return slots
}

func TestStartCommand(t *testing.T) {
	f := newFixture(t, false)

	f.run(alice, privateChat, "/start")

	msg, ok := f.api.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
	assert.Contains(t, msg.Text, "NextGen Manager")
}

func TestSetTeam_OutsideGroup(t *testing.T) {
	f := newFixture(t, false)

	f.run(alice, privateChat, "/setteam")

	assert.Equal(t, "Run /setteam inside the group you want the bot to post team alerts to.", f.api.lastText())
	_, ok, err := f.registry.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetTeam_RegistersGroup(t *testing.T) {
	f := newFixture(t, false)

	f.run(alice, teamChat, "/setteam")

	assert.Contains(t, f.api.lastText(), "id=-100")
	dest, ok, err := f.registry.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.Destination(-100), dest)
}

func TestAddSlot_RequiresTeam(t *testing.T) {
	f := newFixture(t, false)

	f.run(alice, teamChat, "/addslot 09:00-10:00 Standup")

	assert.Contains(t, f.api.lastText(), "No team group registered yet")
	assert.Empty(t, f.confirmed(t))
}

func TestAddSlot_WrongChat(t *testing.T) {
	f := newFixture(t, true)

	f.run(alice, privateChat, "/addslot 09:00-10:00 Standup")

	assert.Equal(t, "Run /addslot inside the registered group.", f.api.lastText())
	assert.Empty(t, f.confirmed(t))
}

func TestAddSlot_Usage(t *testing.T) {
	f := newFixture(t, true)

	f.run(alice, teamChat, "/addslot tomorrow morning")

	assert.Contains(t, f.api.lastText(), "Couldn't parse")
}

func TestAddSlot_StartAfterEnd(t *testing.T) {
	f := newFixture(t, true)

	f.run(alice, teamChat, "/addslot 10:00 09:00 Backwards")

	assert.Equal(t, "Start must be before end.", f.api.lastText())
	assert.Empty(t, f.confirmed(t))
}

func TestAddSlot_Direct(t *testing.T) {
	f := newFixture(t, true)

	f.run(alice, teamChat, "/addslot 9:00-10:00 Standup")

	slots := f.confirmed(t)
	require.Len(t, slots, 1)
	assert.Equal(t, "2024-03-01", slots[0].Date)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "1", slots[0].OwnerID)
	assert.Contains(t, f.api.lastText(), "✅ Slot added by Alice: 2024-03-01 09:00-10:00")
}

func TestAddSlot_OverlapRaisesProposal(t *testing.T) {
	f := newFixture(t, true)
	f.run(alice, teamChat, "/addslot 09:00-10:00 Standup")

	f.run(bob, teamChat, "/addslot 2024-03-01 09:30 11:00 Review")

	id := f.pendingID(t)
	msg, ok := f.api.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-100), msg.ChatID)
	assert.Contains(t, msg.Text, "⚠️ Bob wants to add a slot")

	keyboard, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.InlineKeyboard, 1)
	row := keyboard.InlineKeyboard[0]
	require.Len(t, row, 2)
	assert.Equal(t, "confirm:"+id, *row[0].CallbackData)
	assert.Equal(t, "cancel:"+id, *row[1].CallbackData)
	assert.Len(t, f.confirmed(t), 1)
}

func TestAction_OnlyCreatorMayDecide(t *testing.T) {
	f := newFixture(t, true)
	f.run(alice, teamChat, "/addslot 09:00-10:00 Standup")
	f.run(bob, teamChat, "/addslot 09:30-11:00 Review")
	id := f.pendingID(t)
	sent := len(f.api.texts())

	f.press(t, alice, "confirm:"+id)

	callbacks := f.api.callbacks()
	require.Len(t, callbacks, 1)
	assert.True(t, callbacks[0].ShowAlert)
	assert.Equal(t, "Only the slot creator can confirm or cancel this pending slot.", callbacks[0].Text)
	assert.Len(t, f.api.texts(), sent, "proposal message must stay untouched")
	assert.Equal(t, id, f.pendingID(t))
}

func TestAction_CreatorConfirms(t *testing.T) {
	f := newFixture(t, true)
	f.run(alice, teamChat, "/addslot 09:00-10:00 Standup")
	f.run(bob, teamChat, "/addslot 09:30-11:00 Review")
	id := f.pendingID(t)

	f.press(t, bob, "confirm:"+id)

	edit, ok := f.api.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 42, edit.MessageID)
	assert.Equal(t, "Slot confirmed and posted to group.", edit.Text)

	texts := f.api.texts()
	assert.Contains(t, texts[len(texts)-2], "✅ Slot confirmed by Bob")
	assert.Contains(t, texts[len(texts)-2], "- Alice: 09:00-10:00 — Standup")
	assert.Len(t, f.confirmed(t), 2)

	f.press(t, bob, "confirm:"+id)
	assert.Equal(t, "This pending slot was not found or already processed.", f.api.lastText())
	assert.Len(t, f.confirmed(t), 2)
}

func TestAction_ConfirmNotPostedToGroup(t *testing.T) {
	f := newFixture(t, true)
	f.run(alice, teamChat, "/addslot 09:00-10:00 Standup")
	f.run(bob, teamChat, "/addslot 09:30-11:00 Review")
	id := f.pendingID(t)
	f.api.failOn = func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && strings.Contains(msg.Text, "Slot confirmed by")
	}

	f.press(t, bob, "confirm:"+id)

	edit, ok := f.api.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, "Slot confirmed, but I couldn't post it to the group. Check /team.", edit.Text)
	assert.Len(t, f.confirmed(t), 2)
}

func TestPending(t *testing.T) {
	f := newFixture(t, true)

	f.run(alice, teamChat, "/pending")
	assert.Equal(t, "No pending slots.", f.api.lastText())

	f.run(alice, teamChat, "/addslot 09:00-10:00 Standup")
	f.run(bob, teamChat, "/addslot 09:30-11:00 Review")
	id := f.pendingID(t)

	f.run(alice, teamChat, "/pending")
	text := f.api.lastText()
	assert.Contains(t, text, "Pending slots awaiting their creator:")
	assert.Contains(t, text, "- Bob: 2024-03-01 09:30-11:00 — Review (ID "+id+")")

	f.run(alice, privateChat, "/pending")
	assert.Equal(t, "Run /pending inside the registered group.", f.api.lastText())
}

func TestAction_CreatorCancels(t *testing.T) {
	f := newFixture(t, true)
	f.run(alice, teamChat, "/addslot 09:00-10:00 Standup")
	f.run(bob, teamChat, "/addslot 09:30-11:00 Review")
	id := f.pendingID(t)

	f.press(t, bob, "cancel:"+id)

	assert.Equal(t, "Cancelled: the pending slot was not added.", f.api.lastText())
	pending, err := f.store.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Len(t, f.confirmed(t), 1)
}

func TestMe(t *testing.T) {
	f := newFixture(t, true)
	f.run(alice, teamChat, "/addslot 09:00-10:00 Standup")
	f.run(bob, teamChat, "/addslot 11:00-12:00 Review")
	f.run(alice, teamChat, "/addslot 2024-03-02 09:00 10:00 Planning")

	f.run(alice, teamChat, "/me")
	text := f.api.lastText()
	assert.Contains(t, text, "Your slots for 2024-03-01:")
	assert.Contains(t, text, "Standup")
	assert.NotContains(t, text, "Review")
	assert.NotContains(t, text, "Planning")

	f.run(alice, teamChat, "/me 2024-03-02")
	assert.Contains(t, f.api.lastText(), "Planning")

	f.run(bob, teamChat, "/me 2024-03-05")
	assert.Equal(t, "No slots for 2024-03-05.", f.api.lastText())
}

func TestTeam(t *testing.T) {
	f := newFixture(t, true)
	f.run(alice, teamChat, "/addslot 09:00-10:00 Standup")
	f.run(bob, teamChat, "/addslot 09:30-11:00 Review")
	f.press(t, bob, "confirm:"+f.pendingID(t))

	f.run(alice, teamChat, "/team")

	text := f.api.lastText()
	assert.Contains(t, text, "Team slots for 2024-03-01:")
	assert.Contains(t, text, "- Alice: 09:00-10:00 — Standup")
	assert.Contains(t, text, "⚠️ Overlaps:")
	assert.Contains(t, text, "Alice (09:00-10:00) overlaps with Bob (09:30-11:00)")
}

func TestCancelSlot(t *testing.T) {
	f := newFixture(t, true)
	f.run(alice, teamChat, "/addslot 09:00-10:00 Standup")
	id := f.confirmed(t)[0].ID

	f.run(alice, teamChat, "/cancel")
	assert.Equal(t, "Usage: /cancel <slot_id>", f.api.lastText())

	f.run(bob, teamChat, "/cancel "+id)
	assert.Equal(t, "You can only cancel slots you created.", f.api.lastText())

	f.run(alice, teamChat, "/cancel nope")
	assert.Equal(t, "Slot ID not found.", f.api.lastText())

	f.run(alice, teamChat, "/cancel "+id)
	assert.Equal(t, "🗑️ Slot "+id+" removed by Alice.", f.api.lastText())
	assert.Empty(t, f.confirmed(t))
}
