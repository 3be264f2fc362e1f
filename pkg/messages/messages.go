package messages

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/korjavin/teamslots/pkg/models"
	"github.com/korjavin/teamslots/pkg/schedule"
)

// Service renders the bot's user-facing texts
type Service struct {
	botName string
}

// New creates a new message service
func New(botName string) *Service {
	return &Service{botName: botName}
}

// Welcome returns the /start help text
func (s *Service) Welcome() string {
	return fmt.Sprintf("Hi, I am *%s*.\n\n", s.botName) +
		"This bot is group-first. Add me to your team group and run /setteam in the group.\n\n" +
		"Commands (use inside the registered group):\n" +
		"/addslot YYYY-MM-DD HH:MM HH:MM Details...  OR  /addslot HH:MM-HH:MM Details... (date defaults to today)\n" +
		"/me [YYYY-MM-DD]   - show your slots for the date\n" +
		"/team [YYYY-MM-DD] - show team slots for the date\n" +
		"/cancel <id>       - cancel the slot you created\n" +
		"/pending           - list overlapping slots still waiting for their creator\n" +
		"/setteam           - (run once inside the group) register this group for all alerts\n\n" +
		"Behaviour:\n" +
		"- Overlap prompts and reminders are posted ONLY in the registered group.\n" +
		"- Only the slot creator can Confirm/Cancel a pending (overlapping) slot.\n" +
		"- Reminders: 15 minutes before the start, posted to the group.\n"
}

// TeamRegistered confirms /setteam
func (s *Service) TeamRegistered(chatID int64) string {
	return fmt.Sprintf("Registered this group (id=%d) as the team channel for %s alerts.", chatID, s.botName)
}

// SetTeamOutsideGroup explains where /setteam must run
func (s *Service) SetTeamOutsideGroup() string {
	return "Run /setteam inside the group you want the bot to post team alerts to."
}

// WrongChat explains that command must run in the registered group
func (s *Service) WrongChat(command string) string {
	return fmt.Sprintf("Run /%s inside the registered group.", command)
}

// AddSlotUsage is shown when /addslot arguments cannot be parsed
func (s *Service) AddSlotUsage() string {
	return "Couldn't parse. Use /addslot YYYY-MM-DD HH:MM HH:MM Details... or /addslot HH:MM-HH:MM Details..."
}

// CancelUsage is shown when /cancel has no id
func (s *Service) CancelUsage() string {
	return "Usage: /cancel <slot_id>"
}

// SlotAdded announces a slot that overlapped nothing
func (s *Service) SlotAdded(slot models.Slot) string {
	return fmt.Sprintf("✅ Slot added by %s: %s %s-%s — %s (ID %s)",
		slot.OwnerLabel(), slot.Date, slot.StartTime, slot.EndTime, slot.Description, slot.ID)
}

// ProposalRaised warns the team about a conflicting proposal
func (s *Service) ProposalRaised(p models.Proposal, overlaps []models.Slot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ %s wants to add a slot (%s %s-%s — %s) that overlaps %d existing slot(s):\n",
		p.OwnerLabel(), p.Date, p.StartTime, p.EndTime, p.Description, len(overlaps))
	writeSlots(&b, overlaps)
	b.WriteString("\nCreator, please confirm or cancel.")
	return b.String()
}

// SlotConfirmed announces a confirmed proposal and what it overlaps now
func (s *Service) SlotConfirmed(slot models.Slot, overlaps []models.Slot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Slot confirmed by %s: %s %s-%s — %s (ID %s)\n\nOverlaps with:\n",
		slot.OwnerLabel(), slot.Date, slot.StartTime, slot.EndTime, slot.Description, slot.ID)
	if len(overlaps) == 0 {
		b.WriteString("- None\n")
	}
	writeSlots(&b, overlaps)
	return b.String()
}

// ConfirmDone replaces the buttons of a confirmed proposal
func (s *Service) ConfirmDone() string {
	return "Slot confirmed and posted to group."
}

// ConfirmNotAnnounced replaces the buttons when the confirmation could not
// be posted to the group
func (s *Service) ConfirmNotAnnounced() string {
	return "Slot confirmed, but I couldn't post it to the group. Check /team."
}

// CancelDone replaces the buttons of a cancelled proposal
func (s *Service) CancelDone() string {
	return "Cancelled: the pending slot was not added."
}

// SlotRemoved announces /cancel
func (s *Service) SlotRemoved(id string, pending bool, actor models.Actor) string {
	if pending {
		return fmt.Sprintf("Cancelled pending slot %s by %s.", id, actor.Label())
	}
	return fmt.Sprintf("🗑️ Slot %s removed by %s.", id, actor.Label())
}

// OwnSlots renders /me
func (s *Service) OwnSlots(date string, slots []models.Slot) string {
	if len(slots) == 0 {
		return fmt.Sprintf("No slots for %s.", date)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your slots for %s:\n", date)
	for _, slot := range slots {
		fmt.Fprintf(&b, "- ID %s: %s-%s — %s\n", slot.ID, slot.StartTime, slot.EndTime, slot.Description)
	}
	return b.String()
}

// PendingProposals renders /pending
func (s *Service) PendingProposals(proposals []models.Proposal) string {
	if len(proposals) == 0 {
		return "No pending slots."
	}

	var b strings.Builder
	b.WriteString("Pending slots awaiting their creator:\n")
	for _, p := range proposals {
		fmt.Fprintf(&b, "- %s: %s %s-%s — %s (ID %s)\n", p.OwnerLabel(), p.Date, p.StartTime, p.EndTime, p.Description, p.ID)
	}
	return b.String()
}

// TeamSlots renders /team with its overlap report
func (s *Service) TeamSlots(day *schedule.TeamDay) string {
	if len(day.Slots) == 0 {
		return fmt.Sprintf("No slots for %s.", day.Date)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Team slots for %s:\n", day.Date)
	for _, slot := range day.Slots {
		fmt.Fprintf(&b, "- %s: %s-%s — %s (ID %s)\n", slot.OwnerLabel(), slot.StartTime, slot.EndTime, slot.Description, slot.ID)
	}

	if len(day.Conflicts) > 0 {
		b.WriteString("\n⚠️ Overlaps:\n")
		for _, c := range day.Conflicts {
			fmt.Fprintf(&b, "- %s (%s-%s) overlaps with %s (%s-%s)\n",
				c.First.OwnerLabel(), c.First.StartTime, c.First.EndTime,
				c.Second.OwnerLabel(), c.Second.StartTime, c.Second.EndTime)
		}
	}
	return b.String()
}

// Reminder renders the pre-start reminder of a slot
func (s *Service) Reminder(slot models.Slot, startsAt, now time.Time) string {
	return fmt.Sprintf("🔔 Reminder: %s's \"%s\" starts at %s (%s).\n(ID %s)",
		slot.OwnerLabel(), slot.Description, slot.StartTime, humanize.RelTime(startsAt, now, "ago", "from now"), slot.ID)
}

func writeSlots(b *strings.Builder, slots []models.Slot) {
	for _, o := range slots {
		fmt.Fprintf(b, "- %s: %s-%s — %s\n", o.OwnerLabel(), o.StartTime, o.EndTime, o.Description)
	}
}
