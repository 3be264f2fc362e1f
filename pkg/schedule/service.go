// Package schedule implements slot creation, the creator-only confirm/cancel
// workflow for conflicting proposals, and the slot listings.
package schedule

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/korjavin/teamslots/pkg/apperr"
	"github.com/korjavin/teamslots/pkg/clock"
	"github.com/korjavin/teamslots/pkg/logger"
	"github.com/korjavin/teamslots/pkg/metrics"
	"github.com/korjavin/teamslots/pkg/models"
	"github.com/korjavin/teamslots/pkg/overlap"
	"github.com/korjavin/teamslots/pkg/team"
)

// Store is the slot storage consumed by the service
type Store interface {
	AppendConfirmed(ctx context.Context, slot models.Slot) error
	AppendPending(ctx context.Context, proposal models.Proposal) error
	ListConfirmed(ctx context.Context, date string) ([]models.Slot, error)
	ListPending(ctx context.Context) ([]models.Proposal, error)
	FindPending(ctx context.Context, id string) (*models.Proposal, error)
	FindConfirmed(ctx context.Context, id string) (*models.Slot, error)
	DeletePending(ctx context.Context, id string) (bool, error)
	DeleteConfirmed(ctx context.Context, id string) (bool, error)
	PromotePending(ctx context.Context, id string) (*models.Slot, error)
}

// Notifier posts scheduling announcements to the team chat
type Notifier interface {
	SlotAdded(ctx context.Context, dest models.Destination, slot models.Slot) error
	ProposalRaised(ctx context.Context, dest models.Destination, proposal models.Proposal, overlaps []models.Slot) error
	SlotConfirmed(ctx context.Context, dest models.Destination, slot models.Slot, overlaps []models.Slot) error
	SlotRemoved(ctx context.Context, dest models.Destination, id string, pending bool, actor models.Actor) error
}

const defaultDescription = "Busy"

// User-facing messages
const (
	msgStartBeforeEnd   = "Start must be before end."
	msgInvalidDate      = "Invalid date/time format."
	msgProposalNotFound = "This pending slot was not found or already processed."
	msgCreatorOnly      = "Only the slot creator can confirm or cancel this pending slot."
	msgSlotNotFound     = "Slot ID not found."
	msgNotYourSlot      = "You can only cancel slots you created."
	msgNotYourProposal  = "You can only cancel pending slots you created."
)

// CreateRequest describes a slot a team member wants to add
type CreateRequest struct {
	Date        string // YYYY-MM-DD, empty for today
	Start       string // H:MM or HH:MM
	End         string
	Description string
	Owner       models.Actor
}

// CreateResult is the outcome of CreateSlot. Exactly one of Slot and
// Proposal is set.
type CreateResult struct {
	Slot      *models.Slot
	Proposal  *models.Proposal
	Overlaps  []models.Slot
	Announced bool
}

// Confirmation is the outcome of confirming a proposal
type Confirmation struct {
	Slot      models.Slot
	Overlaps  []models.Slot
	Announced bool
}

// Removal is the outcome of CancelSlot
type Removal struct {
	ID        string
	Pending   bool
	Announced bool
}

// Conflict is a pair of overlapping confirmed slots
type Conflict struct {
	First  models.Slot
	Second models.Slot
}

// TeamDay is the team's schedule for one date
type TeamDay struct {
	Date      string
	Slots     []models.Slot
	Conflicts []Conflict
}

// Service provides slot scheduling
type Service struct {
	store    Store
	registry *team.Registry
	resolver *clock.Resolver
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *logger.Logger
	newID    func() string

	// mu serialises mutations made through this process
	mu sync.Mutex
}

// New creates a new schedule service
func New(store Store, registry *team.Registry, resolver *clock.Resolver, notifier Notifier, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		registry: registry,
		resolver: resolver,
		notifier: notifier,
		metrics:  m,
		logger:   logger.New("schedule"),
		newID:    NewID,
	}
}

// NewID returns a short random slot id
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// CreateSlot adds a slot directly when it overlaps nothing on its date, and
// otherwise records a proposal that its creator must confirm or cancel.
func (s *Service) CreateSlot(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	dest, err := s.registry.Require(ctx)
	if err != nil {
		return nil, err
	}

	p, candidate, err := s.buildProposal(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.ListConfirmed(ctx, p.Date)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindStorage, "list slots")
	}
	overlaps := s.overlapping(candidate, existing)

	if len(overlaps) == 0 {
		slot := p.Confirmed()
		if err := s.store.AppendConfirmed(ctx, slot); err != nil {
			return nil, apperr.Wrap(err, apperr.KindStorage, "add slot")
		}
		s.logger.Info("Slot %s added by %s for %s %s-%s", slot.ID, slot.OwnerID, slot.Date, slot.StartTime, slot.EndTime)
		s.metrics.SlotEvent("added")

		res := &CreateResult{Slot: &slot}
		res.Announced = s.announce("slot_added", func() error {
			return s.notifier.SlotAdded(ctx, dest, slot)
		})
		return res, nil
	}

	if err := s.store.AppendPending(ctx, p); err != nil {
		return nil, apperr.Wrap(err, apperr.KindStorage, "add pending slot")
	}
	s.logger.Info("Proposal %s by %s overlaps %d slot(s)", p.ID, p.OwnerID, len(overlaps))
	s.metrics.SlotEvent("proposed")

	res := &CreateResult{Proposal: &p, Overlaps: overlaps}
	res.Announced = s.announce("proposal_raised", func() error {
		return s.notifier.ProposalRaised(ctx, dest, p, overlaps)
	})
	return res, nil
}

func (s *Service) buildProposal(req CreateRequest) (models.Proposal, overlap.Interval, error) {
	date := req.Date
	if date == "" {
		date = s.resolver.Today()
	}
	if !clock.ValidDate(date) {
		return models.Proposal{}, overlap.Interval{}, apperr.New(apperr.KindParse, msgInvalidDate)
	}

	start, err := clock.NormalizeTime(req.Start)
	if err != nil {
		return models.Proposal{}, overlap.Interval{}, err
	}
	end, err := clock.NormalizeTime(req.End)
	if err != nil {
		return models.Proposal{}, overlap.Interval{}, err
	}

	startAt, err := s.resolver.Resolve(date, start)
	if err != nil {
		return models.Proposal{}, overlap.Interval{}, err
	}
	endAt, err := s.resolver.Resolve(date, end)
	if err != nil {
		return models.Proposal{}, overlap.Interval{}, err
	}
	if !startAt.Before(endAt) {
		return models.Proposal{}, overlap.Interval{}, apperr.New(apperr.KindValidation, msgStartBeforeEnd)
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = defaultDescription
	}

	p := models.Proposal{
		ID:            s.newID(),
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		OwnerID:       req.Owner.ID,
		OwnerUsername: req.Owner.Username,
		OwnerName:     req.Owner.FirstName,
		Description:   description,
		CreatedAt:     s.resolver.Now(),
	}
	return p, overlap.Interval{ID: p.ID, Start: startAt, End: endAt}, nil
}

// Confirm promotes the creator's proposal into a confirmed slot. The overlap
// list of the announcement is recomputed against the current slots.
func (s *Service) Confirm(ctx context.Context, proposalID string, actor models.Actor) (*Confirmation, error) {
	dest, err := s.registry.Require(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.ownedProposal(ctx, proposalID, actor)
	if err != nil {
		return nil, err
	}

	var overlaps []models.Slot
	if candidate, err := s.interval(p.ID, p.Date, p.StartTime, p.EndTime); err != nil {
		s.logger.Warn("Proposal %s has unreadable times: %v", p.ID, err)
	} else {
		existing, err := s.store.ListConfirmed(ctx, p.Date)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.KindStorage, "list slots")
		}
		overlaps = s.overlapping(candidate, existing)
	}

	slot, err := s.store.PromotePending(ctx, p.ID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindStorage, "confirm slot")
	}
	if slot == nil {
		return nil, apperr.New(apperr.KindNotFound, msgProposalNotFound)
	}
	s.logger.Info("Proposal %s confirmed by %s", slot.ID, actor.ID)
	s.metrics.SlotEvent("confirmed")

	res := &Confirmation{Slot: *slot, Overlaps: overlaps}
	res.Announced = s.announce("slot_confirmed", func() error {
		return s.notifier.SlotConfirmed(ctx, dest, *slot, overlaps)
	})
	return res, nil
}

// Cancel drops the creator's proposal
func (s *Service) Cancel(ctx context.Context, proposalID string, actor models.Actor) error {
	if _, err := s.registry.Require(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.ownedProposal(ctx, proposalID, actor)
	if err != nil {
		return err
	}

	deleted, err := s.store.DeletePending(ctx, p.ID)
	if err != nil {
		return apperr.Wrap(err, apperr.KindStorage, "cancel pending slot")
	}
	if !deleted {
		return apperr.New(apperr.KindNotFound, msgProposalNotFound)
	}
	s.logger.Info("Proposal %s rejected by %s", p.ID, actor.ID)
	s.metrics.SlotEvent("rejected")
	return nil
}

// Handle applies a decoded inline button action. Cancel returns a nil
// confirmation.
func (s *Service) Handle(ctx context.Context, action Action, actor models.Actor) (*Confirmation, error) {
	switch a := action.(type) {
	case Confirm:
		return s.Confirm(ctx, a.ID, actor)
	case Cancel:
		return nil, s.Cancel(ctx, a.ID, actor)
	}
	return nil, apperr.Newf(apperr.KindParse, "unsupported action %T", action)
}

func (s *Service) ownedProposal(ctx context.Context, id string, actor models.Actor) (*models.Proposal, error) {
	p, err := s.store.FindPending(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindStorage, "find pending slot")
	}
	if p == nil {
		return nil, apperr.New(apperr.KindNotFound, msgProposalNotFound)
	}
	if p.OwnerID != actor.ID {
		s.logger.Warn("User %s tried to resolve proposal %s owned by %s", actor.ID, id, p.OwnerID)
		return nil, apperr.New(apperr.KindAuthorization, msgCreatorOnly)
	}
	return p, nil
}

// CancelSlot removes a slot created by actor, looking in the confirmed
// slots first and then in the pending proposals.
func (s *Service) CancelSlot(ctx context.Context, id string, actor models.Actor) (*Removal, error) {
	dest, err := s.registry.Require(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removal, err := s.removeConfirmed(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if removal == nil {
		removal, err = s.removePending(ctx, id, actor)
		if err != nil {
			return nil, err
		}
	}
	if removal == nil {
		return nil, apperr.New(apperr.KindNotFound, msgSlotNotFound)
	}

	s.metrics.SlotEvent("removed")
	removal.Announced = s.announce("slot_removed", func() error {
		return s.notifier.SlotRemoved(ctx, dest, id, removal.Pending, actor)
	})
	return removal, nil
}

func (s *Service) removeConfirmed(ctx context.Context, id string, actor models.Actor) (*Removal, error) {
	slot, err := s.store.FindConfirmed(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindStorage, "find slot")
	}
	if slot == nil {
		return nil, nil
	}
	if slot.OwnerID != actor.ID {
		return nil, apperr.New(apperr.KindAuthorization, msgNotYourSlot)
	}

	deleted, err := s.store.DeleteConfirmed(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindStorage, "remove slot")
	}
	if !deleted {
		return nil, nil
	}
	s.logger.Info("Slot %s removed by %s", id, actor.ID)
	return &Removal{ID: id}, nil
}

func (s *Service) removePending(ctx context.Context, id string, actor models.Actor) (*Removal, error) {
	p, err := s.store.FindPending(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindStorage, "find pending slot")
	}
	if p == nil {
		return nil, nil
	}
	if p.OwnerID != actor.ID {
		return nil, apperr.New(apperr.KindAuthorization, msgNotYourProposal)
	}

	deleted, err := s.store.DeletePending(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindStorage, "remove pending slot")
	}
	if !deleted {
		return nil, nil
	}
	s.logger.Info("Pending slot %s removed by %s", id, actor.ID)
	return &Removal{ID: id, Pending: true}, nil
}

// ListOwn returns the confirmed slots of ownerID on date (today when empty)
func (s *Service) ListOwn(ctx context.Context, ownerID, date string) (string, []models.Slot, error) {
	date, slots, err := s.listDay(ctx, date)
	if err != nil {
		return date, nil, err
	}

	var own []models.Slot
	for _, slot := range slots {
		if slot.OwnerID == ownerID {
			own = append(own, slot)
		}
	}
	return date, own, nil
}

// ListTeam returns every confirmed slot on date (today when empty) and the
// pairs of slots that overlap
func (s *Service) ListTeam(ctx context.Context, date string) (*TeamDay, error) {
	date, slots, err := s.listDay(ctx, date)
	if err != nil {
		return nil, err
	}

	day := &TeamDay{Date: date, Slots: slots}
	intervals, byID := s.intervals(slots)
	for _, pair := range overlap.Pairs(intervals) {
		day.Conflicts = append(day.Conflicts, Conflict{
			First:  byID[pair.First.ID],
			Second: byID[pair.Second.ID],
		})
	}
	return day, nil
}

// PendingProposals returns every proposal still awaiting its creator
func (s *Service) PendingProposals(ctx context.Context) ([]models.Proposal, error) {
	proposals, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindStorage, "list pending slots")
	}
	return proposals, nil
}

func (s *Service) listDay(ctx context.Context, date string) (string, []models.Slot, error) {
	if _, err := s.registry.Require(ctx); err != nil {
		return date, nil, err
	}
	if date == "" {
		date = s.resolver.Today()
	}
	if !clock.ValidDate(date) {
		return date, nil, apperr.New(apperr.KindParse, msgInvalidDate)
	}

	slots, err := s.store.ListConfirmed(ctx, date)
	if err != nil {
		return date, nil, apperr.Wrap(err, apperr.KindStorage, "list slots")
	}
	return date, slots, nil
}

func (s *Service) interval(id, date, start, end string) (overlap.Interval, error) {
	startAt, err := s.resolver.Resolve(date, start)
	if err != nil {
		return overlap.Interval{}, err
	}
	endAt, err := s.resolver.Resolve(date, end)
	if err != nil {
		return overlap.Interval{}, err
	}
	return overlap.Interval{ID: id, Start: startAt, End: endAt}, nil
}

// intervals resolves slots, skipping records with unreadable times
func (s *Service) intervals(slots []models.Slot) ([]overlap.Interval, map[string]models.Slot) {
	intervals := make([]overlap.Interval, 0, len(slots))
	byID := make(map[string]models.Slot, len(slots))
	for _, slot := range slots {
		iv, err := s.interval(slot.ID, slot.Date, slot.StartTime, slot.EndTime)
		if err != nil {
			s.logger.Warn("Skipping slot %s with unreadable times: %v", slot.ID, err)
			continue
		}
		intervals = append(intervals, iv)
		byID[slot.ID] = slot
	}
	return intervals, byID
}

func (s *Service) overlapping(candidate overlap.Interval, existing []models.Slot) []models.Slot {
	intervals, byID := s.intervals(existing)
	found := overlap.Find(candidate, intervals)

	slots := make([]models.Slot, 0, len(found))
	for _, iv := range found {
		slots = append(slots, byID[iv.ID])
	}
	return slots
}

// announce sends a notification. Failures are logged and never undo the
// change being announced.
func (s *Service) announce(kind string, send func() error) bool {
	if err := send(); err != nil {
		err = apperr.Wrap(err, apperr.KindNotification, kind)
		s.logger.Error("Failed to announce %s: %+v", kind, err)
		s.metrics.NotificationFailed(kind)
		return false
	}
	return true
}
