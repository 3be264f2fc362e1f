// Package reminder posts a one-shot reminder to the team chat shortly before
// each confirmed slot starts.
//
// Every tick scans the confirmed slots whose reminder has not been sent and
// reminds those starting within the window. The reminder flag is set even
// when delivery fails, so a slot is reminded at most once. A slot whose start
// passes while no tick runs is never reminded.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/korjavin/teamslots/pkg/clock"
	"github.com/korjavin/teamslots/pkg/logger"
	"github.com/korjavin/teamslots/pkg/metrics"
	"github.com/korjavin/teamslots/pkg/models"
	"github.com/robfig/cron/v3"
)

// Defaults for Config
const (
	DefaultInterval = 60 * time.Second
	DefaultWindow   = 15 * time.Minute
)

// Store is the slot storage read and flagged by the scheduler
type Store interface {
	ListConfirmed(ctx context.Context, date string) ([]models.Slot, error)
	SetReminderFlag(ctx context.Context, id string) (bool, error)
}

// Registry yields the team chat
type Registry interface {
	Get(ctx context.Context) (models.Destination, bool, error)
}

// Notifier delivers a reminder
type Notifier interface {
	Reminder(ctx context.Context, dest models.Destination, slot models.Slot, startsAt, now time.Time) error
}

// Config tunes the scheduler
type Config struct {
	Interval time.Duration
	Window   time.Duration
}

// Service runs the reminder scan
type Service struct {
	store    Store
	registry Registry
	resolver *clock.Resolver
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *logger.Logger
	cfg      Config

	cron *cron.Cron
	// tickMu keeps a slow tick from overlapping the next one
	tickMu sync.Mutex
}

// New creates a new reminder scheduler
func New(store Store, registry Registry, resolver *clock.Resolver, notifier Notifier, m *metrics.Metrics, cfg Config) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &Service{
		store:    store,
		registry: registry,
		resolver: resolver,
		notifier: notifier,
		metrics:  m,
		logger:   logger.New("reminder"),
		cfg:      cfg,
	}
}

// Start schedules Tick every configured interval until ctx is done or Stop
// is called
func (s *Service) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithLocation(s.resolver.Location()))
	spec := fmt.Sprintf("@every %s", s.cfg.Interval)
	if _, err := s.cron.AddFunc(spec, func() {
		if _, err := s.Tick(ctx); err != nil {
			s.logger.Error("Reminder tick failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Started reminder scheduler: every %s, window %s", s.cfg.Interval, s.cfg.Window)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop stops the scheduler and waits for a running tick to finish
func (s *Service) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("Stopped reminder scheduler")
}

// Tick sends the reminders that are due and returns the ids of the slots it
// flagged
func (s *Service) Tick(ctx context.Context) ([]string, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.metrics.Tick()

	dest, ok, err := s.registry.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	now := s.resolver.Now()
	windowEnd := now.Add(s.cfg.Window)

	slots, err := s.store.ListConfirmed(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	var flagged []string
	for _, slot := range slots {
		if slot.ReminderSent {
			continue
		}

		startsAt, err := s.resolver.Resolve(slot.Date, slot.StartTime)
		if err != nil {
			s.logger.Warn("Skipping slot %s with unreadable start: %v", slot.ID, err)
			continue
		}
		if !now.Before(startsAt) || startsAt.After(windowEnd) {
			continue
		}

		if err := s.notifier.Reminder(ctx, dest, slot, startsAt, now); err != nil {
			s.logger.Error("Failed to send reminder for slot %s to team chat %d: %v", slot.ID, dest, err)
			s.metrics.NotificationFailed("reminder")
		}

		// flagged regardless of delivery: at most one reminder per slot
		found, err := s.store.SetReminderFlag(ctx, slot.ID)
		if err != nil {
			s.logger.Error("Failed to flag reminder for slot %s: %v", slot.ID, err)
			continue
		}
		if !found {
			s.logger.Info("Slot %s was removed before its reminder was flagged", slot.ID)
			continue
		}
		s.metrics.ReminderSent()
		flagged = append(flagged, slot.ID)
	}
	return flagged, nil
}
