// Package team records the single group chat that receives every scheduling
// announcement.
package team

import (
	"context"

	"github.com/korjavin/teamslots/pkg/apperr"
	"github.com/korjavin/teamslots/pkg/logger"
	"github.com/korjavin/teamslots/pkg/models"
)

// Store persists the registered destination
type Store interface {
	GetRegisteredDestination(ctx context.Context) (models.Destination, bool, error)
	SetRegisteredDestination(ctx context.Context, dest models.Destination) error
}

// Registry is the team registration. Until a destination is registered
// scheduling is inactive.
type Registry struct {
	store  Store
	logger *logger.Logger
}

// New creates a registry backed by store
func New(store Store) *Registry {
	return &Registry{
		store:  store,
		logger: logger.New("team"),
	}
}

// Register replaces the destination
func (r *Registry) Register(ctx context.Context, dest models.Destination) error {
	if err := r.store.SetRegisteredDestination(ctx, dest); err != nil {
		return apperr.Wrap(err, apperr.KindStorage, "register team chat")
	}
	r.logger.Info("Registered team chat %d", dest)
	return nil
}

// Get returns the destination and whether one is registered
func (r *Registry) Get(ctx context.Context) (models.Destination, bool, error) {
	dest, ok, err := r.store.GetRegisteredDestination(ctx)
	if err != nil {
		return 0, false, apperr.Wrap(err, apperr.KindStorage, "read team chat")
	}
	return dest, ok, nil
}

// Require returns the destination or a KindNotRegistered error
func (r *Registry) Require(ctx context.Context) (models.Destination, error) {
	dest, ok, err := r.Get(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apperr.New(apperr.KindNotRegistered, "No team group registered yet. Add the bot to your group and run /setteam inside the group first.")
	}
	return dest, nil
}

// IsTeamChat reports whether chatID is the registered destination
func (r *Registry) IsTeamChat(ctx context.Context, chatID int64) (bool, error) {
	dest, ok, err := r.Get(ctx)
	if err != nil || !ok {
		return false, err
	}
	return int64(dest) == chatID, nil
}
