package team

import (
	"context"
	"testing"

	"github.com/korjavin/teamslots/pkg/apperr"
	"github.com/korjavin/teamslots/pkg/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	dest   models.Destination
	set    bool
	getErr error
}

func (m *memStore) GetRegisteredDestination(context.Context) (models.Destination, bool, error) {
	return m.dest, m.set, m.getErr
}

func (m *memStore) SetRegisteredDestination(_ context.Context, dest models.Destination) error {
	m.dest, m.set = dest, true
	return nil
}

func TestRegistry_UnsetIsInactive(t *testing.T) {
	r := New(&memStore{})
	ctx := context.Background()

	_, ok, err := r.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.Require(ctx)
	assert.True(t, apperr.Is(err, apperr.KindNotRegistered))

	isTeam, err := r.IsTeamChat(ctx, -1)
	require.NoError(t, err)
	assert.False(t, isTeam)
}

func TestRegistry_LastWriteWins(t *testing.T) {
	r := New(&memStore{})
	ctx := context.Background()

	require.NoError(t, r.Register(ctx, -100))
	require.NoError(t, r.Register(ctx, -200))

	dest, err := r.Require(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Destination(-200), dest)

	isTeam, err := r.IsTeamChat(ctx, -200)
	require.NoError(t, err)
	assert.True(t, isTeam)

	isTeam, err = r.IsTeamChat(ctx, -100)
	require.NoError(t, err)
	assert.False(t, isTeam)
}

func TestRegistry_StorageError(t *testing.T) {
	r := New(&memStore{getErr: errors.New("closed")})

	_, err := r.Require(context.Background())
	assert.True(t, apperr.Is(err, apperr.KindStorage))
}
