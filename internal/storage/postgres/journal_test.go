package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/rogue/internal/game/action"
	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
	"github.com/cory-johannsen/rogue/internal/journal"
	"github.com/cory-johannsen/rogue/internal/storage/postgres"
	"github.com/cory-johannsen/rogue/internal/testutil"
)

func setupJournal(t *testing.T) *postgres.JournalRepository {
	t.Helper()
	pc := testutil.NewPostgresContainer(t)
	pc.Migrate(t)
	return postgres.NewJournalRepository(pc.Pool.DB())
}

func TestNewJournalRepository_NilPanics(t *testing.T) {
	assert.Panics(t, func() { postgres.NewJournalRepository(nil) })
}

func TestJournalRepository_RoundTrip(t *testing.T) {
	repo := setupJournal(t)
	ctx := context.Background()
	run := uuid.New()
	hero := entity.NewID(1, 1)

	actions := []action.Args{
		action.Walk{Entity: hero, Direction: geom.East},
		action.Fire{Entity: hero, Direction: geom.North, Range: 5},
		action.ApplyDamage{Target: entity.NewID(2, 1), Amount: 4, Source: hero},
	}
	for i, a := range actions {
		e, err := journal.NewEntry(run, uint64(i+1), uint64(i*10), a)
		require.NoError(t, err)
		require.NoError(t, repo.Record(ctx, e))
	}

	got, err := repo.Entries(ctx, run)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, action.KindWalk, got[0].Kind)
	assert.Equal(t, uint64(hero), got[0].Actor)
	for i, e := range got {
		assert.Equal(t, uint64(i+1), e.Turn)
		assert.Equal(t, uint64(i*10), e.Time, "sim time of turn %d", e.Turn)
		assert.Equal(t, run, e.RunID)
	}
	assert.JSONEq(t, `{"target":4294967298,"amount":4,"source":4294967297}`, string(got[2].Payload))

	n, err := repo.Count(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestJournalRepository_DuplicateTurn(t *testing.T) {
	repo := setupJournal(t)
	ctx := context.Background()
	e, err := journal.NewEntry(uuid.New(), 1, 0, action.Wait{Entity: entity.NewID(1, 1)})
	require.NoError(t, err)

	require.NoError(t, repo.Record(ctx, e))
	assert.ErrorIs(t, repo.Record(ctx, e), postgres.ErrDuplicateTurn)
}

func TestJournalRepository_EntriesEmpty(t *testing.T) {
	repo := setupJournal(t)
	got, err := repo.Entries(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
