package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/stagerank/internal/adapters/repository"
	"github.com/okian/stagerank/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

func snap(id string, avg float64, ratings int, xp *int, at time.Time) repository.Snapshot {
	s := repository.Snapshot{
		Venue:         "The Pit",
		Scope:         model.ScopeAllTime,
		PerformerID:   id,
		AverageRating: avg,
		RatingCount:   ratings,
		TakenAt:       at,
	}
	if xp != nil {
		s.XP, s.HasXP = *xp, true
	}
	return s
}

func xp(v int) *int { return &v }

func stores(t *testing.T) map[string]repository.Store {
	t.Helper()
	sqlite, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]repository.Store{
		"memory": repository.NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestRecordSkipsUnchangedState(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			n, err := store.Record(ctx, []repository.Snapshot{
				snap("a", 4.0, 10, xp(100), t0),
				snap("b", 3.0, 2, nil, t0),
			})
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			n, err = store.Record(ctx, []repository.Snapshot{
				snap("a", 4.0, 10, xp(100), t0.Add(time.Hour)),
				snap("b", 3.5, 4, nil, t0.Add(time.Hour)),
			})
			require.NoError(t, err)
			assert.Equal(t, 1, n, "only the changed performer is written")

			count, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, count)
		})
	}
}

func TestPrevious(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Record(ctx, []repository.Snapshot{snap("a", 4.0, 10, nil, t0)})
			require.NoError(t, err)
			_, err = store.Record(ctx, []repository.Snapshot{snap("a", 4.2, 12, nil, t0.Add(time.Hour))})
			require.NoError(t, err)

			prev, err := store.Previous(ctx, "The Pit", model.ScopeAllTime, "a", 12)
			require.NoError(t, err)
			assert.Equal(t, 4.0, prev.AverageRating)
			assert.Equal(t, 10, prev.RatingCount)
			assert.True(t, prev.TakenAt.Equal(t0))

			prev, err = store.Previous(ctx, "The Pit", model.ScopeAllTime, "a", 13)
			require.NoError(t, err)
			assert.Equal(t, 12, prev.RatingCount)

			_, err = store.Previous(ctx, "The Pit", model.ScopeAllTime, "a", 10)
			assert.ErrorIs(t, err, repository.ErrNotFound)

			_, err = store.Previous(ctx, "Elsewhere", model.ScopeAllTime, "a", 99)
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestCheckpoint(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Record(ctx, []repository.Snapshot{snap("a", 4.0, 1, nil, t0)})
			require.NoError(t, err)
			_, err = store.Record(ctx, []repository.Snapshot{snap("a", 4.0, 2, xp(20), t0.Add(24*time.Hour))})
			require.NoError(t, err)
			_, err = store.Record(ctx, []repository.Snapshot{snap("a", 4.1, 5, xp(50), t0.Add(72*time.Hour))})
			require.NoError(t, err)

			cp, err := store.Checkpoint(ctx, "The Pit", model.ScopeAllTime, "a", t0.Add(48*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, 20, cp.XP, "latest at or before the checkpoint")

			cp, err = store.Checkpoint(ctx, "The Pit", model.ScopeAllTime, "a", t0.Add(-time.Hour))
			require.NoError(t, err)
			assert.Equal(t, 20, cp.XP, "earliest after when nothing precedes it")

			_, err = store.Checkpoint(ctx, "The Pit", model.ScopeToday, "a", t0)
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestFromAggregate(t *testing.T) {
	agg := model.PerformerAggregate{ID: "a", AverageRating: 4.5, RatingCount: 3, CommentCount: 1, XP: 40, HasXP: true}
	s := repository.FromAggregate("v", model.ScopeToday, agg, t0)
	assert.Equal(t, repository.Snapshot{
		Venue:         "v",
		Scope:         model.ScopeToday,
		PerformerID:   "a",
		AverageRating: 4.5,
		RatingCount:   3,
		CommentCount:  1,
		XP:            40,
		HasXP:         true,
		TakenAt:       t0,
	}, s)
}

func TestSQLitePragmas(t *testing.T) {
	store, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "pragmas.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	var mode string
	require.NoError(t, store.DB().Get(&mode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, store.DB().Get(&timeout, "PRAGMA busy_timeout"))
	assert.Equal(t, 5000, timeout)
}

func TestMemoryStoreClock(t *testing.T) {
	store := repository.NewMemoryStore(repository.WithClock(func() time.Time { return t0 }))
	_, err := store.Record(context.Background(), []repository.Snapshot{snap("a", 1, 1, xp(1), time.Time{})})
	require.NoError(t, err)
	cp, err := store.Checkpoint(context.Background(), "The Pit", model.ScopeAllTime, "a", t0)
	require.NoError(t, err)
	assert.True(t, cp.TakenAt.Equal(t0))

	require.NoError(t, store.Close())
	_, err = store.Record(context.Background(), nil)
	assert.ErrorIs(t, err, repository.ErrClosed)
}
