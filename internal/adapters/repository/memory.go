package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/stagerank/internal/domain/model"
)

type seriesKey struct {
	venue       string
	scope       model.Scope
	performerID string
}

// MemoryStore keeps snapshot history in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	series map[seriesKey][]Snapshot
	count  int
	closed bool
	opts   settings
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{series: make(map[seriesKey][]Snapshot), opts: newSettings(opts)}
}

func (s *MemoryStore) Record(_ context.Context, snaps []Snapshot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	written := 0
	for _, snap := range snaps {
		if snap.TakenAt.IsZero() {
			snap.TakenAt = s.opts.now()
		}
		k := seriesKey{snap.Venue, snap.Scope, snap.PerformerID}
		hist := s.series[k]
		if n := len(hist); n > 0 && sameState(hist[n-1], snap) {
			continue
		}
		s.series[k] = append(hist, snap)
		written++
	}
	s.count += written
	return written, nil
}

func (s *MemoryStore) Previous(_ context.Context, venue string, scope model.Scope, performerID string, ratingCount int) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hist := s.series[seriesKey{venue, scope, performerID}]
	for i := len(hist) - 1; i >= 0; i-- {
		if hist[i].RatingCount < ratingCount {
			return hist[i], nil
		}
	}
	return Snapshot{}, ErrNotFound
}

func (s *MemoryStore) Checkpoint(_ context.Context, venue string, scope model.Scope, performerID string, at time.Time) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	before, after := -1, -1
	hist := s.series[seriesKey{venue, scope, performerID}]
	for i, snap := range hist {
		if !snap.HasXP {
			continue
		}
		if !snap.TakenAt.After(at) {
			before = i
		} else if after < 0 {
			after = i
		}
	}
	switch {
	case before >= 0:
		return hist[before], nil
	case after >= 0:
		return hist[after], nil
	}
	return Snapshot{}, ErrNotFound
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
