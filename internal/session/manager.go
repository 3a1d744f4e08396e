package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/pkg/logger"
	"github.com/okian/stagerank/pkg/metrics"
)

// Manager applies the daily session lifecycle on top of a Store.
type Manager struct {
	store Store
	loc   *time.Location
	now   func() time.Time
	newID func() string
	log   logger.Logger
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithLocation sets the zone whose midnight ends a session.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) {
		if loc != nil {
			m.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the manager logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// NewManager creates a Manager backed by store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		loc:   time.Local,
		now:   time.Now,
		newID: uuid.NewString,
		log:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin starts a new session for id that expires at the end of today.
func (m *Manager) Begin(ctx context.Context, id model.Identity) (Session, error) {
	if !validIdentity(id) {
		return Session{}, fmt.Errorf("%w: email and venue are required", ErrInvalid)
	}
	now := m.now()
	s := Session{
		ID:        m.newID(),
		Email:     strings.TrimSpace(id.Email),
		Venue:     strings.TrimSpace(id.Venue),
		FirstName: strings.TrimSpace(id.FirstName),
		LastName:  strings.TrimSpace(id.LastName),
		CreatedAt: now,
		ExpiresAt: EndOfDay(now, m.loc),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, err
	}
	metrics.RecordSessionEvent("begin")
	m.log.Info(ctx, "session started", logger.String("session", s.ID), logger.String("venue", s.Venue))
	return s, nil
}

// Resume loads a live session. An expired session is cleared and reported
// as ErrExpired.
func (m *Manager) Resume(ctx context.Context, id string) (Session, error) {
	s, err := m.store.Load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if s.Expired(m.now()) {
		if err := m.store.Clear(ctx, id); err != nil {
			m.log.Warn(ctx, "clear expired session failed", logger.String("session", id), logger.Error(err))
		}
		metrics.RecordSessionEvent("expired")
		return Session{}, ErrExpired
	}
	metrics.RecordSessionEvent("resume")
	return s, nil
}

// Update changes the rater's display name on a live session. Email and venue
// stay as verified at Begin, and so does the expiry.
func (m *Manager) Update(ctx context.Context, id, firstName, lastName string) (Session, error) {
	s, err := m.Resume(ctx, id)
	if err != nil {
		return Session{}, err
	}
	s.FirstName = strings.TrimSpace(firstName)
	s.LastName = strings.TrimSpace(lastName)
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, err
	}
	metrics.RecordSessionEvent("update")
	return s, nil
}

// End clears a session. Ending an unknown session is not an error.
func (m *Manager) End(ctx context.Context, id string) error {
	if err := m.store.Clear(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	metrics.RecordSessionEvent("clear")
	return nil
}
