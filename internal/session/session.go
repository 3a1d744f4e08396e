// Package session keeps rater logins for the rest of the day they were made.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/okian/stagerank/internal/domain/model"
)

// Session is a logged-in rater. It is valid until ExpiresAt inclusive.
type Session struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Venue     string    `json:"venue" db:"venue"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	CreatedAt time.Time `json:"createdAt" db:"-"`
	ExpiresAt time.Time `json:"expiresAt" db:"-"`
}

// Identity returns the rater identity held by s.
func (s Session) Identity() model.Identity {
	return model.Identity{Email: s.Email, Venue: s.Venue, FirstName: s.FirstName, LastName: s.LastName}
}

// Expired reports whether s is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store persists sessions by id.
type Store interface {
	// Load returns ErrNotFound for unknown ids.
	Load(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
	// Clear removes id; clearing an unknown id is not an error.
	Clear(ctx context.Context, id string) error
}

// EndOfDay returns 23:59:59.999 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}

func validIdentity(id model.Identity) bool {
	return strings.TrimSpace(id.Email) != "" && strings.TrimSpace(id.Venue) != ""
}
