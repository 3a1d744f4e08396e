// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"strings"
)

// Scope selects which leaderboard view an aggregate belongs to.
type Scope string

// Supported scopes.
const (
	ScopeToday   Scope = "today"
	ScopeAllTime Scope = "all-time"
)

// ErrUnknownScope is returned by ParseScope for unsupported values.
var ErrUnknownScope = errors.New("unknown scope")

// ParseScope accepts "today", "all-time" and the "alltime"/"all_time" spellings.
// An empty string selects today.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return ScopeToday, nil
	case "all-time", "alltime", "all_time":
		return ScopeAllTime, nil
	default:
		return "", ErrUnknownScope
	}
}

// Trend is the tri-state direction indicator shown next to ratings and XP.
type Trend string

// Trend values.
const (
	TrendUp     Trend = "UP"
	TrendDown   Trend = "DOWN"
	TrendStable Trend = "STABLE"
)

// PerformerAggregate is the canonical per-performer, per-scope statistics record.
//
// Optional values are carried with explicit Has* flags so that "absent" and
// "zero" never collapse into each other.
type PerformerAggregate struct {
	ID            string
	Name          string
	AverageRating float64 // 0 when RatingCount == 0
	RatingCount   int
	CommentCount  int

	XP    int
	HasXP bool

	Bio        string // "" when absent
	SocialLink string // "" when absent

	// Baselines used by the trend evaluator.
	RatingBaseline    float64
	HasRatingBaseline bool
	XPBaseline        int
	HasXPBaseline     bool

	RatingTrend Trend
	XPTrend     Trend
}

// Rated reports whether the performer has at least one rating in scope.
func (a PerformerAggregate) Rated() bool { return a.RatingCount > 0 }

// PerformerCard joins a performer's today and all-time aggregates.
// Today is nil when the performer has no record for the current night.
type PerformerCard struct {
	ID         string
	Name       string
	Bio        string
	SocialLink string
	Today      *PerformerAggregate
	AllTime    PerformerAggregate
}

// Performer is a roster entry for tonight's running order.
type Performer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Bio        string `json:"bio,omitempty"`
	SocialLink string `json:"socialLink,omitempty"`
	SetTime    string `json:"setTime,omitempty"`
}
