// Package repository keeps point-in-time snapshots of performer aggregates.
// They supply trend baselines when the backend does not send its own.
package repository

import (
	"context"
	"time"

	"github.com/okian/stagerank/internal/domain/model"
)

// Snapshot is one recorded state of a performer aggregate.
type Snapshot struct {
	Venue         string      `db:"venue"`
	Scope         model.Scope `db:"scope"`
	PerformerID   string      `db:"performer_id"`
	AverageRating float64     `db:"average_rating"`
	RatingCount   int         `db:"rating_count"`
	CommentCount  int         `db:"comment_count"`
	XP            int         `db:"xp"`
	HasXP         bool        `db:"has_xp"`
	TakenAt       time.Time   `db:"-"`
}

// FromAggregate builds a snapshot of agg.
func FromAggregate(venue string, scope model.Scope, agg model.PerformerAggregate, at time.Time) Snapshot {
	return Snapshot{
		Venue:         venue,
		Scope:         scope,
		PerformerID:   agg.ID,
		AverageRating: agg.AverageRating,
		RatingCount:   agg.RatingCount,
		CommentCount:  agg.CommentCount,
		XP:            agg.XP,
		HasXP:         agg.HasXP,
		TakenAt:       at,
	}
}

// sameState reports whether two snapshots describe identical statistics.
func sameState(a, b Snapshot) bool {
	return a.RatingCount == b.RatingCount &&
		a.CommentCount == b.CommentCount &&
		a.AverageRating == b.AverageRating &&
		a.HasXP == b.HasXP && a.XP == b.XP
}

// Store provides read/write access to snapshot history.
type Store interface {
	// Record appends each snapshot whose state differs from the latest one
	// kept for the same performer and returns how many were written.
	Record(ctx context.Context, snaps []Snapshot) (int, error)

	// Previous returns the latest snapshot with fewer than ratingCount
	// ratings. Returns ErrNotFound when there is none.
	Previous(ctx context.Context, venue string, scope model.Scope, performerID string, ratingCount int) (Snapshot, error)

	// Checkpoint returns the latest XP-bearing snapshot taken at or before
	// at, or failing that the earliest one after it. Returns ErrNotFound
	// when the performer has no XP history.
	Checkpoint(ctx context.Context, venue string, scope model.Scope, performerID string, at time.Time) (Snapshot, error)

	// Count returns the number of stored snapshots.
	Count(ctx context.Context) (int, error)

	Close() error
}
