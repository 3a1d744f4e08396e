// Package ranking orders performer aggregates into a leaderboard.
//
// Ordering: rated performers first, then average rating DESC, then rating
// count DESC. Anything still tied keeps its input order, which makes Rank
// idempotent.
package ranking

import (
	"slices"

	"github.com/okian/stagerank/internal/domain/model"
)

// podiumSize is the number of positions that receive a tier label.
const podiumSize = 3

// Tier is the podium label for the first three rated positions.
type Tier int

// Tier values. TierNone marks every position off the podium.
const (
	TierNone Tier = iota
	TierFirst
	TierSecond
	TierThird
)

// String returns the ordinal label, or "" for TierNone.
func (t Tier) String() string {
	switch t {
	case TierFirst:
		return "1st"
	case TierSecond:
		return "2nd"
	case TierThird:
		return "3rd"
	default:
		return ""
	}
}

// Ranked is one leaderboard row.
type Ranked struct {
	Position  int // 1-based
	Tier      Tier
	Performer model.PerformerAggregate
}

// Less reports whether a ranks strictly ahead of b.
func Less(a, b model.PerformerAggregate) bool {
	return compare(a, b) < 0
}

func compare(a, b model.PerformerAggregate) int {
	// An unrated performer's average of 0 is "no data", not "worst".
	if a.Rated() != b.Rated() {
		if a.Rated() {
			return -1
		}
		return 1
	}
	switch {
	case a.AverageRating > b.AverageRating:
		return -1
	case a.AverageRating < b.AverageRating:
		return 1
	}
	switch {
	case a.RatingCount > b.RatingCount:
		return -1
	case a.RatingCount < b.RatingCount:
		return 1
	}
	return 0
}

// Rank returns a new slice with aggs in leaderboard order. The input is not
// modified. An empty input yields an empty result.
func Rank(aggs []model.PerformerAggregate) []model.PerformerAggregate {
	out := slices.Clone(aggs)
	if out == nil {
		out = []model.PerformerAggregate{}
	}
	slices.SortStableFunc(out, compare)
	return out
}

// AssignTiers labels an already ranked sequence. Only rated performers in the
// first three slots receive a tier.
func AssignTiers(ranked []model.PerformerAggregate) []Ranked {
	rows := make([]Ranked, len(ranked))
	for i, p := range ranked {
		rows[i] = Ranked{Position: i + 1, Performer: p}
		if i < podiumSize && p.Rated() {
			rows[i].Tier = Tier(i + 1)
		}
	}
	return rows
}

// Leaderboard ranks aggs and assigns podium tiers in one step.
func Leaderboard(aggs []model.PerformerAggregate) []Ranked {
	return AssignTiers(Rank(aggs))
}
