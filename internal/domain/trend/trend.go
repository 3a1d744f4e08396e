// Package trend derives UP/DOWN/STABLE indicators by comparing a current
// value with a baseline.
package trend

import (
	"math"

	"github.com/okian/stagerank/internal/domain/model"
)

// Evaluate compares current with baseline. Differences within epsilon are
// STABLE; a negative or NaN epsilon is treated as 0.
func Evaluate(current, baseline, epsilon float64) model.Trend {
	if math.IsNaN(epsilon) || epsilon < 0 {
		epsilon = 0
	}
	switch {
	case current > baseline+epsilon:
		return model.TrendUp
	case current < baseline-epsilon:
		return model.TrendDown
	default:
		return model.TrendStable
	}
}

// Rating evaluates a rating trend for an aggregate against baseline. Unrated
// performers and unknown baselines are always STABLE.
func Rating(agg model.PerformerAggregate, baseline float64, hasBaseline bool, epsilon float64) model.Trend {
	if !agg.Rated() || !hasBaseline {
		return model.TrendStable
	}
	return Evaluate(agg.AverageRating, baseline, epsilon)
}

// XP evaluates the XP trend of agg against its own XP checkpoint.
func XP(agg model.PerformerAggregate, epsilon float64) model.Trend {
	if !agg.Rated() || !agg.HasXP || !agg.HasXPBaseline {
		return model.TrendStable
	}
	return Evaluate(float64(agg.XP), float64(agg.XPBaseline), epsilon)
}

// ApplyAllTime fills the all-time rating and XP trends in place. The rating
// baseline is the previous all-time average snapshot.
func ApplyAllTime(agg *model.PerformerAggregate, epsilon float64) {
	agg.RatingTrend = Rating(*agg, agg.RatingBaseline, agg.HasRatingBaseline, epsilon)
	agg.XPTrend = XP(*agg, epsilon)
}

// ApplyToday fills today's trends in place. The rating baseline is the
// performer's all-time average; a zero-rated all-time record is no baseline.
func ApplyToday(today *model.PerformerAggregate, allTime model.PerformerAggregate, epsilon float64) {
	today.RatingTrend = Rating(*today, allTime.AverageRating, allTime.Rated(), epsilon)
	today.XPTrend = XP(*today, epsilon)
}

// ApplyCard fills the trends of both scopes of a merged card.
func ApplyCard(card *model.PerformerCard, epsilon float64) {
	ApplyAllTime(&card.AllTime, epsilon)
	if card.Today != nil {
		ApplyToday(card.Today, card.AllTime, epsilon)
	}
}
