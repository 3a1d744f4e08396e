// Package hype computes the presentational "hype" percentage: how many
// ratings a performer has relative to the most-rated performer in scope.
package hype

import (
	"math"

	"github.com/okian/stagerank/internal/domain/model"
)

const fullScale = 100

// Intensity returns count as a rounded percentage of max(1, maxCount, count).
// The result is always within [0,100].
func Intensity(count, maxCount int) int {
	if count <= 0 {
		return 0
	}
	effectiveMax := max(1, maxCount, count)
	pct := math.Round(fullScale * float64(count) / float64(effectiveMax))
	return int(math.Min(fullScale, pct))
}

// MaxCount returns the highest rating count in aggs, or 0 for an empty set.
func MaxCount(aggs []model.PerformerAggregate) int {
	m := 0
	for _, a := range aggs {
		if a.RatingCount > m {
			m = a.RatingCount
		}
	}
	return m
}
