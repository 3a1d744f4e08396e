// Package ingest validates raw backend statistics and normalizes them into
// canonical performer aggregates.
package ingest

import (
	"math"
	"strings"

	"github.com/okian/stagerank/internal/domain/model"
)

const (
	minRating = 0.0
	maxRating = 5.0
)

// Validate checks a single raw record and returns the first violation found.
func Validate(raw model.RawPerformerStat) error {
	id := strings.TrimSpace(raw.ID)
	switch {
	case id == "":
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	case raw.RatingCount < 0:
		return &ValidationError{ID: id, Field: "ratingCount", Reason: "must not be negative"}
	case raw.CommentCount < 0:
		return &ValidationError{ID: id, Field: "commentCount", Reason: "must not be negative"}
	case math.IsNaN(raw.AverageRating) || math.IsInf(raw.AverageRating, 0):
		return &ValidationError{ID: id, Field: "averageRating", Reason: "must be finite"}
	case raw.AverageRating < minRating || raw.AverageRating > maxRating:
		return &ValidationError{ID: id, Field: "averageRating", Reason: "must be within [0,5]"}
	case raw.RatingCount == 0 && raw.AverageRating != 0:
		return &ValidationError{ID: id, Field: "averageRating", Reason: "must be 0 when ratingCount is 0"}
	case raw.XP != nil && *raw.XP < 0:
		return &ValidationError{ID: id, Field: "xp", Reason: "must not be negative"}
	case raw.BaselineXP != nil && *raw.BaselineXP < 0:
		return &ValidationError{ID: id, Field: "baselineXp", Reason: "must not be negative"}
	}
	if b := raw.BaselineRating; b != nil {
		if math.IsNaN(*b) || *b < minRating || *b > maxRating {
			return &ValidationError{ID: id, Field: "baselineRating", Reason: "must be within [0,5]"}
		}
	}
	return nil
}

// Normalize validates raw and converts it into a PerformerAggregate.
// Trends start out STABLE; the trend evaluator fills them in later.
func Normalize(raw model.RawPerformerStat) (model.PerformerAggregate, error) {
	if err := Validate(raw); err != nil {
		return model.PerformerAggregate{}, err
	}
	agg := model.PerformerAggregate{
		ID:            strings.TrimSpace(raw.ID),
		Name:          strings.TrimSpace(raw.Name),
		AverageRating: raw.AverageRating,
		RatingCount:   raw.RatingCount,
		CommentCount:  raw.CommentCount,
		RatingTrend:   model.TrendStable,
		XPTrend:       model.TrendStable,
	}
	if raw.XP != nil {
		agg.XP, agg.HasXP = *raw.XP, true
	}
	if raw.Bio != nil {
		agg.Bio = strings.TrimSpace(*raw.Bio)
	}
	if raw.SocialLink != nil {
		agg.SocialLink = strings.TrimSpace(*raw.SocialLink)
	}
	if raw.BaselineRating != nil {
		agg.RatingBaseline, agg.HasRatingBaseline = *raw.BaselineRating, true
	}
	if raw.BaselineXP != nil {
		agg.XPBaseline, agg.HasXPBaseline = *raw.BaselineXP, true
	}
	return agg, nil
}

// Ingest normalizes a batch and fails on the first invalid record, including
// a duplicate id. An empty batch yields an empty, non-nil slice.
func Ingest(raws []model.RawPerformerStat) ([]model.PerformerAggregate, error) {
	out := make([]model.PerformerAggregate, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		agg, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[agg.ID]; dup {
			return nil, &ValidationError{ID: agg.ID, Field: "id", Reason: "duplicate in batch"}
		}
		seen[agg.ID] = struct{}{}
		out = append(out, agg)
	}
	return out, nil
}

// IngestLenient keeps every valid record and returns the rejected ones as
// validation errors. Of two records sharing an id the first one wins.
func IngestLenient(raws []model.RawPerformerStat) ([]model.PerformerAggregate, []*ValidationError) {
	out := make([]model.PerformerAggregate, 0, len(raws))
	var rejected []*ValidationError
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		agg, err := Normalize(raw)
		if err != nil {
			rejected = append(rejected, err.(*ValidationError))
			continue
		}
		if _, dup := seen[agg.ID]; dup {
			rejected = append(rejected, &ValidationError{ID: agg.ID, Field: "id", Reason: "duplicate in batch"})
			continue
		}
		seen[agg.ID] = struct{}{}
		out = append(out, agg)
	}
	return out, rejected
}
