// Package types contains the read shapes returned to API clients.
package types

import "github.com/okian/stagerank/internal/domain/model"

// Entry represents a leaderboard row.
type Entry struct {
	Rank          int         `json:"rank"`
	Tier          string      `json:"tier,omitempty"`
	PerformerID   string      `json:"performer_id"`
	Name          string      `json:"name"`
	AverageRating float64     `json:"average_rating"`
	RatingCount   int         `json:"rating_count"`
	CommentCount  int         `json:"comment_count"`
	XP            *int        `json:"xp,omitempty"`
	Hype          int         `json:"hype"`
	RatingTrend   model.Trend `json:"rating_trend"`
	XPTrend       model.Trend `json:"xp_trend"`
	Bio           string      `json:"bio,omitempty"`
	SocialLink    string      `json:"social_link,omitempty"`
}

// ScopeStats is one scope's view of a performer on a roster card.
type ScopeStats struct {
	AverageRating float64     `json:"average_rating"`
	RatingCount   int         `json:"rating_count"`
	CommentCount  int         `json:"comment_count"`
	XP            *int        `json:"xp,omitempty"`
	Hype          int         `json:"hype"`
	RatingTrend   model.Trend `json:"rating_trend"`
	XPTrend       model.Trend `json:"xp_trend"`
}

// Card is a roster card combining tonight's and all-time stats.
type Card struct {
	PerformerID string      `json:"performer_id"`
	Name        string      `json:"name"`
	Bio         string      `json:"bio,omitempty"`
	SocialLink  string      `json:"social_link,omitempty"`
	TodayTier   string      `json:"today_tier,omitempty"`
	Today       *ScopeStats `json:"today,omitempty"`
	AllTime     ScopeStats  `json:"all_time"`
	CanSummary  bool        `json:"can_summarize"`
}
