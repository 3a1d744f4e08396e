// Package board composes ingestion output, ranking, hype and trends into the
// read shapes shown to clients. Every function is pure.
package board

import (
	"github.com/okian/stagerank/internal/domain/hype"
	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/internal/domain/ranking"
	"github.com/okian/stagerank/internal/domain/trend"
	"github.com/okian/stagerank/internal/domain/types"
)

// minCommentsForSummary is the comment count needed before a feedback
// summary can be requested.
const minCommentsForSummary = 2

// CanSummarize reports whether agg has enough comments for a summary.
func CanSummarize(agg model.PerformerAggregate) bool {
	return agg.CommentCount >= minCommentsForSummary
}

// Prepare applies trends to a copy of cards. The input is left untouched.
func Prepare(cards []model.PerformerCard, epsilon float64) []model.PerformerCard {
	out := make([]model.PerformerCard, len(cards))
	for i, c := range cards {
		if c.Today != nil {
			t := *c.Today
			c.Today = &t
		}
		trend.ApplyCard(&c, epsilon)
		out[i] = c
	}
	return out
}

// ScopeAggregates extracts the aggregates for scope from prepared cards.
// For today, performers with no record tonight appear as unrated entries.
func ScopeAggregates(cards []model.PerformerCard, scope model.Scope) []model.PerformerAggregate {
	aggs := make([]model.PerformerAggregate, 0, len(cards))
	for _, c := range cards {
		if scope == model.ScopeAllTime {
			aggs = append(aggs, withDisplay(c.AllTime, c))
			continue
		}
		if c.Today != nil {
			aggs = append(aggs, withDisplay(*c.Today, c))
			continue
		}
		aggs = append(aggs, model.PerformerAggregate{
			ID:          c.ID,
			Name:        c.Name,
			Bio:         c.Bio,
			SocialLink:  c.SocialLink,
			RatingTrend: model.TrendStable,
			XPTrend:     model.TrendStable,
		})
	}
	return aggs
}

// Leaderboard ranks prepared cards for scope and returns at most limit rows.
// A limit <= 0 returns every row.
func Leaderboard(cards []model.PerformerCard, scope model.Scope, limit int) []types.Entry {
	aggs := ScopeAggregates(cards, scope)
	maxCount := hype.MaxCount(aggs)
	rows := ranking.Leaderboard(aggs)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	entries := make([]types.Entry, len(rows))
	for i, r := range rows {
		p := r.Performer
		entries[i] = types.Entry{
			Rank:          r.Position,
			Tier:          r.Tier.String(),
			PerformerID:   p.ID,
			Name:          p.Name,
			AverageRating: p.AverageRating,
			RatingCount:   p.RatingCount,
			CommentCount:  p.CommentCount,
			XP:            xpPtr(p),
			Hype:          hype.Intensity(p.RatingCount, maxCount),
			RatingTrend:   p.RatingTrend,
			XPTrend:       p.XPTrend,
			Bio:           p.Bio,
			SocialLink:    p.SocialLink,
		}
	}
	return entries
}

// Cards renders prepared cards in their given (running) order, each with
// hype for both scopes and tonight's podium tier.
func Cards(cards []model.PerformerCard) []types.Card {
	today := ScopeAggregates(cards, model.ScopeToday)
	allTime := ScopeAggregates(cards, model.ScopeAllTime)
	maxToday := hype.MaxCount(today)
	maxAllTime := hype.MaxCount(allTime)

	tiers := make(map[string]string, len(cards))
	for _, r := range ranking.Leaderboard(today) {
		if r.Tier != ranking.TierNone {
			tiers[r.Performer.ID] = r.Tier.String()
		}
	}

	out := make([]types.Card, len(cards))
	for i, c := range cards {
		out[i] = types.Card{
			PerformerID: c.ID,
			Name:        c.Name,
			Bio:         c.Bio,
			SocialLink:  c.SocialLink,
			TodayTier:   tiers[c.ID],
			AllTime:     scopeStats(c.AllTime, maxAllTime),
			CanSummary:  CanSummarize(c.AllTime),
		}
		if c.Today != nil {
			st := scopeStats(*c.Today, maxToday)
			out[i].Today = &st
		}
	}
	return out
}

func scopeStats(a model.PerformerAggregate, maxCount int) types.ScopeStats {
	return types.ScopeStats{
		AverageRating: a.AverageRating,
		RatingCount:   a.RatingCount,
		CommentCount:  a.CommentCount,
		XP:            xpPtr(a),
		Hype:          hype.Intensity(a.RatingCount, maxCount),
		RatingTrend:   a.RatingTrend,
		XPTrend:       a.XPTrend,
	}
}

func xpPtr(a model.PerformerAggregate) *int {
	if !a.HasXP {
		return nil
	}
	xp := a.XP
	return &xp
}

func withDisplay(a model.PerformerAggregate, c model.PerformerCard) model.PerformerAggregate {
	if a.Name == "" {
		a.Name = c.Name
	}
	if a.Bio == "" {
		a.Bio = c.Bio
	}
	if a.SocialLink == "" {
		a.SocialLink = c.SocialLink
	}
	return a
}
