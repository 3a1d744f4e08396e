package loadgen

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/okian/stagerank/pkg/logger"
)

// expectedCounts adds every accepted rating to the pre-run counts.
func expectedCounts(p *plan, results []outcome) map[string]map[string]int {
	want := make(map[string]map[string]int, len(p.baseline))
	for venue, counts := range p.baseline {
		want[venue] = make(map[string]int, len(counts))
		for id, n := range counts {
			want[venue][id] = n
		}
	}
	for _, r := range results {
		if r.state != resultAccepted {
			continue
		}
		for _, rating := range r.sub.Ratings {
			want[r.sub.Venue][rating.PerformerID]++
		}
	}
	return want
}

// verifyBoards fetches tonight's board for every venue and checks it against
// the expected rating counts and the ranking rules.
func verifyBoards(ctx context.Context, c *HTTPClient, want map[string]map[string]int, stats *Stats) error {
	var errs []error
	for venue, counts := range want {
		var entries []Entry
		if err := c.get(ctx, "/leaderboard?scope=today&venue="+url.QueryEscape(venue), "", &entries); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := verifyLeaderboardConsistency(entries); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", venue, err))
			continue
		}
		for _, e := range entries {
			if n := counts[e.PerformerID]; n != e.RatingCount {
				errs = append(errs, fmt.Errorf("%s: performer %s has %d ratings tonight, want %d", venue, e.PerformerID, e.RatingCount, n))
			}
		}
		stats.VenuesVerified++
		displayTopPerformers(ctx, venue, entries)
	}
	return errors.Join(errs...)
}

// verifyLeaderboardConsistency checks ranks, order and podium tiers.
func verifyLeaderboardConsistency(entries []Entry) error {
	for i, e := range entries {
		if e.Rank != i+1 {
			return fmt.Errorf("entry %d has rank %d", i, e.Rank)
		}
		rated := e.RatingCount > 0
		switch {
		case i < podiumSize && rated && e.Tier == "":
			return fmt.Errorf("rated entry %d has no tier", i)
		case (i >= podiumSize || !rated) && e.Tier != "":
			return fmt.Errorf("entry %d has unexpected tier %q", i, e.Tier)
		}
		if i == 0 {
			continue
		}
		prev := entries[i-1]
		if aheadOf(e, prev) {
			return fmt.Errorf("leaderboard not properly sorted: entry %d ranks ahead of entry %d", i, i-1)
		}
	}
	return nil
}

// aheadOf reports whether a should rank strictly before b.
func aheadOf(a, b Entry) bool {
	aRated, bRated := a.RatingCount > 0, b.RatingCount > 0
	if aRated != bRated {
		return aRated
	}
	if a.AverageRating != b.AverageRating {
		return a.AverageRating > b.AverageRating
	}
	return a.RatingCount > b.RatingCount
}

func displayTopPerformers(ctx context.Context, venue string, entries []Entry) {
	n := min(len(entries), podiumSize)
	for _, e := range entries[:n] {
		logger.Get().Info(ctx, "top performer",
			logger.String("venue", venue),
			logger.Int("rank", e.Rank),
			logger.String("performer_id", e.PerformerID),
			logger.Float64("average", e.AverageRating),
			logger.Int("ratings", e.RatingCount))
	}
}
