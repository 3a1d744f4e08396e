package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/stagerank/internal/adapters/backend"
	"github.com/okian/stagerank/internal/adapters/repository"
	"github.com/okian/stagerank/internal/domain/board"
	"github.com/okian/stagerank/internal/domain/ingest"
	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/internal/domain/types"
	"github.com/okian/stagerank/pkg/logger"
	"github.com/okian/stagerank/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Leaderboard ranks venue's performers for scope. A limit <= 0 or above the
// configured maximum is clamped to the maximum.
func (s *Service) Leaderboard(ctx context.Context, venue string, scope model.Scope, limit int) ([]types.Entry, error) {
	start := time.Now()
	cards, err := s.cards(ctx, venue)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}
	entries := board.Leaderboard(cards, scope, limit)
	metrics.RecordLeaderboardBuild(string(scope), float64(time.Since(start).Microseconds())/1000, len(entries))
	return entries, nil
}

// Performers returns tonight's roster cards for venue in running order.
func (s *Service) Performers(ctx context.Context, venue string) ([]types.Card, error) {
	cards, err := s.cards(ctx, venue)
	if err != nil {
		return nil, err
	}
	return board.Cards(cards), nil
}

// FeedbackSummary returns the backend's comment summary for a performer once
// it has at least two comments in scope.
func (s *Service) FeedbackSummary(ctx context.Context, venue, performerID string, scope model.Scope) (string, error) {
	venue, performerID = strings.TrimSpace(venue), strings.TrimSpace(performerID)
	if venue == "" || performerID == "" {
		return "", fmt.Errorf("%w: venue and performer are required", ErrInvalidArgument)
	}
	aggs, err := s.fetchScope(ctx, venue, scope)
	if err != nil {
		return "", err
	}
	for _, agg := range aggs {
		if agg.ID != performerID {
			continue
		}
		if !board.CanSummarize(agg) {
			return "", ErrNotEnoughFeedback
		}
		return s.backend.FeedbackSummary(ctx, performerID, venue, scope)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPerformer, performerID)
}

// cards fetches both scopes and the roster in parallel, fills missing trend
// baselines from snapshot history and returns prepared cards.
func (s *Service) cards(ctx context.Context, venue string) ([]model.PerformerCard, error) {
	venue = strings.TrimSpace(venue)
	if venue == "" {
		return nil, fmt.Errorf("%w: venue is required", ErrInvalidArgument)
	}

	var (
		today, allTime []model.PerformerAggregate
		roster         []model.Performer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		today, err = s.fetchScope(gctx, venue, model.ScopeToday)
		return err
	})
	g.Go(func() (err error) {
		allTime, err = s.fetchScope(gctx, venue, model.ScopeAllTime)
		return err
	})
	g.Go(func() (err error) {
		roster, err = s.backend.FetchRoster(gctx, venue)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cards := ingest.WithRoster(ingest.Merge(today, allTime), roster)
	now := s.now()
	s.fillBaselines(ctx, venue, cards, now)
	s.recordSnapshots(ctx, venue, cards, now)
	return board.Prepare(cards, s.epsilon), nil
}

// fetchScope fetches and ingests one scope. Invalid records are dropped and
// logged so one bad row does not take the board down.
func (s *Service) fetchScope(ctx context.Context, venue string, scope model.Scope) ([]model.PerformerAggregate, error) {
	raws, err := s.backend.FetchAggregates(ctx, venue, scope)
	if err != nil {
		return nil, err
	}
	aggs, rejected := ingest.IngestLenient(raws)
	for _, r := range rejected {
		metrics.RecordIngestRejected(string(scope), r.Field)
		s.logger.Warn(ctx, "dropping invalid performer record",
			logger.String("venue", venue),
			logger.String("scope", string(scope)),
			logger.String("performer_id", r.ID),
			logger.String("field", r.Field),
			logger.String("reason", r.Reason),
		)
	}
	metrics.RecordIngest(string(scope), len(aggs))
	return aggs, nil
}

// fillBaselines supplies the baselines the backend left out. The all-time
// rating baseline is the previous snapshot with fewer ratings; XP baselines
// are checkpoints at the start of tonight and at the start of the XP window.
func (s *Service) fillBaselines(ctx context.Context, venue string, cards []model.PerformerCard, now time.Time) {
	start := time.Now()
	defer func() {
		metrics.RecordSnapshotQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	dayStart := s.startOfDay(now)
	windowStart := now.Add(-s.xpWindow)
	for i := range cards {
		c := &cards[i]
		at := &c.AllTime
		if at.Rated() && !at.HasRatingBaseline {
			if snap, ok := s.lookup(ctx, func() (repository.Snapshot, error) {
				return s.snapshots.Previous(ctx, venue, model.ScopeAllTime, c.ID, at.RatingCount)
			}); ok {
				at.RatingBaseline, at.HasRatingBaseline = snap.AverageRating, true
			}
		}
		if at.HasXP && !at.HasXPBaseline {
			if snap, ok := s.checkpoint(ctx, venue, c.ID, windowStart); ok {
				at.XPBaseline, at.HasXPBaseline = snap.XP, true
			}
		}
		if t := c.Today; t != nil && t.HasXP && !t.HasXPBaseline {
			if snap, ok := s.checkpoint(ctx, venue, c.ID, dayStart); ok {
				t.XPBaseline, t.HasXPBaseline = snap.XP, true
			}
		}
	}
}

func (s *Service) checkpoint(ctx context.Context, venue, id string, at time.Time) (repository.Snapshot, bool) {
	return s.lookup(ctx, func() (repository.Snapshot, error) {
		return s.snapshots.Checkpoint(ctx, venue, model.ScopeAllTime, id, at)
	})
}

func (s *Service) lookup(ctx context.Context, query func() (repository.Snapshot, error)) (repository.Snapshot, bool) {
	snap, err := query()
	switch {
	case err == nil:
		return snap, true
	case errors.Is(err, repository.ErrNotFound):
	default:
		metrics.RecordErrorByComponent("snapshots", "query")
		s.logger.Warn(ctx, "snapshot lookup failed", logger.Error(err))
	}
	return repository.Snapshot{}, false
}

// recordSnapshots appends the current all-time state of every card.
func (s *Service) recordSnapshots(ctx context.Context, venue string, cards []model.PerformerCard, now time.Time) {
	snaps := make([]repository.Snapshot, 0, len(cards))
	for _, c := range cards {
		if !c.AllTime.Rated() && !c.AllTime.HasXP {
			continue
		}
		snaps = append(snaps, repository.FromAggregate(venue, model.ScopeAllTime, c.AllTime, now))
	}
	if len(snaps) == 0 {
		return
	}
	n, err := s.snapshots.Record(ctx, snaps)
	if err != nil {
		metrics.RecordErrorByComponent("snapshots", "record")
		s.logger.Warn(ctx, "recording snapshots failed", logger.String("venue", venue), logger.Error(err))
		return
	}
	metrics.RecordSnapshotWrites(n)
}

// Venues lists the venues with a show tonight.
func (s *Service) Venues(ctx context.Context) ([]string, error) {
	return s.backend.VenuesForToday(ctx)
}

// Tags returns the selectable feedback tags.
func (s *Service) Tags(ctx context.Context) (model.FeedbackTags, error) {
	return s.backend.FeedbackTags(ctx)
}

func isPermission(err error) bool {
	return errors.Is(err, backend.ErrPermission)
}
