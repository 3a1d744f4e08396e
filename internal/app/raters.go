package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/stagerank/internal/domain/ingest"
	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/internal/domain/scout"
	"github.com/okian/stagerank/internal/session"
	"github.com/okian/stagerank/pkg/logger"
	"github.com/okian/stagerank/pkg/metrics"
)

// levelCache holds the last valid scout level table.
type levelCache struct {
	mu        sync.Mutex
	levels    []model.ScoutLevel
	fetchedAt time.Time
	loaded    bool
}

func (c *levelCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.levels)
}

// RaterStatus is a rater's cumulative stats with their resolved tier.
type RaterStatus struct {
	Profile model.RaterProfile `json:"profile"`
	Scout   scout.Status       `json:"scout"`
}

// ScoutLevels returns the scout level table, refetching it once the cached
// copy is older than the TTL. A fetch failure or an invalid table keeps the
// last good one; with none loaded yet the table is empty.
func (s *Service) ScoutLevels(ctx context.Context) []model.ScoutLevel {
	c := &s.levels
	c.mu.Lock()
	defer c.mu.Unlock()

	now := s.now()
	if c.loaded && now.Sub(c.fetchedAt) < s.levelsTTL {
		return c.levels
	}

	levels, err := s.backend.FetchScoutLevels(ctx)
	switch {
	case err != nil:
		metrics.RecordLevelReload("error")
		s.logger.Warn(ctx, "fetching scout levels failed", logger.Error(err))
	default:
		if verr := ingest.ValidateLevels(levels); verr != nil {
			metrics.RecordLevelReload("invalid")
			s.logger.Error(ctx, "rejecting scout level table", logger.Error(verr))
		} else {
			metrics.RecordLevelReload("ok")
			c.levels = append([]model.ScoutLevel(nil), levels...)
		}
	}
	// Failures are not retried until the TTL passes either.
	c.fetchedAt, c.loaded = now, true
	return c.levels
}

// ScoutStatus resolves the tier of the rater with the given email.
func (s *Service) ScoutStatus(ctx context.Context, raterEmail string) (RaterStatus, error) {
	raterEmail = strings.TrimSpace(raterEmail)
	if raterEmail == "" {
		return RaterStatus{}, fmt.Errorf("%w: rater email is required", ErrInvalidArgument)
	}
	profile, err := s.backend.FetchRaterProfile(ctx, raterEmail)
	if err != nil {
		return RaterStatus{}, err
	}
	return RaterStatus{Profile: profile, Scout: scout.Resolve(profile.TotalSP, s.ScoutLevels(ctx))}, nil
}

// PreviewScout resolves the tier a total of sp points would reach.
func (s *Service) PreviewScout(ctx context.Context, sp int) scout.Status {
	return scout.Resolve(sp, s.ScoutLevels(ctx))
}

// Login exchanges a login token for a session lasting until the end of the day.
func (s *Service) Login(ctx context.Context, token string) (session.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return session.Session{}, fmt.Errorf("%w: token is required", ErrInvalidArgument)
	}
	id, err := s.backend.VerifyToken(ctx, token)
	if err != nil {
		return session.Session{}, err
	}
	return s.sessions.Begin(ctx, id)
}

// Session returns the live session with the given id.
func (s *Service) Session(ctx context.Context, id string) (session.Session, error) {
	return s.sessions.Resume(ctx, id)
}

// UpdateSession changes the display name on a session. The verified email,
// venue and expiry are unchanged.
func (s *Service) UpdateSession(ctx context.Context, id, firstName, lastName string) (session.Session, error) {
	return s.sessions.Update(ctx, id, firstName, lastName)
}

// Logout ends a session.
func (s *Service) Logout(ctx context.Context, id string) error {
	return s.sessions.End(ctx, id)
}

// TodaysRatings returns the stars the session's rater already gave tonight.
func (s *Service) TodaysRatings(ctx context.Context, sess session.Session) (map[string]int, error) {
	return s.backend.TodaysRatings(ctx, sess.Email, sess.Venue)
}
