package service

import (
	"time"

	"github.com/okian/stagerank/internal/adapters/repository"
	"github.com/okian/stagerank/internal/session"
	"github.com/okian/stagerank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of submission workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithResultLimit sets how many submission results are kept for status queries.
func WithResultLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.resultLimit = limit
		}
	}
}

// WithMaxLeaderboardLimit caps the rows a leaderboard query may return.
func WithMaxLeaderboardLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLimit = limit
		}
	}
}

// WithTrendEpsilon sets the tolerance under which a trend stays STABLE.
func WithTrendEpsilon(eps float64) Option {
	return func(s *Service) {
		if eps >= 0 {
			s.epsilon = eps
		}
	}
}

// WithXPWindow sets how far back the all-time XP checkpoint lies.
func WithXPWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.xpWindow = d
		}
	}
}

// WithLevelsTTL sets how long a fetched scout level table is reused.
func WithLevelsTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.levelsTTL = d
		}
	}
}

// WithSubmitRetry retries transport failures when forwarding submissions.
func WithSubmitRetry(n int, delay time.Duration) Option {
	return func(s *Service) {
		if n >= 0 {
			s.retries = n
		}
		if delay > 0 {
			s.retryDelay = delay
		}
	}
}

// WithSnapshotStore sets the store used for trend baselines.
func WithSnapshotStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.snapshots = store
		}
	}
}

// WithSessionStore sets where rater sessions are kept.
func WithSessionStore(store session.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.sessionStore = store
		}
	}
}

// WithLocation sets the zone that decides where a night starts and ends.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
