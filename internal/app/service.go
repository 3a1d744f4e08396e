// Package service composes the backend client, the domain pipeline and the
// local stores into the operations the HTTP API exposes.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/stagerank/internal/adapters/backend"
	eventqueue "github.com/okian/stagerank/internal/adapters/mq/queue"
	workerpool "github.com/okian/stagerank/internal/adapters/mq/worker"
	"github.com/okian/stagerank/internal/adapters/repository"
	"github.com/okian/stagerank/internal/domain/dedupe"
	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/internal/session"
	"github.com/okian/stagerank/pkg/logger"
	"github.com/okian/stagerank/pkg/metrics"
)

// Backend is the subset of the backend client the service uses.
type Backend interface {
	FetchAggregates(ctx context.Context, venue string, scope model.Scope) ([]model.RawPerformerStat, error)
	FetchRoster(ctx context.Context, venue string) ([]model.Performer, error)
	FetchRaterProfile(ctx context.Context, raterEmail string) (model.RaterProfile, error)
	FetchScoutLevels(ctx context.Context) ([]model.ScoutLevel, error)
	SubmitRatings(ctx context.Context, s model.Submission) (int, error)
	FeedbackSummary(ctx context.Context, performerID, venue string, scope model.Scope) (string, error)
	VerifyToken(ctx context.Context, token string) (model.Identity, error)
	VenuesForToday(ctx context.Context) ([]string, error)
	FeedbackTags(ctx context.Context) (model.FeedbackTags, error)
	TodaysRatings(ctx context.Context, raterEmail, venue string) (map[string]int, error)
}

// Service implements the API dependencies for the rating system.
type Service struct {
	mu sync.RWMutex

	backend      Backend
	snapshots    repository.Store
	sessionStore session.Store
	sessions     *session.Manager
	deduper      dedupe.Deduper
	queue        eventqueue.Queue
	results      *workerpool.Results
	pool         *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	resultLimit int
	maxLimit    int
	epsilon     float64
	xpWindow    time.Duration
	levelsTTL   time.Duration
	retries     int
	retryDelay  time.Duration
	loc         *time.Location
	now         func() time.Time

	levels levelCache

	started bool
	logger  logger.Logger
}

// New constructs a Service over b. Call Start before submitting ratings.
func New(b Backend, opts ...Option) *Service {
	s := &Service{
		backend:     b,
		workerCount: runtime.NumCPU(),
		queueSize:   1000,
		dedupeSize:  10000,
		resultLimit: 10000,
		maxLimit:    100,
		xpWindow:    7 * 24 * time.Hour,
		levelsTTL:   5 * time.Minute,
		retries:     2,
		retryDelay:  200 * time.Millisecond,
		loc:         time.Local,
		now:         time.Now,
		logger:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.snapshots == nil {
		s.snapshots = repository.NewMemoryStore(repository.WithClock(s.now))
	}
	if s.sessionStore == nil {
		s.sessionStore = session.NewMemoryStore()
	}
	s.sessions = session.NewManager(s.sessionStore,
		session.WithLocation(s.loc),
		session.WithClock(s.now),
		session.WithLogger(s.logger),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.results = workerpool.NewResults(s.resultLimit)
	return s
}

// Start creates the submission queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting rating service...")

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.backend, s.results,
		workerpool.WithLogger(s.logger),
		workerpool.WithClock(s.now),
		workerpool.WithRetry(s.retries, s.retryDelay, retryable),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the submission queue and closes the local stores.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping rating service...")

	var firstErr error
	if err := s.pool.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := s.snapshots.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
	return firstErr
}

// retryable reports whether a failed forward is worth another attempt.
// Errors the backend reported itself are final.
func retryable(err error) bool {
	return !backend.IsRemote(err) && !isPermission(err)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"dedupeEntries":   s.deduper.Size(),
		"trackedResults":  s.results.Len(),
		"scoutLevelCount": s.levels.size(),
	}
	if n, err := s.snapshots.Count(ctx); err == nil {
		stats["snapshots"] = n
	}
	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}

// startOfDay returns local midnight of the day containing t.
func (s *Service) startOfDay(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}
