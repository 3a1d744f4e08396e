// Package worker forwards queued rating submissions to the backend.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/pkg/logger"
	"github.com/okian/stagerank/pkg/metrics"
)

const (
	defaultRetryDelay   = 200 * time.Millisecond
	poolShutdownTimeout = 30 * time.Second
)

// Submitter forwards a submission and returns the scout points it earned.
type Submitter interface {
	SubmitRatings(ctx context.Context, s model.Submission) (int, error)
}

// Recorder keeps the outcome of each submission.
type Recorder interface {
	Record(ctx context.Context, r model.SubmissionResult)
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Submission
}

// Worker processes submissions until its queue is drained.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	submitter Submitter
	recorder  Recorder
	name      string

	retries    int
	retryDelay time.Duration
	retryable  func(error) bool
	now        func() time.Time

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(queue Queue, submitter Submitter, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		submitter:  submitter,
		recorder:   recorder,
		name:       "worker",
		retryDelay: defaultRetryDelay,
		retryable:  func(error) bool { return false },
		now:        time.Now,
		done:       make(chan struct{}),
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)
	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-items:
			if !ok {
				return
			}
			w.process(ctx, s)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, s model.Submission) {
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	points, err := w.submit(ctx, s)
	result := model.SubmissionResult{ID: s.ID, UpdatedAt: w.now()}
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordSubmission("failed")
		metrics.RecordErrorByComponent("worker", "submit_failed")
		w.logger.Error(ctx, "submission failed",
			logger.String("submission", s.ID),
			logger.String("venue", s.Venue),
			logger.Error(err),
		)
		result.State = model.SubmissionFailed
		result.Error = err.Error()
	} else {
		metrics.RecordSubmission("accepted")
		metrics.RecordPointsAwarded(points)
		w.logger.Debug(ctx, "submission accepted", logger.String("submission", s.ID), logger.Int("points", points))
		result.State = model.SubmissionAccepted
		result.PointsEarned = points
	}
	if !s.ReceivedAt.IsZero() {
		metrics.RecordSubmissionLatency(float64(w.now().Sub(s.ReceivedAt).Milliseconds()))
	}
	w.recorder.Record(ctx, result)
}

func (w *InMemoryWorker) submit(ctx context.Context, s model.Submission) (int, error) {
	var err error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, fmt.Errorf("submission %s: %w", s.ID, ctx.Err())
			case <-time.After(w.retryDelay * time.Duration(attempt)):
			}
		}
		var points int
		points, err = w.submitter.SubmitRatings(ctx, s)
		if err == nil {
			return points, nil
		}
		if !w.retryable(err) {
			break
		}
	}
	return 0, err
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	once    sync.Once
	logger  logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 is treated as 1.
func NewPool(workerCount int, queue Queue, submitter Submitter, recorder Recorder, opts ...Option) *Pool {
	workerCount = max(1, workerCount)
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.NewNop(),
	}
	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, submitter, recorder, wopts...)
	}
	if len(pool.workers) > 0 {
		pool.logger = pool.workers[0].logger
	}
	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() {
		if closer, ok := p.queue.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				p.logger.Error(ctx, "error closing queue", logger.Error(err))
			}
		}
	})

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
		}
	}
	return nil
}
