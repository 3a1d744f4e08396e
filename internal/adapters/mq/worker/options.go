package worker

import (
	"time"

	"github.com/okian/stagerank/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithRetry retries a failed submission up to n more times when retryable
// reports true, waiting delay*attempt between tries.
func WithRetry(n int, delay time.Duration, retryable func(error) bool) Option {
	return func(w *InMemoryWorker) {
		if n > 0 && retryable != nil {
			w.retries = n
			w.retryable = retryable
		}
		if delay > 0 {
			w.retryDelay = delay
		}
	}
}

// WithClock overrides the time source used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *InMemoryWorker) {
		if now != nil {
			w.now = now
		}
	}
}
