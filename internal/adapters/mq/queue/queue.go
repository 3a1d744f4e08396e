// Package queue holds accepted rating submissions until a worker forwards them.
package queue

import (
	"context"
	"sync"

	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/pkg/metrics"
)

const defaultQueueCapacity = 1_000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a submission. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, s model.Submission) bool
	// Dequeue returns a channel of queued submissions. It is closed once the
	// queue is closed and drained, or ctx is done.
	Dequeue(ctx context.Context) <-chan model.Submission
	// Len returns the current number of queued submissions.
	Len(ctx context.Context) int
	// Close stops accepting submissions.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan model.Submission
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan model.Submission, q.capacity)
	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, s model.Submission) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	select {
	case q.items <- s:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.items))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Submission {
	out := make(chan model.Submission)
	go func() {
		defer close(out)
		for s := range q.items {
			select {
			case out <- s:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.items))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.items)
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
