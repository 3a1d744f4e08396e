// Package dedupe tracks submission ids so a retried request is processed once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 10_000

// Deduper records seen submission IDs to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a submission rejected before it was queued can
	// be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper remembers the most recent maxSize ids and evicts the
// oldest first. A maxSize <= 0 never evicts.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front = oldest
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[id] = d.order.PushBack(id)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}
