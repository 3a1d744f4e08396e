package worker

import (
	"container/list"
	"context"
	"sync"

	"github.com/okian/stagerank/internal/domain/model"
)

// Results keeps the latest outcome of the most recent submissions. The
// oldest submission is forgotten first once the limit is reached.
type Results struct {
	mu    sync.RWMutex
	byID  map[string]*list.Element
	order *list.List // front = oldest
	limit int
}

// NewResults creates a result store holding up to limit submissions.
func NewResults(limit int) *Results {
	return &Results{
		byID:  make(map[string]*list.Element),
		order: list.New(),
		limit: max(1, limit),
	}
}

// Record stores r, replacing any earlier state for the same id.
func (r *Results) Record(_ context.Context, res model.SubmissionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.byID[res.ID]; ok {
		el.Value = res
		return
	}
	if r.order.Len() >= r.limit {
		oldest := r.order.Front()
		r.order.Remove(oldest)
		delete(r.byID, oldest.Value.(model.SubmissionResult).ID)
	}
	r.byID[res.ID] = r.order.PushBack(res)
}

// Get returns the recorded state of id.
func (r *Results) Get(_ context.Context, id string) (model.SubmissionResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	el, ok := r.byID[id]
	if !ok {
		return model.SubmissionResult{}, false
	}
	return el.Value.(model.SubmissionResult), true
}

// Forget drops id.
func (r *Results) Forget(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.byID[id]; ok {
		r.order.Remove(el)
		delete(r.byID, id)
	}
}

// Len returns the number of tracked submissions.
func (r *Results) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.order.Len()
}
