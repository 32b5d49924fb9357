// Package locks issues one mutual-exclusion handle per task id.
//
// Handles are created lazily on first use, shared by every caller naming the
// same id, and discarded when the task is deleted so the registry does not
// grow without bound. Core logic never holds handles for two ids at once.
package locks

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/semaphore"
)

// Handle is a reusable binary semaphore whose acquisition honours context
// cancellation.
type Handle struct {
	sem *semaphore.Weighted
}

func newHandle() *Handle {
	return &Handle{sem: semaphore.NewWeighted(1)}
}

// Lock blocks until the handle is acquired or ctx is done.
func (h *Handle) Lock(ctx context.Context) error {
	return h.sem.Acquire(ctx, 1)
}

// Unlock releases the handle. Unlocking a free handle panics.
func (h *Handle) Unlock() {
	h.sem.Release(1)
}

// Registry maps task ids to their handles.
type Registry struct {
	handles *xsync.Map[string, *Handle]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handles: xsync.NewMap[string, *Handle]()}
}

// Handle returns the shared handle for id, creating it on first use.
func (r *Registry) Handle(id string) *Handle {
	if h, ok := r.handles.Load(id); ok {
		return h
	}
	h, _ := r.handles.LoadOrStore(id, newHandle())
	return h
}

// Acquire locks the handle for id and returns the function that releases it.
// Callers defer the release so it runs on every exit path.
func (r *Registry) Acquire(ctx context.Context, id string) (release func(), err error) {
	h := r.Handle(id)
	if err := h.Lock(ctx); err != nil {
		return nil, err
	}
	return h.Unlock, nil
}

// WithLock runs fn while holding the lock for id.
func (r *Registry) WithLock(ctx context.Context, id string, fn func() error) error {
	release, err := r.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// Discard drops the handle for id. A caller still holding the old handle
// keeps it until it unlocks; later callers get a fresh handle.
func (r *Registry) Discard(id string) {
	r.handles.Delete(id)
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	return r.handles.Size()
}
