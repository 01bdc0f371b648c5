// Package users tracks every identity that has ever written to the bot.
package users

import (
	"sort"
	"sync"
)

// Registry is an append-only set of user ids.
type Registry struct {
	mu     sync.RWMutex
	ids    map[int64]struct{}
	onGrow func(total int)
}

// Option customizes a Registry.
type Option func(*Registry)

// WithGrowthHook calls fn with the new size whenever an unseen user is tracked.
func WithGrowthHook(fn func(total int)) Option {
	return func(r *Registry) {
		r.onGrow = fn
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{ids: make(map[int64]struct{})}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Track records id and reports whether it was seen for the first time.
func (r *Registry) Track(id int64) bool {
	r.mu.RLock()
	_, known := r.ids[id]
	r.mu.RUnlock()
	if known {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, known := r.ids[id]; known {
		return false
	}
	r.ids[id] = struct{}{}
	if r.onGrow != nil {
		r.onGrow(len(r.ids))
	}
	return true
}

// Contains reports whether id has been tracked.
func (r *Registry) Contains(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.ids[id]
	return ok
}

// Len returns the number of known users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.ids)
}

// Snapshot returns the known ids in ascending order.
func (r *Registry) Snapshot() []int64 {
	r.mu.RLock()
	ids := make([]int64, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
