package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryLimiter keeps a sliding window of accepted updates per user in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[int64][]time.Time
	now     func() time.Time
	log     *slog.Logger
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns an empty MemoryLimiter.
func NewMemoryLimiter(log *slog.Logger) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &MemoryLimiter{
		windows: make(map[int64][]time.Time),
		now:     time.Now,
		log:     log,
	}
}

// Allow records the update when it fits. Rejected updates do not extend the window.
func (m *MemoryLimiter) Allow(_ context.Context, userID int64, p Policy) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := dropBefore(m.windows[userID], now.Add(-p.Window))
	allowed := len(seen) < p.Limit
	if allowed {
		seen = append(seen, now)
	}
	m.windows[userID] = seen

	retryAt := now.Add(p.Window)
	if len(seen) > 0 {
		retryAt = seen[0].Add(p.Window)
	}

	return Decision{
		Allowed:   allowed,
		Remaining: remaining(p.Limit, len(seen)),
		RetryAt:   retryAt,
	}, nil
}

// Cleanup forgets users whose last accepted update is older than maxAge and
// returns how many were dropped.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}

	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for userID, seen := range m.windows {
		if len(seen) == 0 || seen[len(seen)-1].Before(cutoff) {
			delete(m.windows, userID)
			removed++
		}
	}

	return removed
}

// Len is the number of users currently tracked.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// dropBefore removes timestamps at or before start, reusing the backing array.
func dropBefore(seen []time.Time, start time.Time) []time.Time {
	i := 0
	for i < len(seen) && !seen[i].After(start) {
		i++
	}

	switch {
	case i == 0:
		return seen
	case i == len(seen):
		return seen[:0]
	}

	n := copy(seen, seen[i:])
	return seen[:n]
}
