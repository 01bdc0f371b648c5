// Package idempotency makes sure a redelivered Telegram update is processed only once.
package idempotency

import (
	"context"
	"sync"
	"time"
)

// Store records which update keys have been claimed.
type Store interface {
	// Claim marks key as seen for ttl. It reports false when key was already claimed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Sweep drops entries that can no longer expire on their own and returns how many went.
	Sweep(ctx context.Context) (int, error)
}

// MemoryStore keeps claims in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		claims: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (s *MemoryStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if expires, ok := s.claims[key]; ok && now.Before(expires) {
		return false, nil
	}

	s.claims[key] = now.Add(ttl)
	return true, nil
}

// Sweep removes expired claims.
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, expires := range s.claims {
		if !now.Before(expires) {
			delete(s.claims, key)
			removed++
		}
	}

	return removed, nil
}

// Len is the number of claims currently held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claims)
}
