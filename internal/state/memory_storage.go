package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps user states in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	states map[int64]UserState
	now    func() time.Time
}

// NewMemoryStorage creates an empty in-memory Storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		states: make(map[int64]UserState),
		now:    time.Now,
	}
}

// GetState returns a copy of the stored state.
func (s *MemoryStorage) GetState(_ context.Context, userID int64) (*UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[userID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return &st, nil
}

// SetState stores a copy of state stamped with the current time.
func (s *MemoryStorage) SetState(_ context.Context, userID int64, state *UserState) error {
	if state == nil {
		return nil
	}

	state.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[userID] = *state
	return nil
}

// ClearState forgets the user's state.
func (s *MemoryStorage) ClearState(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, userID)
	return nil
}

// GetAllStates returns copies of all stored states.
func (s *MemoryStorage) GetAllStates(_ context.Context) ([]*UserState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*UserState, 0, len(s.states))
	for _, st := range s.states {
		st := st
		result = append(result, &st)
	}
	return result, nil
}
