package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrInvalidTransition indicates that a requested transition is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStateNotFound indicates that a user state record does not exist.
	ErrStateNotFound = errors.New("user state not found")
	// ErrStateLocked indicates that the user lock could not be taken before the context ended.
	ErrStateLocked = errors.New("state is locked, try again later")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// StateMachine describes the operations supported by the conversation state controller.
type StateMachine interface {
	Lock(ctx context.Context, userID int64) (func(), error)
	Current(ctx context.Context, userID int64) (*UserState, error)
	TransitionTo(ctx context.Context, userID int64, newState State, pending PendingEntry) error
	Reset(ctx context.Context, userID int64) error
	GetAllStates(ctx context.Context) ([]*UserState, error)
	CountByState(ctx context.Context) (map[State]int, error)
}

// Machine is the StateMachine backed by a Storage and in-process per-user locks.
type Machine struct {
	storage Storage
	log     *slog.Logger
	locks   *userLocks
}

// NewStateMachine creates a state controller using the provided storage backend.
func NewStateMachine(storage Storage, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}

	return &Machine{
		storage: storage,
		log:     log,
		locks:   newUserLocks(),
	}
}

// Lock serializes the handling of one user's messages. The returned func releases the lock.
func (m *Machine) Lock(ctx context.Context, userID int64) (func(), error) {
	return m.locks.acquire(ctx, userID)
}

// Current returns the stored state, or idle for users without one.
func (m *Machine) Current(ctx context.Context, userID int64) (*UserState, error) {
	st, err := m.storage.GetState(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return idleState(userID), nil
		}
		return nil, err
	}
	if st == nil {
		return idleState(userID), nil
	}

	return st, nil
}

// GetAllStates returns every persisted user state.
func (m *Machine) GetAllStates(ctx context.Context) ([]*UserState, error) {
	return m.storage.GetAllStates(ctx)
}

// CountByState groups stored states by their current state.
func (m *Machine) CountByState(ctx context.Context) (map[State]int, error) {
	states, err := m.storage.GetAllStates(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[State]int, len(All()))
	for _, st := range states {
		if st != nil {
			counts[st.CurrentState]++
		}
	}
	return counts, nil
}

// TransitionTo validates and stores the next state. Moving to idle drops the stored record.
func (m *Machine) TransitionTo(ctx context.Context, userID int64, newState State, pending PendingEntry) error {
	current, err := m.Current(ctx, userID)
	if err != nil {
		return err
	}

	if !IsTransitionAllowed(current.CurrentState, newState) {
		m.log.Warn("invalid state transition", "user_id", userID, "from", current.CurrentState, "to", newState)
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.CurrentState, newState)
	}

	transitionRecorder(string(current.CurrentState), string(newState))

	if newState == StateIdle {
		return m.storage.ClearState(ctx, userID)
	}

	return m.storage.SetState(ctx, userID, &UserState{
		UserID:       userID,
		CurrentState: newState,
		Pending:      pending,
	})
}

// Reset returns the user to idle, discarding any pending entry.
func (m *Machine) Reset(ctx context.Context, userID int64) error {
	return m.TransitionTo(ctx, userID, StateIdle, PendingEntry{})
}

type userLock struct {
	ch   chan struct{}
	refs int
}

// userLocks hands out one mutex per user and forgets it once nobody holds or waits for it.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*userLock)}
}

func (l *userLocks) acquire(ctx context.Context, userID int64) (func(), error) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{ch: make(chan struct{}, 1)}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	select {
	case ul.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(userID, ul)
		return nil, fmt.Errorf("%w: %w", ErrStateLocked, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-ul.ch
			l.release(userID, ul)
		})
	}, nil
}

func (l *userLocks) release(userID int64, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
}

func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
