package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleaner_Sweep(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)

	storage := NewMemoryStorage()
	storage.now = func() time.Time { return base }
	require.NoError(t, storage.SetState(ctx, 1, &UserState{UserID: 1, CurrentState: StateAwaitingPrice}))

	storage.now = func() time.Time { return base.Add(50 * time.Minute) }
	require.NoError(t, storage.SetState(ctx, 2, &UserState{UserID: 2, CurrentState: StateAwaitingName}))

	cleaner := NewCleaner(storage, testLogger(), 30*time.Minute, time.Minute)
	cleaner.now = func() time.Time { return base.Add(time.Hour) }

	assert.Equal(t, 1, cleaner.Sweep(ctx))

	_, err := storage.GetState(ctx, 1)
	assert.ErrorIs(t, err, ErrStateNotFound)

	st, err := storage.GetState(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingName, st.CurrentState)
}

func TestCleaner_RunStopsOnCancel(t *testing.T) {
	cleaner := NewCleaner(NewMemoryStorage(), testLogger(), time.Minute, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleaner.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleaner did not stop")
	}
}
