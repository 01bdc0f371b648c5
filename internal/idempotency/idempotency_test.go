package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageKey(t *testing.T) {
	assert.Equal(t, "-100:7", MessageKey(-100, 7))
	assert.NotEqual(t, MessageKey(1, 23), MessageKey(12, 3))
}

func TestMemoryStore_ClaimAndExpire(t *testing.T) {
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	claimed, err := store.Claim(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.Claim(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)

	now = now.Add(time.Minute)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Zero(t, store.Len())

	claimed, err = store.Claim(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestRedisStore_Claim(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, testLogger())
	ctx := context.Background()

	claimed, err := store.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.False(t, claimed)

	mr.FastForward(time.Hour + time.Second)

	claimed, err = store.Claim(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestRedisStore_SweepRemovesKeysWithoutTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, testLogger())
	ctx := context.Background()

	_, err := store.Claim(ctx, "fresh", time.Hour)
	require.NoError(t, err)
	require.NoError(t, mr.Set(keyPrefix+"stale", "1"))
	require.NoError(t, mr.Set("other:key", "1"))

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.True(t, mr.Exists(keyPrefix+"fresh"))
	assert.False(t, mr.Exists(keyPrefix+"stale"))
	assert.True(t, mr.Exists("other:key"))
}

func TestGuard_Do(t *testing.T) {
	guard := NewGuard(NewMemoryStore(), time.Hour, testLogger())
	ctx := context.Background()

	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}

	require.NoError(t, guard.Do(ctx, "update", fn))
	assert.ErrorIs(t, guard.Do(ctx, "update", fn), ErrDuplicate)
	require.NoError(t, guard.Do(ctx, "other", fn))
	assert.Equal(t, 2, calls)
}

func TestGuard_PropagatesOperationError(t *testing.T) {
	guard := NewGuard(NewMemoryStore(), 0, testLogger())
	boom := errors.New("boom")

	err := guard.Do(context.Background(), "k", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

type failingStore struct{}

func (failingStore) Claim(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func (failingStore) Sweep(context.Context) (int, error) { return 0, nil }

func TestGuard_FailsOpen(t *testing.T) {
	guard := NewGuard(failingStore{}, time.Hour, testLogger())

	ran := false
	err := guard.Do(context.Background(), "k", func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCleaner_Run(t *testing.T) {
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	_, err := store.Claim(context.Background(), "1:1", time.Minute)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewCleaner(store, testLogger(), 5*time.Millisecond).Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
