package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestRedisLimiter_AllowsWithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(ctx, 10, perMinute(5))
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, 5-(i+1), decision.Remaining)
	}
}

func TestRedisLimiter_BlocksWhenExceeded(t *testing.T) {
	client, mr := setupTestRedis(t)

	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(ctx, 11, perMinute(2))
		require.NoError(t, err)
		assert.Equal(t, i < 2, decision.Allowed)
	}

	assert.True(t, mr.Exists(redisKeyPrefix+"11"))
	assert.Positive(t, mr.TTL(redisKeyPrefix+"11"))
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	client, _ := setupTestRedis(t)

	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRedisLimiter(client, testLogger())
	limiter.now = func() time.Time { return now }
	ctx := context.Background()
	policy := Policy{Limit: 2, Window: time.Second}

	for i := 0; i < 2; i++ {
		decision, err := limiter.Allow(ctx, 12, policy)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}

	decision, err := limiter.Allow(ctx, 12, policy)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	now = now.Add(1100 * time.Millisecond)

	decision, err = limiter.Allow(ctx, 12, policy)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestRedisLimiter_ZeroLimitRejects(t *testing.T) {
	client, _ := setupTestRedis(t)

	decision, err := NewRedisLimiter(client, testLogger()).Allow(context.Background(), 1, perMinute(0))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestRedisLimiter_BackendDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	_, err := NewRedisLimiter(client, testLogger()).Allow(context.Background(), 1, perMinute(1))
	assert.Error(t, err)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
