package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/giftbasket-bot/pkg/config"
)

func perMinute(limit int) Policy {
	return Policy{Limit: limit, Window: time.Minute}
}

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(testLogger())
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(ctx, 1, perMinute(3))
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}

	decision, err := limiter.Allow(ctx, 1, perMinute(3))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Zero(t, decision.Remaining)
	assert.Equal(t, now.Add(time.Minute), decision.RetryAt)

	now = now.Add(time.Minute + time.Second)

	decision, err = limiter.Allow(ctx, 1, perMinute(3))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 2, decision.Remaining)
}

func TestMemoryLimiter_UsersAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	ctx := context.Background()

	decision, _ := limiter.Allow(ctx, 1, perMinute(1))
	assert.True(t, decision.Allowed)
	decision, _ = limiter.Allow(ctx, 1, perMinute(1))
	assert.False(t, decision.Allowed)

	decision, _ = limiter.Allow(ctx, 2, perMinute(1))
	assert.True(t, decision.Allowed)
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(testLogger())
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = limiter.Allow(ctx, 1, perMinute(5))
	now = now.Add(10 * time.Minute)
	_, _ = limiter.Allow(ctx, 2, perMinute(5))

	assert.Equal(t, 1, limiter.Cleanup(5*time.Minute))
	assert.Equal(t, 1, limiter.Len())
	assert.Zero(t, limiter.Cleanup(0))
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, int64, Policy) (Decision, error) {
	return Decision{}, errors.New("connection refused")
}

func TestAdaptiveLimiter_FallsBackWithHalfLimit(t *testing.T) {
	limiter := NewAdaptiveLimiter(brokenLimiter{}, NewMemoryLimiter(testLogger()), testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		decision, err := limiter.Allow(ctx, 1, perMinute(4))
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}

	decision, err := limiter.Allow(ctx, 1, perMinute(4))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestAdaptiveLimiter_UsesPrimary(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewAdaptiveLimiter(NewRedisLimiter(client, testLogger()), NewMemoryLimiter(testLogger()), testLogger())
	ctx := context.Background()

	decision, err := limiter.Allow(ctx, 1, perMinute(1))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = limiter.Allow(ctx, 1, perMinute(1))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestNewRules(t *testing.T) {
	whitelist := []int64{5}
	rules, err := NewRules(config.RateLimitConfig{
		PerUser:   config.RateLimitRule{Limit: 30, Window: "1m"},
		Whitelist: whitelist,
	}, 42, 0)
	require.NoError(t, err)

	assert.True(t, rules.Exempt(5))
	assert.True(t, rules.Exempt(42))
	assert.False(t, rules.Exempt(0))
	assert.False(t, rules.Exempt(7))
	assert.Equal(t, []int64{5}, whitelist)
	assert.Equal(t, Policy{Limit: 30, Window: time.Minute}, rules.Policy())
}

func TestNewRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		rule config.RateLimitRule
	}{
		{name: "missing window", rule: config.RateLimitRule{Limit: 1}},
		{name: "unparsable window", rule: config.RateLimitRule{Limit: 1, Window: "soon"}},
		{name: "negative window", rule: config.RateLimitRule{Limit: 1, Window: "-1m"}},
		{name: "zero limit", rule: config.RateLimitRule{Window: "1m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRules(config.RateLimitConfig{PerUser: tt.rule})
			assert.Error(t, err)
		})
	}
}

func TestCleaner_RemovesStaleRedisWindows(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	policy := Policy{Limit: 5, Window: 3 * time.Hour}

	limiter := NewRedisLimiter(client, testLogger())
	limiter.now = func() time.Time { return time.Now().Add(-time.Hour) }
	_, err := limiter.Allow(ctx, 1, policy)
	require.NoError(t, err)

	limiter.now = time.Now
	_, err = limiter.Allow(ctx, 2, policy)
	require.NoError(t, err)

	memory := NewMemoryLimiter(testLogger())
	memory.now = func() time.Time { return time.Now().Add(-time.Hour) }
	_, _ = memory.Allow(ctx, 3, policy)
	memory.now = time.Now

	NewCleaner(client, memory, 5*time.Minute, testLogger(), time.Minute).Cleanup(ctx)

	assert.False(t, mr.Exists(redisKeyPrefix+"1"))
	assert.True(t, mr.Exists(redisKeyPrefix+"2"))
	assert.Zero(t, memory.Len())
}
