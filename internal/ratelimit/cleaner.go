package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cleanupScanCount = 100

// Cleaner forgets users who went quiet, in Redis and in the in-memory fallback.
type Cleaner struct {
	client   *redis.Client
	memory   *MemoryLimiter
	maxAge   time.Duration
	interval time.Duration
	log      *slog.Logger
}

// NewCleaner builds a Cleaner. Either backend may be nil.
func NewCleaner(client *redis.Client, memory *MemoryLimiter, maxAge time.Duration, log *slog.Logger, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		client:   client,
		memory:   memory,
		maxAge:   maxAge,
		interval: interval,
		log:      log,
	}
}

// Run sweeps every interval until ctx is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c.interval <= 0 || (c.client == nil && c.memory == nil) {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("rate limit cleaner stopped", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			c.Cleanup(ctx)
		}
	}
}

// Cleanup runs one sweep over both backends.
func (c *Cleaner) Cleanup(ctx context.Context) {
	if c.memory != nil {
		if removed := c.memory.Cleanup(c.maxAge); removed > 0 {
			c.log.Debug("in-memory rate limit windows dropped", slog.Int("users", removed))
		}
	}

	if c.client != nil && ctx.Err() == nil {
		if removed := c.sweepRedis(ctx); removed > 0 {
			c.log.Info("redis rate limit windows dropped", slog.Int("users", removed))
		}
	}
}

// sweepRedis trims old entries from every window and deletes the ones left empty.
func (c *Cleaner) sweepRedis(ctx context.Context) int {
	stale := "(" + scoreOf(time.Now().Add(-c.maxAge))
	removed := 0

	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", cleanupScanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		pipe := c.client.TxPipeline()
		pipe.ZRemRangeByScore(ctx, key, "-inf", stale)
		card := pipe.ZCard(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			c.log.Warn("rate limit cleanup failed", slog.String("key", key), slog.Any("error", err))
			continue
		}
		if card.Val() > 0 {
			continue
		}

		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.log.Warn("rate limit key delete failed", slog.String("key", key), slog.Any("error", err))
			continue
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		c.log.Error("rate limit scan failed", slog.Any("error", err))
	}

	return removed
}
