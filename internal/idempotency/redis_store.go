package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "giftbasket:update:"

// RedisStore shares claims between bot replicas through Redis.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed Store.
func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
	}
}

func (s *RedisStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, recordKey(key), 1, ttl).Result()
	if err != nil {
		s.log.Error("failed to claim update key", slog.String("key", key), slog.Any("error", err))
		return false, err
	}

	return acquired, nil
}

// Sweep deletes claim keys that somehow lost their TTL.
func (s *RedisStore) Sweep(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)

	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return removed, fmt.Errorf("scan update keys: %w", err)
		}

		for _, key := range keys {
			ttl, err := s.client.TTL(ctx, key).Result()
			if err != nil {
				s.log.Warn("failed to get key ttl", slog.String("key", key), slog.Any("error", err))
				continue
			}

			// -1 means no expiry; -2 means the key is already gone
			if ttl != -1 {
				continue
			}

			if err := s.client.Del(ctx, key).Err(); err != nil {
				s.log.Warn("failed to delete stale update key", slog.String("key", key), slog.Any("error", err))
				continue
			}
			removed++
		}

		if next == 0 {
			break
		}
		cursor = next
	}

	return removed, nil
}

func recordKey(key string) string {
	return keyPrefix + key
}
