package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisStatePrefix = "giftbasket:state:"
	redisScanCount   = 100
)

// RedisStorage keeps conversation states in Redis so that an unfinished flow
// survives a restart or moves with the user between bot replicas.
type RedisStorage struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage initializes a Redis-backed Storage. Keys expire after ttl; zero keeps them forever.
func NewRedisStorage(client *redis.Client, log *slog.Logger, ttl time.Duration) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

func (s *RedisStorage) GetState(ctx context.Context, userID int64) (*UserState, error) {
	raw, err := s.client.Get(ctx, stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get state of %d: %w", userID, err)
	}

	var st UserState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode state of %d: %w", userID, err)
	}
	return &st, nil
}

func (s *RedisStorage) SetState(ctx context.Context, userID int64, st *UserState) error {
	st.UpdatedAt = time.Now().UTC()

	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state of %d: %w", userID, err)
	}

	if err := s.client.Set(ctx, stateKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set state of %d: %w", userID, err)
	}
	return nil
}

func (s *RedisStorage) ClearState(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, stateKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear state of %d: %w", userID, err)
	}
	return nil
}

// GetAllStates walks the key space one SCAN page at a time and loads each page with MGET.
// Records that fail to decode are logged and skipped.
func (s *RedisStorage) GetAllStates(ctx context.Context) ([]*UserState, error) {
	var (
		states []*UserState
		cursor uint64
	)

	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisStatePrefix+"*", redisScanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("scan states: %w", err)
		}

		if len(keys) > 0 {
			values, err := s.client.MGet(ctx, keys...).Result()
			if err != nil {
				return nil, fmt.Errorf("load states: %w", err)
			}
			states = append(states, s.decodeAll(keys, values)...)
		}

		if next == 0 {
			return states, nil
		}
		cursor = next
	}
}

func (s *RedisStorage) decodeAll(keys []string, values []any) []*UserState {
	states := make([]*UserState, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}

		var st UserState
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			s.log.Warn("skipping undecodable user state", slog.String("key", keys[i]), slog.Any("error", err))
			continue
		}
		states = append(states, &st)
	}
	return states
}

func stateKey(userID int64) string {
	return redisStatePrefix + strconv.FormatInt(userID, 10)
}
