package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "giftbasket:ratelimit:"

// RedisLimiter shares per-user windows between bot replicas through Redis
// sorted sets scored by arrival time in milliseconds.
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
	log    *slog.Logger
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter returns a limiter backed by client.
func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{
		client: client,
		now:    time.Now,
		log:    log,
	}
}

// Allow trims the user's window, records this update and counts what is left.
// Rejected updates are recorded too, so a user who keeps hammering stays blocked.
func (l *RedisLimiter) Allow(ctx context.Context, userID int64, p Policy) (Decision, error) {
	if l.client == nil {
		return Decision{}, errors.New("ratelimit: redis client is nil")
	}

	now := l.now()
	if p.Limit <= 0 {
		return Decision{RetryAt: now.Add(p.Window)}, nil
	}

	key := redisKeyPrefix + userKey(userID)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", scoreOf(now.Add(-p.Window)))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, 2*p.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("rate limit pipeline failed", slog.Int64("user_id", userID), slog.Any("error", err))
		return Decision{}, err
	}

	used := int(card.Val())
	return Decision{
		Allowed:   used <= p.Limit,
		Remaining: remaining(p.Limit, used),
		RetryAt:   now.Add(p.Window),
	}, nil
}

func scoreOf(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
