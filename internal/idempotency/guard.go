package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrDuplicate reports an update whose key was already claimed.
var ErrDuplicate = errors.New("update already processed")

// DefaultTTL covers Telegram's redelivery window for unacknowledged webhook updates.
const DefaultTTL = 24 * time.Hour

// Guard runs an operation at most once per key.
type Guard struct {
	store Store
	ttl   time.Duration
	log   *slog.Logger
}

// NewGuard builds a Guard over store. A non-positive ttl means DefaultTTL.
func NewGuard(store Store, ttl time.Duration, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Guard{
		store: store,
		ttl:   ttl,
		log:   log,
	}
}

// Do claims key and runs fn. A key that was seen before yields ErrDuplicate
// without running fn. When the store itself fails, fn runs anyway: losing
// de-duplication is better than dropping a user's message.
func (g *Guard) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("operation fn cannot be nil")
	}

	claimed, err := g.store.Claim(ctx, key, g.ttl)
	if err != nil {
		g.log.Warn("idempotency store unavailable, processing anyway", slog.String("key", key), slog.Any("error", err))
		return fn(ctx)
	}
	if !claimed {
		return ErrDuplicate
	}

	return fn(ctx)
}
