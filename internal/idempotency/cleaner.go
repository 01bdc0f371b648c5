package idempotency

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner sweeps expired claims out of a Store on a fixed interval.
type Cleaner struct {
	store    Store
	log      *slog.Logger
	interval time.Duration
}

func NewCleaner(store Store, log *slog.Logger, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{store: store, log: log, interval: interval}
}

// Run blocks until ctx is cancelled. A non-positive interval disables it.
func (c *Cleaner) Run(ctx context.Context) {
	if c.store == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Cleaner) sweep(ctx context.Context) {
	removed, err := c.store.Sweep(ctx)
	switch {
	case err != nil:
		c.log.Error("update claim sweep failed", slog.Any("error", err))
	case removed > 0:
		c.log.Debug("expired update claims swept", slog.Int("claims", removed))
	}
}
