package ratelimit

import (
	"fmt"
	"time"

	"github.com/Proton-105/giftbasket-bot/pkg/config"
)

// Rules is the parsed rate limit configuration.
type Rules struct {
	policy Policy
	exempt map[int64]struct{}
}

// NewRules validates cfg once at startup. adminIDs join the whitelist so the
// admin's broadcasts and resets are never throttled.
func NewRules(cfg config.RateLimitConfig, adminIDs ...int64) (*Rules, error) {
	if cfg.PerUser.Limit <= 0 {
		return nil, fmt.Errorf("ratelimit: per-user limit must be positive, got %d", cfg.PerUser.Limit)
	}

	window, err := time.ParseDuration(cfg.PerUser.Window)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse window %q: %w", cfg.PerUser.Window, err)
	}
	if window <= 0 {
		return nil, fmt.Errorf("ratelimit: window must be positive, got %s", window)
	}

	exempt := make(map[int64]struct{}, len(cfg.Whitelist)+len(adminIDs))
	for _, ids := range [][]int64{cfg.Whitelist, adminIDs} {
		for _, id := range ids {
			if id != 0 {
				exempt[id] = struct{}{}
			}
		}
	}

	return &Rules{
		policy: Policy{Limit: cfg.PerUser.Limit, Window: window},
		exempt: exempt,
	}, nil
}

// Exempt reports whether userID bypasses rate limiting.
func (r *Rules) Exempt(userID int64) bool {
	_, ok := r.exempt[userID]
	return ok
}

// Policy is the per-user limit every other user is held to.
func (r *Rules) Policy() Policy {
	return r.policy
}
