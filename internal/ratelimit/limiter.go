// Package ratelimit throttles how fast a single user may push updates at the bot.
package ratelimit

import (
	"context"
	"strconv"
	"time"
)

// Policy allows Limit updates from one user within any sliding Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Decision is the verdict for a single update.
type Decision struct {
	Allowed   bool
	Remaining int
	RetryAt   time.Time
}

// Limiter decides whether a user may send another update.
// Being over the limit is a Decision with Allowed unset; an error always means the backend failed.
type Limiter interface {
	Allow(ctx context.Context, userID int64, p Policy) (Decision, error)
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func remaining(limit, used int) int {
	if used >= limit {
		return 0
	}
	return limit - used
}
