package ratelimit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_checks_total",
		Help: "Rate limit decisions by backend and verdict.",
	}, []string{"backend", "result"})

	backendErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratelimit_backend_errors_total",
		Help: "Failures of the shared rate limit backend.",
	})
)

// AdaptiveLimiter asks the shared (Redis) limiter first. While it is failing,
// each replica falls back to its own memory at half the allowance so that the
// fleet as a whole stays near the configured limit.
type AdaptiveLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

var _ Limiter = (*AdaptiveLimiter)(nil)

// NewAdaptiveLimiter combines a shared primary with a local fallback.
func NewAdaptiveLimiter(primary, fallback Limiter, log *slog.Logger) *AdaptiveLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &AdaptiveLimiter{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// Allow implements Limiter.
func (a *AdaptiveLimiter) Allow(ctx context.Context, userID int64, p Policy) (Decision, error) {
	decision, err := a.primary.Allow(ctx, userID, p)
	if err == nil {
		return record("primary", decision), nil
	}

	backendErrorsTotal.Inc()
	a.log.Warn("shared rate limiter unavailable, using local fallback", slog.Int64("user_id", userID), slog.Any("error", err))

	p.Limit = max(p.Limit/2, 1)
	decision, err = a.fallback.Allow(ctx, userID, p)
	if err != nil {
		return Decision{}, err
	}

	return record("fallback", decision), nil
}

func record(backend string, d Decision) Decision {
	verdict := "rejected"
	if d.Allowed {
		verdict = "allowed"
	}
	checksTotal.WithLabelValues(backend, verdict).Inc()
	return d
}
