package middleware

import (
	"log/slog"

	"gopkg.in/telebot.v3"

	"github.com/Proton-105/giftbasket-bot/internal/bot/handlers"
	"github.com/Proton-105/giftbasket-bot/internal/i18n"
	"github.com/Proton-105/giftbasket-bot/internal/ratelimit"
	"github.com/Proton-105/giftbasket-bot/pkg/metrics"
)

// RateLimitMiddleware enforces per-user rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	tr      i18n.Translator
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, tr i18n.Translator, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		tr:      tr,
		log:     log,
	}
}

// Handle returns a telebot middleware that enforces the per-user policy.
// Limiter failures let the update through.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || m.rules == nil || c.Sender() == nil {
			return next(c)
		}

		userID := c.Sender().ID
		if m.rules.Exempt(userID) {
			return next(c)
		}

		decision, err := m.limiter.Allow(handlers.RequestContext(c), userID, m.rules.Policy())
		if err != nil {
			m.log.Warn("rate limiter unavailable", slog.Int64("user_id", userID), slog.Any("error", err))
			return next(c)
		}

		if !decision.Allowed {
			metrics.RecordRateLimited()
			m.log.Warn("rate limit exceeded",
				slog.Int64("user_id", userID),
				slog.Time("retry_at", decision.RetryAt),
			)
			return c.Send(m.message())
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) message() string {
	if m.tr == nil {
		return "Rate limit exceeded. Try again later."
	}
	return m.tr.T("ratelimit.exceeded")
}
