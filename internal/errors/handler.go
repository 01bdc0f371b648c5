package errors

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/giftbasket-bot/pkg/logger"
	"github.com/Proton-105/giftbasket-bot/pkg/metrics"
)

// Handler logs, counts and reports errors, and picks the message shown to the user.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

// NewHandler builds a Handler; Sentry reporting happens only when sentryEnabled is set.
func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle reports err and returns the user-facing message along with whether a retry makes sense.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}

	appErr := classify(err)

	attrs := []any{
		slog.String("code", appErr.Code),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
		slog.Any("error", err),
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("correlation_id", id))
	}
	h.log.ErrorContext(ctx, "update failed", attrs...)

	metrics.RecordError(appErr.Code, string(appErr.Severity))

	if h.sentryEnabled && (appErr.Severity == SeverityHigh || appErr.Severity == SeverityCritical) {
		report(err, appErr)
	}

	if appErr.UserMessage == "" {
		return GenericUserMessage, appErr.Retryable
	}
	return appErr.UserMessage, appErr.Retryable
}

func report(err error, appErr *AppError) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("code", appErr.Code)
		scope.SetTag("severity", string(appErr.Severity))
		sentry.CaptureException(err)
	})
}
