package bot

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/giftbasket-bot/internal/bot/handlers"
	errors "github.com/Proton-105/giftbasket-bot/internal/errors"
	"github.com/Proton-105/giftbasket-bot/internal/users"
	"github.com/Proton-105/giftbasket-bot/pkg/logger"
)

// RecoveryMiddleware turns a handler panic into an apology to the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				log.Error("handler panicked",
					slog.Any("panic", r),
					slog.Int64("user_id", updateSender(c)),
					slog.String("stack", string(debug.Stack())),
				)
				replyWithError(c, errHandler, log, errors.NewPanicError(r))
				err = nil
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware reports handler errors and answers the user, so
// nothing below it needs to reply on failure.
func ErrorHandlingMiddleware(errHandler *errors.Handler, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if err := next(c); err != nil {
				replyWithError(c, errHandler, log, err)
			}
			return nil
		}
	}
}

func replyWithError(c telebot.Context, errHandler *errors.Handler, log *slog.Logger, err error) {
	msg := errors.GenericUserMessage
	if errHandler != nil {
		if userMsg, _ := errHandler.Handle(handlers.RequestContext(c), err); userMsg != "" {
			msg = userMsg
		}
	}

	if sendErr := c.Send(msg); sendErr != nil {
		log.Warn("could not tell the user about a failure",
			slog.Int64("user_id", updateSender(c)),
			slog.Any("error", sendErr),
		)
	}
}

// TimeoutMiddleware bounds how long one update may wait for locks and storage.
func TimeoutMiddleware(timeout time.Duration) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}
		if timeout <= 0 {
			return next
		}

		return func(c telebot.Context) error {
			ctx, cancel := context.WithTimeout(handlers.RequestContext(c), timeout)
			defer cancel()

			handlers.WithRequestContext(c, ctx)
			return next(c)
		}
	}
}

// LoggingMiddleware tags the update with a correlation ID and logs its handling.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()

			ctx := logger.WithCorrelationID(handlers.RequestContext(c))
			handlers.WithRequestContext(c, ctx)

			reqLog := log.With(
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
				slog.Int64("user_id", updateSender(c)),
			)

			reqLog.Debug("handling update", slog.String("text", c.Text()))
			err := next(c)
			reqLog.Info("handled update",
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// TrackUsersMiddleware adds every message author to the broadcast audience before anything else happens.
func TrackUsersMiddleware(registry *users.Registry, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if userID := updateSender(c); userID != 0 && registry != nil {
				if registry.Track(userID) {
					log.Info("new user", slog.Int64("user_id", userID), slog.Int("known_users", registry.Len()))
				}
			}

			return next(c)
		}
	}
}

func updateSender(c telebot.Context) int64 {
	if c == nil || c.Sender() == nil {
		return 0
	}
	return c.Sender().ID
}
