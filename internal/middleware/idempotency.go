// Package middleware holds transport middlewares shared by the bot and the HTTP server.
package middleware

import (
	"context"
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/giftbasket-bot/internal/bot/handlers"
	"github.com/Proton-105/giftbasket-bot/internal/idempotency"
	"github.com/Proton-105/giftbasket-bot/pkg/metrics"
)

// Idempotency ensures handlers execute at most once per Telegram message.
func Idempotency(guard *idempotency.Guard, log *slog.Logger) handlers.Middleware {
	if guard == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := extractIdempotencyKey(c)
			if key == "" {
				return next(c)
			}

			err := guard.Do(handlers.RequestContext(c), key, func(context.Context) error {
				return next(c)
			})
			if errors.Is(err, idempotency.ErrDuplicate) {
				metrics.RecordDuplicateUpdate()
				log.Info("dropping duplicate update", slog.String("key", key))
				return nil
			}

			return err
		}
	}
}

func extractIdempotencyKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	msg := c.Message()
	if msg == nil || msg.ID == 0 {
		return ""
	}

	chatID := int64(0)
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}

	return idempotency.MessageKey(chatID, msg.ID)
}
