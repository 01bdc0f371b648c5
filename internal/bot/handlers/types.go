// Package handlers holds the Telegram command handlers and their shared plumbing.
package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

const requestContextKey = "request_ctx"

// WithRequestContext stores ctx on the update so downstream handlers share
// its correlation ID and cancellation.
func WithRequestContext(c telebot.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(requestContextKey, ctx)
}

// RequestContext returns the context attached by WithRequestContext, or a
// background context for updates that never went through the middleware chain.
func RequestContext(c telebot.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(requestContextKey).(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// senderID returns the Telegram ID of the update author, or 0.
func senderID(c telebot.Context) int64 {
	if c == nil || c.Sender() == nil {
		return 0
	}
	return c.Sender().ID
}
