package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/giftbasket-bot/internal/conversation"
	"github.com/Proton-105/giftbasket-bot/internal/media"
)

// Responder turns conversation replies into Telegram messages.
type Responder struct {
	media *media.Library
	menu  *telebot.ReplyMarkup
	log   *slog.Logger
}

// NewResponder builds a Responder. menu is attached to replies that ask for it.
func NewResponder(library *media.Library, menu *telebot.ReplyMarkup, log *slog.Logger) *Responder {
	if log == nil {
		log = slog.Default()
	}

	return &Responder{
		media: library,
		menu:  menu,
		log:   log,
	}
}

// Reply sends reply to the chat of c. An animation that fails to go out is
// replaced by the same text without it.
func (r *Responder) Reply(c telebot.Context, reply conversation.Reply) error {
	if reply.Text == "" {
		return nil
	}

	var opts []any
	if reply.Menu && r.menu != nil {
		opts = append(opts, r.menu)
	}

	if path, ok := r.media.Path(reply.Media); ok {
		animation := &telebot.Animation{
			File:    telebot.FromDisk(path),
			Caption: reply.Text,
		}

		err := c.Send(animation, opts...)
		if err == nil {
			return nil
		}

		r.log.Warn("failed to send animation, falling back to text",
			slog.Int64("user_id", senderID(c)),
			slog.String("media", reply.Media.String()),
			slog.Any("error", err),
		)
	}

	return c.Send(reply.Text, opts...)
}

// Text sends a plain message, optionally with the main menu.
func (r *Responder) Text(c telebot.Context, text string, withMenu bool) error {
	return r.Reply(c, conversation.Reply{Text: text, Menu: withMenu})
}
