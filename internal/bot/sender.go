package bot

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"net"

	telebot "gopkg.in/telebot.v3"

	errors "github.com/Proton-105/giftbasket-bot/internal/errors"
	"github.com/Proton-105/giftbasket-bot/internal/media"
	"github.com/Proton-105/giftbasket-bot/internal/notifier"
)

// messenger is the subset of *telebot.Bot used for outbound broadcasts.
type messenger interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Sender delivers notifier messages through the Telegram API.
type Sender struct {
	api   messenger
	media *media.Library
	log   *slog.Logger
}

var _ notifier.Sender = (*Sender)(nil)

// NewSender wraps api. Animations are looked up in library.
func NewSender(api messenger, library *media.Library, log *slog.Logger) *Sender {
	if log == nil {
		log = slog.Default()
	}

	return &Sender{
		api:   api,
		media: library,
		log:   log,
	}
}

// Send delivers msg to recipient's private chat. Flood waits and network
// failures come back as retryable delivery errors; blocked chats and other
// API refusals do not.
func (s *Sender) Send(ctx context.Context, recipient int64, msg notifier.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var what interface{} = msg.Text
	if path, ok := s.media.Path(msg.Media); ok {
		what = &telebot.Animation{
			File:    telebot.FromDisk(path),
			Caption: msg.Text,
		}
	}

	// telebot calls are not cancellable; the buffered channel lets an abandoned call finish on its own.
	done := make(chan error, 1)
	go func() {
		_, err := s.api.Send(telebot.ChatID(recipient), what)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return errors.NewDeliveryError(recipient, true, ctx.Err())
	case err := <-done:
		return classifyDelivery(recipient, err)
	}
}

func classifyDelivery(recipient int64, err error) error {
	if err == nil {
		return nil
	}

	var flood telebot.FloodError
	if stdErrors.As(err, &flood) {
		return errors.NewDeliveryError(recipient, true, err)
	}

	var netErr net.Error
	if stdErrors.As(err, &netErr) {
		return errors.NewDeliveryError(recipient, true, err)
	}

	return errors.NewDeliveryError(recipient, false, err)
}
