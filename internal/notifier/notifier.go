// Package notifier broadcasts the deadline announcement and the daily countdown.
package notifier

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Proton-105/giftbasket-bot/internal/deadline"
	apperrors "github.com/Proton-105/giftbasket-bot/internal/errors"
	"github.com/Proton-105/giftbasket-bot/internal/i18n"
	"github.com/Proton-105/giftbasket-bot/internal/media"
	"github.com/Proton-105/giftbasket-bot/pkg/metrics"
)

const (
	kindDeadline  = "deadline"
	kindCountdown = "countdown"
	kindTest      = "test_reminder"
)

// Message is one outbound broadcast message.
type Message struct {
	Text  string
	Media media.Kind
}

// Sender delivers a message to a single chat.
type Sender interface {
	Send(ctx context.Context, recipient int64, msg Message) error
}

// Audience lists the broadcast recipients.
type Audience interface {
	Snapshot() []int64
}

// Report summarizes one broadcast.
type Report struct {
	Recipients int
	Sent       int
	Failed     int
}

// Config tunes fan-out.
type Config struct {
	AdminID     int64
	Concurrency int
	SendTimeout time.Duration
}

// Notifier fans messages out to every known user.
type Notifier struct {
	sender   Sender
	audience Audience
	gate     *deadline.Gate
	tr       i18n.Translator
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
}

// New creates a Notifier.
func New(sender Sender, audience Audience, gate *deadline.Gate, tr i18n.Translator, cfg Config, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &Notifier{
		sender:   sender,
		audience: audience,
		gate:     gate,
		tr:       tr,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// NotifyDeadline closes the gate and announces it once. Later calls send nothing.
func (n *Notifier) NotifyDeadline(ctx context.Context) Report {
	n.gate.Trip()
	if !n.gate.ClaimNotification() {
		n.log.Info("deadline already announced")
		return Report{}
	}

	recipients := n.audience.Snapshot()
	n.log.Info("deadline reached, notifying users", "recipients", len(recipients))

	return n.broadcast(ctx, kindDeadline, recipients, Message{Text: n.tr.T("deadline.closed")})
}

// SendCountdown tells every user except the admin how long submissions stay open.
// Nothing is sent once the gate has closed.
func (n *Notifier) SendCountdown(ctx context.Context) Report {
	if n.gate.Passed() {
		return Report{}
	}

	recipients := make([]int64, 0)
	for _, id := range n.audience.Snapshot() {
		if id != n.cfg.AdminID {
			recipients = append(recipients, id)
		}
	}

	msg := Message{Text: n.CountdownText(n.now()), Media: media.Reminder}
	n.log.Info("sending countdown reminder", "recipients", len(recipients))

	return n.broadcast(ctx, kindCountdown, recipients, msg)
}

// SendTestReminder sends the countdown to everyone including the admin.
func (n *Notifier) SendTestReminder(ctx context.Context) Report {
	msg := Message{Text: n.CountdownText(n.now()), Media: media.Reminder}
	return n.broadcast(ctx, kindTest, n.audience.Snapshot(), msg)
}

// CountdownText renders days left, or hours on the last day.
func (n *Notifier) CountdownText(now time.Time) string {
	left := n.gate.Remaining(now)
	if left.LastDay() {
		return n.tr.Tf("reminder.hours", map[string]any{"hours": left.Hours})
	}
	return n.tr.Plural("reminder.days", left.Days, map[string]any{"days": left.Days})
}

// broadcast delivers msg to every recipient with bounded concurrency.
// A failing recipient is logged and skipped, it never stops the others.
func (n *Notifier) broadcast(ctx context.Context, kind string, recipients []int64, msg Message) Report {
	metrics.RecordBroadcast(kind)

	var sent, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.cfg.Concurrency)

	for _, recipient := range recipients {
		recipient := recipient
		g.Go(func() error {
			if err := n.deliver(gctx, recipient, msg); err != nil {
				failed.Add(1)
				metrics.RecordDelivery(kind, false)
				n.log.Warn("broadcast delivery failed",
					"kind", kind,
					"recipient", recipient,
					"error", err,
				)
				return nil
			}

			sent.Add(1)
			metrics.RecordDelivery(kind, true)
			return nil
		})
	}

	_ = g.Wait()

	report := Report{
		Recipients: len(recipients),
		Sent:       int(sent.Load()),
		Failed:     int(failed.Load()),
	}
	n.log.Info("broadcast finished",
		"kind", kind,
		"recipients", report.Recipients,
		"sent", report.Sent,
		"failed", report.Failed,
	)

	return report
}

// deliver retries transient failures and falls back to plain text when the decorated message fails.
func (n *Notifier) deliver(ctx context.Context, recipient int64, msg Message) error {
	err := n.send(ctx, recipient, msg)
	if err == nil || msg.Media == media.None {
		return err
	}

	n.log.Debug("media delivery failed, falling back to text", "recipient", recipient, "error", err)
	return n.send(ctx, recipient, Message{Text: msg.Text})
}

func (n *Notifier) send(ctx context.Context, recipient int64, msg Message) error {
	return apperrors.WithRetry(ctx, func() error {
		sendCtx := ctx
		if n.cfg.SendTimeout > 0 {
			var cancel context.CancelFunc
			sendCtx, cancel = context.WithTimeout(ctx, n.cfg.SendTimeout)
			defer cancel()
		}

		return n.sender.Send(sendCtx, recipient, msg)
	})
}
