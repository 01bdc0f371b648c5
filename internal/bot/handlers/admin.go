package handlers

import (
	"context"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/giftbasket-bot/internal/i18n"
	"github.com/Proton-105/giftbasket-bot/internal/ledger"
	"github.com/Proton-105/giftbasket-bot/internal/money"
	"github.com/Proton-105/giftbasket-bot/internal/notifier"
)

// Reminder is the part of the notifier the admin commands need.
type Reminder interface {
	SendTestReminder(ctx context.Context) notifier.Report
}

// AdminOnly lets next run only for adminID. Everyone else gets no reply at all.
func AdminOnly(adminID int64, log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next Handler) Handler {
		return func(c telebot.Context) error {
			if userID := senderID(c); userID == 0 || userID != adminID {
				log.Info("ignoring admin command from non-admin",
					slog.Int64("user_id", userID),
					slog.String("text", c.Text()),
				)
				return nil
			}
			return next(c)
		}
	}
}

// NewBudgetHandler reports the hidden figures: spent, remaining, limit and every item with its link.
func NewBudgetHandler(l *ledger.Ledger, tr i18n.Translator, currency string, resp *Responder) Handler {
	return func(c telebot.Context) error {
		snap := l.Snapshot()

		var b strings.Builder
		b.WriteString(tr.Tf("admin.budget", map[string]any{
			"spent":     money.Format(snap.Spent, currency),
			"remaining": money.Format(snap.Remaining, currency),
			"limit":     money.Format(snap.Limit, currency),
			"count":     len(snap.Items),
		}))

		if len(snap.Items) > 0 {
			b.WriteString("\n\n")
			b.WriteString(tr.T("admin.budget_items"))
			for i, item := range snap.Items {
				b.WriteByte('\n')
				b.WriteString(tr.Tf("admin.budget_item", map[string]any{
					"index": i + 1,
					"name":  item.Name,
					"price": money.Format(item.Price, currency),
					"link":  item.Link,
				}))
			}
		}

		return resp.Text(c, b.String(), false)
	}
}

// NewResetHandler empties the basket and returns the whole budget.
func NewResetHandler(l *ledger.Ledger, tr i18n.Translator, resp *Responder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		before := l.Len()
		l.Reset()
		log.Warn("basket reset by admin", slog.Int64("user_id", senderID(c)), slog.Int("items_dropped", before))

		return resp.Text(c, tr.T("admin.reset"), false)
	}
}

// NewTestReminderHandler sends the countdown to everyone, the admin included, and reports how many got it.
func NewTestReminderHandler(reminder Reminder, tr i18n.Translator, resp *Responder) Handler {
	return func(c telebot.Context) error {
		report := reminder.SendTestReminder(RequestContext(c))

		return resp.Text(c, tr.Tf("admin.test_reminder", map[string]any{"count": report.Sent}), false)
	}
}
