package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/giftbasket-bot/internal/bot/handlers"
	"github.com/Proton-105/giftbasket-bot/pkg/metrics"
)

// Metrics times every update and counts it under a bounded label: the
// command name for commands, whatever classify returns for other text.
// A nil classify labels all free text "text".
func Metrics(classify func(text string) string) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			err := next(c)

			status := "ok"
			if err != nil {
				status = "error"
			}
			metrics.RecordCommand(updateLabel(c.Text(), classify), status, time.Since(start))

			return err
		}
	}
}

func updateLabel(text string, classify func(string) string) string {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return "empty"
	case strings.HasPrefix(text, "/"):
		cmd, _, _ := strings.Cut(strings.Fields(text)[0], "@")
		return strings.ToLower(cmd)
	case classify != nil:
		if label := classify(text); label != "" {
			return label
		}
	}
	return "text"
}
