package logger

import (
	"context"
	"log/slog"
	"strings"
)

const mask = "***"

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"bot_token":     {},
	"secret":        {},
	"api_key":       {},
	"authorization": {},
	"dsn":           {},
}

// MaskingHandler hides secrets before records reach the wrapped handler.
// Attributes with sensitive keys are masked outright. Known secret values
// are also cut out of any string, because telebot errors quote the request
// URL, and that URL contains the bot token.
type MaskingHandler struct {
	next     slog.Handler
	replacer *strings.Replacer
}

// NewMaskingHandler wraps next. Empty secrets are ignored.
func NewMaskingHandler(next slog.Handler, secrets ...string) *MaskingHandler {
	var pairs []string
	for _, s := range secrets {
		if s != "" {
			pairs = append(pairs, s, mask)
		}
	}

	h := &MaskingHandler{next: next}
	if len(pairs) > 0 {
		h.replacer = strings.NewReplacer(pairs...)
	}
	return h
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.maskAttr(a)
	}
	return &MaskingHandler{next: h.next.WithAttrs(masked), replacer: h.replacer}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{next: h.next.WithGroup(name), replacer: h.replacer}
}

func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, h.scrub(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})

	return h.next.Handle(ctx, masked)
}

func (h *MaskingHandler) maskAttr(a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, mask)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		masked := make([]any, len(group))
		for i, ga := range group {
			masked[i] = h.maskAttr(ga)
		}
		return slog.Group(a.Key, masked...)
	case slog.KindString:
		return slog.String(a.Key, h.scrub(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok && h.replacer != nil {
			return slog.String(a.Key, h.scrub(err.Error()))
		}
	}

	return slog.Attr{Key: a.Key, Value: v}
}

func (h *MaskingHandler) scrub(s string) string {
	if h.replacer == nil {
		return s
	}
	return h.replacer.Replace(s)
}
