package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskingHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewTextHandler(&buf, nil)))

	log.Info("starting", slog.String("bot_token", "123:secret"), slog.Int64("admin_id", 42))

	out := buf.String()
	assert.NotContains(t, out, "123:secret")
	assert.Contains(t, out, "bot_token=***")
	assert.Contains(t, out, "admin_id=42")
}

func TestMaskingHandler_ScrubsSecretValues(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewTextHandler(&buf, nil), "123:secret", ""))

	sendErr := errors.New(`Post "https://api.telegram.org/bot123:secret/sendMessage": EOF`)
	log.With(slog.String("url", "https://api.telegram.org/bot123:secret/getMe")).
		Error("send failed", slog.Any("error", sendErr), slog.Group("chat", slog.String("note", "via 123:secret")))

	out := buf.String()
	assert.NotContains(t, out, "123:secret")
	assert.Contains(t, out, "bot***/sendMessage")
	assert.Contains(t, out, "chat.note")
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	SetLevel("error")
	assert.Equal(t, slog.LevelError, level.Level())

	SetLevel("nonsense")
	assert.Equal(t, slog.LevelInfo, level.Level())
}

func TestCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background())

	id := CorrelationIDFromContext(ctx)
	require.NotEmpty(t, id)
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}
