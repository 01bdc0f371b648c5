package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/giftbasket-bot/internal/idempotency"
	"github.com/Proton-105/giftbasket-bot/internal/ratelimit"
	"github.com/Proton-105/giftbasket-bot/pkg/config"
)

type fakeContext struct {
	telebot.Context
	sender *telebot.User
	msg    *telebot.Message
	sent   []any
	store  map[string]any
}

func newFakeContext(userID int64, msgID int, text string) *fakeContext {
	return &fakeContext{
		sender: &telebot.User{ID: userID},
		msg: &telebot.Message{
			ID:   msgID,
			Text: text,
			Chat: &telebot.Chat{ID: userID},
		},
		store: make(map[string]any),
	}
}

func (f *fakeContext) Sender() *telebot.User     { return f.sender }
func (f *fakeContext) Message() *telebot.Message { return f.msg }
func (f *fakeContext) Text() string {
	if f.msg == nil {
		return ""
	}
	return f.msg.Text
}
func (f *fakeContext) Get(key string) interface{}      { return f.store[key] }
func (f *fakeContext) Set(key string, val interface{}) { f.store[key] = val }
func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.sent = append(f.sent, what)
	return nil
}

func TestIdempotency_DropsRedeliveredMessage(t *testing.T) {
	guard := idempotency.NewGuard(idempotency.NewMemoryStore(), time.Hour, testLogger())

	calls := 0
	handler := Idempotency(guard, testLogger())(func(telebot.Context) error {
		calls++
		return nil
	})

	require.NoError(t, handler(newFakeContext(1, 10, "hi")))
	require.NoError(t, handler(newFakeContext(1, 10, "hi")))
	require.NoError(t, handler(newFakeContext(1, 11, "hi")))
	require.NoError(t, handler(newFakeContext(2, 10, "hi")))

	assert.Equal(t, 3, calls)
}

func TestIdempotency_WithoutMessagePassesThrough(t *testing.T) {
	guard := idempotency.NewGuard(idempotency.NewMemoryStore(), time.Hour, testLogger())

	calls := 0
	handler := Idempotency(guard, testLogger())(func(telebot.Context) error {
		calls++
		return nil
	})

	c := newFakeContext(1, 0, "")
	c.msg = nil
	require.NoError(t, handler(c))
	require.NoError(t, handler(c))

	assert.Equal(t, 2, calls)
}

func TestIdempotency_NilGuard(t *testing.T) {
	calls := 0
	handler := Idempotency(nil, nil)(func(telebot.Context) error {
		calls++
		return nil
	})

	require.NoError(t, handler(newFakeContext(1, 10, "hi")))
	require.NoError(t, handler(newFakeContext(1, 10, "hi")))
	assert.Equal(t, 2, calls)
}

func TestRateLimitMiddleware(t *testing.T) {
	rules, err := ratelimit.NewRules(config.RateLimitConfig{
		Enabled:   true,
		PerUser:   config.RateLimitRule{Limit: 2, Window: "1m"},
		Whitelist: []int64{99},
	})
	require.NoError(t, err)
	mw := NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(testLogger()), rules, nil, testLogger())

	calls := 0
	handler := mw.Handle(func(telebot.Context) error {
		calls++
		return nil
	})

	limited := newFakeContext(1, 1, "a")
	for i := 0; i < 3; i++ {
		require.NoError(t, handler(limited))
	}
	assert.Equal(t, 2, calls)
	require.Len(t, limited.sent, 1)
	assert.Equal(t, "Rate limit exceeded. Try again later.", limited.sent[0])

	admin := newFakeContext(99, 1, "a")
	for i := 0; i < 5; i++ {
		require.NoError(t, handler(admin))
	}
	assert.Equal(t, 7, calls)
	assert.Empty(t, admin.sent)
}

func TestUpdateLabel(t *testing.T) {
	menu := func(text string) string {
		if text == "📋 Мои товары" {
			return "menu_list"
		}
		return ""
	}

	tests := []struct {
		text string
		want string
	}{
		{text: "/start", want: "/start"},
		{text: "/Budget@gift_bot extra", want: "/budget"},
		{text: "📋 Мои товары", want: "menu_list"},
		{text: "https://example.com/item", want: "text"},
		{text: "1500", want: "text"},
		{text: "   ", want: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, updateLabel(tt.text, menu))
		})
	}

	assert.Equal(t, "text", updateLabel("📋 Мои товары", nil))
}

func TestHTTPLogging_PassesStatusThrough(t *testing.T) {
	handler := HTTPLogging(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "down", rec.Body.String())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
