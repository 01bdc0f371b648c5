package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdown_RunsStagesInOrder(t *testing.T) {
	s := NewShutdown(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) Hook {
		return Hook{Name: name, Fn: func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}}
	}

	s.Register(record("bot"))
	s.Register(record("scheduler"), record("http"))
	s.Register(Hook{Name: "empty"})
	s.Register(record("redis"))

	require.NoError(t, s.Execute(context.Background()))

	require.Len(t, order, 4)
	assert.Equal(t, "bot", order[0])
	assert.ElementsMatch(t, []string{"scheduler", "http"}, order[1:3])
	assert.Equal(t, "redis", order[3])
}

func TestShutdown_JoinsErrors(t *testing.T) {
	s := NewShutdown(nil)
	boom := errors.New("boom")

	ran := false
	s.Register(Hook{Name: "failing", Fn: func(context.Context) error { return boom }})
	s.Register(Hook{Name: "after", Fn: func(context.Context) error {
		ran = true
		return nil
	}})

	err := s.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing")
	assert.True(t, ran)
}

func TestCloseHook(t *testing.T) {
	s := NewShutdown(nil)

	closed := false
	s.Register(CloseHook("redis", func() error {
		closed = true
		return nil
	}))

	require.NoError(t, s.Execute(context.Background()))
	assert.True(t, closed)
}
