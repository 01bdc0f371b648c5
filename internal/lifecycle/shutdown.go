// Package lifecycle coordinates graceful shutdown of the bot's components.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Hook is one named step of the shutdown sequence.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// CloseHook adapts a Close method that takes no context, such as a Redis client's.
func CloseHook(name string, closeFn func() error) Hook {
	return Hook{Name: name, Fn: func(context.Context) error { return closeFn() }}
}

// Shutdown runs registered hooks in stages. Hooks within a stage run in
// parallel; stages run in registration order, so the transport can stop
// before the things it feeds.
type Shutdown struct {
	mu     sync.Mutex
	stages [][]Hook
	log    *slog.Logger
}

// NewShutdown constructs a new Shutdown coordinator.
func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{log: log}
}

// Register adds hooks as a new stage that runs after every earlier stage finished.
func (s *Shutdown) Register(hooks ...Hook) {
	stage := make([]Hook, 0, len(hooks))
	for _, h := range hooks {
		if h.Fn != nil {
			stage = append(stage, h)
		}
	}
	if len(stage) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, stage)
}

// Execute runs all stages and joins every hook error. ctx bounds the whole sequence.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	stages := append([][]Hook(nil), s.stages...)
	s.mu.Unlock()

	start := time.Now()
	s.log.Info("shutdown sequence started", slog.Int("stage_count", len(stages)))

	var errs []error
	for _, stage := range stages {
		errs = append(errs, s.runStage(ctx, stage)...)
	}

	s.log.Info("shutdown sequence finished", slog.Duration("elapsed", time.Since(start)))

	return errors.Join(errs...)
}

func (s *Shutdown) runStage(ctx context.Context, stage []Hook) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, h := range stage {
		wg.Add(1)
		go func() {
			defer wg.Done()

			s.log.Info("running shutdown hook", slog.String("hook", h.Name))
			if err := h.Fn(ctx); err != nil {
				s.log.Error("shutdown hook failed", slog.String("hook", h.Name), slog.Any("error", err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
				mu.Unlock()
				return
			}
			s.log.Info("shutdown hook completed", slog.String("hook", h.Name))
		}()
	}

	wg.Wait()
	return errs
}
