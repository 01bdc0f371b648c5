// Package scheduler runs the deadline and reminder jobs on top of robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// JobID identifies a scheduled job.
type JobID = cron.EntryID

// Scheduler wraps a cron instance bound to one time zone.
type Scheduler struct {
	cron *cron.Cron
	loc  *time.Location
	log  *slog.Logger

	// jobs run under base so Stop can abort them once its deadline passes
	base   context.Context
	cancel context.CancelFunc
}

// New creates a scheduler evaluating specs in loc.
func New(loc *time.Location, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger{log: log}),
		cron.WithChain(cron.Recover(cronLogger{log: log})),
	)

	base, cancel := context.WithCancel(context.Background())

	return &Scheduler{cron: c, loc: loc, log: log, base: base, cancel: cancel}
}

// Once runs fn a single time at the given instant.
func (s *Scheduler) Once(name string, at time.Time, fn func(context.Context)) JobID {
	return s.cron.Schedule(&onceSchedule{at: at}, s.job(name, fn))
}

// Daily runs fn on a standard five-field cron spec such as "0 12 * * *".
func (s *Scheduler) Daily(name, spec string, fn func(context.Context)) (JobID, error) {
	id, err := s.cron.AddJob(spec, s.job(name, fn))
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	return id, nil
}

// Remove cancels a job. Unknown ids are ignored.
func (s *Scheduler) Remove(id JobID) {
	s.cron.Remove(id)
}

// Next reports when a job fires next; zero once it never will.
func (s *Scheduler) Next(id JobID) time.Time {
	return s.cron.Entry(id).Next
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs. When ctx ends first,
// running jobs see their context cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	defer s.cancel()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) job(name string, fn func(context.Context)) cron.Job {
	return cron.FuncJob(func() {
		start := time.Now()
		s.log.Info("scheduled job started", "job", name)

		fn(s.base)

		s.log.Info("scheduled job finished", "job", name, "duration", time.Since(start))
	})
}

// onceSchedule fires at a fixed instant and never again. cron skips entries
// whose next activation is the zero time.
type onceSchedule struct {
	at time.Time
}

func (o *onceSchedule) Next(now time.Time) time.Time {
	if !now.Before(o.at) {
		return time.Time{}
	}
	return o.at
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
