// Package deadline implements the one-way submission cutoff.
package deadline

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrExpired is returned by mutating operations once the cutoff has passed.
var ErrExpired = errors.New("submissions are closed")

// Countdown is the time left until the cutoff, floored to whole days and hours.
type Countdown struct {
	Days  int
	Hours int
}

// LastDay reports whether less than a full day remains.
func (c Countdown) LastDay() bool {
	return c.Days == 0
}

// Gate latches permanently once the cutoff instant is reached.
type Gate struct {
	cutoff   time.Time
	now      func() time.Time
	passed   atomic.Bool
	notified atomic.Bool
}

// Option customizes a Gate.
type Option func(*Gate)

// WithClock replaces the wall clock used by Passed.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate creates a gate for the given cutoff.
func NewGate(cutoff time.Time, opts ...Option) *Gate {
	g := &Gate{
		cutoff: cutoff,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Cutoff returns the configured deadline instant.
func (g *Gate) Cutoff() time.Time {
	return g.cutoff
}

// Passed evaluates the gate against the injected clock.
func (g *Gate) Passed() bool {
	return g.PassedAt(g.now())
}

// PassedAt reports whether submissions are closed at now. The first true result latches.
func (g *Gate) PassedAt(now time.Time) bool {
	if g.passed.Load() {
		return true
	}
	if !now.Before(g.cutoff) {
		g.passed.Store(true)
		return true
	}
	return false
}

// Trip closes the gate regardless of the clock.
func (g *Gate) Trip() {
	g.passed.Store(true)
}

// ClaimNotification returns true exactly once, to the caller that should announce the closure.
func (g *Gate) ClaimNotification() bool {
	return g.notified.CompareAndSwap(false, true)
}

// Remaining returns the countdown at now, or a zero Countdown once the cutoff is reached.
func (g *Gate) Remaining(now time.Time) Countdown {
	d := g.cutoff.Sub(now)
	if d <= 0 {
		return Countdown{}
	}

	return Countdown{
		Days:  int(d / (24 * time.Hour)),
		Hours: int((d % (24 * time.Hour)) / time.Hour),
	}
}
