// Package metrics exposes the bot's Prometheus instruments.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/giftbasket-bot/internal/state"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of conversation state transitions",
		},
		[]string{"from", "to"},
	)
	conversationOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_outcomes_total",
			Help: "Replies produced by the conversation engine grouped by outcome",
		},
		[]string{"outcome"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	knownUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "known_users",
			Help: "Number of users that ever wrote to the bot",
		},
	)
	usersByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "users_by_state",
			Help: "Number of users per conversation state",
		},
		[]string{"state"},
	)
	basketItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "basket_items",
			Help: "Number of items in the shared basket",
		},
	)
	basketSpent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "basket_spent",
			Help: "Sum of item prices in the shared basket",
		},
	)
	broadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcasts_total",
			Help: "Broadcasts started grouped by kind",
		},
		[]string{"kind"},
	)
	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Per-recipient broadcast deliveries grouped by kind and status",
		},
		[]string{"kind", "status"},
	)
	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_updates_total",
			Help: "Updates dropped by the per-user rate limiter",
		},
	)
	duplicateUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duplicate_updates_total",
			Help: "Updates skipped because they were already processed",
		},
	)
)

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordStateTransition tracks conversation transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordOutcome counts one conversation reply.
func RecordOutcome(outcome string) {
	if outcome == "" {
		return
	}
	conversationOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// SetKnownUsers updates the size of the broadcast audience.
func SetKnownUsers(count int) {
	knownUsers.Set(float64(count))
}

// SetBasket publishes the basket size and spend.
func SetBasket(items int, spent float64) {
	basketItems.Set(float64(items))
	basketSpent.Set(spent)
}

// RecordBroadcast counts a started broadcast.
func RecordBroadcast(kind string) {
	broadcastsTotal.WithLabelValues(kind).Inc()
}

// RecordDelivery counts one recipient of a broadcast.
func RecordDelivery(kind string, ok bool) {
	status := "sent"
	if !ok {
		status = "failed"
	}
	deliveriesTotal.WithLabelValues(kind, status).Inc()
}

// RecordRateLimited counts a throttled update.
func RecordRateLimited() {
	rateLimitedTotal.Inc()
}

// RecordDuplicateUpdate counts a redelivered update.
func RecordDuplicateUpdate() {
	duplicateUpdatesTotal.Inc()
}

// SetUsersByState updates the gauge for the given state.
func SetUsersByState(state string, count int) {
	if state == "" {
		state = "unknown"
	}

	usersByState.WithLabelValues(state).Set(float64(count))
}

// StateSource is the part of the state machine the collector reads.
type StateSource interface {
	CountByState(ctx context.Context) (map[state.State]int, error)
}

// StateCollector periodically gathers conversation state counts and emits gauge metrics.
type StateCollector struct {
	fsm      StateSource
	known    func() int
	interval time.Duration
}

// NewStateCollector builds a collector. known reports the total number of users;
// those without a stored state are counted as idle.
func NewStateCollector(fsm StateSource, known func() int) *StateCollector {
	return &StateCollector{fsm: fsm, known: known, interval: 10 * time.Second}
}

// Run polls every interval, updating gauges until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.fsm == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *StateCollector) collect(ctx context.Context) error {
	counts, err := c.fsm.CountByState(ctx)
	if err != nil {
		return err
	}

	total := 0
	if c.known != nil {
		total = c.known()
		SetKnownUsers(total)
	}

	busy := 0
	for _, st := range state.All() {
		if st == state.StateIdle {
			continue
		}
		busy += counts[st]
		SetUsersByState(string(st), counts[st])
	}

	idle := total - busy + counts[state.StateIdle]
	if idle < 0 {
		idle = 0
	}
	SetUsersByState(string(state.StateIdle), idle)

	return nil
}
