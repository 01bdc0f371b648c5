package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/giftbasket-bot/internal/state"
)

type fakeStates struct {
	counts map[state.State]int
	err    error
}

func (f fakeStates) CountByState(context.Context) (map[state.State]int, error) {
	return f.counts, f.err
}

func TestStateCollector_Collect(t *testing.T) {
	c := NewStateCollector(fakeStates{counts: map[state.State]int{
		state.StateAwaitingPrice:         2,
		state.StateAwaitingRemovalTarget: 1,
	}}, func() int { return 10 })

	require.NoError(t, c.collect(context.Background()))

	assert.Equal(t, 10.0, value(t, knownUsers))
	assert.Equal(t, 7.0, value(t, usersByState.WithLabelValues("idle")))
	assert.Equal(t, 2.0, value(t, usersByState.WithLabelValues("awaiting_price")))
	assert.Equal(t, 0.0, value(t, usersByState.WithLabelValues("awaiting_name")))
}

func TestStateCollector_CollectError(t *testing.T) {
	boom := errors.New("boom")
	c := NewStateCollector(fakeStates{err: boom}, nil)

	assert.ErrorIs(t, c.collect(context.Background()), boom)
}

func TestRecordDelivery(t *testing.T) {
	before := value(t, deliveriesTotal.WithLabelValues("test", "failed"))
	RecordDelivery("test", false)
	assert.Equal(t, before+1, value(t, deliveriesTotal.WithLabelValues("test", "failed")))
}

func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()

	var m dto.Metric
	require.NoError(t, c.Write(&m))
	if m.GetGauge() != nil {
		return m.GetGauge().GetValue()
	}
	return m.GetCounter().GetValue()
}
