package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSync_ObserveCycle(t *testing.T) {
	m := NewSync(prometheus.NewRegistry())

	m.ObserveCycle(OutcomeSuccess, 20*time.Millisecond)
	m.ObserveCycle(OutcomeFailure, time.Second)
	m.ObserveCycle(OutcomeSkipped, 0)

	assert.InDelta(t, 1, testutil.ToFloat64(m.cycles.WithLabelValues(OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.cycles.WithLabelValues(OutcomeFailure)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.cycles.WithLabelValues(OutcomeSkipped)), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestSync_ObserveReconcileAndPush(t *testing.T) {
	m := NewSync(prometheus.NewRegistry())

	m.ObserveReconcile(3, 2, 1)
	m.ObservePush(nil)
	m.ObservePush(errors.New("boom"))
	m.SetQuotes(7)

	assert.InDelta(t, 3, testutil.ToFloat64(m.reconciled.WithLabelValues("new")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.reconciled.WithLabelValues("duplicate")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.reconciled.WithLabelValues("conflict")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.pushes.WithLabelValues(OutcomeFailure)), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.quotes), 0)
}

func TestSync_NilIsNoop(t *testing.T) {
	var m *Sync

	assert.NotPanics(t, func() {
		m.ObserveCycle(OutcomeSuccess, time.Second)
		m.ObserveReconcile(1, 1, 1)
		m.ObservePush(nil)
		m.SetQuotes(1)
	})
}
