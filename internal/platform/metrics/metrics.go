// Package metrics exposes Prometheus collectors for the quote collection
// and the sync engine. They are served by the /-/metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quotekeeper"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Sync records sync engine and collection activity. A nil *Sync is valid
// and records nothing.
type Sync struct {
	cycles     *prometheus.CounterVec
	reconciled *prometheus.CounterVec
	pushes     *prometheus.CounterVec
	duration   prometheus.Histogram
	quotes     prometheus.Gauge
}

// NewSync registers the collectors with reg.
// Pass prometheus.DefaultRegisterer in production.
func NewSync(reg prometheus.Registerer) *Sync {
	f := promauto.With(reg)

	return &Sync{
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cycles_total",
			Help:      "Sync cycles by outcome.",
		}, []string{"outcome"}),
		reconciled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "quotes_total",
			Help:      "Remote quotes by reconcile classification.",
		}, []string{"classification"}),
		pushes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "pushes_total",
			Help:      "Outbound quote pushes by outcome.",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of completed sync cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		quotes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quotes",
			Help:      "Quotes in the local collection.",
		}),
	}
}

// ObserveCycle records one finished or skipped cycle.
func (s *Sync) ObserveCycle(outcome string, elapsed time.Duration) {
	if s == nil {
		return
	}

	s.cycles.WithLabelValues(outcome).Inc()

	if outcome != OutcomeSkipped {
		s.duration.Observe(elapsed.Seconds())
	}
}

// ObserveReconcile adds per-classification counts from one cycle.
func (s *Sync) ObserveReconcile(added, duplicates, conflicts int) {
	if s == nil {
		return
	}

	s.reconciled.WithLabelValues("new").Add(float64(added))
	s.reconciled.WithLabelValues("duplicate").Add(float64(duplicates))
	s.reconciled.WithLabelValues("conflict").Add(float64(conflicts))
}

// ObservePush records one outbound push.
func (s *Sync) ObservePush(err error) {
	if s == nil {
		return
	}

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}

	s.pushes.WithLabelValues(outcome).Inc()
}

// SetQuotes sets the collection size gauge.
func (s *Sync) SetQuotes(n int) {
	if s == nil {
		return
	}

	s.quotes.Set(float64(n))
}
