package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Histogram buckets for phase durations: 1ms doubling to about 65s.
const (
	bucketStart1ms = 0.001
	bucketFactor2  = 2
	bucketCount17  = 17
)

// AdjudicationMetrics contains Prometheus metrics for the matching pipeline.
type AdjudicationMetrics struct {
	registry *prometheus.Registry

	transitionsTotal    *prometheus.CounterVec
	phaseDuration       *prometheus.HistogramVec
	linkConflictsTotal  *prometheus.CounterVec
	decisionsTotal      *prometheus.CounterVec
	lookupFailuresTotal *prometheus.CounterVec
}

// NewAdjudicationMetrics creates and registers the pipeline metrics.
func NewAdjudicationMetrics(registry *prometheus.Registry) (*AdjudicationMetrics, error) {
	m := &AdjudicationMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("register adjudication metrics: %w", err)
	}
	return m, nil
}

func (m *AdjudicationMetrics) initMetrics() {
	m.transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nasprint_qso_transitions_total",
			Help: "Total number of QSOs moved to a match type",
		},
		[]string{"phase", "state"},
	)

	m.phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nasprint_phase_duration_seconds",
			Help:    "Time taken by each adjudication phase",
			Buckets: prometheus.ExponentialBuckets(bucketStart1ms, bucketFactor2, bucketCount17),
		},
		[]string{"phase"},
	)

	m.linkConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nasprint_link_conflicts_total",
			Help: "Total number of pairings rolled back because a side was already matched",
		},
		[]string{"phase"},
	)

	m.decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nasprint_decisions_total",
			Help: "Total number of operator decisions requested",
		},
		[]string{"kind", "outcome"}, // outcome: answered, deferred, error
	)

	m.lookupFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nasprint_lookup_failures_total",
			Help: "Total number of failed external lookups",
		},
		[]string{"source"},
	)
}

// RecordTransitions implements Recorder.
func (m *AdjudicationMetrics) RecordTransitions(phase, state string, n int) {
	if n <= 0 {
		return
	}
	m.transitionsTotal.WithLabelValues(phase, state).Add(float64(n))
}

// RecordPhaseDuration implements Recorder.
func (m *AdjudicationMetrics) RecordPhaseDuration(phase string, seconds float64) {
	m.phaseDuration.WithLabelValues(phase).Observe(seconds)
}

// RecordConflict implements Recorder.
func (m *AdjudicationMetrics) RecordConflict(phase string) {
	m.linkConflictsTotal.WithLabelValues(phase).Inc()
}

// RecordDecision implements Recorder.
func (m *AdjudicationMetrics) RecordDecision(kind, outcome string) {
	m.decisionsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordLookupFailure implements Recorder.
func (m *AdjudicationMetrics) RecordLookupFailure(source string) {
	m.lookupFailuresTotal.WithLabelValues(source).Inc()
}

// Describe implements the Collector interface
func (m *AdjudicationMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.transitionsTotal.Describe(ch)
	m.phaseDuration.Describe(ch)
	m.linkConflictsTotal.Describe(ch)
	m.decisionsTotal.Describe(ch)
	m.lookupFailuresTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *AdjudicationMetrics) Collect(ch chan<- prometheus.Metric) {
	m.transitionsTotal.Collect(ch)
	m.phaseDuration.Collect(ch)
	m.linkConflictsTotal.Collect(ch)
	m.decisionsTotal.Collect(ch)
	m.lookupFailuresTotal.Collect(ch)
}

// WriteTextfile writes every metric in the registry to path in the
// Prometheus text format.
func (m *AdjudicationMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
