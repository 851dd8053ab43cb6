package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjudicationMetrics_Counts(t *testing.T) {
	m, err := NewAdjudicationMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordTransitions("perfect", "Full", 4)
	m.RecordTransitions("perfect", "Full", 2)
	m.RecordTransitions("nil", "NIL", 0)
	m.RecordConflict("perfect")
	m.RecordDecision("pair", "deferred")
	m.RecordLookupFailure("entity")
	m.RecordPhaseDuration("perfect", 0.25)

	assert.Equal(t, 6.0, testutil.ToFloat64(m.transitionsTotal.WithLabelValues("perfect", "Full")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.transitionsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.linkConflictsTotal.WithLabelValues("perfect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisionsTotal.WithLabelValues("pair", "deferred")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookupFailuresTotal.WithLabelValues("entity")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.phaseDuration))
}

func TestAdjudicationMetrics_DoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewAdjudicationMetrics(reg)
	require.NoError(t, err)
	_, err = NewAdjudicationMetrics(reg)
	assert.Error(t, err)
}

func TestWriteTextfile(t *testing.T) {
	m, err := NewAdjudicationMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	m.RecordTransitions("nil", "NIL", 3)

	path := filepath.Join(t.TempDir(), "nasprint.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `nasprint_qso_transitions_total{phase="nil",state="NIL"} 3`)
}

func TestNoopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Noop{}
	r.RecordTransitions("x", "y", 1)
	r.RecordConflict("x")
}
