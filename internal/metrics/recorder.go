// Package metrics provides Prometheus metrics for adjudication runs.
//
// A run is a batch job, so metrics are not scraped. They are written to a
// node-exporter textfile when the run ends (see WriteTextfile).
package metrics

// Recorder defines the metrics the engine records. Components depend on
// this interface rather than on concrete collectors.
type Recorder interface {
	// RecordTransitions counts QSOs moved into state by phase.
	RecordTransitions(phase, state string, n int)

	// RecordPhaseDuration records how long a phase took, in seconds.
	RecordPhaseDuration(phase string, seconds float64)

	// RecordConflict counts a pairing that lost the still-unmatched race.
	RecordConflict(phase string)

	// RecordDecision counts a Decider outcome (answered, deferred, error).
	RecordDecision(kind, outcome string)

	// RecordLookupFailure counts a failed external lookup.
	RecordLookupFailure(source string)
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordTransitions(string, string, int) {}
func (Noop) RecordPhaseDuration(string, float64) {}
func (Noop) RecordConflict(string) {}
func (Noop) RecordDecision(string, string) {}
func (Noop) RecordLookupFailure(string) {}
