package harness

import (
	"github.com/tepperly/nasprint-sub000/internal/model"
)

// QSOSummary is the final adjudication of one QSO.
type QSOSummary struct {
	Ref     string          `json:"ref"`
	Line    string          `json:"line"`
	State   model.MatchType `json:"state"`
	Matched string          `json:"matched,omitempty"`
	Comment string          `json:"comment,omitempty"`
	Score   int             `json:"score"`

	matchID int64
}

// LogSummary is the final adjudication of one log.
type LogSummary struct {
	Callsign      string       `json:"callsign"`
	ClockAdj      int          `json:"clock_adj,omitempty"`
	VerifiedScore *int         `json:"verified_score"`
	VerifiedQSOs  *int         `json:"verified_qsos"`
	VerifiedMults *int         `json:"verified_mults"`
	QSOs          []QSOSummary `json:"qsos"`
}

// Summary is the stable part of a scenario run, used for golden comparison.
type Summary struct {
	Scenario    string                  `json:"scenario"`
	RunID       string                  `json:"run_id"`
	Passes      int                     `json:"passes"`
	Transitions int64                   `json:"transitions"`
	Deferred    int                     `json:"deferred"`
	Totals      map[model.MatchType]int `json:"totals"`
	Logs        []LogSummary            `json:"logs"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	Summary Summary `json:"summary"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Errors:  []string{},
		Summary: Summary{Totals: map[model.MatchType]int{}},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Log returns the summary of the log submitted by callsign.
func (r *Result) Log(callsign string) *LogSummary {
	call := model.NormalizeCall(callsign)
	for i := range r.Summary.Logs {
		if r.Summary.Logs[i].Callsign == call {
			return &r.Summary.Logs[i]
		}
	}
	return nil
}

// QSO returns the summary of the referenced QSO.
func (r *Result) QSO(ref QSORef) *QSOSummary {
	l := r.Log(ref.Callsign)
	if l == nil || ref.Index > len(l.QSOs) {
		return nil
	}
	return &l.QSOs[ref.Index-1]
}
