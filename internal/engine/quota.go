package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxPasses bounds how many times one run may execute the matching
// phases. A run needs one pass, or two when the clocks are solved.
const DefaultMaxPasses = 3

// passQuota counts pipeline passes within one run.
//
// The clock loop restarts matching once per run, after which the contest
// is marked solved; the quota turns a regression in that hand-off into an
// error instead of a loop.
type passQuota struct {
	limit   int
	current int
}

func newPassQuota(limit int) *passQuota {
	if limit < 1 {
		limit = DefaultMaxPasses
	}
	return &passQuota{limit: limit}
}

// Check counts one more pass and fails once the limit is passed.
func (q *passQuota) Check(runID string) error {
	q.current++
	if q.current > q.limit {
		return &PassesExceededError{RunID: runID, Passes: q.current, Limit: q.limit}
	}
	return nil
}

// Current returns the number of passes counted so far.
func (q *passQuota) Current() int {
	return q.current
}

// PassesExceededError is returned when a run keeps restarting matching.
type PassesExceededError struct {
	RunID  string
	Passes int
	Limit  int
}

func (e *PassesExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded max passes: %d passes > %d limit", e.RunID, e.Passes, e.Limit)
}

// IsPassesExceeded returns true if the error is a PassesExceededError.
// Uses errors.As to handle wrapped errors.
func IsPassesExceeded(err error) bool {
	var pe *PassesExceededError
	return errors.As(err, &pe)
}
