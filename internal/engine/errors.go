package engine

import (
	"errors"
	"fmt"
)

// AdjudicationError describes a problem with one record during a run.
//
// Most adjudication errors are logged and the run continues; only
// ErrCodeInvalidInput aborts a run.
type AdjudicationError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Phase is the pipeline phase that hit the error.
	Phase string

	// QSOID identifies the affected QSO, when there is one.
	QSOID int64

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes adjudication errors.
type ErrorCode string

const (
	// ErrCodeLinkConflict means a QSO was claimed by another pairing first.
	ErrCodeLinkConflict ErrorCode = "LINK_CONFLICT"

	// ErrCodeLookupFailed means an external lookup could not answer.
	ErrCodeLookupFailed ErrorCode = "LOOKUP_FAILED"

	// ErrCodeDecisionDeferred means the operator left a question open.
	ErrCodeDecisionDeferred ErrorCode = "DECISION_DEFERRED"

	// ErrCodeInvalidInput means the contest cannot be adjudicated as stored.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error implements the error interface.
func (e *AdjudicationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Phase != "" {
		msg += fmt.Sprintf(" (phase=%s", e.Phase)
		if e.QSOID != 0 {
			msg += fmt.Sprintf(", qso=%d", e.QSOID)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *AdjudicationError) Unwrap() error {
	return e.Err
}

// IsLinkConflict returns true if the error is a link conflict.
// Uses errors.As to handle wrapped errors.
func IsLinkConflict(err error) bool {
	var ae *AdjudicationError
	if errors.As(err, &ae) {
		return ae.Code == ErrCodeLinkConflict
	}
	return false
}

// IsLookupFailure returns true if the error is an external lookup failure.
func IsLookupFailure(err error) bool {
	var ae *AdjudicationError
	if errors.As(err, &ae) {
		return ae.Code == ErrCodeLookupFailed
	}
	return false
}

// IsInvalidInput returns true if the error is an invalid input error.
func IsInvalidInput(err error) bool {
	var ae *AdjudicationError
	if errors.As(err, &ae) {
		return ae.Code == ErrCodeInvalidInput
	}
	return false
}

// NewLinkConflict creates an AdjudicationError for a lost linking race.
func NewLinkConflict(phase string, a, b int64, err error) *AdjudicationError {
	return &AdjudicationError{
		Code:    ErrCodeLinkConflict,
		Message: fmt.Sprintf("qso %d or %d already matched", a, b),
		Phase:   phase,
		QSOID:   a,
		Details: map[string]string{"partner": fmt.Sprintf("%d", b)},
		Err:     err,
	}
}

// NewLookupFailure creates an AdjudicationError for a failed lookup.
func NewLookupFailure(phase, source, key string, err error) *AdjudicationError {
	return &AdjudicationError{
		Code:    ErrCodeLookupFailed,
		Message: fmt.Sprintf("%s lookup of %s failed", source, key),
		Phase:   phase,
		Details: map[string]string{"source": source, "key": key},
		Err:     err,
	}
}

// NewDeferred creates an AdjudicationError for an unanswered question.
func NewDeferred(phase, key string) *AdjudicationError {
	return &AdjudicationError{
		Code:    ErrCodeDecisionDeferred,
		Message: fmt.Sprintf("decision %s deferred", key),
		Phase:   phase,
		Details: map[string]string{"key": key},
	}
}

// NewInvalidInput creates an AdjudicationError that aborts a run.
func NewInvalidInput(message string, err error) *AdjudicationError {
	return &AdjudicationError{
		Code:    ErrCodeInvalidInput,
		Message: message,
		Err:     err,
	}
}
