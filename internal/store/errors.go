package store

import "errors"

var (
	// ErrAlreadyMatched is returned when a pairing loses the race: one of
	// the two QSOs is no longer unmatched. The transaction is rolled back.
	ErrAlreadyMatched = errors.New("qso already matched")

	// ErrSameLog is returned when both QSOs of a pairing belong to one log.
	ErrSameLog = errors.New("qsos belong to the same log")

	// ErrIllegalTransition is returned when a single-row state change is
	// not permitted from the row's current state.
	ErrIllegalTransition = errors.New("illegal match type transition")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
)
