package engine

import "time"

// Clock supplies wall-clock time for the run ledger. Adjudication itself
// never depends on the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
