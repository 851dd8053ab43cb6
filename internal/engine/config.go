package engine

import (
	"time"

	"github.com/tepperly/nasprint-sub000/internal/clockadj"
	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/multiplier"
	"github.com/tepperly/nasprint-sub000/internal/similarity"
	"github.com/tepperly/nasprint-sub000/internal/singleton"
)

// Config holds the matching thresholds. The defaults are empirically tuned
// and kept overridable rather than derived.
type Config struct {
	// TimeTolerance is the window for the perfect and partial phases.
	TimeTolerance time.Duration
	// ShiftedTolerance is the window for the time-shifted search.
	ShiftedTolerance time.Duration
	// UnreliableTolerance replaces TimeTolerance when either log has an
	// unreliable clock.
	UnreliableTolerance time.Duration
	// SerialTolerance is the largest serial discrepancy the exact phases
	// accept.
	SerialTolerance int
	// UnknownSerial is the "not copied" serial sentinel.
	UnknownSerial int

	// CandidateFloor is the lowest metric the probabilistic phase keeps.
	CandidateFloor float64
	// AutoAcceptMetric and AutoAcceptCallsign gate automatic links.
	AutoAcceptMetric   float64
	AutoAcceptCallsign float64

	Similarity similarity.Params
	Singleton  singleton.Params
	Multiplier multiplier.Params

	// ClockEnabled turns on clock solving and the re-match pass.
	ClockEnabled bool
	Clock        clockadj.Params

	// MaxPasses bounds matching passes per run.
	MaxPasses int
	// LookupTTL is how long entity lookups are cached.
	LookupTTL time.Duration
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		TimeTolerance:       15 * time.Minute,
		ShiftedTolerance:    30 * time.Hour,
		UnreliableTolerance: 60 * time.Minute,
		SerialTolerance:     1,
		UnknownSerial:       model.UnknownSerial,
		CandidateFloor:      0.20,
		AutoAcceptMetric:    0.5,
		AutoAcceptCallsign:  0.8,
		Similarity:          similarity.DefaultParams(),
		Singleton:           singleton.DefaultParams(),
		Multiplier:          multiplier.DefaultParams(),
		ClockEnabled:        true,
		Clock:               clockadj.DefaultParams(),
		MaxPasses:           DefaultMaxPasses,
		LookupTTL:           time.Hour,
	}
}
