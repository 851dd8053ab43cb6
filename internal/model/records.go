package model

import "time"

// Contest identifies one adjudication batch.
type Contest struct {
	ID          int64
	Name        string
	Year        int
	Start       time.Time
	End         time.Time
	ClockSolved bool
}

// Log is one participant's submission.
type Log struct {
	ID              int64
	ContestID       int64
	Callsign        string
	CallID          int64
	OpClass         string
	Power           string
	Location        string
	MultID          int64
	ClockAdj        int // seconds, signed
	ClockUnreliable bool

	// Verified totals are nil until tallied.
	VerifiedScore *int
	VerifiedQSOs  *int
	VerifiedMults *int
}

// Callsign is the canonical base-call registry entry for a contest.
type Callsign struct {
	ID        int64
	ContestID int64
	Basecall  string
	LogRecvd  bool
	ValidCall bool
}

// Multiplier is a scoring-credit location code.
type Multiplier struct {
	ID       int64
	Abbrev   string
	Name     string
	EntityID int64
	IsDX     bool
}

// Entity is a DXCC country.
type Entity struct {
	ID        int64
	Name      string
	Prefix    string // space-separated callsign prefixes
	Continent string
}

// ContestDefinition is the declarative description of a contest as loaded
// from its definition file.
type ContestDefinition struct {
	Name         string
	Year         int
	Start        time.Time
	End          time.Time
	Points       map[Mode]int
	DXMultiplier bool
	Multipliers  []Multiplier
	Aliases      map[string]string // alternate location code → multiplier abbrev
}

// PointsFor returns the QSO point value for a mode.
func (d *ContestDefinition) PointsFor(m Mode) int {
	if d == nil || d.Points == nil {
		return 1
	}
	if p, ok := d.Points[m]; ok {
		return p
	}
	return 1
}
