package model

import (
	"fmt"
	"sort"
)

// MatchType is the adjudication state of a QSO.
type MatchType string

const (
	MatchNone             MatchType = "None"
	MatchFull             MatchType = "Full"
	MatchPartial          MatchType = "Partial"
	MatchBye              MatchType = "Bye"
	MatchPartialBye       MatchType = "PartialBye"
	MatchUnique           MatchType = "Unique"
	MatchDupe             MatchType = "Dupe"
	MatchNIL              MatchType = "NIL"
	MatchOutsideContest   MatchType = "OutsideContest"
	MatchRemoved          MatchType = "Removed"
	MatchTimeShiftFull    MatchType = "TimeShiftFull"
	MatchTimeShiftPartial MatchType = "TimeShiftPartial"
)

// AllMatchTypes lists every state in declaration order.
var AllMatchTypes = []MatchType{
	MatchNone, MatchFull, MatchPartial, MatchBye, MatchPartialBye, MatchUnique,
	MatchDupe, MatchNIL, MatchOutsideContest, MatchRemoved,
	MatchTimeShiftFull, MatchTimeShiftPartial,
}

// transitions maps a target state to the set of states it may be entered from.
//
// None is reachable from everything, but only through a full-contest restart.
var transitions = map[MatchType][]MatchType{
	MatchNone:             AllMatchTypes,
	MatchFull:             {MatchNone, MatchNIL, MatchTimeShiftFull, MatchTimeShiftPartial},
	MatchPartial:          {MatchNone, MatchNIL, MatchTimeShiftFull, MatchTimeShiftPartial},
	MatchTimeShiftFull:    {MatchNone},
	MatchTimeShiftPartial: {MatchNone},
	MatchBye:              {MatchNone},
	MatchPartialBye:       {MatchNone},
	MatchUnique:           {MatchNone},
	MatchNIL:              {MatchNone},
	MatchOutsideContest:   {MatchNone},
	MatchDupe:             {MatchNone, MatchFull, MatchPartial, MatchBye, MatchPartialBye},
	MatchRemoved:          {MatchNone, MatchBye, MatchPartialBye},
}

// AllowedFrom returns the states from which to may be entered.
// The returned slice is a copy.
func AllowedFrom(to MatchType) []MatchType {
	from := transitions[to]
	out := make([]MatchType, len(from))
	copy(out, from)
	return out
}

// Transition reports whether a QSO in state from may move to state to.
// Staying in the same state is never a transition.
func Transition(from, to MatchType) bool {
	if from == to {
		return false
	}
	for _, f := range transitions[to] {
		if f == from {
			return true
		}
	}
	return false
}

// ParseMatchType converts a stored string into a MatchType.
func ParseMatchType(s string) (MatchType, error) {
	for _, m := range AllMatchTypes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown match type %q", s)
}

// Linked reports whether QSOs in this state carry a counterpart matchID.
func (m MatchType) Linked() bool {
	switch m {
	case MatchFull, MatchPartial, MatchTimeShiftFull, MatchTimeShiftPartial:
		return true
	}
	return false
}

// Credited reports whether the state earns contact credit.
func (m MatchType) Credited() bool {
	switch m {
	case MatchFull, MatchPartial, MatchBye, MatchPartialBye:
		return true
	}
	return false
}

// TimeShifted reports whether the state is a transient shifted label.
func (m MatchType) TimeShifted() bool {
	return m == MatchTimeShiftFull || m == MatchTimeShiftPartial
}

// Strings converts a list of states to their stored form, sorted.
func Strings(types []MatchType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	sort.Strings(out)
	return out
}
