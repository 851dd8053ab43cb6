// Package singleton adjudicates QSOs with stations that never submitted a
// log. No counter-log exists to check against, so the decision between
// Bye, Unique and Removed rests on how often the station was heard, whether
// its call is known valid, and whether a far more common participant with
// a near-identical call better explains the contact.
package singleton

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/similarity"
)

// Params tunes the resolver.
type Params struct {
	// CallSimilarity is the minimum similarity for a correction candidate.
	CallSimilarity float64
	// FarMoreCommon is how many times more often a correction candidate
	// must have been heard.
	FarMoreCommon float64
	// UniqueSerialFloor marks a once-heard station claiming at least this
	// serial as Unique even when its call is valid.
	UniqueSerialFloor int
	// ExchangeSimilarity is the minimum location similarity between the
	// received exchange and a correction candidate's own exchange.
	ExchangeSimilarity float64
	// SerialWindow bounds the serial gap to a correction candidate's own
	// serial at the time of the contact.
	SerialWindow int
	// NameMismatch is the similarity below which a Bye becomes PartialBye.
	NameMismatch float64
	// NameQuorum is the number of other logs that must agree on a name
	// before it is used against a Bye.
	NameQuorum int
}

// DefaultParams returns the standard tuning.
func DefaultParams() Params {
	return Params{
		CallSimilarity:     0.94,
		FarMoreCommon:      10,
		UniqueSerialFloor:  50,
		ExchangeSimilarity: 0.8,
		SerialWindow:       10,
		NameMismatch:       0.8,
		NameQuorum:         2,
	}
}

// Verdict is the decision for one QSO.
type Verdict struct {
	QSOID   int64
	State   model.MatchType
	Comment string
	// Suggestion is the corrected call for Removed busted calls.
	Suggestion string
}

// station summarises what the contest knows about one base call.
type station struct {
	call     model.Callsign
	heardBy  map[int64]struct{} // distinct logs claiming the call
	own      []*model.QSO       // QSOs in the station's own log, by time
	location string             // own sent location, else consensus
	names    map[int64]string   // log id -> received name
}

func (s *station) heard() int {
	return len(s.heardBy)
}

// Resolver decides singleton QSOs. Build it once per pass.
type Resolver struct {
	params   Params
	stations map[int64]*station
	order    []int64 // station ids in ascending order
}

// NewResolver indexes the contest. all is every QSO of the contest; logs
// maps each submitted log to its base call.
func NewResolver(p Params, calls []model.Callsign, logs []model.Log, all []model.QSO) *Resolver {
	r := &Resolver{params: p, stations: make(map[int64]*station, len(calls))}
	for _, c := range calls {
		r.stations[c.ID] = &station{
			call:    c,
			heardBy: map[int64]struct{}{},
			names:   map[int64]string{},
		}
		r.order = append(r.order, c.ID)
	}
	slices.Sort(r.order)

	owner := make(map[int64]int64, len(logs)) // log id -> call id
	for _, l := range logs {
		owner[l.ID] = l.CallID
		if st, ok := r.stations[l.CallID]; ok && l.Location != "" {
			st.location = model.NormalizeText(l.Location)
		}
	}

	locVotes := map[int64]map[string]int{}
	for i := range all {
		q := &all[i]
		if st, ok := r.stations[owner[q.LogID]]; ok {
			st.own = append(st.own, q)
		}
		st, ok := r.stations[q.Recvd.CallID]
		if !ok {
			continue
		}
		st.heardBy[q.LogID] = struct{}{}
		if q.Recvd.Name != "" {
			st.names[q.LogID] = model.NormalizeText(q.Recvd.Name)
		}
		if q.Recvd.Location != "" {
			if locVotes[q.Recvd.CallID] == nil {
				locVotes[q.Recvd.CallID] = map[string]int{}
			}
			locVotes[q.Recvd.CallID][model.NormalizeText(q.Recvd.Location)]++
		}
	}

	for id, st := range r.stations {
		slices.SortFunc(st.own, func(a, b *model.QSO) int {
			return cmp.Or(a.Time.Compare(b.Time), cmp.Compare(a.ID, b.ID))
		})
		if st.location == "" && len(st.own) > 0 {
			st.location = model.NormalizeText(st.own[0].Sent.Location)
		}
		if st.location == "" {
			st.location, _ = majority(locVotes[id])
		}
	}
	return r
}

// Applies reports whether q is a singleton: still None and claiming a
// station with no registry entry or no submitted log.
func (r *Resolver) Applies(q *model.QSO) bool {
	if q.MatchType != model.MatchNone {
		return false
	}
	st, ok := r.stations[q.Recvd.CallID]
	return !ok || !st.call.LogRecvd
}

// Resolve decides one singleton QSO. The second result is false when q is
// not a singleton.
func (r *Resolver) Resolve(q *model.QSO) (Verdict, bool) {
	if !r.Applies(q) {
		return Verdict{}, false
	}
	st, ok := r.stations[q.Recvd.CallID]
	if !ok {
		return Verdict{QSOID: q.ID, State: model.MatchRemoved, Comment: "unknown callsign ID"}, true
	}

	if v, found := r.correction(q, st); found {
		return Verdict{
			QSOID:      q.ID,
			State:      model.MatchRemoved,
			Comment:    fmt.Sprintf("busted call %s, probably %s", st.call.Basecall, v.call.Basecall),
			Suggestion: v.call.Basecall,
		}, true
	}

	if st.heard() <= 1 && (!st.call.ValidCall || q.Recvd.Serial >= r.params.UniqueSerialFloor) {
		return Verdict{QSOID: q.ID, State: model.MatchUnique,
			Comment: fmt.Sprintf("unique: %s heard by one log", st.call.Basecall)}, true
	}

	if name, votes := r.consensusName(st, q.LogID); votes >= r.params.NameQuorum && q.Recvd.Name != "" {
		cw := q.Mode == model.ModeCW
		if similarity.String(q.Recvd.Name, name, cw) < r.params.NameMismatch {
			return Verdict{QSOID: q.ID, State: model.MatchPartialBye,
				Comment: fmt.Sprintf("name %s, others logged %s", model.NormalizeText(q.Recvd.Name), name)}, true
		}
	}

	return Verdict{QSOID: q.ID, State: model.MatchBye}, true
}

// ResolveAll decides every singleton in qsos, in input order.
func (r *Resolver) ResolveAll(qsos []model.QSO) []Verdict {
	var out []Verdict
	for i := range qsos {
		if v, ok := r.Resolve(&qsos[i]); ok {
			out = append(out, v)
		}
	}
	return out
}

// correction finds the far more common station that best explains q.
func (r *Resolver) correction(q *model.QSO, st *station) (*station, bool) {
	cw := q.Mode == model.ModeCW
	need := r.params.FarMoreCommon * float64(max(st.heard(), 1))

	var best *station
	bestSim := 0.0
	for _, id := range r.order {
		v := r.stations[id]
		if v == st || float64(v.heard()) < need {
			continue
		}
		sim := similarity.String(st.call.Basecall, v.call.Basecall, cw)
		if sim < r.params.CallSimilarity || sim <= bestSim {
			continue
		}
		if !r.exchangeClose(q, v) {
			continue
		}
		best, bestSim = v, sim
	}
	return best, best != nil
}

func (r *Resolver) exchangeClose(q *model.QSO, v *station) bool {
	cw := q.Mode == model.ModeCW
	if v.location != "" && similarity.String(q.Recvd.Location, v.location, cw) < r.params.ExchangeSimilarity {
		return false
	}
	if q.Recvd.Serial == 0 || q.Recvd.Serial == model.UnknownSerial || len(v.own) == 0 {
		return true
	}
	sent := nearest(v.own, q.Time).Sent.Serial
	return abs(sent-q.Recvd.Serial) <= r.params.SerialWindow
}

// consensusName returns the most common name other logs recorded for st.
func (r *Resolver) consensusName(st *station, exclude int64) (string, int) {
	votes := map[string]int{}
	for logID, name := range st.names {
		if logID != exclude {
			votes[name]++
		}
	}
	return majority(votes)
}

// majority returns the most frequent key, ties broken alphabetically.
func majority(votes map[string]int) (string, int) {
	best, n := "", 0
	for k, c := range votes {
		if c > n || (c == n && k < best) {
			best, n = k, c
		}
	}
	return best, n
}

// nearest returns the QSO closest in time to t. qsos must be non-empty
// and sorted by time.
func nearest(qsos []*model.QSO, t time.Time) *model.QSO {
	i, _ := slices.BinarySearchFunc(qsos, t, func(q *model.QSO, t time.Time) int {
		return q.Time.Compare(t)
	})
	switch {
	case i == 0:
		return qsos[0]
	case i == len(qsos):
		return qsos[len(qsos)-1]
	}
	if t.Sub(qsos[i-1].Time) <= qsos[i].Time.Sub(t) {
		return qsos[i-1]
	}
	return qsos[i]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
