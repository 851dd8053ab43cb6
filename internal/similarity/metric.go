package similarity

import (
	"math"
	"strconv"
	"time"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

// Params tunes the composite QSO metric.
type Params struct {
	TimeFull     time.Duration // full credit at or below
	TimeZero     time.Duration // no credit at or above
	SerialFull   float64
	SerialZero   float64
	BandMismatch float64 // factor applied when bands differ
	ModeMismatch float64 // factor applied when modes differ
}

// DefaultParams returns the standard tuning.
func DefaultParams() Params {
	return Params{
		TimeFull:     15 * time.Minute,
		TimeZero:     24 * time.Hour,
		SerialFull:   1,
		SerialZero:   10,
		BandMismatch: 0.90,
		ModeMismatch: 0.85,
	}
}

// Score is the comparison of two QSOs.
type Score struct {
	// Metric is the product of every per-field factor in both directions.
	Metric float64
	// Callsign is the product of the two callsign similarities only.
	Callsign float64
}

// Scorer compares QSOs from different logs.
type Scorer struct {
	Params   Params
	Mults    *model.MultiplierTable
	ClockAdj map[int64]int // log id -> seconds
}

// NewScorer creates a Scorer. clockAdj may be nil.
func NewScorer(p Params, mults *model.MultiplierTable, clockAdj map[int64]int) *Scorer {
	return &Scorer{Params: p, Mults: mults, ClockAdj: clockAdj}
}

// Compare computes the composite metric for a and b. The result is the
// same for Compare(b, a).
func (s *Scorer) Compare(a, b *model.QSO) Score {
	cw := a.Mode == model.ModeCW || b.Mode == model.ModeCW

	metric := s.timeFactor(a, b)
	if a.Band != b.Band {
		metric *= s.Params.BandMismatch
	}
	if a.Mode != b.Mode {
		metric *= s.Params.ModeMismatch
	}

	callAB, termAB := s.direction(&a.Recvd, &b.Sent, cw)
	callBA, termBA := s.direction(&b.Recvd, &a.Sent, cw)

	return Score{
		Metric:   metric * termAB * termBA,
		Callsign: callAB * callBA,
	}
}

func (s *Scorer) adjusted(q *model.QSO) time.Time {
	return q.Time.Add(time.Duration(s.ClockAdj[q.LogID]) * time.Second)
}

func (s *Scorer) timeFactor(a, b *model.QSO) float64 {
	delta := s.adjusted(a).Sub(s.adjusted(b))
	return Hill(delta.Minutes(), s.Params.TimeFull.Minutes(), s.Params.TimeZero.Minutes())
}

// direction scores what one side copied against what the other sent.
func (s *Scorer) direction(recvd, sent *model.Exchange, cw bool) (call, term float64) {
	call = String(recvd.Callsign, sent.Callsign, cw)
	if recvd.CallID != 0 && recvd.CallID == sent.CallID {
		call = 1
	}
	return call, call * s.serial(recvd.Serial, sent.Serial, cw) *
		s.location(recvd, sent, cw) * name(recvd.Name, sent.Name, cw)
}

func (s *Scorer) serial(recvd, sent int, cw bool) float64 {
	if recvd == model.UnknownSerial || sent == model.UnknownSerial {
		return 1
	}
	hill := Hill(float64(recvd-sent), s.Params.SerialFull, s.Params.SerialZero)
	str := String(strconv.Itoa(recvd), strconv.Itoa(sent), cw)
	return math.Max(hill, str)
}

func (s *Scorer) location(recvd, sent *model.Exchange, cw bool) float64 {
	if recvd.MultID != 0 && recvd.MultID == sent.MultID {
		return 1
	}
	mult := 0.0
	if ra, sa := s.Mults.Abbrev(recvd.MultID), s.Mults.Abbrev(sent.MultID); ra != "" && sa != "" {
		mult = String(ra, sa, cw)
	}
	return math.Max(mult, String(recvd.Location, sent.Location, cw))
}

// name is neutral when either side did not log a name.
func name(recvd, sent string, cw bool) float64 {
	if recvd == "" || sent == "" {
		return 1
	}
	return String(recvd, sent, cw)
}
