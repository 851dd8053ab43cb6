package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/queryir"
	"github.com/tepperly/nasprint-sub000/internal/store"
)

// integrity removes QSOs missing a required received field. They are
// never retried.
func (e *Engine) integrity(ctx context.Context, p *pass, _ *Report) (map[model.MatchType]int, error) {
	out := map[model.MatchType]int{}
	checks := []struct {
		field   queryir.Field
		value   any
		comment string
	}{
		{queryir.FieldRecvdSerial, 0, "missing received serial"},
		{queryir.FieldRecvdLoc, "", "missing received location"},
	}
	for _, c := range checks {
		n, err := e.store.Transition(ctx,
			p.inContest(unmatchedIn(model.MatchNone), queryir.Equals{Field: c.field, Value: c.value}),
			model.MatchRemoved, c.comment)
		if err != nil {
			return out, err
		}
		out[model.MatchRemoved] += int(n)
	}
	return out, nil
}

// outsideContest marks QSOs whose adjusted time falls outside the contest.
// Logs sharing a clock adjustment are handled by one update.
func (e *Engine) outsideContest(ctx context.Context, p *pass, _ *Report) (map[model.MatchType]int, error) {
	out := map[model.MatchType]int{}
	if p.contest.End.IsZero() || !p.contest.End.After(p.contest.Start) {
		slog.Warn("contest period not set, skipping outside check", "contest", p.contest.ID)
		return out, nil
	}

	byAdj := map[int][]int64{}
	for _, l := range p.logs {
		byAdj[l.ClockAdj] = append(byAdj[l.ClockAdj], l.ID)
	}
	adjs := make([]int, 0, len(byAdj))
	for adj := range byAdj {
		adjs = append(adjs, adj)
	}
	slices.Sort(adjs)

	for _, adj := range adjs {
		// time + adj must lie within [start, end]
		window := queryir.Between{
			Field: queryir.FieldTime,
			Low:   p.contest.Start.Unix() - int64(adj),
			High:  p.contest.End.Unix() - int64(adj),
		}
		n, err := e.store.Transition(ctx, queryir.AllOf(
			queryir.In{Field: queryir.FieldLogID, Values: queryir.Int64s(byAdj[adj])},
			unmatchedIn(model.MatchNone),
			queryir.Not{Predicate: window},
		), model.MatchOutsideContest, "outside contest period")
		if err != nil {
			return out, err
		}
		out[model.MatchOutsideContest] += int(n)
	}
	return out, nil
}

func (e *Engine) candidateQuery(p *pass, symmetric, relaxed bool, tol time.Duration) store.CandidateQuery {
	return store.CandidateQuery{
		Logs:                p.set,
		Symmetric:           symmetric,
		Relaxed:             relaxed,
		States:              []model.MatchType{model.MatchNone},
		TimeTolerance:       tol,
		UnreliableTolerance: e.cfg.UnreliableTolerance,
		SerialTolerance:     e.cfg.SerialTolerance,
		UnknownSerial:       e.cfg.UnknownSerial,
	}
}

// linkTyper chooses the states and comment for a candidate pair.
type linkTyper func(c store.Candidate) (a, b model.MatchType, comment string)

func fullOrPartial(full bool) model.MatchType {
	if full {
		return model.MatchFull
	}
	return model.MatchPartial
}

func exactTypes(c store.Candidate) (model.MatchType, model.MatchType, string) {
	return fullOrPartial(c.FullA), fullOrPartial(c.FullB), ""
}

func shiftedTypes(c store.Candidate) (model.MatchType, model.MatchType, string) {
	shift := func(full bool) model.MatchType {
		if full {
			return model.MatchTimeShiftFull
		}
		return model.MatchTimeShiftPartial
	}
	return shift(c.FullA), shift(c.FullB), fmt.Sprintf("time shifted %s", c.TimeDiff)
}

func relaxedTypes(c store.Candidate) (model.MatchType, model.MatchType, string) {
	var comment string
	switch {
	case !c.SameBand && !c.SameMode:
		comment = "band and mode mismatch"
	case !c.SameBand:
		comment = "band mismatch"
	case !c.SameMode:
		comment = "mode mismatch"
	}
	return model.MatchPartial, model.MatchPartial, comment
}

// linkCandidates links ranked candidates greedily. A lost race is logged
// and skipped; both QSOs stay available to later candidates and phases.
func (e *Engine) linkCandidates(ctx context.Context, phase string, rep *Report,
	cands []store.Candidate, typer linkTyper, out map[model.MatchType]int) error {
	claims := newClaimSet()
	for _, c := range cands {
		if claims.Taken(c.A, c.B) {
			continue
		}
		ta, tb, comment := typer(c)
		err := e.store.LinkPair(ctx, store.Link{A: c.A, B: c.B, TypeA: ta, TypeB: tb, Comment: comment})
		switch {
		case err == nil:
			claims.Claim(c.A, c.B)
			out[ta]++
			out[tb]++
		case errors.Is(err, store.ErrAlreadyMatched):
			e.conflict(phase, rep, c.A, c.B, err)
		default:
			return err
		}
	}
	slog.Debug("candidates linked", "phase", phase, "candidates", len(cands), "linked", claims.Len()/2)
	return nil
}

func (e *Engine) conflict(phase string, rep *Report, a, b int64, err error) {
	rep.Conflicts++
	e.recorder.RecordConflict(phase)
	slog.Debug("link conflict", "error", NewLinkConflict(phase, a, b, err))
}

func (e *Engine) exactPhase(ctx context.Context, p *pass, rep *Report, phase string,
	queries []store.CandidateQuery, typer linkTyper) (map[model.MatchType]int, error) {
	out := map[model.MatchType]int{}
	for _, cq := range queries {
		cands, err := e.store.Candidates(ctx, cq)
		if err != nil {
			return out, err
		}
		if err := e.linkCandidates(ctx, phase, rep, cands, typer, out); err != nil {
			return out, err
		}
	}
	return out, nil
}

// perfect links pairs where each side copied the other's call.
func (e *Engine) perfect(ctx context.Context, p *pass, rep *Report) (map[model.MatchType]int, error) {
	return e.exactPhase(ctx, p, rep, "perfect",
		[]store.CandidateQuery{e.candidateQuery(p, true, false, e.cfg.TimeTolerance)}, exactTypes)
}

// partial links pairs where only one side copied the other's call.
func (e *Engine) partial(ctx context.Context, p *pass, rep *Report) (map[model.MatchType]int, error) {
	return e.exactPhase(ctx, p, rep, "partial",
		[]store.CandidateQuery{e.candidateQuery(p, false, false, e.cfg.TimeTolerance)}, exactTypes)
}

// shifted repeats perfect and partial over the whole contest, labelling
// links as time shifted.
func (e *Engine) shifted(ctx context.Context, p *pass, rep *Report) (map[model.MatchType]int, error) {
	return e.exactPhase(ctx, p, rep, "shifted", []store.CandidateQuery{
		e.candidateQuery(p, true, false, e.cfg.ShiftedTolerance),
		e.candidateQuery(p, false, false, e.cfg.ShiftedTolerance),
	}, shiftedTypes)
}

// relaxed links symmetric pairs whose band or mode, but not both, differ.
func (e *Engine) relaxed(ctx context.Context, p *pass, rep *Report) (map[model.MatchType]int, error) {
	return e.exactPhase(ctx, p, rep, "relaxed",
		[]store.CandidateQuery{e.candidateQuery(p, true, true, e.cfg.TimeTolerance)}, relaxedTypes)
}

// resolveShift collapses the time-shifted labels. Within a pair linked
// both ways each side keeps its own verdict: TimeShiftFull becomes Full
// and TimeShiftPartial becomes Partial. A shifted QSO whose partner does
// not link back becomes Partial.
func (e *Engine) resolveShift(ctx context.Context, p *pass, _ *Report) (map[model.MatchType]int, error) {
	out := map[model.MatchType]int{}
	shifted, err := e.store.QSOs(ctx, p.inContest(queryir.In{
		Field:  queryir.FieldMatchType,
		Values: queryir.StringValues(model.Strings([]model.MatchType{model.MatchTimeShiftFull, model.MatchTimeShiftPartial})),
	}))
	if err != nil {
		return out, err
	}
	byID := make(map[int64]*model.QSO, len(shifted))
	for i := range shifted {
		byID[shifted[i].ID] = &shifted[i]
	}

	var full, part []int64
	for _, q := range shifted {
		partner, ok := byID[q.MatchID]
		if ok && partner.MatchID == q.ID && q.MatchType == model.MatchTimeShiftFull {
			full = append(full, q.ID)
		} else {
			part = append(part, q.ID)
		}
	}

	for _, step := range []struct {
		ids []int64
		to  model.MatchType
	}{{full, model.MatchFull}, {part, model.MatchPartial}} {
		if len(step.ids) == 0 {
			continue
		}
		n, err := e.store.Transition(ctx, queryir.In{Field: queryir.FieldID, Values: queryir.Int64s(step.ids)}, step.to, "")
		if err != nil {
			return out, err
		}
		out[step.to] += int(n)
	}
	return out, nil
}

// dupeKey identifies one station worked by one log on one band.
type dupeKey struct {
	logID  int64
	band   model.Band
	callID int64
	call   string
}

func stationKey(logID int64, band model.Band, callID int64, call string) dupeKey {
	if callID != 0 {
		return dupeKey{logID: logID, band: band, callID: callID}
	}
	return dupeKey{logID: logID, band: band, call: model.BaseCall(call)}
}

// suppressDupes marks None QSOs with a station the same log already has a
// verified contact with on the same band.
func (e *Engine) suppressDupes(ctx context.Context, p *pass, _ *Report) (map[model.MatchType]int, error) {
	out := map[model.MatchType]int{}
	all, err := e.store.QSOs(ctx, p.inContest())
	if err != nil {
		return out, err
	}
	byID := make(map[int64]*model.QSO, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}

	verified := map[dupeKey]int64{}
	for _, q := range all {
		if !q.MatchType.Linked() {
			continue
		}
		partner, ok := byID[q.MatchID]
		if !ok {
			continue
		}
		key := stationKey(q.LogID, q.Band, partner.Sent.CallID, partner.Sent.Callsign)
		if _, seen := verified[key]; !seen {
			verified[key] = q.ID
		}
	}

	for _, q := range all {
		if q.MatchType != model.MatchNone || q.MatchID != 0 {
			continue
		}
		first, ok := verified[stationKey(q.LogID, q.Band, q.Recvd.CallID, q.Recvd.Callsign)]
		if !ok {
			continue
		}
		if err := e.store.TransitionOne(ctx, q.ID, model.MatchDupe, fmt.Sprintf("dupe of QSO %d", first)); err != nil {
			if errors.Is(err, store.ErrIllegalTransition) {
				continue
			}
			return out, err
		}
		out[model.MatchDupe]++
	}
	return out, nil
}

// markNIL marks QSOs with stations that sent a log not containing them.
func (e *Engine) markNIL(ctx context.Context, p *pass, _ *Report) (map[model.MatchType]int, error) {
	var withLog []int64
	for _, c := range p.calls {
		if c.LogRecvd {
			withLog = append(withLog, c.ID)
		}
	}
	n, err := e.store.Transition(ctx, p.inContest(
		unmatchedIn(model.MatchNone),
		queryir.In{Field: queryir.FieldRecvdCallID, Values: queryir.Int64s(withLog)},
	), model.MatchNIL, "not in log")
	if err != nil {
		return nil, err
	}
	return map[model.MatchType]int{model.MatchNIL: int(n)}, nil
}
