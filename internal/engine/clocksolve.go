package engine

import (
	"context"
	"log/slog"

	"github.com/tepperly/nasprint-sub000/internal/clockadj"
	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/queryir"
)

var linkedStates = []model.MatchType{
	model.MatchFull, model.MatchPartial, model.MatchTimeShiftFull, model.MatchTimeShiftPartial,
}

// solveClock estimates per-log clock offsets from the pairs linked so far,
// writes them, and marks the contest solved. It restarts matching and
// returns true when any log's adjustment changed.
func (e *Engine) solveClock(ctx context.Context, p *pass, rep *Report) (bool, error) {
	linked, err := e.store.QSOs(ctx, p.inContest(queryir.In{
		Field:  queryir.FieldMatchType,
		Values: queryir.StringValues(model.Strings(linkedStates)),
	}))
	if err != nil {
		return false, err
	}
	byID := make(map[int64]*model.QSO, len(linked))
	for i := range linked {
		byID[linked[i].ID] = &linked[i]
	}

	var pairs []clockadj.Pair
	for _, q := range linked {
		partner, ok := byID[q.MatchID]
		if !ok || q.ID > partner.ID {
			continue
		}
		pairs = append(pairs, clockadj.Pair{
			QSOA: q.ID, QSOB: partner.ID,
			LogA: q.LogID, LogB: partner.LogID,
			Delta: partner.Time.Sub(q.Time),
		})
	}

	res, err := clockadj.Solve(pairs, e.cfg.Clock)
	if err != nil {
		return false, err
	}
	rep.Clock = &res

	changed := 0
	for _, l := range p.logs {
		adj, unreliable := res.Adjustments[l.ID], res.Unreliable[l.ID]
		if adj == l.ClockAdj && unreliable == l.ClockUnreliable {
			continue
		}
		if err := e.store.SetClockAdj(ctx, l.ID, adj, unreliable); err != nil {
			return false, err
		}
		changed++
		if unreliable {
			slog.Warn("unreliable clock", "log", l.ID, "callsign", l.Callsign, "adjustment_seconds", adj)
		}
	}
	if err := e.store.SetClockSolved(ctx, p.contest.ID, true); err != nil {
		return false, err
	}
	slog.Info("clocks solved",
		"pairs", len(pairs),
		"mismatched", len(res.Mismatched),
		"iterations", res.Iterations,
		"logs_adjusted", changed,
	)
	if changed == 0 {
		return false, nil
	}
	if err := e.store.RestartMatch(ctx, p.contest.ID); err != nil {
		return false, err
	}
	return true, nil
}
