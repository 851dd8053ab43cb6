package engine

import (
	"context"
	"log/slog"

	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/store"
)

// tally scores every QSO and writes each log's verified totals.
//
// Full and Bye QSOs earn the mode's points; other states earn nothing.
// Multipliers are the distinct non-DX locations among scoring QSOs, plus
// the distinct DX entities when the contest counts them.
func (e *Engine) tally(ctx context.Context, p *pass, _ *Report) (map[model.MatchType]int, error) {
	all, err := e.store.QSOs(ctx, p.inContest())
	if err != nil {
		return nil, err
	}

	type totals struct {
		points, qsos int
		mults        map[int64]struct{}
		entities     map[int64]struct{}
	}
	perLog := make(map[int64]*totals, len(p.logs))
	for _, l := range p.logs {
		perLog[l.ID] = &totals{mults: map[int64]struct{}{}, entities: map[int64]struct{}{}}
	}

	updates := make([]store.ScoreUpdate, 0, len(all))
	for _, q := range all {
		u := store.ScoreUpdate{ID: q.ID}
		if q.MatchType.Credited() {
			u.JudgedBand, u.JudgedMode = q.Band, q.Mode
		}
		if q.MatchType == model.MatchFull || q.MatchType == model.MatchBye {
			u.Score = e.def.PointsFor(q.Mode)
			t := perLog[q.LogID]
			t.points += u.Score
			t.qsos++
			if m, ok := p.mults.ByID(q.Recvd.MultID); ok {
				switch {
				case !m.IsDX:
					t.mults[m.ID] = struct{}{}
				case e.countsDX() && q.Recvd.EntityID != 0:
					t.entities[q.Recvd.EntityID] = struct{}{}
				}
			}
		}
		updates = append(updates, u)
	}
	if err := e.store.SetScores(ctx, updates); err != nil {
		return nil, err
	}

	for _, l := range p.logs {
		t := perLog[l.ID]
		mults := len(t.mults) + len(t.entities)
		score := t.points * mults
		if err := e.store.SetVerifiedTotals(ctx, l.ID, score, t.qsos, mults); err != nil {
			return nil, err
		}
		slog.Debug("log tallied", "log", l.ID, "callsign", l.Callsign, "qsos", t.qsos, "mults", mults, "score", score)
	}
	return nil, nil
}

func (e *Engine) countsDX() bool {
	return e.def != nil && e.def.DXMultiplier
}
