package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/tepperly/nasprint-sub000/internal/decider"
	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/multiplier"
	"github.com/tepperly/nasprint-sub000/internal/queryir"
	"github.com/tepperly/nasprint-sub000/internal/singleton"
	"github.com/tepperly/nasprint-sub000/internal/store"
)

// singletons decides QSOs with stations that sent no log.
func (e *Engine) singletons(ctx context.Context, p *pass, _ *Report) (map[model.MatchType]int, error) {
	out := map[model.MatchType]int{}
	all, err := e.store.QSOs(ctx, p.inContest())
	if err != nil {
		return out, err
	}
	r := singleton.NewResolver(e.cfg.Singleton, p.calls, p.logs, all)
	for _, v := range r.ResolveAll(all) {
		if err := e.store.TransitionOne(ctx, v.QSOID, v.State, v.Comment); err != nil {
			if errors.Is(err, store.ErrIllegalTransition) {
				slog.Warn("singleton verdict not applied", "qso", v.QSOID, "state", v.State, "error", err)
				continue
			}
			return out, err
		}
		out[v.State]++
		if v.Suggestion != "" {
			slog.Debug("busted call", "qso", v.QSOID, "suggestion", v.Suggestion)
		}
	}
	return out, nil
}

// multipliers resolves DX entities and Bye location conflicts.
func (e *Engine) multipliers(ctx context.Context, p *pass, rep *Report) (map[model.MatchType]int, error) {
	out := map[model.MatchType]int{}
	entities, err := e.store.Entities(ctx)
	if err != nil {
		return out, err
	}
	lookup := e.lookup
	if lookup == nil {
		lookup = multiplier.NewCachedLookup(multiplier.NewPrefixTable(entities), e.cfg.LookupTTL)
	}
	r := &multiplier.Resolver{
		Params:    e.cfg.Multiplier,
		Mults:     p.mults,
		Entities:  entities,
		Lookup:    lookup,
		Overrides: e.store,
		Decider:   e.decider,
	}

	all, err := e.store.QSOs(ctx, p.inContest())
	if err != nil {
		return out, err
	}

	dx, err := r.ResolveDX(ctx, p.contest.ID, all)
	if err != nil {
		return out, err
	}
	for _, a := range dx.Assignments {
		if err := e.store.SetRecvdEntity(ctx, a.QSOIDs, a.EntityID); err != nil {
			return out, err
		}
		e.recorder.RecordDecision(string(decider.KindEntity), a.Source)
		slog.Debug("dx entity assigned", "callsign", a.Callsign, "entity", a.EntityID, "source", a.Source, "qsos", len(a.QSOIDs))
	}
	for _, f := range dx.Failures {
		rep.LookupFailures++
		e.recorder.RecordLookupFailure("dxcc")
		slog.Warn("dx entity unresolved",
			"error", NewLookupFailure("multiplier", "dxcc", f.Callsign, f.Err),
			"qsos", len(f.QSOIDs))
	}
	for _, call := range dx.Deferred {
		e.deferred(rep, decider.KindEntity, "entity:"+call)
	}

	conflicts, err := r.ResolveConflicts(ctx, all)
	if err != nil {
		return out, err
	}
	for _, call := range conflicts.Deferred {
		e.deferred(rep, decider.KindMultiplier, "mult:"+call)
	}
	for _, rm := range conflicts.Removals {
		if err := e.store.TransitionOne(ctx, rm.QSOID, model.MatchRemoved, rm.Comment); err != nil {
			if errors.Is(err, store.ErrIllegalTransition) {
				continue
			}
			return out, err
		}
		out[model.MatchRemoved]++
	}
	return out, nil
}

func (e *Engine) deferred(rep *Report, kind decider.Kind, key string) {
	rep.Deferred++
	e.recorder.RecordDecision(string(kind), "deferred")
	slog.Debug("question left open", "error", NewDeferred("multiplier", key))
}

var creditedStates = []model.MatchType{
	model.MatchFull, model.MatchPartial, model.MatchBye, model.MatchPartialBye,
}

// claimsCredit reports whether a QSO in state can be the one kept for its
// station. Partial and PartialBye score nothing, so they never hold the
// slot against a later Full or Bye.
func claimsCredit(state model.MatchType) bool {
	return state == model.MatchFull || state == model.MatchBye
}

// finalDupes keeps the earliest Full or Bye QSO per log, band and station.
// Later Full, Bye, Partial and PartialBye QSOs with that station are
// demoted to Dupe; Partial QSOs logged before the kept one are left alone.
// A demoted linked QSO takes its partner with it.
func (e *Engine) finalDupes(ctx context.Context, p *pass, _ *Report) (map[model.MatchType]int, error) {
	out := map[model.MatchType]int{}
	credited, err := e.store.QSOs(ctx, p.inContest(queryir.In{
		Field:  queryir.FieldMatchType,
		Values: queryir.StringValues(model.Strings(creditedStates)),
	}))
	if err != nil {
		return out, err
	}
	slices.SortFunc(credited, func(a, b model.QSO) int {
		return cmp.Or(
			cmp.Compare(a.LogID, b.LogID),
			cmp.Compare(a.Band, b.Band),
			a.Time.Compare(b.Time),
			cmp.Compare(a.ID, b.ID),
		)
	})
	keyOf := make(map[int64]dupeKey, len(credited))
	for _, q := range credited {
		keyOf[q.ID] = stationKey(q.LogID, q.Band, q.Recvd.CallID, q.Recvd.Callsign)
	}

	kept := map[dupeKey]int64{}
	demoted := map[int64]bool{}
	for _, q := range credited {
		if demoted[q.ID] {
			continue
		}
		key := keyOf[q.ID]
		first, seen := kept[key]
		if !seen {
			if claimsCredit(q.MatchType) {
				kept[key] = q.ID
			}
			continue
		}
		partner, err := e.store.DemotePair(ctx, q.ID, model.MatchDupe,
			fmt.Sprintf("dupe of QSO %d", first), fmt.Sprintf("partner of dupe QSO %d", q.ID))
		if err != nil {
			return out, err
		}
		demoted[q.ID] = true
		out[model.MatchDupe]++
		if partner != 0 {
			demoted[partner] = true
			out[model.MatchDupe]++
			// The partner may have been kept for its own log; free the slot.
			if pk, ok := keyOf[partner]; ok && kept[pk] == partner {
				delete(kept, pk)
			}
		}
	}
	return out, nil
}
