package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/tepperly/nasprint-sub000/internal/decider"
	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/similarity"
	"github.com/tepperly/nasprint-sub000/internal/store"
)

// scoredPair is one candidate of the probabilistic phase. a and b index
// the phase's QSO pool.
type scoredPair struct {
	a, b  int
	score similarity.Score
}

// probabilistic compares every remaining unlinked QSO with every other
// from a different log, then links the best pairs greedily. Pairs above
// the auto-accept gates link directly; the rest go to the decider.
//
// Scoring runs in parallel; linking stays serial.
func (e *Engine) probabilistic(ctx context.Context, p *pass, rep *Report) (map[model.MatchType]int, error) {
	out := map[model.MatchType]int{}
	pool, err := e.store.QSOs(ctx, p.inContest(unmatchedIn(model.MatchNone, model.MatchNIL)))
	if err != nil {
		return out, err
	}
	if len(pool) < 2 {
		return out, nil
	}

	pairs, err := e.scorePool(ctx, pool, p)
	if err != nil {
		return out, err
	}
	slog.Debug("pairs scored", "pool", len(pool), "above_floor", len(pairs))

	claims := newClaimSet()
	for _, sp := range pairs {
		a, b := &pool[sp.a], &pool[sp.b]
		if claims.Taken(a.ID, b.ID) {
			continue
		}

		accept, err := e.acceptPair(ctx, rep, a, b, sp.score)
		if err != nil {
			return out, err
		}
		if !accept {
			continue
		}

		ta, tb := fullOrPartial(e.fullMatch(a, b)), fullOrPartial(e.fullMatch(b, a))
		err = e.store.LinkPair(ctx, store.Link{
			A: a.ID, B: b.ID, TypeA: ta, TypeB: tb,
			Comment: fmt.Sprintf("probable match %.2f/%.2f", sp.score.Metric, sp.score.Callsign),
		})
		switch {
		case err == nil:
			claims.Claim(a.ID, b.ID)
			out[ta]++
			out[tb]++
		case errors.Is(err, store.ErrAlreadyMatched):
			e.conflict("probabilistic", rep, a.ID, b.ID, err)
		default:
			return out, err
		}
	}
	return out, nil
}

// scorePool scores all cross-log pairs and returns those at or above the
// candidate floor, best first.
func (e *Engine) scorePool(ctx context.Context, pool []model.QSO, p *pass) ([]scoredPair, error) {
	scorer := similarity.NewScorer(e.cfg.Similarity, p.mults, p.clockAdj())
	rows := make([][]scoredPair, len(pool))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range pool {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var row []scoredPair
			for j := i + 1; j < len(pool); j++ {
				if pool[i].LogID == pool[j].LogID {
					continue
				}
				s := scorer.Compare(&pool[i], &pool[j])
				if s.Metric >= e.cfg.CandidateFloor {
					row = append(row, scoredPair{a: i, b: j, score: s})
				}
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pairs []scoredPair
	for _, row := range rows {
		pairs = append(pairs, row...)
	}
	slices.SortFunc(pairs, func(x, y scoredPair) int {
		return cmp.Or(
			cmp.Compare(y.score.Metric, x.score.Metric),
			cmp.Compare(y.score.Callsign, x.score.Callsign),
			cmp.Compare(pool[x.a].ID, pool[y.a].ID),
			cmp.Compare(pool[x.b].ID, pool[y.b].ID),
		)
	})
	return pairs, nil
}

// acceptPair applies the auto-accept gates and falls back to the decider.
func (e *Engine) acceptPair(ctx context.Context, rep *Report, a, b *model.QSO, s similarity.Score) (bool, error) {
	if s.Metric >= e.cfg.AutoAcceptMetric && s.Callsign >= e.cfg.AutoAcceptCallsign {
		e.recorder.RecordDecision(string(decider.KindPair), "auto")
		return true, nil
	}

	key, err := model.NewPairKey(a, b)
	if err != nil {
		return false, fmt.Errorf("pair key %d-%d: %w", a.ID, b.ID, err)
	}
	ans, err := e.decider.Decide(ctx, decider.Question{
		Kind:  decider.KindPair,
		Key:   key.Hash,
		Title: "Are these the same contact?",
		Details: []string{
			fmt.Sprintf("match metric %.3f", s.Metric),
			fmt.Sprintf("callsign confidence %.3f", s.Callsign),
		},
		Options: decider.PairOptions,
		Lines:   [2]string{key.Line1, key.Line2},
	})
	if err != nil {
		return false, fmt.Errorf("pair decision %d-%d: %w", a.ID, b.ID, err)
	}

	switch {
	case ans.Deferred:
		rep.Deferred++
		e.recorder.RecordDecision(string(decider.KindPair), "deferred")
		slog.Debug("pair left open", "error", NewDeferred("probabilistic", key.Hash))
		return false, nil
	case ans.Index == decider.PairMatch:
		e.recorder.RecordDecision(string(decider.KindPair), "match")
		return true, nil
	default:
		e.recorder.RecordDecision(string(decider.KindPair), "no-match")
		return false, nil
	}
}

// fullMatch reports whether a's received exchange agrees with b's sent
// exchange under the exact-phase rules.
func (e *Engine) fullMatch(a, b *model.QSO) bool {
	if a.Recvd.CallID == 0 || a.Recvd.CallID != b.Sent.CallID {
		return false
	}
	rs, ss := a.Recvd.Serial, b.Sent.Serial
	serialOK := rs == e.cfg.UnknownSerial || ss == e.cfg.UnknownSerial || abs(rs-ss) <= e.cfg.SerialTolerance
	multOK := a.Recvd.MultID == 0 || b.Sent.MultID == 0 || a.Recvd.MultID == b.Sent.MultID
	return serialOK && multOK
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
