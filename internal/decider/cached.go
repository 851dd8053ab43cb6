package decider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

// PairCache persists operator decisions on QSO pairs.
type PairCache interface {
	PairDecision(ctx context.Context, key model.PairKey) (matched, found bool, err error)
	SavePairDecision(ctx context.Context, key model.PairKey, matched bool) error
}

// Cached answers pair questions from a persistent cache and forwards
// misses, and every other kind of question, to Next. Decisions from Next
// are written back so re-runs do not ask again.
type Cached struct {
	Cache PairCache
	Next  Decider
}

// NewCached wraps next with cache.
func NewCached(cache PairCache, next Decider) *Cached {
	return &Cached{Cache: cache, Next: next}
}

func (c *Cached) Decide(ctx context.Context, q Question) (Answer, error) {
	if q.Kind != KindPair {
		return c.Next.Decide(ctx, q)
	}

	key := model.PairKey{Hash: q.Key, Line1: q.Lines[0], Line2: q.Lines[1]}
	matched, found, err := c.Cache.PairDecision(ctx, key)
	if err != nil {
		return Answer{}, fmt.Errorf("pair cache lookup: %w", err)
	}
	if found {
		slog.Debug("pair decision from cache", "key", q.Key, "matched", matched)
		return pairAnswer(matched), nil
	}

	ans, err := c.Next.Decide(ctx, q)
	if err != nil || ans.Deferred {
		return ans, err
	}
	if err := c.Cache.SavePairDecision(ctx, key, ans.Index == PairMatch); err != nil {
		return Answer{}, fmt.Errorf("pair cache save: %w", err)
	}
	return ans, nil
}

func pairAnswer(matched bool) Answer {
	if matched {
		return Answer{Index: PairMatch}
	}
	return Answer{Index: PairNoMatch}
}
