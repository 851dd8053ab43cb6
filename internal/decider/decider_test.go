package decider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func pairQuestion(key string) Question {
	return Question{
		Kind:    KindPair,
		Key:     key,
		Title:   "Same contact?",
		Options: PairOptions,
		Lines:   [2]string{"line one", "line two"},
	}
}

func TestDeferAll(t *testing.T) {
	ans, err := DeferAll{}.Decide(context.Background(), pairQuestion("k"))
	require.NoError(t, err)
	assert.True(t, ans.Deferred)
}

func TestScripted(t *testing.T) {
	d := NewScripted(map[string]int{"a": PairNoMatch, "bad": 7})

	ans, err := d.Decide(context.Background(), pairQuestion("a"))
	require.NoError(t, err)
	assert.Equal(t, Answer{Index: PairNoMatch}, ans)

	ans, err = d.Decide(context.Background(), pairQuestion("bad"))
	require.NoError(t, err)
	assert.True(t, ans.Deferred)

	ans, err = d.Decide(context.Background(), pairQuestion("missing"))
	require.NoError(t, err)
	assert.True(t, ans.Deferred)
}

type memCache struct {
	data  map[string]bool
	saves int
}

func (m *memCache) PairDecision(_ context.Context, key model.PairKey) (bool, bool, error) {
	v, ok := m.data[key.Hash]
	return v, ok, nil
}

func (m *memCache) SavePairDecision(_ context.Context, key model.PairKey, matched bool) error {
	m.data[key.Hash] = matched
	m.saves++
	return nil
}

type countingDecider struct {
	ans   Answer
	calls int
}

func (c *countingDecider) Decide(context.Context, Question) (Answer, error) {
	c.calls++
	return c.ans, nil
}

func TestCached_AsksOnceThenRemembers(t *testing.T) {
	cache := &memCache{data: map[string]bool{}}
	next := &countingDecider{ans: Answer{Index: PairMatch}}
	d := NewCached(cache, next)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ans, err := d.Decide(ctx, pairQuestion("h1"))
		require.NoError(t, err)
		assert.Equal(t, PairMatch, ans.Index)
	}
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1, cache.saves)
}

func TestCached_DeferredIsNotStored(t *testing.T) {
	cache := &memCache{data: map[string]bool{}}
	d := NewCached(cache, DeferAll{})

	ans, err := d.Decide(context.Background(), pairQuestion("h1"))
	require.NoError(t, err)
	assert.True(t, ans.Deferred)
	assert.Zero(t, cache.saves)
}

func TestCached_ForwardsOtherKinds(t *testing.T) {
	cache := &memCache{data: map[string]bool{}}
	next := &countingDecider{ans: Answer{Index: 1}}
	d := NewCached(cache, next)

	ans, err := d.Decide(context.Background(), Question{Kind: KindMultiplier, Key: "K6ABC", Options: []string{"SCL", "ALA"}})
	require.NoError(t, err)
	assert.Equal(t, 1, ans.Index)
	assert.Zero(t, cache.saves)
}

func TestPrompt_TimeoutDefers(t *testing.T) {
	p := NewPrompt(10*time.Millisecond, nil, nil)
	p.run = func(ctx context.Context, _ *huh.Form) error {
		<-ctx.Done()
		return ctx.Err()
	}

	ans, err := p.Decide(context.Background(), pairQuestion("k"))
	require.NoError(t, err)
	assert.True(t, ans.Deferred)
}

func TestPrompt_AbortDefers(t *testing.T) {
	p := NewPrompt(0, nil, nil)
	p.run = func(context.Context, *huh.Form) error { return huh.ErrUserAborted }

	ans, err := p.Decide(context.Background(), pairQuestion("k"))
	require.NoError(t, err)
	assert.True(t, ans.Deferred)
}

func TestPrompt_DefaultSelection(t *testing.T) {
	p := NewPrompt(time.Second, nil, nil)
	p.run = func(context.Context, *huh.Form) error { return nil }

	ans, err := p.Decide(context.Background(), pairQuestion("k"))
	require.NoError(t, err)
	assert.Equal(t, Answer{Index: 0}, ans)
}

func TestPrompt_ParentCancelled(t *testing.T) {
	p := NewPrompt(time.Second, nil, nil)
	p.run = func(ctx context.Context, _ *huh.Form) error { return ctx.Err() }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Decide(ctx, pairQuestion("k"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrompt_RunError(t *testing.T) {
	p := NewPrompt(0, nil, nil)
	p.run = func(context.Context, *huh.Form) error { return errors.New("tty gone") }

	_, err := p.Decide(context.Background(), pairQuestion("k"))
	assert.ErrorContains(t, err, "tty gone")
}

func TestPrompt_NoOptionsDefers(t *testing.T) {
	ans, err := NewPrompt(0, nil, nil).Decide(context.Background(), Question{Kind: KindEntity})
	require.NoError(t, err)
	assert.True(t, ans.Deferred)
}

func TestRender(t *testing.T) {
	out := Render(Question{Kind: KindPair, Lines: [2]string{"A line", "B line"}, Details: []string{"metric 0.42"}})
	assert.Contains(t, out, "PAIR")
	assert.Contains(t, out, "A line")
	assert.Contains(t, out, "B line")
	assert.Contains(t, out, "metric 0.42")
}
