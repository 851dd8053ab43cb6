package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/queryir"
)

func TestInsertQSO_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	f := newFixture(t, s)
	ctx := context.Background()

	id := f.qso(f.x, "W6YX", 12, "K6ABC", 7)
	q, err := s.QSO(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, f.x, q.LogID)
	assert.Equal(t, model.Band40m, q.Band)
	assert.Equal(t, model.ModeCW, q.Mode)
	assert.Equal(t, contestStart.Add(time.Hour), q.Time)
	assert.Equal(t, f.calls["W6YX"], q.Sent.CallID)
	assert.Equal(t, f.calls["K6ABC"], q.Recvd.CallID)
	assert.Equal(t, 7, q.Recvd.Serial)
	assert.Equal(t, model.MatchNone, q.MatchType)
	assert.Zero(t, q.MatchID)
	assert.Empty(t, q.Comment)
}

func TestQSO_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.QSO(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQSOs_FiltersByPredicate(t *testing.T) {
	s := createTestStore(t)
	f := newFixture(t, s)
	ctx := context.Background()

	f.qso(f.x, "W6YX", 1, "K6ABC", 1)
	f.qso(f.x, "W6YX", 2, "N6ZZ", 1)
	f.qso(f.y, "K6ABC", 1, "W6YX", 1)

	qsos, err := s.QSOs(ctx, queryir.AllOf(
		queryir.Equals{Field: queryir.FieldLogID, Value: f.x},
		queryir.Equals{Field: queryir.FieldRecvdCallID, Value: f.calls["N6ZZ"]},
	))
	require.NoError(t, err)
	require.Len(t, qsos, 1)
	assert.Equal(t, 2, qsos[0].Sent.Serial)
}

func TestTransition_OnlyFromLegalSources(t *testing.T) {
	s := createTestStore(t)
	f := newFixture(t, s)
	ctx := context.Background()

	a := f.qso(f.x, "W6YX", 1, "K6ABC", 1)
	b := f.qso(f.x, "W6YX", 2, "K6ABC", 2)

	n, err := s.Transition(ctx, queryir.Equals{Field: queryir.FieldID, Value: a}, model.MatchNIL, "not in log")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// NIL cannot become Unique; only b moves.
	n, err = s.Transition(ctx, queryir.In{Field: queryir.FieldID, Values: queryir.Int64s([]int64{a, b})},
		model.MatchUnique, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	qa, err := s.QSO(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, model.MatchNIL, qa.MatchType)
	assert.Equal(t, "not in log", qa.Comment)

	qb, err := s.QSO(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, model.MatchUnique, qb.MatchType)
	assert.Empty(t, qb.Comment)
}

func TestTransition_ToNoneRejected(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Transition(context.Background(), nil, model.MatchNone, "")
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestTransitionOne_Illegal(t *testing.T) {
	s := createTestStore(t)
	f := newFixture(t, s)
	ctx := context.Background()

	a := f.qso(f.x, "W6YX", 1, "K6ABC", 1)
	require.NoError(t, s.TransitionOne(ctx, a, model.MatchOutsideContest, "outside"))
	err := s.TransitionOne(ctx, a, model.MatchBye, "")
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestRestartMatch_ClearsEverything(t *testing.T) {
	s := createTestStore(t)
	f := newFixture(t, s)
	ctx := context.Background()

	a := f.qso(f.x, "W6YX", 1, "K6ABC", 1)
	b := f.qso(f.y, "K6ABC", 1, "W6YX", 1)
	c := f.qso(f.x, "W6YX", 2, "N6ZZ", 1)
	require.NoError(t, s.LinkPair(ctx, Link{A: a, B: b, TypeA: model.MatchFull, TypeB: model.MatchFull, Comment: "perfect"}))
	require.NoError(t, s.TransitionOne(ctx, c, model.MatchBye, "bye"))
	require.NoError(t, s.SetScores(ctx, []ScoreUpdate{{ID: a, Score: 3, JudgedBand: model.Band40m, JudgedMode: model.ModeCW}}))
	require.NoError(t, s.SetVerifiedTotals(ctx, f.x, 6, 2, 1))

	require.NoError(t, s.RestartMatch(ctx, f.contest))

	qsos, err := s.QSOs(ctx, nil)
	require.NoError(t, err)
	for _, q := range qsos {
		assert.Equal(t, model.MatchNone, q.MatchType)
		assert.Zero(t, q.MatchID)
		assert.Empty(t, q.Comment)
		assert.Zero(t, q.Score)
		assert.Empty(t, q.JudgedBand)
	}

	logs, err := s.Logs(ctx, f.contest)
	require.NoError(t, err)
	for _, l := range logs {
		assert.Nil(t, l.VerifiedScore)
		assert.Nil(t, l.VerifiedQSOs)
		assert.Nil(t, l.VerifiedMults)
	}
}

func TestSetRecvdEntity(t *testing.T) {
	s := createTestStore(t)
	f := newFixture(t, s)
	ctx := context.Background()

	require.NoError(t, s.InsertEntity(ctx, model.Entity{ID: 1, Name: "Canada", Prefix: "VE VA", Continent: "NA"}))
	a := f.qso(f.x, "W6YX", 1, "VE7ABC", 1)
	require.NoError(t, s.SetRecvdEntity(ctx, []int64{a}, 1))

	q, err := s.QSO(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), q.Recvd.EntityID)
}

func TestMatchTypeCounts(t *testing.T) {
	s := createTestStore(t)
	f := newFixture(t, s)
	ctx := context.Background()

	a := f.qso(f.x, "W6YX", 1, "K6ABC", 1)
	f.qso(f.x, "W6YX", 2, "K6ABC", 2)
	f.qso(f.y, "K6ABC", 1, "N6ZZ", 1)
	require.NoError(t, s.TransitionOne(ctx, a, model.MatchNIL, ""))

	counts, err := s.MatchTypeCounts(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[f.x][model.MatchNIL])
	assert.Equal(t, 1, counts[f.x][model.MatchNone])
	assert.Equal(t, 1, counts[f.y][model.MatchNone])
}
