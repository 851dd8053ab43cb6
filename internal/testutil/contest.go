// Package testutil provides deterministic helpers and fixture builders for
// adjudication tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tepperly/nasprint-sub000/internal/loader"
	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/store"
)

// SprintStart is the start of the NASprint fixture contest.
var SprintStart = time.Date(2024, 3, 24, 0, 0, 0, 0, time.UTC)

// NASprint returns a four-hour sprint definition with a handful of
// California counties, two states, Hawaii and a DX multiplier.
func NASprint() *model.ContestDefinition {
	return &model.ContestDefinition{
		Name:         "NA Sprint",
		Year:         2024,
		Start:        SprintStart,
		End:          SprintStart.Add(4 * time.Hour),
		Points:       map[model.Mode]int{model.ModeCW: 3, model.ModePH: 2},
		DXMultiplier: true,
		Multipliers: []model.Multiplier{
			{Abbrev: "SCLA", Name: "Santa Clara"},
			{Abbrev: "ALAM", Name: "Alameda"},
			{Abbrev: "MARN", Name: "Marin"},
			{Abbrev: "SFRA", Name: "San Francisco"},
			{Abbrev: "OR", Name: "Oregon"},
			{Abbrev: "WA", Name: "Washington"},
			{Abbrev: "HI", Name: "Hawaii"},
			{Abbrev: "DX", Name: "DX", IsDX: true},
		},
		Aliases: map[string]string{"SCL": "SCLA", "ALA": "ALAM"},
	}
}

// NewStore opens a fresh SQLite store in a test temp directory.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "open store")
	t.Cleanup(func() { s.Close() })
	return s
}

// ContestBuilder loads fixture records into one contest, failing the test
// on any error.
type ContestBuilder struct {
	t     *testing.T
	Store *store.Store
	*loader.Contest
}

// NewContestBuilder creates the contest in st. A nil def means NASprint().
func NewContestBuilder(t *testing.T, st *store.Store, def *model.ContestDefinition) *ContestBuilder {
	t.Helper()
	if def == nil {
		def = NASprint()
	}
	c, err := loader.NewContest(context.Background(), st, def)
	require.NoError(t, err, "create contest")
	return &ContestBuilder{t: t, Store: st, Contest: c}
}

// Log adds a submitted log.
func (b *ContestBuilder) Log(call, location string) int64 {
	b.t.Helper()
	id, err := b.AddLog(context.Background(), loader.LogInfo{Callsign: call, Location: location})
	require.NoError(b.t, err, "add log %s", call)
	return id
}

// QSO adds a compact QSO line (see loader.ParseLine) to logID.
func (b *ContestBuilder) QSO(logID int64, line string) int64 {
	b.t.Helper()
	id, err := b.AddQSO(context.Background(), logID, line)
	require.NoError(b.t, err, "add qso %q", line)
	return id
}

// Invalid marks call as not a valid licensed callsign.
func (b *ContestBuilder) Invalid(call string) {
	b.t.Helper()
	require.NoError(b.t, b.SetValid(context.Background(), call, false))
}

// Entity registers a DXCC entity.
func (b *ContestBuilder) Entity(id int64, name, prefix string) {
	b.t.Helper()
	require.NoError(b.t, b.AddEntity(context.Background(), model.Entity{
		ID: id, Name: name, Prefix: prefix,
	}))
}

// Get reads a QSO back from the store.
func (b *ContestBuilder) Get(id int64) model.QSO {
	b.t.Helper()
	q, err := b.Store.QSO(context.Background(), id)
	require.NoError(b.t, err, "read qso %d", id)
	return q
}

// RequireState asserts the match state of each QSO id.
func (b *ContestBuilder) RequireState(want model.MatchType, ids ...int64) {
	b.t.Helper()
	for _, id := range ids {
		q := b.Get(id)
		require.Equal(b.t, want, q.MatchType, "qso %d (%s): comment %q", id, q.Line(), q.Comment)
	}
}

// RequireLinked asserts that a and b point at each other.
func (b *ContestBuilder) RequireLinked(a, c int64) {
	b.t.Helper()
	qa, qc := b.Get(a), b.Get(c)
	require.Equal(b.t, c, qa.MatchID, "qso %d partner", a)
	require.Equal(b.t, a, qc.MatchID, "qso %d partner", c)
}
