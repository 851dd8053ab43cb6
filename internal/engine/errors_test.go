package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tepperly/nasprint-sub000/internal/store"
)

func TestAdjudicationError_Message(t *testing.T) {
	err := NewLinkConflict("perfect", 10, 20, store.ErrAlreadyMatched)
	assert.Equal(t, "LINK_CONFLICT: qso 10 or 20 already matched (phase=perfect, qso=10): qso already matched", err.Error())
	assert.Equal(t, "20", err.Details["partner"])
	assert.ErrorIs(t, err, store.ErrAlreadyMatched)

	err = NewInvalidInput("contest 3 has no logs", nil)
	assert.Equal(t, "INVALID_INPUT: contest 3 has no logs", err.Error())
}

func TestAdjudicationError_Helpers(t *testing.T) {
	cause := errors.New("timeout")
	tests := []struct {
		name     string
		err      error
		conflict bool
		lookup   bool
		invalid  bool
	}{
		{"conflict", NewLinkConflict("partial", 1, 2, nil), true, false, false},
		{"lookup", NewLookupFailure("multiplier", "dxcc", "VE3XYZ", cause), false, true, false},
		{"wrapped lookup", fmt.Errorf("phase: %w", NewLookupFailure("multiplier", "dxcc", "X", cause)), false, true, false},
		{"invalid", NewInvalidInput("bad", nil), false, false, true},
		{"deferred", NewDeferred("probabilistic", "abc"), false, false, false},
		{"plain", cause, false, false, false},
		{"nil", nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.conflict, IsLinkConflict(tt.err))
			assert.Equal(t, tt.lookup, IsLookupFailure(tt.err))
			assert.Equal(t, tt.invalid, IsInvalidInput(tt.err))
		})
	}
}

func TestPassQuota(t *testing.T) {
	q := newPassQuota(2)
	require.NoError(t, q.Check("r"))
	require.NoError(t, q.Check("r"))
	err := q.Check("r")
	require.Error(t, err)
	assert.True(t, IsPassesExceeded(err))
	assert.Equal(t, "run r exceeded max passes: 3 passes > 2 limit", err.Error())

	assert.Equal(t, DefaultMaxPasses, newPassQuota(0).limit)
}

func TestRun_PassesExceeded(t *testing.T) {
	b, w, k := pair(t)
	b.QSO(w, "7025 CW 01:00 12 SCLA K6ABC 7 ALAM")
	b.QSO(k, "7025 CW 01:02 7 ALAM W6YX 12 SCLA")

	cfg := DefaultConfig()
	cfg.MaxPasses = 1
	_, err := newEngine(b, WithConfig(cfg)).Run(context.Background(), b.ID)
	assert.True(t, IsPassesExceeded(err))
}

func TestClaimSet(t *testing.T) {
	c := newClaimSet()
	assert.False(t, c.Taken(1, 2))
	c.Claim(1, 2)
	assert.True(t, c.Taken(1, 3))
	assert.True(t, c.Taken(4, 2))
	assert.False(t, c.Taken(3, 4))
	assert.Equal(t, 2, c.Len())
}

func TestSequenceGenerator(t *testing.T) {
	g := NewSequenceGenerator("")
	assert.Equal(t, "run-1", g.Generate())
	assert.Equal(t, "run-2", g.Generate())

	id := UUIDv7Generator{}.Generate()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, UUIDv7Generator{}.Generate())
}

func TestOptionsIgnoreZeroValues(t *testing.T) {
	e := New(nil, nil, WithWorkers(0), WithDecider(nil), WithRecorder(nil))
	assert.Positive(t, e.workers)
	assert.NotNil(t, e.decider)
	assert.NotNil(t, e.recorder)
}
