package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

const sprintSource = `
contest: {
	name:          "NA Sprint"
	year:          2024
	start:         "2024-03-24T00:00:00Z"
	end:           "2024-03-24T04:00:00Z"
	points:        {CW: 3, PH: 2}
	dx_multiplier: true
	multipliers: [
		{abbrev: "SCLA", name: "Santa Clara"},
		{abbrev: "ALAM", name: "Alameda"},
		{abbrev: "HI", name: "Hawaii", entity: 110},
		{abbrev: "DX", name: "DX", dx: true},
	]
	aliases: {scl: "scla"}
}
`

func TestCompileContest(t *testing.T) {
	def, err := CompileContest([]byte(sprintSource), "sprint.cue")
	require.NoError(t, err)

	assert.Equal(t, "NA Sprint", def.Name)
	assert.Equal(t, 2024, def.Year)
	assert.Equal(t, time.Date(2024, 3, 24, 0, 0, 0, 0, time.UTC), def.Start)
	assert.Equal(t, 4*time.Hour, def.End.Sub(def.Start))
	assert.Equal(t, 3, def.PointsFor(model.ModeCW))
	assert.Equal(t, 2, def.PointsFor(model.ModePH))
	assert.True(t, def.DXMultiplier)

	require.Len(t, def.Multipliers, 4)
	assert.Equal(t, model.Multiplier{Abbrev: "HI", Name: "Hawaii", EntityID: 110}, def.Multipliers[2])
	assert.True(t, def.Multipliers[3].IsDX)
	assert.False(t, def.Multipliers[0].IsDX)
	assert.Equal(t, map[string]string{"SCL": "SCLA"}, def.Aliases)
}

func TestCompileContestMinimal(t *testing.T) {
	src := `contest: {
		name: "Sprint", year: 2024
		start: "2024-03-24T00:00:00Z", end: "2024-03-24T04:00:00Z"
		points: CW: 1
		multipliers: [{abbrev: "OR", name: "Oregon"}]
	}`
	def, err := CompileContest([]byte(src), "min.cue")
	require.NoError(t, err)
	assert.False(t, def.DXMultiplier)
	assert.Empty(t, def.Aliases)
}

func TestCompileContestSchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "missing contest",
			src:   `other: 1`,
			field: "contest",
		},
		{
			name:  "syntax",
			src:   `contest: {`,
			field: "cue",
		},
		{
			name: "unknown field",
			src: `contest: {
				name: "S", year: 2024, start: "2024-03-24T00:00:00Z", end: "2024-03-24T04:00:00Z"
				points: CW: 1
				multipliers: [{abbrev: "OR", name: "Oregon"}]
				sponsor: "ARRL"
			}`,
			field: "contest.sponsor",
		},
		{
			name: "bad time",
			src: `contest: {
				name: "S", year: 2024, start: "March 24", end: "2024-03-24T04:00:00Z"
				points: CW: 1
				multipliers: [{abbrev: "OR", name: "Oregon"}]
			}`,
			field: "contest.start",
		},
		{
			name: "negative points",
			src: `contest: {
				name: "S", year: 2024, start: "2024-03-24T00:00:00Z", end: "2024-03-24T04:00:00Z"
				points: CW: -1
				multipliers: [{abbrev: "OR", name: "Oregon"}]
			}`,
			field: "contest.points.CW",
		},
		{
			name: "lowercase abbreviation",
			src: `contest: {
				name: "S", year: 2024, start: "2024-03-24T00:00:00Z", end: "2024-03-24T04:00:00Z"
				points: CW: 1
				multipliers: [{abbrev: "or", name: "Oregon"}]
			}`,
			field: "contest.multipliers.0.abbrev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileContest([]byte(tt.src), "bad.cue")
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "want *CompileError, got %T: %v", err, err)
			assert.Equal(t, tt.field, ce.Field)
			assert.NotEmpty(t, ce.Message)
		})
	}
}

func TestCompileContestValidationErrors(t *testing.T) {
	src := `contest: {
		name: "S", year: 2024
		start: "2024-03-24T04:00:00Z", end: "2024-03-24T00:00:00Z"
		points: CW: 1
		dx_multiplier: true
		multipliers: [{abbrev: "OR", name: "Oregon"}]
	}`
	_, err := CompileContest([]byte(src), "bad.cue")
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{ErrMissingDX, ErrContestWindow}, codes(verrs))
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contest.cue")
	require.NoError(t, os.WriteFile(path, []byte(sprintSource), 0o644))

	def, err := CompileFile(path)
	require.NoError(t, err)
	assert.Equal(t, "NA Sprint", def.Name)

	_, err = CompileFile(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCompileErrorString(t *testing.T) {
	e := &CompileError{Field: "contest.year", Message: "out of range"}
	assert.Equal(t, "contest.year: out of range", e.Error())
}
