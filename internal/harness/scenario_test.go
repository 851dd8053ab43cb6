package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

const minimalContest = `contest: {
	name: "Sprint", year: 2024
	start: "2024-03-24T00:00:00Z", end: "2024-03-24T04:00:00Z"
	points: CW: 1
	multipliers: [{abbrev: "OR", name: "Oregon"}]
}
`

// writeContest writes a contest definition into dir and returns its name.
func writeContest(t *testing.T, dir string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contest.cue"), []byte(minimalContest), 0o644))
	return "contest.cue"
}

const validScenario = `
name: one_log
description: "A single log"
contest: contest.cue
data:
  logs:
    - callsign: W7AA
      location: OR
      qsos:
        - "7025 CW 01:00 1 OR K7BB 2 OR"
assertions:
  - type: qso
    qso: "W7AA#1"
    state: Bye
`

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	writeContest(t, dir)
	path := filepath.Join(dir, "one_log.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "one_log", s.Name)
	assert.Equal(t, filepath.Join(dir, "contest.cue"), s.Contest, "contest path resolves against the scenario")
	require.Len(t, s.Data.Logs, 1)
	assert.Equal(t, "W7AA", s.Data.Logs[0].Callsign)
	assert.Equal(t, []string{"7025 CW 01:00 1 OR K7BB 2 OR"}, s.Data.Logs[0].QSOs)
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, model.MatchBye, s.Assertions[0].State)
}

func TestLoadScenario_FileMissing(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Errors(t *testing.T) {
	dir := t.TempDir()
	writeContest(t, dir)

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\ncontest: contest.cue\nassertion: []\n",
			wantErr: "field assertion not found",
		},
		{
			name:    "missing name",
			yaml:    "description: d\ncontest: contest.cue\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\ncontest: contest.cue\n",
			wantErr: "description is required",
		},
		{
			name:    "missing contest",
			yaml:    "name: x\ndescription: d\n",
			wantErr: "contest is required",
		},
		{
			name:    "contest not found",
			yaml:    "name: x\ndescription: d\ncontest: other.cue\n",
			wantErr: "contest file not found",
		},
		{
			name:    "no logs",
			yaml:    "name: x\ndescription: d\ncontest: contest.cue\n",
			wantErr: "data.logs is required",
		},
		{
			name: "log without callsign",
			yaml: `name: x
description: d
contest: contest.cue
data:
  logs:
    - location: OR
assertions:
  - {type: count, state: Bye, count: 0}
`,
			wantErr: "invalid log file",
		},
		{
			name: "no assertions",
			yaml: `name: x
description: d
contest: contest.cue
data:
  logs:
    - callsign: W7AA
`,
			wantErr: "assertions list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAssertion(t *testing.T) {
	three := 3
	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{"qso ok", Assertion{Type: AssertQSO, QSO: "W7AA#1", State: model.MatchFull}, ""},
		{"missing type", Assertion{}, "type is required"},
		{"unknown type", Assertion{Type: "trace_order"}, `unknown assertion type "trace_order"`},
		{"qso missing ref", Assertion{Type: AssertQSO, State: model.MatchFull}, "qso is required"},
		{"qso bad ref", Assertion{Type: AssertQSO, QSO: "W7AA-1", State: model.MatchFull}, "expected CALL#N"},
		{"qso zero index", Assertion{Type: AssertQSO, QSO: "W7AA#0", State: model.MatchFull}, "expected CALL#N"},
		{"qso missing state", Assertion{Type: AssertQSO, QSO: "W7AA#1"}, "state is required"},
		{"unknown state", Assertion{Type: AssertQSO, QSO: "W7AA#1", State: "Great"}, `unknown match type "Great"`},
		{"linked ok", Assertion{Type: AssertLinked, QSO: "W7AA#1", With: "K7BB#2"}, ""},
		{"linked missing with", Assertion{Type: AssertLinked, QSO: "W7AA#1"}, "with is required"},
		{"score ok", Assertion{Type: AssertScore, Log: "W7AA", Score: &three}, ""},
		{"score missing log", Assertion{Type: AssertScore, Score: &three}, "log is required"},
		{"score missing value", Assertion{Type: AssertScore, Log: "W7AA"}, "score is required"},
		{"count ok", Assertion{Type: AssertCount, State: model.MatchDupe}, ""},
		{"count negative", Assertion{Type: AssertCount, State: model.MatchDupe, Count: -1}, "non-negative"},
		{"count missing state", Assertion{Type: AssertCount}, "state is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAssertion(0, &tt.a)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("kh6/w6yx#12")
	require.NoError(t, err)
	assert.Equal(t, QSORef{Callsign: "KH6/W6YX", Index: 12}, ref)
	assert.Equal(t, "KH6/W6YX#12", ref.String())

	for _, bad := range []string{"", "W6YX", "#1", "W6YX#", "W6YX#-1", "W6 YX#1"} {
		_, err := ParseRef(bad)
		assert.Error(t, err, bad)
	}
}
