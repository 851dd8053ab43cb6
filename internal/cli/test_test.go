package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "../../testdata/scenarios"

func TestTestCommand_AllScenariosPass(t *testing.T) {
	e := newCLIEnv(t)
	out, err := e.run("--format", "json", "test", scenariosDir)
	require.NoError(t, err, out)

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Positive(t, resp.Data.Total)
	assert.Equal(t, resp.Data.Total, resp.Data.Passed)
	assert.Zero(t, resp.Data.Failed)
}

func TestTestCommand_Filter(t *testing.T) {
	e := newCLIEnv(t)
	out, err := e.run("test", scenariosDir, "--filter", "perfect*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ perfect_match")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_FailingScenario(t *testing.T) {
	e := newCLIEnv(t)
	dir := filepath.Join(e.dir, "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	contest, err := filepath.Abs(sprintContest)
	require.NoError(t, err)
	scenario := `name: wrong_state
description: "Claims a matched pair is NIL"
contest: ` + contest + `
data:
  logs:
    - callsign: W6YX
      location: SCLA
      qsos:
        - "7025 CW 01:00 12 SCLA K6ABC 7 ALAM"
    - callsign: K6ABC
      location: ALAM
      qsos:
        - "7025 CW 01:02 7 ALAM W6YX 12 SCLA"
assertions:
  - type: qso
    qso: "W6YX#1"
    state: NIL
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_state.yaml"), []byte(scenario), 0o644))

	out, err := e.run("test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_state")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestTestCommand_SummaryDir(t *testing.T) {
	e := newCLIEnv(t)
	summaries := filepath.Join(e.dir, "summaries")
	_, err := e.run("test", scenariosDir, "--filter", "perfect*", "--summary-dir", summaries)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(summaries, "perfect_match.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario": "perfect_match"`)
}

func TestTestCommand_MissingDir(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run("test", filepath.Join(e.dir, "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml", "c.txt", "dupe_one.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = findScenarioFiles(dir, "dupe*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "dupe_one.yaml")}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

func TestTestResult_WriteTextEmpty(t *testing.T) {
	e := newCLIEnv(t)
	out, err := e.run("test", e.dir, "--filter", "nothing*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}
