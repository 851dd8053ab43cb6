package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tepperly/nasprint-sub000/internal/engine"
)

const sprintContest = "../../testdata/contests/sprint.cue"

const twoLogs = `logs:
  - callsign: W6YX
    location: SCLA
    qsos:
      - "7025 CW 01:00 12 SCLA K6ABC 7 ALAM"
      - "7030 CW 01:10 13 SCLA N6TV 4 SCLA"
  - callsign: K6ABC
    location: ALAM
    qsos:
      - "7025 CW 01:02 7 ALAM W6YX 12 SCLA"
`

// cliEnv is an isolated working area for one test: its own settings
// search path, env file and database.
type cliEnv struct {
	t   *testing.T
	dir string
	db  string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	return &cliEnv{t: t, dir: dir, db: filepath.Join(dir, "sprint.db")}
}

// write creates a file under the env's directory and returns its path.
func (e *cliEnv) write(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI with the env's database and the sprint contest.
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	base := []string{"--env-file", filepath.Join(e.dir, ".env"), "--db", e.db, "--contest", sprintContest}
	return e.runRaw(append(base, args...)...)
}

// runRaw executes the CLI with exactly the given arguments.
func (e *cliEnv) runRaw(args ...string) (string, error) {
	e.t.Helper()
	cmd := newRootCommand(&RootOptions{
		SearchPaths: []string{e.dir},
		RunIDs:      engine.NewSequenceGenerator("cli"),
	})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// loaded returns an env whose database already holds twoLogs.
func loaded(t *testing.T) *cliEnv {
	t.Helper()
	e := newCLIEnv(t)
	_, err := e.run("load", e.write("logs.yaml", twoLogs))
	require.NoError(t, err)
	return e
}
