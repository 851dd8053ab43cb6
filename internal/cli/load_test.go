package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_StoresLogs(t *testing.T) {
	e := newCLIEnv(t)
	out, err := e.run("--format", "json", "load", e.write("logs.yaml", twoLogs))
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   LoadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "NA Sprint", resp.Data.Contest)
	assert.Equal(t, 2024, resp.Data.Year)
	require.Len(t, resp.Data.Files, 1)
	assert.Equal(t, 2, resp.Data.Files[0].Logs)
	assert.Equal(t, 3, resp.Data.Files[0].QSOs)
}

func TestLoad_TextOutput(t *testing.T) {
	e := newCLIEnv(t)
	path := e.write("logs.yaml", twoLogs)
	out, err := e.run("load", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Contest NA Sprint 2024")
	assert.Contains(t, out, path+": 2 logs, 3 qsos, 0 entities")
}

func TestLoad_UnreadableBatchWritesNothing(t *testing.T) {
	e := newCLIEnv(t)
	good := e.write("good.yaml", twoLogs)
	bad := e.write("bad.yaml", "logs:\n  - callsign: W6YX\n    unknown_field: 1\n")

	_, err := e.run("load", good, bad)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	// The good batch was not applied, so the contest does not exist yet.
	_, err = e.run("status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has not been loaded")
}

func TestLoad_RequiresArgument(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run("load")
	require.Error(t, err)
}
