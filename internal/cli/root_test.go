package cli

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"validate", "load", "match", "restart", "clock", "status", "test"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"verbose", "format", "log-format", "config", "env-file", "db", "contest"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag --%s", name)
	}
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run("--format", "xml", "validate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootCommand_InvalidLogFormat(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run("--log-format", "logfmt", "validate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootCommand_SettingsFile(t *testing.T) {
	e := newCLIEnv(t)
	e.write("nasprint.yaml", "contest_file: "+sprintContest+"\nworkers: 2\n")

	opts := &RootOptions{SearchPaths: []string{e.dir}}
	cmd := newRootCommand(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--env-file", e.dir + "/.env", "--db", e.db, "validate"})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, opts.Settings)
	assert.Equal(t, 2, opts.Settings.Workers)
	assert.Equal(t, sprintContest, opts.Settings.ContestFile)
	assert.Equal(t, e.db, opts.Settings.Database, "--db overrides the settings file")
}

func TestRootCommand_MissingConfigFile(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run("--config", e.dir+"/absent.yaml", "validate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load settings")
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("yaml"))
}
