package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tepperly/nasprint-sub000/internal/config"
	"github.com/tepperly/nasprint-sub000/internal/engine"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	LogFormat   string // "text" | "json"; empty uses the settings value
	ConfigFile  string
	EnvFile     string
	Database    string
	ContestFile string

	// Settings is loaded before any subcommand runs.
	Settings *config.Settings

	// SearchPaths overrides where nasprint.yaml is looked for (for testing).
	SearchPaths []string
	// RunIDs overrides the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the nasprint CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nasprint",
		Short: "nasprint - contest log cross-checker",
		Long: `Cross-check amateur radio contest logs and compute verified scores.

Logs are loaded into a SQLite database, every claimed contact is matched
against the other party's log, and each QSO is adjudicated as Full,
Partial, Bye, NIL, Dupe, Unique, Removed or OutsideContest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.LogFormat != "" && !isValidFormat(opts.LogFormat) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid log format %q: must be one of %v", opts.LogFormat, ValidFormats))
			}
			return loadSettings(opts, cmd.ErrOrStderr())
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.LogFormat, "log-format", "", "log format (json|text)")
	flags.StringVar(&opts.ConfigFile, "config", "", "settings file (default: nasprint.yaml in . or ~/.config/nasprint)")
	flags.StringVar(&opts.EnvFile, "env-file", "", "environment file (default: .env)")
	flags.StringVar(&opts.Database, "db", "", "path to SQLite database (overrides settings)")
	flags.StringVar(&opts.ContestFile, "contest", "", "contest definition file (overrides settings)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewRestartCommand(opts))
	cmd.AddCommand(NewClockCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// loadSettings reads the settings, applies flag overrides and installs the
// slog handler.
func loadSettings(opts *RootOptions, logOut io.Writer) error {
	s, err := config.Load(config.Options{
		ConfigFile:  opts.ConfigFile,
		SearchPaths: opts.SearchPaths,
		EnvFile:     opts.EnvFile,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load settings", err)
	}
	if opts.Database != "" {
		s.Database = opts.Database
	}
	if opts.ContestFile != "" {
		s.ContestFile = opts.ContestFile
	}
	if opts.LogFormat != "" {
		s.Log.Format = opts.LogFormat
	}
	opts.Settings = s

	level := s.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(logOut, handlerOpts)
	if s.Log.Format == "json" {
		handler = slog.NewJSONHandler(logOut, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter builds the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
