package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tepperly/nasprint-sub000/internal/loader"
)

// LoadResult reports what the load command stored.
type LoadResult struct {
	ContestID int64            `json:"contest_id"`
	Contest   string           `json:"contest"`
	Year      int              `json:"year"`
	Files     []LoadFileResult `json:"files"`
}

// LoadFileResult counts the records stored from one file.
type LoadFileResult struct {
	Path     string `json:"path"`
	Entities int    `json:"entities"`
	Logs     int    `json:"logs"`
	QSOs     int    `json:"qsos"`
}

// WriteText implements TextRenderer.
func (r LoadResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Contest %s %d (id %d)\n", r.Contest, r.Year, r.ContestID)
	for _, f := range r.Files {
		fmt.Fprintf(w, "  %s: %d logs, %d qsos, %d entities\n", f.Path, f.Logs, f.QSOs, f.Entities)
	}
	return nil
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <logs.yaml>...",
		Short: "Load a contest definition and log batches",
		Long: `Create the contest described by the contest definition (if it does
not exist yet) and store every entity, log and QSO line from the given
YAML batches.

Each submitted log should be loaded once; loading the same callsign twice
in one invocation is an error.

Example:
  nasprint load --contest sprint.cue --db sprint.db logs/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), rootOpts, args, cmd)
		},
	}
	return cmd
}

func runLoad(ctx context.Context, opts *RootOptions, paths []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	// Decode everything before writing anything.
	files := make([]*loader.File, len(paths))
	for i, path := range paths {
		f, err := loader.ReadFile(path)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", path), err)
		}
		files[i] = f
	}

	def, err := compileContest(opts)
	if err != nil {
		return err
	}
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	contest, err := loader.NewContest(ctx, st, def)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create contest", err)
	}

	result := LoadResult{ContestID: contest.ID, Contest: def.Name, Year: def.Year}
	for i, f := range files {
		stats, err := contest.Apply(ctx, f)
		if err != nil {
			if outErr := formatter.Error(ErrCodeLoad, err.Error(), map[string]string{"path": paths[i]}); outErr != nil {
				return outErr
			}
			return WrapExitError(ExitFailure, fmt.Sprintf("failed to load %s", paths[i]), err)
		}
		slog.Info("logs loaded", "path", paths[i], "logs", stats.Logs, "qsos", stats.QSOs, "entities", stats.Entities)
		result.Files = append(result.Files, LoadFileResult{
			Path: paths[i], Entities: stats.Entities, Logs: stats.Logs, QSOs: stats.QSOs,
		})
	}
	return formatter.Success(result)
}
