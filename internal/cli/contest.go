package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tepperly/nasprint-sub000/internal/compiler"
	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/store"
)

// session is an open database plus the contest the settings point at.
type session struct {
	store   *store.Store
	def     *model.ContestDefinition
	contest model.Contest
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// compileContest compiles the configured contest definition.
func compileContest(opts *RootOptions) (*model.ContestDefinition, error) {
	path := opts.Settings.ContestFile
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no contest definition: set contest_file or pass --contest")
	}
	def, err := compiler.CompileFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to compile %s", path), err)
	}
	return def, nil
}

// openStore opens (creating if needed) the configured database.
func openStore(opts *RootOptions) (*store.Store, error) {
	slog.Debug("opening database", "path", opts.Settings.Database)
	st, err := store.Open(opts.Settings.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// openSession opens the database and finds the already-loaded contest
// named by the contest definition.
func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	def, err := compileContest(opts)
	if err != nil {
		return nil, err
	}
	st, err := openStore(opts)
	if err != nil {
		return nil, err
	}
	contest, err := st.ContestByName(ctx, def.Name, def.Year)
	if err != nil {
		st.Close()
		if errors.Is(err, store.ErrNotFound) {
			return nil, WrapExitError(ExitCommandError,
				fmt.Sprintf("contest %s %d has not been loaded", def.Name, def.Year), err)
		}
		return nil, WrapExitError(ExitCommandError, "failed to read contest", err)
	}
	return &session{store: st, def: def, contest: contest}, nil
}
