package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tepperly/nasprint-sub000/internal/compiler"
	"github.com/tepperly/nasprint-sub000/internal/model"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                       `json:"valid"`
	Contest     string                     `json:"contest,omitempty"`
	Year        int                        `json:"year,omitempty"`
	Multipliers int                        `json:"multipliers,omitempty"`
	Errors      []compiler.ValidationError `json:"errors,omitempty"`
}

// WriteText implements TextRenderer.
func (r ValidationResult) WriteText(w io.Writer) error {
	if r.Valid {
		_, err := fmt.Fprintf(w, "✓ %s %d: %d multipliers\n", r.Contest, r.Year, r.Multipliers)
		return err
	}
	fmt.Fprintf(w, "✗ %d problem(s)\n", len(r.Errors))
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
	return nil
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [contest-file]",
		Short: "Validate a contest definition",
		Long: `Compile a CUE contest definition and check it without touching the
database. Reports schema errors with file positions and cross-field
problems (overlapping multipliers, bad aliases, an empty contest window).

Defaults to the contest_file setting when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				rootOpts.Settings.ContestFile = args[0]
			}
			return runValidate(rootOpts, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	path := opts.Settings.ContestFile
	if path == "" {
		return NewExitError(ExitCommandError, "no contest definition: set contest_file or pass a file")
	}
	formatter.VerboseLog("Validating %s", path)

	def, err := compiler.CompileFile(path)
	if err == nil {
		return formatter.Success(summarizeDefinition(def))
	}

	var verrs compiler.ValidationErrors
	var compileErr *compiler.CompileError
	switch {
	case errors.As(err, &verrs):
		if opts.Format == "json" {
			if outErr := formatter.Error(ErrCodeValidation, "contest definition is invalid", []compiler.ValidationError(verrs)); outErr != nil {
				return outErr
			}
		} else if outErr := (ValidationResult{Errors: verrs}).WriteText(formatter.Writer); outErr != nil {
			return outErr
		}
	case errors.As(err, &compileErr):
		details := map[string]any{"field": compileErr.Field}
		if compileErr.Pos.IsValid() {
			details["line"] = compileErr.Pos.Line()
			details["column"] = compileErr.Pos.Column()
		}
		if outErr := formatter.Error(ErrCodeCompile, compileErr.Error(), details); outErr != nil {
			return outErr
		}
	default:
		return WrapExitError(ExitCommandError, "failed to read contest definition", err)
	}
	return NewExitError(ExitFailure, "contest definition is invalid")
}

func summarizeDefinition(def *model.ContestDefinition) ValidationResult {
	return ValidationResult{
		Valid:       true,
		Contest:     def.Name,
		Year:        def.Year,
		Multipliers: len(def.Multipliers),
	}
}
