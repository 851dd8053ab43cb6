package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tepperly/nasprint-sub000/internal/engine"
	"github.com/tepperly/nasprint-sub000/internal/model"
)

var headerStyle = lipgloss.NewStyle().Bold(true)

// StatusResult wraps the engine status for text rendering.
type StatusResult struct {
	*engine.Status
}

// WriteText implements TextRenderer.
func (r StatusResult) WriteText(w io.Writer) error {
	solved := "not solved"
	if r.ClockSolved {
		solved = "solved"
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s %d", r.Name, r.Year)))
	fmt.Fprintf(w, "Clocks %s\n", solved)
	fmt.Fprintf(w, "Totals:%s\n", counts(r.Totals))

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-10s %6s %5s %5s %6s  %s", "Call", "Score", "QSOs", "Mults", "Clock", "States")))
	for _, l := range r.Logs {
		fmt.Fprintf(w, "%-10s %6s %5s %5s %+5ds %s\n",
			l.Callsign, optional(l.VerifiedScore), optional(l.VerifiedQSOs), optional(l.VerifiedMults),
			l.ClockAdj, counts(l.Counts))
	}
	return nil
}

// counts renders non-zero state counts in declaration order.
func counts(c map[model.MatchType]int) string {
	s := ""
	for _, state := range model.AllMatchTypes {
		if n := c[state]; n > 0 {
			s += fmt.Sprintf(" %s=%d", state, n)
		}
	}
	return s
}

func optional(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show QSO counts per state and verified totals per log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			sess, err := openSession(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer sess.Close()

			st, err := engine.ContestStatus(ctx, sess.store, sess.contest.ID)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read status", err)
			}
			if rootOpts.Format == "json" {
				return rootOpts.formatter(cmd).Success(st)
			}
			return rootOpts.formatter(cmd).Success(StatusResult{st})
		},
	}
	return cmd
}
