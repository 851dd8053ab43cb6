package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// NewRestartCommand creates the restart command.
func NewRestartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Clear every adjudication so the next match starts fresh",
		Long: `Reset every QSO of the contest to None, drop all match links, comments,
scores and verified totals. Clock adjustments and remembered operator
answers are kept; use "clock --reset" to clear the clocks too.`,
		Args: cobra.NoArgs,
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

			if err := sess.store.RestartMatch(ctx, sess.contest.ID); err != nil {
				return WrapExitError(ExitFailure, "failed to restart matching", err)
			}
			slog.Info("matching restarted", "contest", sess.contest.Name, "year", sess.contest.Year)
			return rootOpts.formatter(cmd).Success(
				fmt.Sprintf("Matching restarted for %s %d", sess.contest.Name, sess.contest.Year))
		},
	}
	return cmd
}

// ClockOptions holds flags for the clock command.
type ClockOptions struct {
	*RootOptions
	Reset bool
}

// ClockResult lists per-log clock adjustments.
type ClockResult struct {
	Solved bool       `json:"solved"`
	Logs   []LogClock `json:"logs"`
}

// LogClock is the clock state of one log.
type LogClock struct {
	Callsign   string `json:"callsign"`
	Adjustment int    `json:"adjustment_seconds"`
	Unreliable bool   `json:"unreliable,omitempty"`
}

func (r ClockResult) String() string {
	s := "Clocks not solved"
	if r.Solved {
		s = "Clocks solved"
	}
	for _, l := range r.Logs {
		if l.Adjustment == 0 && !l.Unreliable {
			continue
		}
		s += fmt.Sprintf("\n  %-10s %+6ds", l.Callsign, l.Adjustment)
		if l.Unreliable {
			s += " unreliable"
		}
	}
	return s
}

// NewClockCommand creates the clock command.
func NewClockCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClockOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clock",
		Short: "Show or reset per-log clock adjustments",
		Long: `Show the clock adjustment solved for each log. With --reset, clear
every adjustment and the solved flag so the next match solves again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClock(opts, cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "clear adjustments and the solved flag")
	return cmd
}

func runClock(opts *ClockOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sess, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	solved := sess.contest.ClockSolved
	if opts.Reset {
		if err := sess.store.ResetClock(ctx, sess.contest.ID); err != nil {
			return WrapExitError(ExitFailure, "failed to reset clocks", err)
		}
		solved = false
		slog.Info("clocks reset", "contest", sess.contest.Name, "year", sess.contest.Year)
	}

	logs, err := sess.store.Logs(ctx, sess.contest.ID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read logs", err)
	}
	result := ClockResult{Solved: solved, Logs: make([]LogClock, 0, len(logs))}
	for _, l := range logs {
		result.Logs = append(result.Logs, LogClock{
			Callsign: l.Callsign, Adjustment: l.ClockAdj, Unreliable: l.ClockUnreliable,
		})
	}
	return opts.formatter(cmd).Success(result)
}
