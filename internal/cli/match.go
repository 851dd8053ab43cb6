package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tepperly/nasprint-sub000/internal/decider"
	"github.com/tepperly/nasprint-sub000/internal/engine"
	"github.com/tepperly/nasprint-sub000/internal/metrics"
	"github.com/tepperly/nasprint-sub000/internal/model"
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	*RootOptions
	Interactive bool
	MetricsFile string
	NoClock     bool
}

// PhaseSummary is one phase of a match run.
type PhaseSummary struct {
	Pass    int                     `json:"pass"`
	Name    string                  `json:"name"`
	Changed map[model.MatchType]int `json:"changed,omitempty"`
}

// MatchResult summarises a match run.
type MatchResult struct {
	RunID          string         `json:"run_id"`
	ContestID      int64          `json:"contest_id"`
	Passes         int            `json:"passes"`
	Transitions    int64          `json:"transitions"`
	Conflicts      int            `json:"conflicts"`
	Deferred       int            `json:"deferred"`
	LookupFailures int            `json:"lookup_failures"`
	ClockSolved    bool           `json:"clock_solved"`
	Mismatched     int            `json:"clock_mismatched_pairs,omitempty"`
	Phases         []PhaseSummary `json:"phases"`
}

// WriteText implements TextRenderer.
func (r MatchResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Run %s: %d pass(es), %d transitions\n", r.RunID, r.Passes, r.Transitions)
	for _, ph := range r.Phases {
		if len(ph.Changed) == 0 {
			continue
		}
		fmt.Fprintf(w, "  pass %d %-14s", ph.Pass, ph.Name)
		for _, state := range model.AllMatchTypes {
			if n := ph.Changed[state]; n > 0 {
				fmt.Fprintf(w, " %s=%d", state, n)
			}
		}
		fmt.Fprintln(w)
	}
	if r.ClockSolved {
		fmt.Fprintf(w, "Clocks solved (%d pairs still mismatched)\n", r.Mismatched)
	}
	if r.Conflicts+r.Deferred+r.LookupFailures > 0 {
		fmt.Fprintf(w, "Conflicts %d, deferred %d, lookup failures %d\n", r.Conflicts, r.Deferred, r.LookupFailures)
	}
	return nil
}

func matchResult(rep *engine.Report) MatchResult {
	r := MatchResult{
		RunID:          rep.RunID,
		ContestID:      rep.ContestID,
		Passes:         rep.Passes,
		Transitions:    rep.Transitions,
		Conflicts:      rep.Conflicts,
		Deferred:       rep.Deferred,
		LookupFailures: rep.LookupFailures,
		Phases:         make([]PhaseSummary, 0, len(rep.Phases)),
	}
	if rep.Clock != nil {
		r.ClockSolved = true
		r.Mismatched = len(rep.Clock.Mismatched)
	}
	for _, ph := range rep.Phases {
		r.Phases = append(r.Phases, PhaseSummary{Pass: ph.Pass, Name: ph.Name, Changed: ph.Changed})
	}
	return r
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Adjudicate every QSO of the contest",
		Long: `Run the matching pipeline over the loaded contest: exact matching,
time-shift resolution, clock solving and the re-match pass, NIL marking,
probabilistic matching, singleton and multiplier checks, the final dupe
check and the verified tally.

Runs are idempotent; a second run only finishes what the first left open.
Ambiguous pairs are deferred unless --interactive is given, and answers
are remembered in the database.

Example:
  nasprint match --contest sprint.cue --db sprint.db
  nasprint match --interactive --metrics-file /var/lib/node_exporter/nasprint.prom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Interactive, "interactive", false, "ask about ambiguous pairs (overrides prompt.interactive)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile (overrides metrics_file)")
	cmd.Flags().BoolVar(&opts.NoClock, "no-clock", false, "skip clock solving for this run")

	return cmd
}

func runMatch(opts *MatchOptions, cmd *cobra.Command) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatter := opts.formatter(cmd)
	s := opts.Settings

	sess, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	cfg := s.EngineConfig()
	if opts.NoClock {
		cfg.ClockEnabled = false
	}

	var ask decider.Decider = decider.DeferAll{}
	if opts.Interactive || s.Prompt.Interactive {
		ask = decider.NewPrompt(s.Prompt.Timeout, cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	engineOpts := []engine.EngineOption{
		engine.WithConfig(cfg),
		engine.WithWorkers(s.Workers),
		engine.WithDecider(decider.NewCached(sess.store, ask)),
		engine.WithRunIDs(opts.RunIDs),
	}

	metricsFile := s.MetricsFile
	if opts.MetricsFile != "" {
		metricsFile = opts.MetricsFile
	}
	var recorder *metrics.AdjudicationMetrics
	if metricsFile != "" {
		recorder, err = metrics.NewAdjudicationMetrics(prometheus.NewRegistry())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to set up metrics", err)
		}
		engineOpts = append(engineOpts, engine.WithRecorder(recorder))
	}

	eng := engine.New(sess.store, sess.def, engineOpts...)
	rep, runErr := eng.Run(ctx, sess.contest.ID)

	// Metrics are written for failed runs too.
	if recorder != nil {
		if err := recorder.WriteTextfile(metricsFile); err != nil {
			slog.Error("failed to write metrics", "path", metricsFile, "error", err)
		} else {
			slog.Debug("metrics written", "path", metricsFile)
		}
	}

	if runErr != nil {
		if outErr := formatter.Error(ErrCodeRun, runErr.Error(), nil); outErr != nil {
			return outErr
		}
		if engine.IsInvalidInput(runErr) {
			return WrapExitError(ExitCommandError, "adjudication failed", runErr)
		}
		return WrapExitError(ExitFailure, "adjudication failed", runErr)
	}
	return formatter.Success(matchResult(rep))
}
