package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/tepperly/nasprint-sub000/internal/clockadj"
	"github.com/tepperly/nasprint-sub000/internal/decider"
	"github.com/tepperly/nasprint-sub000/internal/logset"
	"github.com/tepperly/nasprint-sub000/internal/metrics"
	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/multiplier"
	"github.com/tepperly/nasprint-sub000/internal/queryir"
	"github.com/tepperly/nasprint-sub000/internal/store"
)

// Run ledger statuses.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Engine adjudicates one contest at a time against a store.
//
// An Engine holds no per-contest state between runs; everything a run
// needs is reloaded from the store, so Run may be called repeatedly.
type Engine struct {
	store    *store.Store
	def      *model.ContestDefinition
	cfg      Config
	decider  decider.Decider
	recorder metrics.Recorder
	runIDs   RunIDGenerator
	clock    Clock
	workers  int
	lookup   multiplier.EntityLookup
}

// EngineOption allows configuration of engine parameters. A nil argument
// keeps the default.
type EngineOption func(*Engine)

// WithConfig replaces the matching thresholds.
func WithConfig(cfg Config) EngineOption {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithDecider sets who answers ambiguous questions.
//
// Default: decider.DeferAll, which leaves every question open.
func WithDecider(d decider.Decider) EngineOption {
	return func(e *Engine) {
		if d != nil {
			e.decider = d
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r metrics.Recorder) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithRunIDs sets the run id generator.
func WithRunIDs(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		if g != nil {
			e.runIDs = g
		}
	}
}

// WithClock sets the clock used for the run ledger.
func WithClock(c Clock) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithWorkers bounds the goroutines used for probabilistic scoring.
//
// Default: GOMAXPROCS.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithEntityLookup sets the callsign to DXCC entity lookup. By default the
// stored entity prefixes are used.
func WithEntityLookup(l multiplier.EntityLookup) EngineOption {
	return func(e *Engine) {
		e.lookup = l
	}
}

// New creates an Engine. def supplies points and multiplier rules and may
// be nil, in which case every QSO is worth one point.
func New(s *store.Store, def *model.ContestDefinition, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    s,
		def:      def,
		cfg:      DefaultConfig(),
		decider:  decider.DeferAll{},
		recorder: metrics.Noop{},
		runIDs:   UUIDv7Generator{},
		clock:    SystemClock{},
		workers:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PhaseResult records one phase of one pass.
type PhaseResult struct {
	Pass     int
	Name     string
	Changed  map[model.MatchType]int
	Duration time.Duration
}

// Report summarises one run.
type Report struct {
	RunID     string
	ContestID int64
	Passes    int
	Phases    []PhaseResult

	// Transitions counts QSO state changes across all passes.
	Transitions    int64
	Conflicts      int
	Deferred       int
	LookupFailures int

	// Clock is the solver result when clocks were solved this run.
	Clock *clockadj.Result
}

// Changed returns how many QSOs entered state during the final pass.
func (r *Report) Changed(state model.MatchType) int {
	n := 0
	for _, ph := range r.Phases {
		if ph.Pass == r.Passes {
			n += ph.Changed[state]
		}
	}
	return n
}

// Run adjudicates a contest and records the run in the ledger.
//
// ERROR HANDLING: per-record problems (lost link races, failed lookups,
// deferred decisions) are logged and counted in the Report and the run
// continues. Store and context errors abort the run; the ledger row is
// still closed, marked failed.
func (e *Engine) Run(ctx context.Context, contestID int64) (*Report, error) {
	contest, err := e.store.Contest(ctx, contestID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewInvalidInput(fmt.Sprintf("contest %d does not exist", contestID), err)
	}
	if err != nil {
		return nil, fmt.Errorf("load contest %d: %w", contestID, err)
	}

	rep := &Report{RunID: e.runIDs.Generate(), ContestID: contestID}
	if err := e.store.StartRun(ctx, rep.RunID, contestID, e.clock.Now()); err != nil {
		return nil, err
	}
	slog.Info("adjudication starting",
		"run", rep.RunID,
		"contest", contest.Name,
		"year", contest.Year,
		"clock_solved", contest.ClockSolved,
	)

	runErr := e.run(ctx, &contest, rep)
	status := RunCompleted
	if runErr != nil {
		status = RunFailed
	}
	if err := e.store.FinishRun(context.WithoutCancel(ctx), rep.RunID, e.clock.Now(), rep.Transitions, status); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if runErr != nil {
		slog.Error("adjudication failed", "run", rep.RunID, "error", runErr)
		return rep, runErr
	}

	slog.Info("adjudication finished",
		"run", rep.RunID,
		"passes", rep.Passes,
		"transitions", rep.Transitions,
		"conflicts", rep.Conflicts,
		"deferred", rep.Deferred,
		"lookup_failures", rep.LookupFailures,
	)
	return rep, nil
}

func (e *Engine) run(ctx context.Context, contest *model.Contest, rep *Report) error {
	quota := newPassQuota(e.cfg.MaxPasses)
	var p *pass
	for {
		if err := quota.Check(rep.RunID); err != nil {
			return err
		}
		rep.Passes = quota.Current()

		var err error
		p, err = e.newPass(ctx, *contest, rep.Passes)
		if err != nil {
			return err
		}
		if err := e.matchExact(ctx, p, rep); err != nil {
			return err
		}
		if !e.cfg.ClockEnabled || contest.ClockSolved {
			break
		}

		var restarted bool
		err = e.runPhase(ctx, p, rep, "clock", func(ctx context.Context, p *pass, rep *Report) (map[model.MatchType]int, error) {
			var err error
			restarted, err = e.solveClock(ctx, p, rep)
			return nil, err
		})
		if err != nil {
			return err
		}
		contest.ClockSolved = true
		if !restarted {
			break
		}
	}

	for _, ph := range []struct {
		name string
		fn   phaseFunc
	}{
		{"nil", e.markNIL},
		{"probabilistic", e.probabilistic},
		{"singleton", e.singletons},
		{"multiplier", e.multipliers},
		{"final-dupe", e.finalDupes},
		{"tally", e.tally},
	} {
		if err := e.runPhase(ctx, p, rep, ph.name, ph.fn); err != nil {
			return err
		}
	}
	return nil
}

// matchExact runs the phases that feed the clock solver.
func (e *Engine) matchExact(ctx context.Context, p *pass, rep *Report) error {
	for _, ph := range []struct {
		name string
		fn   phaseFunc
	}{
		{"integrity", e.integrity},
		{"outside", e.outsideContest},
		{"perfect", e.perfect},
		{"partial", e.partial},
		{"shifted", e.shifted},
		{"resolve-shift", e.resolveShift},
		{"relaxed", e.relaxed},
		{"dupes", e.suppressDupes},
	} {
		if err := e.runPhase(ctx, p, rep, ph.name, ph.fn); err != nil {
			return err
		}
	}
	return nil
}

// phaseFunc runs one phase and returns how many QSOs entered each state.
type phaseFunc func(ctx context.Context, p *pass, rep *Report) (map[model.MatchType]int, error)

func (e *Engine) runPhase(ctx context.Context, p *pass, rep *Report, name string, fn phaseFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	changed, err := fn(ctx, p, rep)
	elapsed := time.Since(start)
	e.recorder.RecordPhaseDuration(name, elapsed.Seconds())
	if err != nil {
		return fmt.Errorf("phase %s: %w", name, err)
	}

	total := 0
	for state, n := range changed {
		e.recorder.RecordTransitions(name, string(state), n)
		total += n
	}
	rep.Transitions += int64(total)
	rep.Phases = append(rep.Phases, PhaseResult{Pass: p.n, Name: name, Changed: changed, Duration: elapsed})
	slog.Info("phase complete", "phase", name, "pass", p.n, "changed", total, "duration", elapsed)
	return nil
}

// pass is the contest snapshot shared by the phases of one pass.
type pass struct {
	n       int
	contest model.Contest
	logs    []model.Log
	set     *logset.Set
	calls   []model.Callsign
	mults   *model.MultiplierTable
}

func (e *Engine) newPass(ctx context.Context, contest model.Contest, n int) (*pass, error) {
	logs, err := e.store.Logs(ctx, contest.ID)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, NewInvalidInput(fmt.Sprintf("contest %d has no logs", contest.ID), nil)
	}
	calls, err := e.store.Callsigns(ctx, contest.ID)
	if err != nil {
		return nil, err
	}
	mults, err := e.store.Multipliers(ctx, contest.ID)
	if err != nil {
		return nil, err
	}
	var aliases map[string]string
	if e.def != nil {
		aliases = e.def.Aliases
	}

	ids := make([]int64, len(logs))
	for i, l := range logs {
		ids[i] = l.ID
	}
	set := logset.New(ids)
	slog.Debug("pass loaded",
		"pass", n,
		"logs", set.Len(),
		"contiguous", set.Contiguous(),
		"callsigns", len(calls),
		"multipliers", len(mults),
	)
	return &pass{
		n:       n,
		contest: contest,
		logs:    logs,
		set:     set,
		calls:   calls,
		mults:   model.NewMultiplierTable(mults, aliases),
	}, nil
}

// inContest restricts preds to the contest's logs.
func (p *pass) inContest(preds ...queryir.Predicate) queryir.Predicate {
	return queryir.AllOf(append([]queryir.Predicate{p.set.Predicate(queryir.FieldLogID)}, preds...)...)
}

// clockAdj maps each log to its clock adjustment in seconds.
func (p *pass) clockAdj() map[int64]int {
	out := make(map[int64]int, len(p.logs))
	for _, l := range p.logs {
		out[l.ID] = l.ClockAdj
	}
	return out
}

// unmatchedIn selects unlinked QSOs in any of states.
func unmatchedIn(states ...model.MatchType) queryir.Predicate {
	return queryir.AllOf(
		queryir.In{Field: queryir.FieldMatchType, Values: queryir.StringValues(model.Strings(states))},
		queryir.IsNull{Field: queryir.FieldMatchID},
	)
}
