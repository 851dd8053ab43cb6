package harness

import (
	"context"
	"fmt"

	"github.com/tepperly/nasprint-sub000/internal/compiler"
	"github.com/tepperly/nasprint-sub000/internal/decider"
	"github.com/tepperly/nasprint-sub000/internal/engine"
	"github.com/tepperly/nasprint-sub000/internal/loader"
	"github.com/tepperly/nasprint-sub000/internal/queryir"
	"github.com/tepperly/nasprint-sub000/internal/store"
	"github.com/tepperly/nasprint-sub000/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Compile the contest definition
//  2. Load the log batch
//  3. Adjudicate with the real engine
//  4. Summarise every log and QSO
//  5. Evaluate assertions against the summary
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	def, err := compiler.CompileFile(scenario.Contest)
	if err != nil {
		return nil, fmt.Errorf("failed to compile contest: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	contest, err := loader.NewContest(ctx, st, def)
	if err != nil {
		return nil, fmt.Errorf("failed to create contest: %w", err)
	}
	if _, err := contest.Apply(ctx, &scenario.Data); err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}

	cfg := engine.DefaultConfig()
	cfg.ClockEnabled = scenario.Clock
	eng := engine.New(st, def,
		engine.WithConfig(cfg),
		engine.WithRunIDs(engine.NewSequenceGenerator(scenario.Name)),
		engine.WithClock(testutil.NewStepClock(0)),
		engine.WithWorkers(1),
		engine.WithDecider(answerTable(scenario.Answers)),
	)
	rep, err := eng.Run(ctx, contest.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to adjudicate: %w", err)
	}

	result := NewResult()
	result.Summary.Scenario = scenario.Name
	result.Summary.RunID = rep.RunID
	result.Summary.Passes = rep.Passes
	result.Summary.Transitions = rep.Transitions
	result.Summary.Deferred = rep.Deferred
	if err := summarise(ctx, st, contest.ID, &result.Summary); err != nil {
		return nil, err
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// RunFile loads and runs a scenario file.
func RunFile(ctx context.Context, path string) (*Result, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return Run(ctx, scenario)
}

// summarise reads every log and QSO back from the store. QSOs are listed in
// load order, which is also the order of their CALL#N references.
func summarise(ctx context.Context, st *store.Store, contestID int64, sum *Summary) error {
	logs, err := st.Logs(ctx, contestID)
	if err != nil {
		return fmt.Errorf("failed to read logs: %w", err)
	}

	refs := make(map[int64]string)
	for _, l := range logs {
		ls := LogSummary{
			Callsign:      l.Callsign,
			ClockAdj:      l.ClockAdj,
			VerifiedScore: l.VerifiedScore,
			VerifiedQSOs:  l.VerifiedQSOs,
			VerifiedMults: l.VerifiedMults,
		}
		qsos, err := st.QSOs(ctx, queryir.Equals{Field: queryir.FieldLogID, Value: l.ID})
		if err != nil {
			return fmt.Errorf("failed to read qsos of %s: %w", l.Callsign, err)
		}
		for i, q := range qsos {
			ref := QSORef{Callsign: l.Callsign, Index: i + 1}.String()
			refs[q.ID] = ref
			ls.QSOs = append(ls.QSOs, QSOSummary{
				Ref:     ref,
				Line:    q.Line(),
				State:   q.MatchType,
				Comment: q.Comment,
				Score:   q.Score,
				matchID: q.MatchID,
			})
			sum.Totals[q.MatchType]++
		}
		sum.Logs = append(sum.Logs, ls)
	}

	for li := range sum.Logs {
		for qi := range sum.Logs[li].QSOs {
			q := &sum.Logs[li].QSOs[qi]
			if q.matchID != 0 {
				q.Matched = refs[q.matchID]
			}
		}
	}
	return nil
}

// answerTable answers every question of a kind with the same option.
type answerTable map[string]int

func (a answerTable) Decide(_ context.Context, q decider.Question) (decider.Answer, error) {
	idx, ok := a[string(q.Kind)]
	if !ok || idx < 0 || idx >= len(q.Options) {
		return decider.Deferred, nil
	}
	return decider.Answer{Index: idx}, nil
}
