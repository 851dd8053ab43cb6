package engine

import (
	"context"
	"fmt"

	"github.com/tepperly/nasprint-sub000/internal/logset"
	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/queryir"
	"github.com/tepperly/nasprint-sub000/internal/store"
)

// LogStatus is the adjudication state of one log.
type LogStatus struct {
	LogID         int64                   `json:"log_id"`
	Callsign      string                  `json:"callsign"`
	ClockAdj      int                     `json:"clock_adj"`
	Unreliable    bool                    `json:"clock_unreliable,omitempty"`
	Counts        map[model.MatchType]int `json:"counts"`
	VerifiedScore *int                    `json:"verified_score"`
	VerifiedQSOs  *int                    `json:"verified_qsos"`
	VerifiedMults *int                    `json:"verified_mults"`
}

// Status is the adjudication state of a contest.
type Status struct {
	ContestID   int64                   `json:"contest_id"`
	Name        string                  `json:"name"`
	Year        int                     `json:"year"`
	ClockSolved bool                    `json:"clock_solved"`
	Totals      map[model.MatchType]int `json:"totals"`
	Logs        []LogStatus             `json:"logs"`
}

// ContestStatus counts QSOs per state for the whole contest and per log.
func ContestStatus(ctx context.Context, s *store.Store, contestID int64) (*Status, error) {
	contest, err := s.Contest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	logs, err := s.Logs(ctx, contestID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(logs))
	for i, l := range logs {
		ids[i] = l.ID
	}
	counts, err := s.MatchTypeCounts(ctx, logset.New(ids).Predicate(queryir.FieldLogID))
	if err != nil {
		return nil, fmt.Errorf("contest status: %w", err)
	}

	st := &Status{
		ContestID:   contest.ID,
		Name:        contest.Name,
		Year:        contest.Year,
		ClockSolved: contest.ClockSolved,
		Totals:      map[model.MatchType]int{},
	}
	for _, l := range logs {
		ls := LogStatus{
			LogID:         l.ID,
			Callsign:      l.Callsign,
			ClockAdj:      l.ClockAdj,
			Unreliable:    l.ClockUnreliable,
			Counts:        map[model.MatchType]int{},
			VerifiedScore: l.VerifiedScore,
			VerifiedQSOs:  l.VerifiedQSOs,
			VerifiedMults: l.VerifiedMults,
		}
		for state, n := range counts[l.ID] {
			ls.Counts[state] = n
			st.Totals[state] += n
		}
		st.Logs = append(st.Logs, ls)
	}
	return st, nil
}
