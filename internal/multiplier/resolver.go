// Package multiplier settles location multipliers the exact phases leave
// open: which DXCC entity a DX contact counts for, and which location a
// station without a log was really in when Bye QSOs disagree.
package multiplier

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/tepperly/nasprint-sub000/internal/decider"
	"github.com/tepperly/nasprint-sub000/internal/model"
)

// Entity assignment sources.
const (
	SourceOverride = "override"
	SourceLookup   = "lookup"
	SourceOperator = "operator"
)

// Overrides is the operator-maintained callsign to entity table.
type Overrides interface {
	DXOverride(ctx context.Context, contestID int64, callsign string) (int64, bool, error)
	SetDXOverride(ctx context.Context, contestID int64, callsign string, entityID int64) error
}

// Params tunes conflict resolution.
type Params struct {
	// Majority is the share of votes a location needs to win outright.
	Majority float64
}

// DefaultParams returns a two-thirds majority.
func DefaultParams() Params {
	return Params{Majority: 2.0 / 3.0}
}

// Resolver resolves DX entities and Bye multiplier conflicts.
type Resolver struct {
	Params    Params
	Mults     *model.MultiplierTable
	Entities  []model.Entity
	Lookup    EntityLookup
	Overrides Overrides
	Decider   decider.Decider
}

// Assignment sets the entity of every listed QSO.
type Assignment struct {
	Callsign string
	EntityID int64
	Source   string
	QSOIDs   []int64
}

// Failure is a callsign whose lookup failed. Its QSOs stay unresolved.
type Failure struct {
	Callsign string
	QSOIDs   []int64
	Err      error
}

// DXResult is the outcome of ResolveDX.
type DXResult struct {
	Assignments []Assignment
	Deferred    []string
	Failures    []Failure
}

// ResolveDX assigns an entity to each credited DX contact that lacks one.
// Lookups that fail are reported, not returned; only store, decider and
// context errors abort.
func (r *Resolver) ResolveDX(ctx context.Context, contestID int64, qsos []model.QSO) (DXResult, error) {
	var res DXResult
	dx, ok := r.Mults.DX()
	if !ok {
		return res, nil
	}

	groups := map[string][]int64{}
	for _, q := range qsos {
		if q.MatchType.Credited() && q.Recvd.MultID == dx.ID && q.Recvd.EntityID == 0 {
			call := model.NormalizeCall(q.Recvd.Callsign)
			groups[call] = append(groups[call], q.ID)
		}
	}
	calls := make([]string, 0, len(groups))
	for c := range groups {
		calls = append(calls, c)
	}
	slices.Sort(calls)

	for _, call := range calls {
		ids := groups[call]
		id, source, err := r.entityFor(ctx, contestID, call)
		switch {
		case err == nil && id == 0:
			res.Deferred = append(res.Deferred, call)
		case err == nil:
			res.Assignments = append(res.Assignments, Assignment{Callsign: call, EntityID: id, Source: source, QSOIDs: ids})
		case errors.Is(err, errLookup):
			res.Failures = append(res.Failures, Failure{Callsign: call, QSOIDs: ids, Err: errors.Unwrap(err)})
		default:
			return res, err
		}
	}
	return res, nil
}

var errLookup = errors.New("lookup")

type lookupError struct{ err error }

func (e lookupError) Error() string        { return e.err.Error() }
func (e lookupError) Unwrap() error        { return e.err }
func (e lookupError) Is(target error) bool { return target == errLookup }

// entityFor returns 0 with a nil error when the operator deferred.
func (r *Resolver) entityFor(ctx context.Context, contestID int64, call string) (int64, string, error) {
	if r.Overrides != nil {
		id, found, err := r.Overrides.DXOverride(ctx, contestID, call)
		if err != nil {
			return 0, "", fmt.Errorf("dx override %s: %w", call, err)
		}
		if found {
			return id, SourceOverride, nil
		}
	}

	if r.Lookup != nil {
		e, err := r.Lookup.Lookup(ctx, call)
		switch {
		case err == nil:
			return e.ID, SourceLookup, nil
		case errors.Is(err, ErrNoEntity):
		case ctx.Err() != nil:
			return 0, "", ctx.Err()
		default:
			return 0, "", lookupError{err}
		}
	}

	if r.Decider == nil || len(r.Entities) == 0 {
		return 0, "", nil
	}
	entities := slices.Clone(r.Entities)
	slices.SortFunc(entities, func(a, b model.Entity) int { return cmp.Compare(a.Name, b.Name) })
	options := make([]string, len(entities))
	for i, e := range entities {
		options[i] = fmt.Sprintf("%s (%s)", e.Name, e.Prefix)
	}
	ans, err := r.Decider.Decide(ctx, decider.Question{
		Kind:    decider.KindEntity,
		Key:     "entity:" + call,
		Title:   fmt.Sprintf("Which DXCC entity is %s?", call),
		Options: options,
	})
	if err != nil {
		return 0, "", fmt.Errorf("entity decision %s: %w", call, err)
	}
	if ans.Deferred || ans.Index < 0 || ans.Index >= len(entities) {
		return 0, "", nil
	}
	id := entities[ans.Index].ID
	if r.Overrides != nil {
		if err := r.Overrides.SetDXOverride(ctx, contestID, call, id); err != nil {
			return 0, "", fmt.Errorf("save dx override %s: %w", call, err)
		}
	}
	return id, SourceOperator, nil
}

// Removal demotes one QSO whose location disagrees with consensus.
type Removal struct {
	QSOID   int64
	Comment string
}

// ConflictResult is the outcome of ResolveConflicts.
type ConflictResult struct {
	// Consensus maps callsign id to the winning multiplier id.
	Consensus map[int64]int64
	Removals  []Removal
	Deferred  []string
}

type tally struct {
	mult  int64
	votes int
}

// ResolveConflicts finds stations whose Bye QSOs record more than one
// multiplier and picks a consensus by vote, asking the decider when no
// location has the required majority.
func (r *Resolver) ResolveConflicts(ctx context.Context, qsos []model.QSO) (ConflictResult, error) {
	res := ConflictResult{Consensus: map[int64]int64{}}

	byCall := map[int64][]*model.QSO{}
	for i := range qsos {
		q := &qsos[i]
		if (q.MatchType == model.MatchBye || q.MatchType == model.MatchPartialBye) &&
			q.Recvd.CallID != 0 && q.Recvd.MultID != 0 {
			byCall[q.Recvd.CallID] = append(byCall[q.Recvd.CallID], q)
		}
	}
	ids := make([]int64, 0, len(byCall))
	for id := range byCall {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, callID := range ids {
		group := byCall[callID]
		counts := map[int64]int{}
		for _, q := range group {
			counts[q.Recvd.MultID]++
		}
		if len(counts) < 2 {
			continue
		}
		tallies := make([]tally, 0, len(counts))
		for m, n := range counts {
			tallies = append(tallies, tally{mult: m, votes: n})
		}
		slices.SortFunc(tallies, func(a, b tally) int {
			return cmp.Or(cmp.Compare(b.votes, a.votes), cmp.Compare(r.Mults.Abbrev(a.mult), r.Mults.Abbrev(b.mult)))
		})

		call := model.BaseCall(group[0].Recvd.Callsign)
		winner, err := r.vote(ctx, call, tallies, len(group))
		if err != nil {
			return res, err
		}
		if winner == 0 {
			res.Deferred = append(res.Deferred, call)
			continue
		}
		res.Consensus[callID] = winner
		for _, q := range group {
			if q.Recvd.MultID != winner {
				res.Removals = append(res.Removals, Removal{
					QSOID: q.ID,
					Comment: fmt.Sprintf("location mismatch: logged %s, consensus %s",
						r.Mults.Abbrev(q.Recvd.MultID), r.Mults.Abbrev(winner)),
				})
			}
		}
	}
	return res, nil
}

// vote returns the winning multiplier, or 0 when the operator deferred.
func (r *Resolver) vote(ctx context.Context, call string, tallies []tally, total int) (int64, error) {
	top := tallies[0]
	if float64(top.votes) >= r.Params.Majority*float64(total) && top.votes > tallies[1].votes {
		slog.Debug("multiplier consensus by majority", "callsign", call,
			"mult", r.Mults.Abbrev(top.mult), "votes", top.votes, "total", total)
		return top.mult, nil
	}
	if r.Decider == nil {
		return 0, nil
	}

	options := make([]string, len(tallies))
	details := make([]string, len(tallies))
	for i, t := range tallies {
		options[i] = r.Mults.Abbrev(t.mult)
		details[i] = fmt.Sprintf("%s logged by %d QSOs", options[i], t.votes)
	}
	ans, err := r.Decider.Decide(ctx, decider.Question{
		Kind:    decider.KindMultiplier,
		Key:     "mult:" + call,
		Title:   fmt.Sprintf("Where was %s?", call),
		Details: details,
		Options: options,
	})
	if err != nil {
		return 0, fmt.Errorf("multiplier decision %s: %w", call, err)
	}
	if ans.Deferred || ans.Index < 0 || ans.Index >= len(tallies) {
		return 0, nil
	}
	return tallies[ans.Index].mult, nil
}
