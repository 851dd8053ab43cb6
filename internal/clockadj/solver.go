// Package clockadj estimates a per-log clock offset from the time
// differences of matched QSO pairs.
//
// Each matched pair (a in log A, b in log B) contributes one equation
//
//	adj[A] - adj[B] = time(b) - time(a)
//
// so that time + adj agrees on both sides. A small ridge penalty pulls
// every offset toward zero, which fixes the otherwise free constant and
// keeps sparsely connected logs near their logged times. The system is
// solved by least squares, then re-solved without the equations whose
// residual stays above the mismatch threshold; those pairs are reported
// as mismatched even after the best global adjustment.
package clockadj

import (
	"fmt"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Pair is one matched QSO pair.
type Pair struct {
	QSOA, QSOB int64
	LogA, LogB int64
	// Delta is time(b) - time(a).
	Delta time.Duration
}

// Params tunes the solver.
type Params struct {
	Regularization      float64
	UnreliableThreshold time.Duration
	MismatchThreshold   time.Duration
	MaxIterations       int
}

// DefaultParams returns the standard tuning.
func DefaultParams() Params {
	return Params{
		Regularization:      0.01,
		UnreliableThreshold: 30 * time.Minute,
		MismatchThreshold:   10 * time.Minute,
		MaxIterations:       5,
	}
}

// Result holds the solved offsets.
type Result struct {
	// Adjustments maps log id to whole seconds to add to its times.
	Adjustments map[int64]int
	// Unreliable marks logs whose offset exceeds the threshold.
	Unreliable map[int64]bool
	// Mismatched lists pairs left out of the final fit.
	Mismatched []Pair
	Iterations int
}

// Solve estimates clock offsets for every log appearing in pairs.
func Solve(pairs []Pair, p Params) (Result, error) {
	res := Result{Adjustments: map[int64]int{}, Unreliable: map[int64]bool{}}
	if len(pairs) == 0 {
		return res, nil
	}
	if p.MaxIterations < 1 {
		p.MaxIterations = 1
	}

	logs := logIndex(pairs)
	active := slices.Clone(pairs)
	var x *mat.VecDense

	for res.Iterations < p.MaxIterations {
		res.Iterations++
		var err error
		x, err = solveOnce(active, logs, p.Regularization)
		if err != nil {
			return Result{}, err
		}

		var kept []Pair
		for _, pr := range active {
			if residual(x, logs, pr) > p.MismatchThreshold.Seconds() {
				res.Mismatched = append(res.Mismatched, pr)
				continue
			}
			kept = append(kept, pr)
		}
		if len(kept) == len(active) {
			break
		}
		active = kept
		if len(active) == 0 {
			x = mat.NewVecDense(len(logs), nil)
			break
		}
	}

	for id, col := range logs {
		secs := int(math.Round(x.AtVec(col)))
		res.Adjustments[id] = secs
		if math.Abs(float64(secs)) > p.UnreliableThreshold.Seconds() {
			res.Unreliable[id] = true
		}
	}
	return res, nil
}

// logIndex assigns a column to each log in ascending id order.
func logIndex(pairs []Pair) map[int64]int {
	var ids []int64
	for _, pr := range pairs {
		ids = append(ids, pr.LogA, pr.LogB)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)
	idx := make(map[int64]int, len(ids))
	for i, id := range ids {
		idx[id] = i
	}
	return idx
}

// solveOnce solves the ridge-regularised system by stacking sqrt(lambda)*I
// under the pair equations.
func solveOnce(pairs []Pair, logs map[int64]int, lambda float64) (*mat.VecDense, error) {
	n := len(logs)
	m := len(pairs) + n
	a := mat.NewDense(m, n, nil)
	b := mat.NewVecDense(m, nil)

	for row, pr := range pairs {
		a.Set(row, logs[pr.LogA], 1)
		a.Set(row, logs[pr.LogB], -1)
		b.SetVec(row, pr.Delta.Seconds())
	}
	w := math.Sqrt(lambda)
	for i := 0; i < n; i++ {
		a.Set(len(pairs)+i, i, w)
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("solve clock adjustments: %w", err)
	}
	return &x, nil
}

func residual(x *mat.VecDense, logs map[int64]int, pr Pair) float64 {
	got := x.AtVec(logs[pr.LogA]) - x.AtVec(logs[pr.LogB])
	return math.Abs(got - pr.Delta.Seconds())
}
