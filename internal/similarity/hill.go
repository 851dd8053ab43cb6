// Package similarity scores how closely two logged values agree.
//
// Every function is pure and returns a value in [0, 1].
package similarity

import "math"

// Hill is a triangular decay: 1 for |delta| <= full, 0 for |delta| >= zero,
// linear in between.
func Hill(delta, full, zero float64) float64 {
	d := math.Abs(delta)
	switch {
	case d <= full:
		return 1
	case d >= zero:
		return 0
	}
	return (zero - d) / (zero - full)
}
