package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Context  []string // QSO lines of the log involved
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Context) > 0 {
		fmt.Fprintf(&buf, "\nLog:\n")
		for _, line := range e.Context {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. An empty slice means all assertions held.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	errs := []string{}
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertQSO:
			err = assertQSO(result, a)
		case AssertLinked:
			err = assertLinked(result, a)
		case AssertScore:
			err = assertScore(result, a)
		case AssertCount:
			err = assertCount(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// lookup resolves a reference or explains why it could not.
func lookup(result *Result, typ, s string) (*QSOSummary, error) {
	ref, err := ParseRef(s)
	if err != nil {
		return nil, err
	}
	q := result.QSO(ref)
	if q != nil {
		return q, nil
	}
	actual := "no such log"
	if l := result.Log(ref.Callsign); l != nil {
		actual = fmt.Sprintf("log has %d qsos", len(l.QSOs))
	}
	return nil, &AssertionError{Type: typ, Expected: fmt.Sprintf("qso %s", ref), Actual: actual}
}

func logContext(result *Result, ref string) []string {
	r, err := ParseRef(ref)
	if err != nil {
		return nil
	}
	l := result.Log(r.Callsign)
	if l == nil {
		return nil
	}
	lines := make([]string, len(l.QSOs))
	for i, q := range l.QSOs {
		lines[i] = describe(q)
	}
	return lines
}

func describe(q QSOSummary) string {
	s := fmt.Sprintf("%s %s %s", q.Ref, q.State, q.Line)
	if q.Matched != "" {
		s += " <-> " + q.Matched
	}
	if q.Comment != "" {
		s += " (" + q.Comment + ")"
	}
	return s
}

// assertQSO checks the final state, and optionally the comment, of a QSO.
func assertQSO(result *Result, a Assertion) error {
	q, err := lookup(result, AssertQSO, a.QSO)
	if err != nil {
		return err
	}
	if q.State != a.State {
		return &AssertionError{
			Type:     AssertQSO,
			Expected: fmt.Sprintf("%s in state %s", q.Ref, a.State),
			Actual:   fmt.Sprintf("state %s", q.State),
			Context:  logContext(result, a.QSO),
		}
	}
	if a.Comment != "" && !strings.Contains(q.Comment, a.Comment) {
		return &AssertionError{
			Type:     AssertQSO,
			Expected: fmt.Sprintf("%s comment containing %q", q.Ref, a.Comment),
			Actual:   fmt.Sprintf("comment %q", q.Comment),
			Context:  logContext(result, a.QSO),
		}
	}
	return nil
}

// assertLinked checks that two QSOs point at each other.
func assertLinked(result *Result, a Assertion) error {
	q, err := lookup(result, AssertLinked, a.QSO)
	if err != nil {
		return err
	}
	other, err := lookup(result, AssertLinked, a.With)
	if err != nil {
		return err
	}
	if q.Matched != other.Ref || other.Matched != q.Ref {
		return &AssertionError{
			Type:     AssertLinked,
			Expected: fmt.Sprintf("%s <-> %s", q.Ref, other.Ref),
			Actual:   fmt.Sprintf("%s -> %q, %s -> %q", q.Ref, q.Matched, other.Ref, other.Matched),
			Context:  logContext(result, a.QSO),
		}
	}
	return nil
}

// assertScore checks a log's verified score.
func assertScore(result *Result, a Assertion) error {
	l := result.Log(a.Log)
	if l == nil {
		return &AssertionError{Type: AssertScore, Expected: fmt.Sprintf("log %s", a.Log), Actual: "no such log"}
	}
	if l.VerifiedScore == nil || *l.VerifiedScore != *a.Score {
		actual := "not tallied"
		if l.VerifiedScore != nil {
			actual = fmt.Sprintf("score %d", *l.VerifiedScore)
		}
		return &AssertionError{
			Type:     AssertScore,
			Expected: fmt.Sprintf("%s score %d", l.Callsign, *a.Score),
			Actual:   actual,
		}
	}
	return nil
}

// assertCount checks how many QSOs ended in a state.
func assertCount(result *Result, a Assertion) error {
	count := 0
	scope := "contest"
	if a.Log != "" {
		l := result.Log(a.Log)
		if l == nil {
			return &AssertionError{Type: AssertCount, Expected: fmt.Sprintf("log %s", a.Log), Actual: "no such log"}
		}
		scope = l.Callsign
		for _, q := range l.QSOs {
			if q.State == a.State {
				count++
			}
		}
	} else {
		count = result.Summary.Totals[a.State]
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d %s qsos in %s", a.Count, a.State, scope),
			Actual:   fmt.Sprintf("%d", count),
		}
	}
	return nil
}
