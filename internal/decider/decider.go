// Package decider supplies answers to questions the adjudication engine
// cannot settle on its own: ambiguous QSO pairings, multiplier votes
// without a majority, and DX entities no lookup could resolve.
//
// The engine depends only on the Decider interface. Deferring is always a
// valid answer; the engine leaves the record unresolved and moves on.
package decider

import "context"

// Kind classifies a question.
type Kind string

const (
	KindPair       Kind = "pair"
	KindMultiplier Kind = "multiplier"
	KindEntity     Kind = "entity"
)

// Option indexes for pair questions.
const (
	PairMatch   = 0
	PairNoMatch = 1
)

// PairOptions are the choices offered for every pair question.
var PairOptions = []string{"same contact", "different contacts"}

// Question is one decision request.
type Question struct {
	Kind Kind
	// Key identifies the question across runs. For pair questions it is
	// the pair hash.
	Key     string
	Title   string
	Details []string
	Options []string
	// Lines holds the two canonical QSO lines of a pair question.
	Lines [2]string
}

// Answer is the outcome of a question.
type Answer struct {
	Index    int
	Deferred bool
}

// Deferred is the answer meaning "leave it unresolved".
var Deferred = Answer{Index: -1, Deferred: true}

// Decider answers questions.
type Decider interface {
	Decide(ctx context.Context, q Question) (Answer, error)
}

// DeferAll defers every question. Used for unattended runs and tests.
type DeferAll struct{}

func (DeferAll) Decide(context.Context, Question) (Answer, error) {
	return Deferred, nil
}

// Scripted answers questions from a fixed table keyed by Question.Key and
// defers everything else.
type Scripted struct {
	Answers map[string]int
}

// NewScripted creates a Scripted decider. The map is not copied.
func NewScripted(answers map[string]int) *Scripted {
	return &Scripted{Answers: answers}
}

func (s *Scripted) Decide(_ context.Context, q Question) (Answer, error) {
	idx, ok := s.Answers[q.Key]
	if !ok || idx < 0 || idx >= len(q.Options) {
		return Deferred, nil
	}
	return Answer{Index: idx}, nil
}
