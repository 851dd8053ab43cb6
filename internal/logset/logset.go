// Package logset describes the set of logs a matching run operates on.
package logset

import (
	"slices"

	"github.com/tepperly/nasprint-sub000/internal/queryir"
)

// Set is an immutable, sorted set of log IDs.
type Set struct {
	ids []int64
	idx map[int64]struct{}
}

// New builds a Set from ids. Duplicates are collapsed.
func New(ids []int64) *Set {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	idx := make(map[int64]struct{}, len(sorted))
	for _, id := range sorted {
		idx[id] = struct{}{}
	}
	return &Set{ids: sorted, idx: idx}
}

// Contains reports whether id is in the set.
func (s *Set) Contains(id int64) bool {
	_, ok := s.idx[id]
	return ok
}

// IDs returns the members in ascending order.
func (s *Set) IDs() []int64 {
	return slices.Clone(s.ids)
}

// Len returns the number of logs.
func (s *Set) Len() int {
	return len(s.ids)
}

// Contiguous reports whether the IDs form an unbroken range.
func (s *Set) Contiguous() bool {
	n := len(s.ids)
	return n > 0 && s.ids[n-1]-s.ids[0] == int64(n-1)
}

// Predicate restricts field to members of the set. Contiguous sets
// become a range test, everything else an explicit list.
func (s *Set) Predicate(field queryir.Field) queryir.Predicate {
	if s.Contiguous() {
		return queryir.Between{Field: field, Low: s.ids[0], High: s.ids[len(s.ids)-1]}
	}
	return queryir.In{Field: field, Values: queryir.Int64s(s.ids)}
}
