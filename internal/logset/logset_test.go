package logset

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tepperly/nasprint-sub000/internal/queryir"
)

func TestNew_SortsAndDedupes(t *testing.T) {
	s := New([]int64{5, 3, 5, 4})
	assert.Equal(t, []int64{3, 4, 5}, s.IDs())
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(4))
	assert.False(t, s.Contains(6))
}

func TestPredicate_ContiguousUsesRange(t *testing.T) {
	s := New([]int64{3, 4, 5})
	assert.True(t, s.Contiguous())
	assert.Equal(t,
		queryir.Between{Field: queryir.FieldLogID, Low: 3, High: 5},
		s.Predicate(queryir.FieldLogID))
}

func TestPredicate_SparseUsesList(t *testing.T) {
	s := New([]int64{1, 7})
	assert.False(t, s.Contiguous())
	assert.Equal(t,
		queryir.In{Field: queryir.FieldLogID, Values: []any{int64(1), int64(7)}},
		s.Predicate(queryir.FieldLogID))
}

func TestPredicate_EmptyMatchesNothing(t *testing.T) {
	s := New(nil)
	assert.False(t, s.Contiguous())
	p := s.Predicate(queryir.FieldLogID).(queryir.In)
	assert.Empty(t, p.Values)
}

func TestIDs_ReturnsCopy(t *testing.T) {
	s := New([]int64{1, 2})
	ids := s.IDs()
	ids[0] = 99
	assert.Equal(t, []int64{1, 2}, s.IDs())
}
