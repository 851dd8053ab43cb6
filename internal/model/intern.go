package model

import "sync"

// StringSpace deduplicates repeated string values so that identical
// callsigns, names and locations share one backing allocation.
//
// Thread-safety: safe for concurrent use.
type StringSpace struct {
	mu      sync.Mutex
	strings map[string]string
}

// NewStringSpace creates an empty interning pool.
func NewStringSpace() *StringSpace {
	return &StringSpace{strings: make(map[string]string)}
}

// Intern returns the canonical instance of s.
func (sp *StringSpace) Intern(s string) string {
	if sp == nil || s == "" {
		return s
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if v, ok := sp.strings[s]; ok {
		return v
	}
	sp.strings[s] = s
	return s
}

// Len returns the number of distinct strings held.
func (sp *StringSpace) Len() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return len(sp.strings)
}
