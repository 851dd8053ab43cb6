// Package model provides the data model for contest log adjudication.
//
// This package contains record types and pure helpers only. All other internal
// packages import model; model imports nothing internal.
//
// Key design constraints:
//   - MatchType is a closed enum; Transition is the only place that says which
//     state changes are legal
//   - Times are UTC and stored as unix seconds
//   - A zero ID means "not set" (SQL NULL) for every foreign key
//   - Lookup tables (StringSpace, MultiplierTable) are explicit values passed
//     to their users, never package state
package model
