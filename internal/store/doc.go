// Package store provides the SQLite-backed record store for contest
// adjudication.
//
// The store holds contests, logs, the base-call registry, multipliers,
// DXCC entities and QSOs, plus the operator decision caches (pairs,
// dx_override) and the runs ledger.
//
// # Update Discipline
//
// Callers never write SQL. They select rows with queryir predicates,
// which are compiled by querysql into parameterised WHERE fragments.
//
//   - Transition moves rows to a new match type, but only rows whose
//     current state is a legal source for that target (model.AllowedFrom).
//   - LinkPair pairs two QSOs in one transaction. Each side is updated
//     only if it is still unmatched; if the second update fails the first
//     is rolled back and ErrAlreadyMatched is returned.
//   - RestartMatch is the only path back to None.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
