// Package engine implements the cross-matching and adjudication pipeline.
//
// The engine takes every QSO of one contest and moves each out of None into
// a final state by running a fixed sequence of phases against the store:
//
//  1. integrity        missing received serial or location -> Removed
//  2. outside          adjusted time outside the contest -> OutsideContest
//  3. perfect          both calls agree, tight time window -> Full
//  4. partial          one call agrees -> Full/Partial
//  5. shifted          phases 3-4 over the whole contest -> TimeShift*
//  6. resolve-shift    TimeShift* -> Full/Partial
//  7. relaxed          band or mode may disagree -> Partial
//  8. dupes            second contact with an already verified station -> Dupe
//
// When clock solving is enabled and the contest's clocks are not yet solved,
// the links from phases 3-8 feed the clock solver, adjustments are written,
// matching is restarted and phases 1-8 run again on adjusted times. Then:
//
//  9. nil              counterpart submitted a log without this QSO -> NIL
//  10. probabilistic   fuzzy scoring of the rest, operator fallback
//  11. singleton       stations that sent no log -> Bye/PartialBye/Unique/Removed
//  12. multiplier      DX entities and Bye location consensus
//  13. final-dupe      one credited QSO per station, band and log
//  14. tally           per-QSO score and per-log verified totals
//
// CONCURRENCY:
// The pipeline is single-threaded except for the probabilistic scorer, which
// fans pair scoring out over a bounded errgroup. Linking is always serial and
// transactional: store.LinkPair either updates both sides or neither.
//
// INVARIANTS:
//   - Every state change goes through the store's transition table.
//   - Two QSOs of the same log are never linked.
//   - A linked pair is always mutual.
//   - Running Run twice without a restart changes nothing the second time.
package engine
