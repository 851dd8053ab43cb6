// Package harness runs contest adjudication scenarios end to end.
//
// A scenario names a CUE contest definition, carries a batch of logs in
// the same YAML shape the loader reads, and lists assertions about the
// final state of individual QSOs and logs:
//
//	name: perfect_match
//	description: "Two logs that agree on everything link Full"
//	contest: ../contests/sprint.cue
//	data:
//	  logs:
//	    - callsign: W6YX
//	      location: SCLA
//	      qsos:
//	        - "7025 CW 01:00 12 SCLA K6ABC 12 ALAM"
//	    - callsign: K6ABC
//	      location: ALAM
//	      qsos:
//	        - "7025 CW 01:01 12 ALAM W6YX 12 SCLA"
//	assertions:
//	  - type: qso
//	    qso: "W6YX#1"
//	    state: Full
//	  - type: linked
//	    qso: "W6YX#1"
//	    with: "K6ABC#1"
//	  - type: score
//	    log: W6YX
//	    score: 3
//
// QSOs are referenced as CALL#N, the Nth line of that log counting from 1.
//
// # Assertion Types
//
//   - qso: the QSO ends in state; comment, when set, must be a substring
//   - linked: the QSO is matched to the QSO named by with
//   - score: the log's verified score
//   - count: how many QSOs end in state, contest-wide or for one log
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory SQLite store with a
// stepping clock, sequential run ids and a single worker, so the
// adjudication summary is stable enough for golden file comparison.
// Clock solving is off unless the scenario sets clock: true. Questions
// that would normally go to an operator are answered from the answers
// table, keyed by question kind, and deferred otherwise.
package harness
