package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/queryir"
	"github.com/tepperly/nasprint-sub000/internal/querysql"
)

// Link describes one mutual pairing.
type Link struct {
	A, B         int64
	TypeA, TypeB model.MatchType
	Comment      string
}

// LinkPair pairs two QSOs from different logs, all or nothing.
//
// Each side is updated only while it is unmatched (matchid IS NULL) and in
// a legal source state for its new type. If either conditional update
// fails the transaction is rolled back and ErrAlreadyMatched is returned.
func (s *Store) LinkPair(ctx context.Context, l Link) error {
	if !l.TypeA.Linked() || !l.TypeB.Linked() {
		return fmt.Errorf("link %d-%d as %s/%s: %w", l.A, l.B, l.TypeA, l.TypeB, ErrIllegalTransition)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("link pair: begin tx: %w", err)
	}
	defer tx.Rollback() // undoes the first side if the second fails

	var logA, logB int64
	if err := tx.QueryRowContext(ctx, `SELECT logid FROM qso WHERE id = ?`, l.A).Scan(&logA); err != nil {
		return fmt.Errorf("link pair: qso %d: %w", l.A, notFound(err))
	}
	if err := tx.QueryRowContext(ctx, `SELECT logid FROM qso WHERE id = ?`, l.B).Scan(&logB); err != nil {
		return fmt.Errorf("link pair: qso %d: %w", l.B, notFound(err))
	}
	if logA == logB {
		return fmt.Errorf("link pair %d-%d: %w", l.A, l.B, ErrSameLog)
	}

	if err := linkSide(ctx, tx, l.A, l.B, l.TypeA, l.Comment); err != nil {
		return err
	}
	if err := linkSide(ctx, tx, l.B, l.A, l.TypeB, l.Comment); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("link pair: commit: %w", err)
	}
	return nil
}

func linkSide(ctx context.Context, tx *sql.Tx, id, partner int64, to model.MatchType, comment string) error {
	where, params, err := querysql.NewCompiler().Where(queryir.AllOf(
		queryir.Equals{Field: queryir.FieldID, Value: id},
		queryir.IsNull{Field: queryir.FieldMatchID},
		allowedSources(to),
	))
	if err != nil {
		return fmt.Errorf("link pair: %w", err)
	}
	args := append([]any{partner, string(to), nullString(comment)}, params...)
	result, err := tx.ExecContext(ctx,
		`UPDATE qso SET matchid = ?, matchtype = ?, comment = COALESCE(?, comment)`+where, args...)
	if err != nil {
		return fmt.Errorf("link pair: update %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("link pair: rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("link pair: qso %d: %w", id, ErrAlreadyMatched)
	}
	return nil
}

func notFound(err error) error {
	if isNoRows(err) {
		return ErrNotFound
	}
	return err
}

// DemotePair moves QSO id to state to and unlinks it. If it was linked,
// its partner is moved to the same state and unlinked too, with
// partnerComment. The partner's id, or 0, is returned.
func (s *Store) DemotePair(ctx context.Context, id int64, to model.MatchType, comment, partnerComment string) (int64, error) {
	if to.Linked() || to == model.MatchNone {
		return 0, fmt.Errorf("demote %d to %s: %w", id, to, ErrIllegalTransition)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("demote: begin tx: %w", err)
	}
	defer tx.Rollback()

	cur, partner, err := readState(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	if !model.Transition(cur, to) {
		return 0, fmt.Errorf("demote %d from %s to %s: %w", id, cur, to, ErrIllegalTransition)
	}
	if err := demoteRow(ctx, tx, id, to, comment); err != nil {
		return 0, err
	}

	if partner != 0 {
		pcur, pback, err := readState(ctx, tx, partner)
		if err != nil {
			return 0, err
		}
		if pback == id && model.Transition(pcur, to) {
			if err := demoteRow(ctx, tx, partner, to, partnerComment); err != nil {
				return 0, err
			}
		} else {
			partner = 0
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("demote: commit: %w", err)
	}
	return partner, nil
}

func readState(ctx context.Context, tx *sql.Tx, id int64) (model.MatchType, int64, error) {
	var mt string
	var matchID sql.NullInt64
	err := tx.QueryRowContext(ctx, `SELECT matchtype, matchid FROM qso WHERE id = ?`, id).Scan(&mt, &matchID)
	if err != nil {
		return "", 0, fmt.Errorf("read qso %d: %w", id, notFound(err))
	}
	cur, err := model.ParseMatchType(mt)
	if err != nil {
		return "", 0, fmt.Errorf("read qso %d: %w", id, err)
	}
	return cur, matchID.Int64, nil
}

func demoteRow(ctx context.Context, tx *sql.Tx, id int64, to model.MatchType, comment string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE qso SET matchtype = ?, matchid = NULL, comment = COALESCE(?, comment) WHERE id = ?`,
		string(to), nullString(comment), id)
	if err != nil {
		return fmt.Errorf("demote %d: %w", id, err)
	}
	return nil
}

// CandidateQuery parameterises the exact-phase self-join.
type CandidateQuery struct {
	// Logs restricts both sides to one contest's logs.
	Logs interface {
		Predicate(field queryir.Field) queryir.Predicate
	}
	// Symmetric requires both callsign directions to agree. Otherwise
	// only the first side must have copied the second's call.
	Symmetric bool
	// Relaxed accepts a band or a mode mismatch, but not both.
	Relaxed bool
	// States lists the source states eligible on both sides.
	States []model.MatchType

	TimeTolerance       time.Duration
	UnreliableTolerance time.Duration
	SerialTolerance     int
	UnknownSerial       int
}

// Candidate is one potential pairing produced by Candidates.
type Candidate struct {
	A, B       int64
	SerialDiff int
	TimeDiff   time.Duration
	// FullA reports that A's received exchange agrees with B's sent
	// exchange exactly; FullB the reverse.
	FullA, FullB bool
	SameBand     bool
	SameMode     bool
}

// sqlBuilder accumulates SQL text and its parameters in order.
type sqlBuilder struct {
	text []byte
	args []any
}

func (b *sqlBuilder) add(text string, args ...any) {
	b.text = append(b.text, text...)
	b.args = append(b.args, args...)
}

// Candidates returns unmatched cross-log pairs satisfying the exact-phase
// criteria, ranked by serial discrepancy then time discrepancy. Clock
// adjustments are applied to both times.
func (s *Store) Candidates(ctx context.Context, cq CandidateQuery) ([]Candidate, error) {
	unknown := cq.UnknownSerial
	tol := cq.SerialTolerance

	serialOK := func(recvd, sent string) (string, []any) {
		return fmt.Sprintf("(ABS(%s - %s) <= ? OR %s = ? OR %s = ?)", recvd, sent, recvd, sent),
			[]any{tol, unknown, unknown}
	}
	serialDiff := func(recvd, sent string) (string, []any) {
		return fmt.Sprintf("(CASE WHEN %s = ? OR %s = ? THEN 0 ELSE ABS(%s - %s) END)", recvd, sent, recvd, sent),
			[]any{unknown, unknown}
	}
	multOK := func(recvd, sent string) string {
		return fmt.Sprintf("(%s IS NULL OR %s IS NULL OR %s = %s)", recvd, sent, recvd, sent)
	}
	full := func(a, b string) (string, []any) {
		sOK, sArgs := serialOK(a+".recvd_serial", b+".sent_serial")
		return fmt.Sprintf("(%s.recvd_callid = %s.sent_callid AND %s AND %s)",
			a, b, sOK, multOK(a+".recvd_multid", b+".sent_multid")), sArgs
	}

	var b sqlBuilder
	b.add(`SELECT q1.id, q2.id, `)
	d1, d1Args := serialDiff("q1.recvd_serial", "q2.sent_serial")
	d2, d2Args := serialDiff("q2.recvd_serial", "q1.sent_serial")
	b.add(d1+" + "+d2+", ", append(d1Args, d2Args...)...)
	b.add(`ABS((q1.time + l1.clockadj) - (q2.time + l2.clockadj)), `)
	fa, faArgs := full("q1", "q2")
	fb, fbArgs := full("q2", "q1")
	b.add(fa+", ", faArgs...)
	b.add(fb+", ", fbArgs...)
	b.add(`q1.band = q2.band, q1.mode = q2.mode
		FROM qso q1
		JOIN log l1 ON l1.id = q1.logid
		JOIN qso q2 ON q2.logid <> q1.logid
		JOIN log l2 ON l2.id = q2.logid
		WHERE `)

	states := queryir.StringValues(model.Strings(cq.States))
	for _, alias := range []string{"q1", "q2"} {
		var p queryir.Predicate = queryir.AllOf(
			queryir.IsNull{Field: queryir.FieldMatchID},
			queryir.In{Field: queryir.FieldMatchType, Values: states},
		)
		if cq.Logs != nil {
			p = queryir.AllOf(cq.Logs.Predicate(queryir.FieldLogID), p)
		}
		frag, params, err := querysql.WithAlias(alias).Compile(p)
		if err != nil {
			return nil, fmt.Errorf("candidates: %w", err)
		}
		b.add(frag+" AND ", params...)
	}

	// the reverse orientation is covered by the ordered pair (q2, q1)
	if cq.Symmetric {
		b.add(`q1.id < q2.id AND q1.recvd_callid = q2.sent_callid AND q2.recvd_callid = q1.sent_callid AND `)
		s1, s1Args := serialOK("q1.recvd_serial", "q2.sent_serial")
		s2, s2Args := serialOK("q2.recvd_serial", "q1.sent_serial")
		b.add(s1+" AND "+s2+" AND ", append(s1Args, s2Args...)...)
		b.add(multOK("q1.recvd_multid", "q2.sent_multid") + " AND " +
			multOK("q2.recvd_multid", "q1.sent_multid") + " AND ")
	} else {
		b.add(`q1.recvd_callid = q2.sent_callid AND `)
		s1, s1Args := serialOK("q1.recvd_serial", "q2.sent_serial")
		s2, s2Args := serialOK("q2.recvd_serial", "q1.sent_serial")
		b.add("("+s1+" OR "+s2+") AND ", append(s1Args, s2Args...)...)
	}

	if cq.Relaxed {
		b.add(`(q1.band = q2.band) <> (q1.mode = q2.mode) AND `)
	} else {
		b.add(`q1.band = q2.band AND q1.mode = q2.mode AND `)
	}

	b.add(`ABS((q1.time + l1.clockadj) - (q2.time + l2.clockadj)) <=
		CASE WHEN l1.clock_unreliable = 1 OR l2.clock_unreliable = 1 THEN MAX(?, ?) ELSE ? END`,
		int64(cq.TimeTolerance.Seconds()), int64(cq.UnreliableTolerance.Seconds()),
		int64(cq.TimeTolerance.Seconds()))
	b.add(` ORDER BY 3 ASC, 4 ASC, q1.id ASC, q2.id ASC`)

	rows, err := s.db.QueryContext(ctx, string(b.text), b.args...)
	if err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		var secs int64
		var fullA, fullB, sameBand, sameMode sql.NullBool
		if err := rows.Scan(&c.A, &c.B, &c.SerialDiff, &secs, &fullA, &fullB, &sameBand, &sameMode); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.TimeDiff = time.Duration(secs) * time.Second
		c.FullA, c.FullB = fullA.Bool, fullB.Bool
		c.SameBand, c.SameMode = sameBand.Bool, sameMode.Bool
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}
	return out, nil
}
