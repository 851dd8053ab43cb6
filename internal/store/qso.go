package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/queryir"
	"github.com/tepperly/nasprint-sub000/internal/querysql"
)

const qsoColumns = `id, logid, frequency, band, mode, time,
	sent_callid, sent_callsign, sent_serial, sent_name, sent_location, sent_multid, sent_entityid,
	recvd_callid, recvd_callsign, recvd_serial, recvd_name, recvd_location, recvd_multid, recvd_entityid,
	matchid, matchtype, comment, judged_band, judged_mode, score`

// InsertQSO adds one contact line and returns its id. Adjudication fields
// are ignored; every new QSO starts as None.
func (s *Store) InsertQSO(ctx context.Context, q model.QSO) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO qso (logid, frequency, band, mode, time,
			sent_callid, sent_callsign, sent_serial, sent_name, sent_location, sent_multid, sent_entityid,
			recvd_callid, recvd_callsign, recvd_serial, recvd_name, recvd_location, recvd_multid, recvd_entityid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		q.LogID, q.Frequency, string(q.Band), string(q.Mode), q.Time.Unix(),
		nullID(q.Sent.CallID), q.Sent.Callsign, q.Sent.Serial, q.Sent.Name, q.Sent.Location,
		nullID(q.Sent.MultID), nullID(q.Sent.EntityID),
		nullID(q.Recvd.CallID), q.Recvd.Callsign, q.Recvd.Serial, q.Recvd.Name, q.Recvd.Location,
		nullID(q.Recvd.MultID), nullID(q.Recvd.EntityID),
	)
	if err != nil {
		return 0, fmt.Errorf("insert qso: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert qso: last insert id: %w", err)
	}
	return id, nil
}

// QSOs returns the QSOs matching pred, ordered by id.
func (s *Store) QSOs(ctx context.Context, pred queryir.Predicate) ([]model.QSO, error) {
	where, params, err := querysql.NewCompiler().Where(pred)
	if err != nil {
		return nil, fmt.Errorf("read qsos: %w", err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+qsoColumns+` FROM qso`+where+` ORDER BY id ASC`, params...)
	if err != nil {
		return nil, fmt.Errorf("read qsos: %w", err)
	}
	defer rows.Close()

	var out []model.QSO
	for rows.Next() {
		q, err := scanQSO(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read qsos: %w", err)
	}
	return out, nil
}

// QSO reads one QSO by id.
func (s *Store) QSO(ctx context.Context, id int64) (model.QSO, error) {
	qsos, err := s.QSOs(ctx, queryir.Equals{Field: queryir.FieldID, Value: id})
	if err != nil {
		return model.QSO{}, err
	}
	if len(qsos) == 0 {
		return model.QSO{}, fmt.Errorf("read qso %d: %w", id, ErrNotFound)
	}
	return qsos[0], nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQSO(rows rowScanner) (model.QSO, error) {
	var q model.QSO
	var band, mode, matchType string
	var ts int64
	var sentCall, sentMult, sentEntity, recvdCall, recvdMult, recvdEntity sql.NullInt64
	var matchID, score sql.NullInt64
	var comment, judgedBand, judgedMode sql.NullString

	err := rows.Scan(&q.ID, &q.LogID, &q.Frequency, &band, &mode, &ts,
		&sentCall, &q.Sent.Callsign, &q.Sent.Serial, &q.Sent.Name, &q.Sent.Location, &sentMult, &sentEntity,
		&recvdCall, &q.Recvd.Callsign, &q.Recvd.Serial, &q.Recvd.Name, &q.Recvd.Location, &recvdMult, &recvdEntity,
		&matchID, &matchType, &comment, &judgedBand, &judgedMode, &score)
	if err != nil {
		return model.QSO{}, fmt.Errorf("scan qso: %w", err)
	}

	q.Band = model.Band(band)
	q.Mode = model.Mode(mode)
	q.Time = time.Unix(ts, 0).UTC()
	q.Sent.CallID, q.Sent.MultID, q.Sent.EntityID = sentCall.Int64, sentMult.Int64, sentEntity.Int64
	q.Recvd.CallID, q.Recvd.MultID, q.Recvd.EntityID = recvdCall.Int64, recvdMult.Int64, recvdEntity.Int64
	q.MatchID = matchID.Int64
	q.MatchType, err = model.ParseMatchType(matchType)
	if err != nil {
		return model.QSO{}, fmt.Errorf("scan qso %d: %w", q.ID, err)
	}
	q.Comment = comment.String
	q.JudgedBand = model.Band(judgedBand.String)
	q.JudgedMode = model.Mode(judgedMode.String)
	q.Score = int(score.Int64)
	return q, nil
}

// allowedSources is the IN predicate over the legal source states of to.
func allowedSources(to model.MatchType) queryir.Predicate {
	var from []string
	for _, m := range model.AllowedFrom(to) {
		if m != to {
			from = append(from, string(m))
		}
	}
	return queryir.In{Field: queryir.FieldMatchType, Values: queryir.StringValues(from)}
}

// Transition moves every QSO matching pred to state to and returns the
// number of rows changed. Rows whose current state is not a legal source
// for to are left untouched. A non-linked target clears matchid. An empty
// comment leaves the existing comment in place.
func (s *Store) Transition(ctx context.Context, pred queryir.Predicate, to model.MatchType, comment string) (int64, error) {
	if to == model.MatchNone {
		return 0, fmt.Errorf("transition to None: %w", ErrIllegalTransition)
	}
	where, params, err := querysql.NewCompiler().Where(queryir.AllOf(pred, allowedSources(to)))
	if err != nil {
		return 0, fmt.Errorf("transition to %s: %w", to, err)
	}
	set := `matchtype = ?, comment = COALESCE(?, comment)`
	if !to.Linked() {
		set += `, matchid = NULL`
	}
	args := append([]any{string(to), nullString(comment)}, params...)
	result, err := s.db.ExecContext(ctx, `UPDATE qso SET `+set+where, args...)
	if err != nil {
		return 0, fmt.Errorf("transition to %s: %w", to, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("transition to %s: rows affected: %w", to, err)
	}
	return n, nil
}

// TransitionOne moves a single QSO and reports ErrIllegalTransition when
// its current state forbids it.
func (s *Store) TransitionOne(ctx context.Context, id int64, to model.MatchType, comment string) error {
	n, err := s.Transition(ctx, queryir.Equals{Field: queryir.FieldID, Value: id}, to, comment)
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("qso %d to %s: %w", id, to, ErrIllegalTransition)
	}
	return nil
}

// RestartMatch returns every QSO of a contest to None and clears derived
// log totals. This is the only path back to None.
func (s *Store) RestartMatch(ctx context.Context, contestID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("restart match: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE qso SET matchid = NULL, matchtype = 'None', comment = NULL,
			judged_band = NULL, judged_mode = NULL, score = NULL
		WHERE logid IN (SELECT id FROM log WHERE contestid = ?)
	`, contestID); err != nil {
		return fmt.Errorf("restart match: qsos: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE log SET verified_score = NULL, verified_qsos = NULL, verified_mults = NULL
		WHERE contestid = ?
	`, contestID); err != nil {
		return fmt.Errorf("restart match: logs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("restart match: commit: %w", err)
	}
	return nil
}

// SetRecvdEntity records the resolved DXCC entity of the QSOs in ids.
func (s *Store) SetRecvdEntity(ctx context.Context, ids []int64, entityID int64) error {
	where, params, err := querysql.NewCompiler().Where(
		queryir.In{Field: queryir.FieldID, Values: queryir.Int64s(ids)})
	if err != nil {
		return fmt.Errorf("set received entity: %w", err)
	}
	args := append([]any{nullID(entityID)}, params...)
	if _, err := s.db.ExecContext(ctx, `UPDATE qso SET recvd_entityid = ?`+where, args...); err != nil {
		return fmt.Errorf("set received entity: %w", err)
	}
	return nil
}

// ScoreUpdate is the tally result for one QSO.
type ScoreUpdate struct {
	ID         int64
	Score      int
	JudgedBand model.Band
	JudgedMode model.Mode
}

// SetScores writes per-QSO tally results in one transaction.
func (s *Store) SetScores(ctx context.Context, updates []ScoreUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set scores: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE qso SET score = ?, judged_band = ?, judged_mode = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("set scores: prepare: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.Score,
			nullString(string(u.JudgedBand)), nullString(string(u.JudgedMode)), u.ID); err != nil {
			return fmt.Errorf("set scores: qso %d: %w", u.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set scores: commit: %w", err)
	}
	return nil
}

// MatchTypeCounts counts QSOs matching pred per log and state.
func (s *Store) MatchTypeCounts(ctx context.Context, pred queryir.Predicate) (map[int64]map[model.MatchType]int, error) {
	where, params, err := querysql.NewCompiler().Where(pred)
	if err != nil {
		return nil, fmt.Errorf("count match types: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT logid, matchtype, COUNT(*) FROM qso`+where+`
		GROUP BY logid, matchtype ORDER BY logid ASC, matchtype ASC`, params...)
	if err != nil {
		return nil, fmt.Errorf("count match types: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]map[model.MatchType]int)
	for rows.Next() {
		var logID int64
		var mt string
		var n int
		if err := rows.Scan(&logID, &mt, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		if out[logID] == nil {
			out[logID] = make(map[model.MatchType]int)
		}
		out[logID][model.MatchType(mt)] = n
	}
	return out, rows.Err()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
