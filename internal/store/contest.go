package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

// CreateContest inserts a contest, or returns the id of the existing
// contest with the same name and year.
func (s *Store) CreateContest(ctx context.Context, c model.Contest) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("create contest: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO contest (name, year, start_time, end_time)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name, year) DO NOTHING
	`, c.Name, c.Year, c.Start.Unix(), c.End.Unix())
	if err != nil {
		return 0, fmt.Errorf("create contest: insert: %w", err)
	}

	id, err := insertedOrExisting(ctx, tx, result,
		`SELECT id FROM contest WHERE name = ? AND year = ?`, c.Name, c.Year)
	if err != nil {
		return 0, fmt.Errorf("create contest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("create contest: commit: %w", err)
	}
	return id, nil
}

// insertedOrExisting returns the new row id, or looks the existing row up
// when the insert hit a conflict.
func insertedOrExisting(ctx context.Context, tx *sql.Tx, result sql.Result, lookup string, args ...any) (int64, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	var id int64
	if rowsAffected > 0 {
		id, err = result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("last insert id: %w", err)
		}
		return id, nil
	}
	if err := tx.QueryRowContext(ctx, lookup, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("select existing: %w", err)
	}
	return id, nil
}

// Contest reads one contest by id.
func (s *Store) Contest(ctx context.Context, id int64) (model.Contest, error) {
	return s.scanContest(s.db.QueryRowContext(ctx, `
		SELECT id, name, year, start_time, end_time, clock_solved
		FROM contest WHERE id = ?
	`, id))
}

// ContestByName reads one contest by name and year.
func (s *Store) ContestByName(ctx context.Context, name string, year int) (model.Contest, error) {
	return s.scanContest(s.db.QueryRowContext(ctx, `
		SELECT id, name, year, start_time, end_time, clock_solved
		FROM contest WHERE name = ? AND year = ?
	`, name, year))
}

func (s *Store) scanContest(row *sql.Row) (model.Contest, error) {
	var c model.Contest
	var start, end int64
	var solved int
	err := row.Scan(&c.ID, &c.Name, &c.Year, &start, &end, &solved)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Contest{}, fmt.Errorf("read contest: %w", ErrNotFound)
	}
	if err != nil {
		return model.Contest{}, fmt.Errorf("read contest: %w", err)
	}
	c.Start = time.Unix(start, 0).UTC()
	c.End = time.Unix(end, 0).UTC()
	c.ClockSolved = solved != 0
	return c, nil
}

// SetClockSolved records whether clock adjustments have been applied.
func (s *Store) SetClockSolved(ctx context.Context, contestID int64, solved bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE contest SET clock_solved = ? WHERE id = ?`, boolInt(solved), contestID)
	if err != nil {
		return fmt.Errorf("set clock solved: %w", err)
	}
	return nil
}

// InsertEntity adds a DXCC entity. Re-inserting an id replaces it.
func (s *Store) InsertEntity(ctx context.Context, e model.Entity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity (id, name, prefix, continent) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			prefix = excluded.prefix, continent = excluded.continent
	`, e.ID, e.Name, e.Prefix, e.Continent)
	if err != nil {
		return fmt.Errorf("insert entity: %w", err)
	}
	return nil
}

// Entities lists every DXCC entity ordered by id.
func (s *Store) Entities(ctx context.Context) ([]model.Entity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, prefix, continent FROM entity ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("read entities: %w", err)
	}
	defer rows.Close()

	var out []model.Entity
	for rows.Next() {
		var e model.Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.Prefix, &e.Continent); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertMultiplier adds a multiplier code to a contest and returns its id.
func (s *Store) InsertMultiplier(ctx context.Context, contestID int64, m model.Multiplier) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert multiplier: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO multiplier (contestid, abbrev, name, entityid, isdx)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(contestid, abbrev) DO NOTHING
	`, contestID, m.Abbrev, m.Name, nullID(m.EntityID), boolInt(m.IsDX))
	if err != nil {
		return 0, fmt.Errorf("insert multiplier: %w", err)
	}
	id, err := insertedOrExisting(ctx, tx, result,
		`SELECT id FROM multiplier WHERE contestid = ? AND abbrev = ?`, contestID, m.Abbrev)
	if err != nil {
		return 0, fmt.Errorf("insert multiplier: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert multiplier: commit: %w", err)
	}
	return id, nil
}

// Multipliers lists a contest's multiplier codes ordered by id.
func (s *Store) Multipliers(ctx context.Context, contestID int64) ([]model.Multiplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, abbrev, name, entityid, isdx FROM multiplier
		WHERE contestid = ? ORDER BY id ASC
	`, contestID)
	if err != nil {
		return nil, fmt.Errorf("read multipliers: %w", err)
	}
	defer rows.Close()

	var out []model.Multiplier
	for rows.Next() {
		var m model.Multiplier
		var entity sql.NullInt64
		var isdx int
		if err := rows.Scan(&m.ID, &m.Abbrev, &m.Name, &entity, &isdx); err != nil {
			return nil, fmt.Errorf("scan multiplier: %w", err)
		}
		m.EntityID = entity.Int64
		m.IsDX = isdx != 0
		out = append(out, m)
	}
	return out, rows.Err()
}

// EnsureCallsign returns the registry id for basecall, creating the entry
// if needed.
func (s *Store) EnsureCallsign(ctx context.Context, contestID int64, basecall string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ensure callsign: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO callsign (contestid, basecall) VALUES (?, ?)
		ON CONFLICT(contestid, basecall) DO NOTHING
	`, contestID, basecall)
	if err != nil {
		return 0, fmt.Errorf("ensure callsign: insert: %w", err)
	}
	id, err := insertedOrExisting(ctx, tx, result,
		`SELECT id FROM callsign WHERE contestid = ? AND basecall = ?`, contestID, basecall)
	if err != nil {
		return 0, fmt.Errorf("ensure callsign: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ensure callsign: commit: %w", err)
	}
	return id, nil
}

// SetCallsignFlags updates the logrecvd and validcall flags.
func (s *Store) SetCallsignFlags(ctx context.Context, id int64, logRecvd, validCall bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE callsign SET logrecvd = ?, validcall = ? WHERE id = ?`,
		boolInt(logRecvd), boolInt(validCall), id)
	if err != nil {
		return fmt.Errorf("set callsign flags: %w", err)
	}
	return nil
}

// Callsigns lists a contest's base-call registry ordered by id.
func (s *Store) Callsigns(ctx context.Context, contestID int64) ([]model.Callsign, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contestid, basecall, logrecvd, validcall FROM callsign
		WHERE contestid = ? ORDER BY id ASC
	`, contestID)
	if err != nil {
		return nil, fmt.Errorf("read callsigns: %w", err)
	}
	defer rows.Close()

	var out []model.Callsign
	for rows.Next() {
		var c model.Callsign
		var recvd, valid int
		if err := rows.Scan(&c.ID, &c.ContestID, &c.Basecall, &recvd, &valid); err != nil {
			return nil, fmt.Errorf("scan callsign: %w", err)
		}
		c.LogRecvd = recvd != 0
		c.ValidCall = valid != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertLog adds a submitted log and marks its base call as having sent a
// log. The log's id is returned.
func (s *Store) InsertLog(ctx context.Context, l model.Log) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert log: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO log (contestid, callsign, callid, opclass, power, location, multid)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.ContestID, l.Callsign, nullID(l.CallID), l.OpClass, l.Power, l.Location, nullID(l.MultID))
	if err != nil {
		return 0, fmt.Errorf("insert log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert log: last insert id: %w", err)
	}
	if l.CallID != 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE callsign SET logrecvd = 1 WHERE id = ?`, l.CallID); err != nil {
			return 0, fmt.Errorf("insert log: mark received: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert log: commit: %w", err)
	}
	return id, nil
}

const logColumns = `id, contestid, callsign, callid, opclass, power, location, multid,
	clockadj, clock_unreliable, verified_score, verified_qsos, verified_mults`

// Logs lists a contest's logs ordered by id.
func (s *Store) Logs(ctx context.Context, contestID int64) ([]model.Log, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+logColumns+` FROM log WHERE contestid = ? ORDER BY id ASC`, contestID)
	if err != nil {
		return nil, fmt.Errorf("read logs: %w", err)
	}
	defer rows.Close()

	var out []model.Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// LogIDs lists the ids of a contest's logs in ascending order.
func (s *Store) LogIDs(ctx context.Context, contestID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM log WHERE contestid = ? ORDER BY id ASC`, contestID)
	if err != nil {
		return nil, fmt.Errorf("read log ids: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan log id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanLog(rows *sql.Rows) (model.Log, error) {
	var l model.Log
	var callID, multID, score, qsos, mults sql.NullInt64
	var unreliable int
	err := rows.Scan(&l.ID, &l.ContestID, &l.Callsign, &callID, &l.OpClass, &l.Power,
		&l.Location, &multID, &l.ClockAdj, &unreliable, &score, &qsos, &mults)
	if err != nil {
		return model.Log{}, fmt.Errorf("scan log: %w", err)
	}
	l.CallID = callID.Int64
	l.MultID = multID.Int64
	l.ClockUnreliable = unreliable != 0
	l.VerifiedScore = nullIntPtr(score)
	l.VerifiedQSOs = nullIntPtr(qsos)
	l.VerifiedMults = nullIntPtr(mults)
	return l, nil
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// SetClockAdj writes a solved clock offset for one log.
func (s *Store) SetClockAdj(ctx context.Context, logID int64, seconds int, unreliable bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE log SET clockadj = ?, clock_unreliable = ? WHERE id = ?`,
		seconds, boolInt(unreliable), logID)
	if err != nil {
		return fmt.Errorf("set clock adjustment: %w", err)
	}
	return nil
}

// ResetClock clears every clock adjustment of a contest and its solved flag.
func (s *Store) ResetClock(ctx context.Context, contestID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset clock: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE log SET clockadj = 0, clock_unreliable = 0 WHERE contestid = ?`, contestID); err != nil {
		return fmt.Errorf("reset clock: logs: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE contest SET clock_solved = 0 WHERE id = ?`, contestID); err != nil {
		return fmt.Errorf("reset clock: contest: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reset clock: commit: %w", err)
	}
	return nil
}

// SetVerifiedTotals writes a log's tallied score.
func (s *Store) SetVerifiedTotals(ctx context.Context, logID int64, score, qsos, mults int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE log SET verified_score = ?, verified_qsos = ?, verified_mults = ?
		WHERE id = ?
	`, score, qsos, mults, logID)
	if err != nil {
		return fmt.Errorf("set verified totals: %w", err)
	}
	return nil
}
