package store

import (
	"context"
	"fmt"
	"time"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

// PairDecision returns a cached operator decision for a QSO pair.
// found is false when the pair has never been decided.
func (s *Store) PairDecision(ctx context.Context, key model.PairKey) (matched, found bool, err error) {
	var m int
	err = s.db.QueryRowContext(ctx, `SELECT matched FROM pairs WHERE hash = ?`, key.Hash).Scan(&m)
	if isNoRows(err) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("read pair decision: %w", err)
	}
	return m != 0, true, nil
}

// SavePairDecision caches an operator decision. A later decision for the
// same pair replaces the earlier one.
func (s *Store) SavePairDecision(ctx context.Context, key model.PairKey, matched bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pairs (hash, line1, line2, matched) VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET matched = excluded.matched
	`, key.Hash, key.Line1, key.Line2, boolInt(matched))
	if err != nil {
		return fmt.Errorf("save pair decision: %w", err)
	}
	return nil
}

// DXOverride returns the operator-assigned entity for a callsign.
func (s *Store) DXOverride(ctx context.Context, contestID int64, callsign string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT entityid FROM dx_override WHERE contestid = ? AND callsign = ?`,
		contestID, callsign).Scan(&id)
	if isNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read dx override: %w", err)
	}
	return id, true, nil
}

// SetDXOverride assigns a DXCC entity to a callsign for one contest.
func (s *Store) SetDXOverride(ctx context.Context, contestID int64, callsign string, entityID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dx_override (contestid, callsign, entityid) VALUES (?, ?, ?)
		ON CONFLICT(contestid, callsign) DO UPDATE SET entityid = excluded.entityid
	`, contestID, callsign, entityID)
	if err != nil {
		return fmt.Errorf("set dx override: %w", err)
	}
	return nil
}

// Run is one adjudication pipeline invocation.
type Run struct {
	ID          string
	ContestID   int64
	StartedAt   time.Time
	FinishedAt  time.Time // zero while running
	Transitions int64
	Status      string
}

// StartRun records the start of a pipeline run.
func (s *Store) StartRun(ctx context.Context, id string, contestID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, contestid, started_at) VALUES (?, ?, ?)`,
		id, contestID, at.Unix())
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// FinishRun closes a run with its outcome.
func (s *Store) FinishRun(ctx context.Context, id string, at time.Time, transitions int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, transitions = ?, status = ? WHERE id = ?`,
		at.Unix(), transitions, status, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Runs lists a contest's runs, oldest first.
func (s *Store) Runs(ctx context.Context, contestID int64) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contestid, started_at, COALESCE(finished_at, 0), transitions, status
		FROM runs WHERE contestid = ? ORDER BY started_at ASC, id ASC
	`, contestID)
	if err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.ContestID, &started, &finished, &r.Transitions, &r.Status); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0).UTC()
		if finished != 0 {
			r.FinishedAt = time.Unix(finished, 0).UTC()
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
