package store

import (
	"context"
	"fmt"
)

// RecordAllocations replaces the allocations stored for a run.
func (s *Store) RecordAllocations(ctx context.Context, runID string, records []AllocationRecord) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin allocations tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM allocations WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("clear allocations: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO allocations (run_id, idx, clip_id, url, tier, start_seconds, end_seconds)
             VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare allocation insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, runID, r.Index, r.ClipID, nullableString(r.URL), r.Tier, r.Start, r.End); err != nil {
				return fmt.Errorf("insert allocation %d: %w", r.Index, err)
			}
		}
		return tx.Commit()
	})
}

// Allocations returns a run's allocations in timeline order.
func (s *Store) Allocations(ctx context.Context, runID string) ([]AllocationRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, clip_id, COALESCE(url, ''), tier, start_seconds, end_seconds
         FROM allocations WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("query allocations: %w", err)
	}
	defer rows.Close()

	var out []AllocationRecord
	for rows.Next() {
		var r AllocationRecord
		if err := rows.Scan(&r.Index, &r.ClipID, &r.URL, &r.Tier, &r.Start, &r.End); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordMisses replaces the alignment misses stored for a run.
func (s *Store) RecordMisses(ctx context.Context, runID string, misses []MissRecord) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin misses tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM misses WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("clear misses: %w", err)
		}
		for i, m := range misses {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO misses (run_id, seq, block, token, cursor) VALUES (?, ?, ?, ?, ?)`,
				runID, i, m.Block, m.Token, m.Cursor,
			); err != nil {
				return fmt.Errorf("insert miss %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
}

// Misses returns a run's alignment misses in the order they were found.
func (s *Store) Misses(ctx context.Context, runID string) ([]MissRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT block, token, cursor FROM misses WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query misses: %w", err)
	}
	defer rows.Close()

	var out []MissRecord
	for rows.Next() {
		var m MissRecord
		if err := rows.Scan(&m.Block, &m.Token, &m.Cursor); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
