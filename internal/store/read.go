package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run id is not in the journal.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns the run with the given id.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, pass, finished, final_hash FROM runs WHERE id = ?
	`, runID).Scan(&run.ID, &run.Scenario, &run.Pass, &run.Finished, &run.FinalHash)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run in insertion order.
// Returns an empty slice (not nil) when the journal is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario, pass, finished, final_hash FROM runs ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Scenario, &run.Pass, &run.Finished, &run.FinalHash); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadOps returns the operations of a run ordered by seq.
// Returns an empty slice (not nil) if the run has no operations.
func (s *Store) ReadOps(ctx context.Context, runID string) ([]Op, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, op, view, position, length, hash, error
		FROM ops
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query ops: %w", err)
	}
	defer rows.Close()

	ops := []Op{}
	for rows.Next() {
		var op Op
		if err := rows.Scan(&op.RunID, &op.Seq, &op.Op, &op.View, &op.Position, &op.Length, &op.Hash, &op.Error); err != nil {
			return nil, fmt.Errorf("scan op: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ops: %w", err)
	}
	return ops, nil
}

// CountOps returns how many operations of kind op a run recorded.
func (s *Store) CountOps(ctx context.Context, runID, op string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM ops WHERE run_id = ? AND op = ?
	`, runID, op).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ops: %w", err)
	}
	return n, nil
}
