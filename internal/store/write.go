package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrRunExists is returned when a run id is already in the journal.
var ErrRunExists = errors.New("run already exists")

// WriteRun inserts a run record.
// Returns ErrRunExists if the id is taken; the existing record is left as is.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, pass, finished, final_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Scenario, run.Pass, run.Finished, run.FinalHash)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("write run %s: %w", run.ID, ErrRunExists)
	}
	return nil
}

// FinishRun records the outcome of a run.
// Returns ErrRunNotFound if the run was never written.
func (s *Store) FinishRun(ctx context.Context, runID string, pass bool, finalHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET pass = ?, finished = 1, final_hash = ? WHERE id = ?
	`, pass, finalHash, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// WriteOp appends an operation to a run.
// Uses ON CONFLICT(run_id, seq) DO NOTHING for idempotency.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteOp(ctx context.Context, op Op) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ops (run_id, seq, op, view, position, length, hash, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`, op.RunID, op.Seq, op.Op, op.View, op.Position, op.Length, op.Hash, op.Error)
	if err != nil {
		return fmt.Errorf("write op: %w", err)
	}
	return nil
}
