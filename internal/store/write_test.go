package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRun_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, Run{ID: "run-1", Scenario: "basic"}))
	err := s.WriteRun(ctx, Run{ID: "run-1", Scenario: "other"})
	assert.ErrorIs(t, err, ErrRunExists)

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "basic", got.Scenario, "second write must not overwrite")
	assert.False(t, got.Finished)
}

func TestFinishRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	require.NoError(t, s.FinishRun(ctx, "run-1", true, "abc"))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, got.Pass)
	assert.True(t, got.Finished)
	assert.Equal(t, "abc", got.FinalHash)
}

func TestFinishRun_UnknownRun(t *testing.T) {
	s := createTestStore(t)
	err := s.FinishRun(context.Background(), "missing", true, "")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestWriteOp(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	runID := createTestRun(t, s, "run-1")

	op := Op{RunID: runID, Seq: 1, Op: "add", View: "a", Position: 0, Length: 1, Hash: "h1"}
	require.NoError(t, s.WriteOp(ctx, op))
	// Same (run_id, seq) is ignored.
	require.NoError(t, s.WriteOp(ctx, Op{RunID: runID, Seq: 1, Op: "remove", Hash: "h2"}))

	ops, err := s.ReadOps(ctx, runID)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, op, ops[0])
}

func TestWriteOp_RequiresRun(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteOp(context.Background(), Op{RunID: "missing", Seq: 1, Op: "add", Hash: "h"})
	assert.Error(t, err, "foreign key must reject ops for unknown runs")
}
