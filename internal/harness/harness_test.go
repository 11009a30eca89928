package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/babysitter/internal/canonical"
	"github.com/roach88/babysitter/internal/store"
	"github.com/roach88/babysitter/internal/view"
)

func at(p int) *int { return &p }

func snapshotHash(t *testing.T, ids ...string) string {
	t.Helper()
	h, err := canonical.SnapshotHash(ids)
	require.NoError(t, err)
	return h
}

func TestRun_WorkedExample(t *testing.T) {
	scenario := &Scenario{
		Name:        "worked_example",
		Description: "insert in the middle then remove the head",
		Views: []ViewDecl{
			{Name: "A", CID: "A"}, {Name: "B", CID: "B"},
			{Name: "C", CID: "C"}, {Name: "D", CID: "D"},
		},
		Steps: []Step{
			{Add: "A"}, {Add: "B"}, {Add: "C"},
			{Add: "D", At: at(1), Key: "k"},
			{Remove: "A"},
		},
		Assertions: []Assertion{
			{Type: AssertOrder, Views: []string{"D", "B", "C"}},
			{Type: AssertFind, By: FindByPosition, Position: 0, Expect: "D"},
			{Type: AssertFind, By: FindByPosition, Position: 1, Expect: "B"},
			{Type: AssertFind, By: FindByCustom, Key: "k", Expect: "D"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, []string{"D", "B", "C"}, result.Order)
	assert.Equal(t, snapshotHash(t, "D", "B", "C"), result.Hash)

	require.Len(t, result.Trace, 5)
	add := result.Trace[3]
	assert.Equal(t, TraceEvent{
		Seq: 4, Op: OpAdd, View: "D", Position: 1, Length: 4,
		Hash: snapshotHash(t, "A", "D", "B", "C"),
	}, add)
	remove := result.Trace[4]
	assert.Equal(t, 0, remove.Position)
	assert.Equal(t, 3, remove.Length)
}

func TestRun_SeedEvents(t *testing.T) {
	scenario := &Scenario{
		Name:        "seed",
		Description: "seeded views get one event each",
		Views:       []ViewDecl{{Name: "a"}, {Name: "b"}},
		Seed:        []string{"b", "a"},
		Assertions:  []Assertion{{Type: AssertOrder, Views: []string{"b", "a"}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	require.Len(t, result.Trace, 2)
	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
		assert.Equal(t, OpSeed, ev.Op)
		assert.Equal(t, i, ev.Position)
		assert.Equal(t, i+1, ev.Length)
	}
	// a is declared first, so it gets view1
	assert.Equal(t, snapshotHash(t, "view2"), result.Trace[0].Hash)
	assert.Equal(t, snapshotHash(t, "view2", "view1"), result.Trace[1].Hash)
}

func TestRun_ClampsPositions(t *testing.T) {
	scenario := &Scenario{
		Name:        "clamp",
		Description: "out of range positions clamp",
		Views:       []ViewDecl{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		Seed:        []string{"a"},
		Steps: []Step{
			{Add: "b", At: at(99)},
			{Add: "c", At: at(-5)},
		},
		Assertions: []Assertion{{Type: AssertOrder, Views: []string{"c", "a", "b"}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, 1, result.Trace[1].Position)
	assert.Equal(t, 0, result.Trace[2].Position)
}

func TestRun_StepErrors(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		pass    bool
		errCode string
		wantMsg string
	}{
		{
			name:    "expected error occurs",
			step:    Step{Remove: "b", Strict: true, ExpectError: "NOT_FOUND"},
			pass:    true,
			errCode: "NOT_FOUND",
		},
		{
			name:    "unexpected error",
			step:    Step{Remove: "b", Strict: true},
			errCode: "NOT_FOUND",
			wantMsg: "step 0 (remove): NOT_FOUND",
		},
		{
			name:    "expected error missing",
			step:    Step{Remove: "a", Strict: true, ExpectError: "NOT_FOUND"},
			wantMsg: "step 0 (remove): expected error NOT_FOUND, got none",
		},
		{
			name:    "wrong error code",
			step:    Step{Call: "Tag", Args: []any{"k"}, ExpectError: "INVOKE_FAILED"},
			errCode: "BAD_ARGUMENTS",
			wantMsg: "step 0 (call): expected error INVOKE_FAILED, got BAD_ARGUMENTS",
		},
		{
			name: "lenient remove of missing view",
			step: Step{Remove: "b"},
			pass: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := &Scenario{
				Name:        "errors",
				Description: "step error handling",
				Views:       []ViewDecl{{Name: "a"}, {Name: "b"}},
				Seed:        []string{"a"},
				Steps:       []Step{tt.step},
				Assertions:  []Assertion{{Type: AssertLength, Count: 1}},
			}
			if tt.step.Remove == "a" {
				scenario.Assertions[0].Count = 0
			}

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.Equal(t, tt.pass, result.Pass, result.Errors)
			assert.Equal(t, tt.errCode, result.Trace[1].Error)
			if tt.wantMsg != "" {
				require.Len(t, result.Errors, 1)
				assert.Contains(t, result.Errors[0], tt.wantMsg)
			}
		})
	}
}

func TestRun_CallArguments(t *testing.T) {
	scenario := &Scenario{
		Name:        "call_args",
		Description: "arguments reach every view",
		Views:       []ViewDecl{{Name: "a"}, {Name: "b"}},
		Seed:        []string{"a", "b"},
		Steps: []Step{
			{Call: "SetVisible", Args: []any{true}},
			{Call: "Tag", Args: []any{"size", "large"}},
			{Call: "NoSuchMethod"},
		},
		Assertions: []Assertion{
			{Type: AssertCalls, View: "a", Method: "SetVisible", Count: 1},
			{Type: AssertCalls, View: "b", Method: "Tag", Count: 1},
			{Type: AssertJournal, Op: OpCall, Count: 3},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, "SetVisible", result.Trace[2].Method)
	assert.Equal(t, -1, result.Trace[2].Position)
}

func TestRun_FractionalArgumentFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "fractional",
		Description: "fractional numbers cannot be passed",
		Views:       []ViewDecl{{Name: "a"}},
		Steps:       []Step{{Call: "Render", Args: []any{1.5}}},
		Assertions:  []Assertion{{Type: AssertLength, Count: 0}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fractional numbers are not supported")
}

func TestRun_AssertionFailuresAreReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing",
		Description: "assertions that do not hold",
		Views:       []ViewDecl{{Name: "a", Model: "m"}, {Name: "b"}},
		Seed:        []string{"a", "b"},
		Assertions: []Assertion{
			{Type: AssertOrder, Views: []string{"b", "a"}},
			{Type: AssertLength, Count: 3},
			{Type: AssertFind, By: FindByOwner, Key: "m", Absent: true},
			{Type: AssertCalls, View: "a", Method: "Render", Count: 1},
			{Type: AssertJournal, Op: OpSeed, Count: 2},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "Assertion failed: order")
	assert.Contains(t, result.Errors[1], "Assertion failed: length")
	assert.Contains(t, result.Errors[2], "Actual: find by owner m: a")
	assert.Contains(t, result.Errors[3], "Assertion failed: calls")
}

func TestRunWith_JournalsToStore(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	scenario, err := LoadScenario("testdata/scenarios/basic_ordering.yaml")
	require.NoError(t, err)

	result, err := RunWith(ctx, scenario, Config{Store: st, RunID: "run-1"})
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, "run-1", result.RunID)

	run, err := st.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "basic_ordering", run.Scenario)
	assert.True(t, run.Pass)
	assert.True(t, run.Finished)
	assert.Equal(t, result.Hash, run.FinalHash)

	ops, err := st.ReadOps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, ops, len(result.Trace))
	for i, op := range ops {
		ev := result.Trace[i]
		assert.Equal(t, ev.Seq, op.Seq)
		assert.Equal(t, ev.Op, op.Op)
		assert.Equal(t, ev.Hash, op.Hash)
	}
	assert.Equal(t, "Render", ops[len(ops)-1].View)
}

func TestRunWith_RejectsReusedRunID(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	first := &Scenario{
		Name:  "one",
		Views: []ViewDecl{{Name: "a"}, {Name: "b"}},
		Steps: []Step{{Add: "a"}, {Add: "b"}},
	}
	second := &Scenario{
		Name:       "two",
		Views:      []ViewDecl{{Name: "a"}},
		Steps:      []Step{{Add: "a"}},
		Assertions: []Assertion{{Type: AssertJournal, Op: OpAdd, Count: 1}},
	}

	result, err := RunWith(ctx, first, Config{Store: st, RunID: "nightly"})
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	_, err = RunWith(ctx, second, Config{Store: st, RunID: "nightly"})
	require.ErrorIs(t, err, store.ErrRunExists)

	run, err := st.ReadRun(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, "one", run.Scenario)
	assert.True(t, run.Pass)
	assert.Equal(t, result.Hash, run.FinalHash)

	n, err := st.CountOps(ctx, "nightly", OpAdd)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunWith_CustomIDGenerator(t *testing.T) {
	scenario := &Scenario{
		Name:        "ids",
		Description: "cids come from the configured generator",
		Views:       []ViewDecl{{Name: "a"}, {Name: "b", CID: "fixed"}},
		Seed:        []string{"a", "b"},
		Assertions: []Assertion{
			{Type: AssertFind, By: FindByPosition, Position: 1, Expect: "b"},
		},
	}

	result, err := RunWith(context.Background(), scenario, Config{IDs: view.NewSequenceGenerator("tab")})
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, snapshotHash(t, "tab1", "fixed"), result.Hash)
	assert.NotEmpty(t, result.RunID)
}

func TestRun_GeneratedCIDsSkipDeclared(t *testing.T) {
	scenario := &Scenario{
		Name:        "cid_clash",
		Description: "a declared cid matches the first generated one",
		Views:       []ViewDecl{{Name: "a", CID: "view1"}, {Name: "b"}, {Name: "c"}},
		Seed:        []string{"a", "b", "c"},
		Assertions: []Assertion{
			{Type: AssertOrder, Views: []string{"a", "b", "c"}},
			{Type: AssertFind, By: FindByIdentity, Key: "b", Expect: "b"},
		},
	}
	require.NoError(t, validateScenario(scenario))

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, snapshotHash(t, "view1", "view2", "view3"), result.Hash)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/shared_owner.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, first.Pass, first.Errors)
	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Hash, second.Hash)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestNormalizeArg(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    any
		wantErr bool
	}{
		{"string", "x", "x", false},
		{"bool", true, true, false},
		{"int", 7, 7, false},
		{"nil", nil, nil, false},
		{"integral float", 3.0, 3, false},
		{"fractional float", 0.5, nil, true},
		{"json int", json.Number("12"), 12, false},
		{"json integral float", json.Number("4.0"), 4, false},
		{"json fraction", json.Number("4.5"), nil, true},
		{"map", map[string]any{}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeArg(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
