package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/babysitter/internal/container"
	"github.com/roach88/babysitter/internal/store"
	"github.com/roach88/babysitter/internal/view"
)

// assertionFixture builds views a, b, c (a and c owned by m1 and m2) in a
// container ordered [a, b, c] with c under custom key "tail".
func assertionFixture(t *testing.T) *AssertionContext {
	t.Helper()
	a := view.New("cid-a", &view.Model{ID: "m1"})
	b := view.New("cid-b", nil)
	c := view.New("cid-c", &view.Model{ID: "m2"})

	ctr := view.NewContainer(a, b)
	ctr.Add(c, container.AddOptions{CustomKey: "tail"})
	require.NoError(t, ctr.Call("Render"))

	return &AssertionContext{
		Ctx:       context.Background(),
		Container: ctr,
		Views:     map[string]*view.View{"a": a, "b": b, "c": c},
	}
}

func TestAssertions(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"order holds", Assertion{Type: AssertOrder, Views: []string{"a", "b", "c"}}, ""},
		{"order differs", Assertion{Type: AssertOrder, Views: []string{"b", "a", "c"}}, "Actual: [a b c]"},
		{"length holds", Assertion{Type: AssertLength, Count: 3}, ""},
		{"length differs", Assertion{Type: AssertLength, Count: 2}, "Actual: 3 views"},
		{"find identity", Assertion{Type: AssertFind, By: FindByIdentity, Key: "b", Expect: "b"}, ""},
		{"find owner", Assertion{Type: AssertFind, By: FindByOwner, Key: "m2", Expect: "c"}, ""},
		{"find owner absent", Assertion{Type: AssertFind, By: FindByOwner, Key: "m9", Absent: true}, ""},
		{"find custom", Assertion{Type: AssertFind, By: FindByCustom, Key: "tail", Expect: "c"}, ""},
		{"find position", Assertion{Type: AssertFind, By: FindByPosition, Position: 1, Expect: "b"}, ""},
		{"find position out of range", Assertion{Type: AssertFind, By: FindByPosition, Position: 3, Expect: "a"}, "Actual: find by position 3: absent"},
		{"find wrong view", Assertion{Type: AssertFind, By: FindByCustom, Key: "tail", Expect: "a"}, "Expected: find by custom tail: a"},
		{"calls hold", Assertion{Type: AssertCalls, View: "a", Method: "Render", Count: 1}, ""},
		{"calls differ", Assertion{Type: AssertCalls, View: "a", Method: "Close", Count: 1}, "a.Close called 0 times"},
		{"calls unknown view", Assertion{Type: AssertCalls, View: "z", Method: "Render", Count: 1}, `unknown view "z"`},
		{"journal without store", Assertion{Type: AssertJournal, Op: OpAdd, Count: 1}, "journal requires a store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actx := assertionFixture(t)
			errs := EvaluateAssertions(NewResult("r"), []Assertion{tt.assertion}, actx)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestAssertJournal(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.WriteRun(ctx, store.Run{ID: "r", Scenario: "s"}))
	require.NoError(t, st.WriteOp(ctx, store.Op{RunID: "r", Seq: 1, Op: OpAdd, View: "a", Position: 0, Length: 1, Hash: "h1"}))
	require.NoError(t, st.WriteOp(ctx, store.Op{RunID: "r", Seq: 2, Op: OpAdd, View: "b", Position: 1, Length: 2, Hash: "h2"}))

	actx := assertionFixture(t)
	actx.Store = st
	actx.RunID = "r"

	errs := EvaluateAssertions(NewResult("r"), []Assertion{
		{Type: AssertJournal, Op: OpAdd, Count: 2},
		{Type: AssertJournal, Op: OpRemove, Count: 0},
		{Type: AssertJournal, Op: OpCall, Count: 1},
	}, actx)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Expected: 1 call operations")
	assert.Contains(t, errs[0], "Actual: 0 call operations")
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertLength,
		Expected: "2 views",
		Actual:   "1 views",
		Trace: []TraceEvent{
			{Seq: 1, Op: OpSeed, View: "a", Position: 0, Length: 1},
			{Seq: 2, Op: OpCall, Method: "Close", Position: -1, Length: 1, Error: "INVOKE_FAILED"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: length")
	assert.Contains(t, msg, "[1] seed a pos=0 len=1")
	assert.Contains(t, msg, "[2] call Close pos=-1 len=1 error=INVOKE_FAILED")
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}
