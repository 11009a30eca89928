package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/babysitter/internal/store"
	"github.com/roach88/babysitter/internal/view"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			subject := ev.View
			if ev.Op == OpCall {
				subject = ev.Method
			}
			fmt.Fprintf(&buf, "  [%d] %s %s pos=%d len=%d", ev.Seq, ev.Op, subject, ev.Position, ev.Length)
			if ev.Error != "" {
				fmt.Fprintf(&buf, " error=%s", ev.Error)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// AssertionContext provides the final run state to assertions.
type AssertionContext struct {
	Ctx       context.Context
	Container *view.Container
	Views     map[string]*view.View // by scenario name
	Store     *store.Store
	RunID     string
}

// nameOf returns the scenario name of v.
func (actx *AssertionContext) nameOf(v *view.View) string {
	for name, candidate := range actx.Views {
		if candidate == v {
			return name
		}
	}
	return v.CID
}

// assertOrder checks the container holds exactly the named views, in order.
func assertOrder(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	actual := make([]string, 0, actx.Container.Len())
	for v := range actx.Container.Values() {
		actual = append(actual, actx.nameOf(v))
	}
	if !slices.Equal(actual, a.Views) {
		return &AssertionError{
			Type:     AssertOrder,
			Expected: fmt.Sprintf("%v", a.Views),
			Actual:   fmt.Sprintf("%v", actual),
			Trace:    trace,
		}
	}
	return nil
}

// assertLength checks the container length.
func assertLength(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	if n := actx.Container.Len(); n != a.Count {
		return &AssertionError{
			Type:     AssertLength,
			Expected: fmt.Sprintf("%d views", a.Count),
			Actual:   fmt.Sprintf("%d views", n),
			Trace:    trace,
		}
	}
	return nil
}

// assertFind checks a single lookup.
func assertFind(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	var (
		found *view.View
		ok    bool
		what  string
	)
	c := actx.Container

	switch a.By {
	case FindByIdentity:
		what = fmt.Sprintf("find by identity %s", a.Key)
		if v := actx.Views[a.Key]; v != nil {
			found, ok = c.FindByIdentity(v.CID)
		}
	case FindByOwner:
		what = fmt.Sprintf("find by owner %s", a.Key)
		found, ok = c.FindByOwnerIdentity(a.Key)
	case FindByCustom:
		what = fmt.Sprintf("find by custom %s", a.Key)
		found, ok = c.FindByCustom(a.Key)
	case FindByPosition:
		what = fmt.Sprintf("find by position %d", a.Position)
		found, ok = c.FindByPosition(a.Position)
	default:
		return fmt.Errorf("find: unknown lookup %q", a.By)
	}

	actual := "absent"
	if ok {
		actual = actx.nameOf(found)
	}
	expected := "absent"
	if !a.Absent {
		expected = a.Expect
	}
	if actual != expected {
		return &AssertionError{
			Type:     AssertFind,
			Expected: fmt.Sprintf("%s: %s", what, expected),
			Actual:   fmt.Sprintf("%s: %s", what, actual),
			Trace:    trace,
		}
	}
	return nil
}

// assertCalls checks how many times a method reached a view.
func assertCalls(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	v := actx.Views[a.View]
	if v == nil {
		return fmt.Errorf("calls: unknown view %q", a.View)
	}
	if n := v.CallCount(a.Method); n != a.Count {
		return &AssertionError{
			Type:     AssertCalls,
			Expected: fmt.Sprintf("%s.%s called %d times", a.View, a.Method, a.Count),
			Actual:   fmt.Sprintf("%s.%s called %d times (calls: %v)", a.View, a.Method, n, v.Calls),
			Trace:    trace,
		}
	}
	return nil
}

// assertJournal checks how many operations of a kind the journal recorded.
func assertJournal(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	n, err := actx.Store.CountOps(actx.Ctx, actx.RunID, a.Op)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertJournal,
			Expected: fmt.Sprintf("%d %s operations", a.Count, a.Op),
			Actual:   fmt.Sprintf("%d %s operations", n, a.Op),
			Trace:    trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the final run state.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOrder:
			err = assertOrder(result.Trace, assertion, actx)
		case AssertLength:
			err = assertLength(result.Trace, assertion, actx)
		case AssertFind:
			err = assertFind(result.Trace, assertion, actx)
		case AssertCalls:
			err = assertCalls(result.Trace, assertion, actx)
		case AssertJournal:
			if actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: journal requires a store", i)
			} else {
				err = assertJournal(result.Trace, assertion, actx)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
