package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/roach88/babysitter/internal/canonical"
	"github.com/roach88/babysitter/internal/container"
	"github.com/roach88/babysitter/internal/store"
	"github.com/roach88/babysitter/internal/view"
)

// Config controls where a run is journaled and how views are named.
// Zero values select deterministic, in-memory defaults.
type Config struct {
	// Store receives the run journal. A fresh in-memory store is used when nil.
	Store *store.Store

	// IDs mints cids for views that do not declare one.
	// Defaults to a SequenceGenerator with prefix "view".
	IDs view.IDGenerator

	// Logger receives step logs. Discarded when nil.
	Logger *slog.Logger

	// RunID names the run in the journal. A UUIDv7 when empty.
	RunID string
}

// Harness executes one scenario against a view container.
type Harness struct {
	store  *store.Store
	clock  *Clock
	ids    view.IDGenerator
	logger *slog.Logger
	runID  string

	views     map[string]*view.View
	names     map[string]string // cid -> view name
	container *view.Container
}

// Run executes a scenario with default configuration and returns the result.
//
// Each scenario runs in a fresh in-memory journal for isolation.
func Run(scenario *Scenario) (*Result, error) {
	return RunWith(context.Background(), scenario, Config{})
}

// RunWith executes a scenario with the given configuration.
//
// Execution flow:
//  1. Declare views and models, minting missing cids
//  2. Seed the container and journal one seed event per view
//  3. Apply steps in order, checking container invariants after each
//  4. Evaluate assertions and record the outcome in the journal
//
// Step failures and assertion failures are reported in the Result. An error
// is returned only when the run itself cannot proceed: the journal fails or
// the container's indices disagree with its sequence.
func RunWith(ctx context.Context, scenario *Scenario, cfg Config) (*Result, error) {
	st := cfg.Store
	if st == nil {
		var err error
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}
	ids := cfg.IDs
	if ids == nil {
		ids = view.NewSequenceGenerator("view")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.Must(uuid.NewV7()).String()
	}

	h := &Harness{
		store:  st,
		clock:  NewClock(),
		ids:    ids,
		logger: logger.With("run_id", runID, "scenario", scenario.Name),
		runID:  runID,
	}
	h.declareViews(scenario.Views)

	if err := st.WriteRun(ctx, store.Run{ID: runID, Scenario: scenario.Name}); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	result := NewResult(runID)
	if err := h.seed(ctx, scenario.Seed, result); err != nil {
		return nil, fmt.Errorf("failed to seed container: %w", err)
	}

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	actx := &AssertionContext{
		Ctx:       ctx,
		Container: h.container,
		Views:     h.views,
		Store:     st,
		RunID:     runID,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	result.Order = h.order()
	hash, err := h.snapshot()
	if err != nil {
		return nil, err
	}
	result.Hash = hash

	if err := st.FinishRun(ctx, runID, result.Pass, hash); err != nil {
		return nil, err
	}

	h.logger.Info("scenario finished",
		"pass", result.Pass,
		"steps", len(scenario.Steps),
		"errors", len(result.Errors),
	)
	return result, nil
}

// declareViews builds every declared view. Views naming the same model share
// one *view.Model. Generated cids skip any cid a view declares.
func (h *Harness) declareViews(decls []ViewDecl) {
	models := make(map[string]*view.Model)
	h.views = make(map[string]*view.View, len(decls))
	h.names = make(map[string]string, len(decls))

	taken := make(map[string]bool, len(decls))
	for _, d := range decls {
		if d.CID != "" {
			taken[d.CID] = true
		}
	}

	for _, d := range decls {
		cid := d.CID
		if cid == "" {
			cid = h.ids.Generate()
			for taken[cid] {
				cid = h.ids.Generate()
			}
			taken[cid] = true
		}
		var model *view.Model
		if d.Model != "" {
			model = models[d.Model]
			if model == nil {
				model = &view.Model{ID: d.Model}
				models[d.Model] = model
			}
		}
		h.views[d.Name] = view.New(cid, model)
		h.names[cid] = d.Name
	}
}

// seed constructs the container from the seed list. The trace records one
// event per seeded view, as if each had been appended in turn.
func (h *Harness) seed(ctx context.Context, names []string, result *Result) error {
	seeded := make([]*view.View, len(names))
	for i, name := range names {
		seeded[i] = h.views[name]
	}
	h.container = view.NewContainer(seeded...)

	for i, name := range names {
		cids := make([]string, i+1)
		for j := range cids {
			cids[j] = seeded[j].CID
		}
		hash, err := canonical.SnapshotHash(cids)
		if err != nil {
			return err
		}
		ev := TraceEvent{
			Seq:      h.clock.Next(),
			Op:       OpSeed,
			View:     name,
			Position: i,
			Length:   i + 1,
			Hash:     hash,
		}
		if err := h.record(ctx, ev, result); err != nil {
			return err
		}
	}
	return h.container.Check()
}

// executeStep applies one step and journals its trace event.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	ev := TraceEvent{Op: step.Kind(), Position: -1}
	var stepErr error

	switch step.Kind() {
	case OpAdd:
		v := h.views[step.Add]
		h.container.Add(v, container.AddOptions{At: step.At, CustomKey: step.Key})
		ev.View = step.Add
		if pos, ok := h.container.PositionOf(v.CID); ok {
			ev.Position = pos
		}

	case OpRemove:
		v := h.views[step.Remove]
		ev.View = step.Remove
		if pos, ok := h.container.PositionOf(v.CID); ok {
			ev.Position = pos
		}
		if step.Strict {
			stepErr = h.container.TryRemove(v)
		} else {
			h.container.Remove(v)
		}

	case OpCall:
		ev.Method = step.Call
		args, err := normalizeArgs(step.Args)
		if err != nil {
			return err
		}
		stepErr = h.container.Call(step.Call, args...)
	}

	if err := h.container.Check(); err != nil {
		return err
	}

	code := errorCode(stepErr)
	ev.Error = code
	switch {
	case step.ExpectError != "" && stepErr == nil:
		result.AddError(fmt.Sprintf("step %d (%s): expected error %s, got none", index, ev.Op, step.ExpectError))
	case step.ExpectError != "" && code != step.ExpectError:
		result.AddError(fmt.Sprintf("step %d (%s): expected error %s, got %v", index, ev.Op, step.ExpectError, stepErr))
	case step.ExpectError == "" && stepErr != nil:
		result.AddError(fmt.Sprintf("step %d (%s): %v", index, ev.Op, stepErr))
	}

	hash, err := h.snapshot()
	if err != nil {
		return err
	}
	ev.Seq = h.clock.Next()
	ev.Length = h.container.Len()
	ev.Hash = hash
	if err := h.record(ctx, ev, result); err != nil {
		return err
	}

	h.logger.Debug("step completed",
		"step", index,
		"op", ev.Op,
		"view", ev.View,
		"method", ev.Method,
		"position", ev.Position,
		"length", ev.Length,
		"error", ev.Error,
	)
	return nil
}

// record appends ev to the trace and the journal.
func (h *Harness) record(ctx context.Context, ev TraceEvent, result *Result) error {
	result.AddTrace(ev)

	subject := ev.View
	if ev.Op == OpCall {
		subject = ev.Method
	}
	return h.store.WriteOp(ctx, store.Op{
		RunID:    h.runID,
		Seq:      ev.Seq,
		Op:       ev.Op,
		View:     subject,
		Position: ev.Position,
		Length:   ev.Length,
		Hash:     ev.Hash,
		Error:    ev.Error,
	})
}

// snapshot hashes the container's cids in order.
func (h *Harness) snapshot() (string, error) {
	cids := container.Map(h.container, func(v *view.View, _ int) string { return v.CID })
	return canonical.SnapshotHash(cids)
}

// order returns the container contents by view name.
func (h *Harness) order() []string {
	return container.Map(h.container, func(v *view.View, _ int) string { return h.names[v.CID] })
}

// errorCode returns the container error code of err, or "" when err is nil.
// Errors that are not container errors report as INVOKE_FAILED.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var ce *container.Error
	if errors.As(err, &ce) {
		return string(ce.Code)
	}
	return string(container.ErrCodeInvokeFailed)
}

// normalizeArgs converts decoded scenario values to Go method arguments.
// YAML yields int for integers; CUE exports go through json.Number. Integral
// floats become int. Fractional numbers are rejected.
func normalizeArgs(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		v, err := normalizeArg(a)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func normalizeArg(a any) (any, error) {
	switch v := a.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return normalizeArg(f)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("fractional numbers are not supported: %v", v)
		}
		return int(v), nil
	case nil, string, bool, int, int64:
		return v, nil
	}
	return nil, fmt.Errorf("unsupported argument type %T", a)
}
