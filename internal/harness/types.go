package harness

// Step kinds recorded in the trace.
const (
	OpSeed   = "seed"
	OpAdd    = "add"
	OpRemove = "remove"
	OpCall   = "call"
)

// TraceEvent records one container operation and the state after it.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Op       string `json:"op"`
	View     string `json:"view,omitempty"`
	Method   string `json:"method,omitempty"`
	Position int    `json:"position"` // -1 when the op has no position
	Length   int    `json:"length"`
	Hash     string `json:"hash"`
	Error    string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step behaved as declared and every assertion held.
	Pass bool `json:"pass"`

	// RunID identifies the run in the journal.
	RunID string `json:"run_id"`

	// Trace contains one event per seeded view and per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Order lists the final container contents by view name.
	Order []string `json:"order"`

	// Hash is the snapshot hash of the final container.
	Hash string `json:"hash"`

	// Errors contains step and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runID string) *Result {
	return &Result{
		Pass:   true,
		RunID:  runID,
		Trace:  []TraceEvent{},
		Order:  []string{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
