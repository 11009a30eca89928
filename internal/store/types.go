package store

// Run is one scenario execution.
type Run struct {
	ID        string `json:"id"`
	Scenario  string `json:"scenario"`
	Pass      bool   `json:"pass"`
	Finished  bool   `json:"finished"`
	FinalHash string `json:"final_hash,omitempty"`
}

// Op is one journaled container operation.
// View holds the view name, or the method name for call operations.
// Position is -1 for operations that do not target a position.
type Op struct {
	RunID    string `json:"run_id"`
	Seq      int64  `json:"seq"`
	Op       string `json:"op"`
	View     string `json:"view,omitempty"`
	Position int    `json:"position"`
	Length   int    `json:"length"`
	Hash     string `json:"hash"`
	Error    string `json:"error,omitempty"`
}
