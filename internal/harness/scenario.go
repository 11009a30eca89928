package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/babysitter/internal/container"
)

// expectableCodes are the container error codes a step may expect. INVARIANT
// is absent because it aborts the run.
var expectableCodes = []string{
	string(container.ErrCodeNotFound),
	string(container.ErrCodeInvokeFailed),
	string(container.ErrCodeBadArguments),
}

// Scenario defines a container scenario.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Views declares every view the scenario refers to.
	Views []ViewDecl `yaml:"views" json:"views"`

	// Seed lists views passed to the container constructor, in order.
	Seed []string `yaml:"seed,omitempty" json:"seed,omitempty"`

	// Steps are applied in order after seeding.
	Steps []Step `yaml:"steps" json:"steps"`

	// Assertions validate the final container, views and journal.
	Assertions []Assertion `yaml:"assertions" json:"assertions"`
}

// ViewDecl declares a view by name.
type ViewDecl struct {
	// Name is how steps and assertions refer to the view.
	Name string `yaml:"name" json:"name"`

	// CID fixes the view's identity. Generated when empty.
	CID string `yaml:"cid,omitempty" json:"cid,omitempty"`

	// Model binds the view to the model with this id.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`
}

// Step is one container operation. Exactly one of Add, Remove and Call is set.
type Step struct {
	Add    string `yaml:"add,omitempty" json:"add,omitempty"`
	Remove string `yaml:"remove,omitempty" json:"remove,omitempty"`
	Call   string `yaml:"call,omitempty" json:"call,omitempty"`

	// At is the insertion position for add.
	At *int `yaml:"at,omitempty" json:"at,omitempty"`

	// Key is the custom key for add.
	Key string `yaml:"key,omitempty" json:"key,omitempty"`

	// Args are passed to the method for call.
	Args []any `yaml:"args,omitempty" json:"args,omitempty"`

	// Strict makes remove of a missing view an error.
	Strict bool `yaml:"strict,omitempty" json:"strict,omitempty"`

	// ExpectError is the container error code this step must produce.
	ExpectError string `yaml:"expect_error,omitempty" json:"expect_error,omitempty"`
}

// Kind returns the step's operation name.
func (s Step) Kind() string {
	switch {
	case s.Add != "":
		return OpAdd
	case s.Remove != "":
		return OpRemove
	case s.Call != "":
		return OpCall
	}
	return ""
}

// Assertion validates the final state of a run.
type Assertion struct {
	// Type is one of order, length, find, calls, journal.
	Type string `yaml:"type" json:"type"`

	// Views is the expected order (order).
	Views []string `yaml:"views,omitempty" json:"views,omitempty"`

	// Count is the expected number (length, calls, journal).
	Count int `yaml:"count,omitempty" json:"count,omitempty"`

	// By selects the lookup (find): identity, owner, custom or position.
	By string `yaml:"by,omitempty" json:"by,omitempty"`

	// Key is the lookup key (find). For identity it names a view; for owner
	// it is a model id.
	Key string `yaml:"key,omitempty" json:"key,omitempty"`

	// Position is the lookup position (find by position).
	Position int `yaml:"position,omitempty" json:"position,omitempty"`

	// Expect names the view the lookup must return (find).
	Expect string `yaml:"expect,omitempty" json:"expect,omitempty"`

	// Absent requires the lookup to return nothing (find).
	Absent bool `yaml:"absent,omitempty" json:"absent,omitempty"`

	// View and Method select recorded calls (calls).
	View   string `yaml:"view,omitempty" json:"view,omitempty"`
	Method string `yaml:"method,omitempty" json:"method,omitempty"`

	// Op is the journaled operation kind (journal).
	Op string `yaml:"op,omitempty" json:"op,omitempty"`
}

// Assertion type constants.
const (
	AssertOrder   = "order"
	AssertLength  = "length"
	AssertFind    = "find"
	AssertCalls   = "calls"
	AssertJournal = "journal"
)

// Lookup kinds for find assertions.
const (
	FindByIdentity = "identity"
	FindByOwner    = "owner"
	FindByCustom   = "custom"
	FindByPosition = "position"
)

// LoadScenario reads and parses a scenario file. The format is chosen by
// extension: .cue for CUE, anything else for YAML.
//
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario *Scenario
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		scenario, err = parseCUE(path, data)
	} else {
		scenario, err = parseYAML(data)
	}
	if err != nil {
		return nil, err
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// parseYAML decodes a YAML scenario with strict field validation.
func parseYAML(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// decodeJSON decodes a scenario exported as JSON. Numbers are kept as
// json.Number so integer call arguments stay integers.
func decodeJSON(data []byte) (*Scenario, error) {
	var scenario Scenario
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(&scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// name refers to a declared view.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Views) == 0 {
		return fmt.Errorf("views list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	declared := make(map[string]bool, len(s.Views))
	cids := make(map[string]string)
	for i, v := range s.Views {
		if v.Name == "" {
			return fmt.Errorf("views[%d]: name is required", i)
		}
		if declared[v.Name] {
			return fmt.Errorf("views[%d]: duplicate view name %q", i, v.Name)
		}
		declared[v.Name] = true
		if v.CID != "" {
			if other, ok := cids[v.CID]; ok {
				return fmt.Errorf("views[%d]: cid %q already used by %q", i, v.CID, other)
			}
			cids[v.CID] = v.Name
		}
	}

	for i, name := range s.Seed {
		if !declared[name] {
			return fmt.Errorf("seed[%d]: unknown view %q", i, name)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step, declared); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, declared); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step, declared map[string]bool) error {
	set := 0
	for _, f := range []string{step.Add, step.Remove, step.Call} {
		if f != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of add, remove, call is required", index)
	}

	switch step.Kind() {
	case OpAdd:
		if !declared[step.Add] {
			return fmt.Errorf("steps[%d]: unknown view %q", index, step.Add)
		}
	case OpRemove:
		if !declared[step.Remove] {
			return fmt.Errorf("steps[%d]: unknown view %q", index, step.Remove)
		}
	}

	if step.Kind() != OpAdd && (step.At != nil || step.Key != "") {
		return fmt.Errorf("steps[%d]: at and key only apply to add", index)
	}
	if step.Kind() != OpCall && len(step.Args) > 0 {
		return fmt.Errorf("steps[%d]: args only apply to call", index)
	}
	if step.Strict && step.Kind() != OpRemove {
		return fmt.Errorf("steps[%d]: strict only applies to remove", index)
	}
	if step.ExpectError != "" && !slices.Contains(expectableCodes, step.ExpectError) {
		return fmt.Errorf("steps[%d]: expect_error must be one of %s, got %q",
			index, strings.Join(expectableCodes, ", "), step.ExpectError)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, declared map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOrder:
		for _, name := range a.Views {
			if !declared[name] {
				return fmt.Errorf("assertions[%d]: unknown view %q", index, name)
			}
		}
	case AssertLength:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for length", index)
		}
	case AssertFind:
		switch a.By {
		case FindByIdentity:
			if !declared[a.Key] {
				return fmt.Errorf("assertions[%d]: unknown view %q", index, a.Key)
			}
		case FindByOwner, FindByCustom:
			if a.Key == "" {
				return fmt.Errorf("assertions[%d]: key is required for find by %s", index, a.By)
			}
		case FindByPosition:
		default:
			return fmt.Errorf("assertions[%d]: by must be one of identity, owner, custom, position", index)
		}
		if a.Absent == (a.Expect != "") {
			return fmt.Errorf("assertions[%d]: exactly one of expect and absent is required for find", index)
		}
		if a.Expect != "" && !declared[a.Expect] {
			return fmt.Errorf("assertions[%d]: unknown view %q", index, a.Expect)
		}
	case AssertCalls:
		if !declared[a.View] {
			return fmt.Errorf("assertions[%d]: unknown view %q", index, a.View)
		}
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for calls", index)
		}
	case AssertJournal:
		switch a.Op {
		case OpSeed, OpAdd, OpRemove, OpCall:
		default:
			return fmt.Errorf("assertions[%d]: op must be one of seed, add, remove, call", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
