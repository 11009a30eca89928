package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/babysitter/internal/canonical"
)

// TraceSnapshot captures the deterministic part of a scenario execution.
// The run ID is left out: it changes between runs.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	Order        []string     `json:"order"`
	Hash         string       `json:"hash"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization, adding a hash over the trace itself.
func (s *TraceSnapshot) toCanonicalMap() (map[string]any, error) {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		eventMap := map[string]any{
			"seq":      ev.Seq,
			"op":       ev.Op,
			"position": ev.Position,
			"length":   ev.Length,
			"hash":     ev.Hash,
		}
		if ev.View != "" {
			eventMap["view"] = ev.View
		}
		if ev.Method != "" {
			eventMap["method"] = ev.Method
		}
		if ev.Error != "" {
			eventMap["error"] = ev.Error
		}
		traceList[i] = eventMap
	}

	order := s.Order
	if order == nil {
		order = []string{}
	}

	traceHash, err := canonical.Hash(canonical.DomainTrace, traceList)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"trace_hash":    traceHash,
		"order":         order,
		"hash":          s.Hash,
	}, nil
}

// MarshalTrace returns the canonical JSON form of a result's trace, as
// stored in golden files.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Order:        result.Order,
		Hash:         result.Hash,
	}
	m, err := snapshot.toCanonicalMap()
	if err != nil {
		return nil, err
	}
	return canonical.Marshal(m)
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
