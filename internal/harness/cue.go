package harness

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var scenarioSchema string

// parseCUE evaluates a CUE scenario against the #Scenario definition and
// decodes the concrete result.
//
// The file's top-level fields form the scenario. Definitions in the file are
// allowed, so scenarios can share view lists through CUE references.
func parseCUE(path string, data []byte) (*Scenario, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(scenarioSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse CUE: %w", err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("scenario does not match schema: %w", err)
	}

	// Round-trip through JSON: the Scenario struct tags are shared with the
	// YAML decoder and json.Number keeps integers exact.
	data, err := unified.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export CUE: %w", err)
	}
	scenario, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode CUE export: %w", err)
	}
	return scenario, nil
}
