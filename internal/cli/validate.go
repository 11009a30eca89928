package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/babysitter/internal/harness"
)

// ScenarioValidation is the validation outcome for one file.
type ScenarioValidation struct {
	Path  string `json:"path"`
	Name  string `json:"name,omitempty"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                 `json:"valid"`
	Scenarios []ScenarioValidation `json:"scenarios"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>...",
		Short: "Validate scenario files without running them",
		Long: `Parse and validate scenario files.

YAML files are decoded strictly (unknown fields are errors) and CUE files are
unified with the scenario schema. Every step and assertion must refer to a
declared view.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result := ValidationResult{Valid: true, Scenarios: make([]ScenarioValidation, 0, len(paths))}
	for _, path := range paths {
		v := ScenarioValidation{Path: path, Valid: true}
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			v.Valid = false
			v.Error = err.Error()
			result.Valid = false
		} else {
			v.Name = scenario.Name
			formatter.VerboseLog("%s: %d views, %d steps, %d assertions",
				path, len(scenario.Views), len(scenario.Steps), len(scenario.Assertions))
		}
		result.Scenarios = append(result.Scenarios, v)
	}

	invalid := 0
	for _, v := range result.Scenarios {
		if !v.Valid {
			invalid++
		}
	}

	if formatter.IsJSON() {
		if result.Valid {
			return formatter.Success(result)
		}
		if err := formatter.Failure(result, ErrCodeLoad, fmt.Sprintf("%d scenario(s) invalid", invalid)); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) invalid", invalid))
	}

	w := cmd.OutOrStdout()
	for _, v := range result.Scenarios {
		if v.Valid {
			fmt.Fprintf(w, "✓ %s (%s)\n", v.Path, v.Name)
		} else {
			fmt.Fprintf(w, "✗ %s\n  %s\n", v.Path, v.Error)
		}
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) invalid", invalid))
	}
	fmt.Fprintln(w, "All scenarios valid")
	return nil
}
