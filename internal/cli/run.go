package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/babysitter/internal/harness"
	"github.com/roach88/babysitter/internal/store"
	"github.com/roach88/babysitter/internal/view"
)

// ID generator names accepted by --ids.
const (
	IDsSequence = "sequence"
	IDsUUID     = "uuid"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string // journal path; in-memory when empty
	RunID    string // run id; generated when empty
	IDs      string // "sequence" | "uuid"
	Prefix   string // cid prefix for the sequence generator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Execute a scenario",
		Long: `Execute a scenario file (.yaml, .yml or .cue) against a fresh container.

Every step is journaled. Without --db the journal lives in memory and is
discarded; with --db it is written to a SQLite file for later inspection
with trace.

Exit codes:
  0 - Scenario passed
  1 - A step or assertion failed
  2 - Command error (missing file, database error, etc.)

Examples:
  sitter run ./scenarios/basic.yaml
  sitter run ./scenarios/basic.yaml --db ./runs.db --run-id nightly-1
  sitter run ./scenarios/basic.cue --ids uuid --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default: in-memory)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "run id to journal under (default: UUIDv7)")
	cmd.Flags().StringVar(&opts.IDs, "ids", IDsSequence, "cid generator for views without a cid (sequence|uuid)")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "view", "cid prefix for the sequence generator")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	slog.SetDefault(logger)

	ids, err := idGenerator(opts.IDs, opts.Prefix)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidID, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --ids", err)
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeLoad, err.Error(), map[string]string{"path": path})
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	logger.Debug("scenario loaded", "path", path, "name", scenario.Name, "steps", len(scenario.Steps))

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = ":memory:"
	}
	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), map[string]string{"db": dbPath})
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	result, err := harness.RunWith(cmd.Context(), scenario, harness.Config{
		Store:  st,
		IDs:    ids,
		Logger: logger,
		RunID:  opts.RunID,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeRun, err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario execution aborted", err)
	}

	if formatter.IsJSON() {
		if result.Pass {
			return formatter.Success(result)
		}
		if err := formatter.Failure(result, ErrCodeFailed, fmt.Sprintf("scenario %s failed", scenario.Name)); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}

	writeRunText(cmd.OutOrStdout(), scenario.Name, result, opts.Verbose)
	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

// idGenerator resolves the --ids flag.
func idGenerator(name, prefix string) (view.IDGenerator, error) {
	switch name {
	case IDsSequence:
		return view.NewSequenceGenerator(prefix), nil
	case IDsUUID:
		return view.UUIDv7Generator{}, nil
	}
	return nil, fmt.Errorf("unknown id generator %q: must be %s or %s", name, IDsSequence, IDsUUID)
}

func writeRunText(w io.Writer, name string, result *harness.Result, verbose bool) {
	mark := "✓"
	if !result.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s\n", mark, name)
	fmt.Fprintf(w, "  Run:   %s\n", result.RunID)
	fmt.Fprintf(w, "  Order: [%s]\n", strings.Join(result.Order, ", "))
	fmt.Fprintf(w, "  Hash:  %s\n", result.Hash)

	if verbose {
		fmt.Fprintln(w, "  Trace:")
		for _, ev := range result.Trace {
			fmt.Fprintf(w, "    %s\n", formatEvent(ev.Seq, ev.Op, subjectOf(ev), ev.Position, ev.Length, ev.Error))
		}
	}

	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

func subjectOf(ev harness.TraceEvent) string {
	if ev.Op == harness.OpCall {
		return ev.Method
	}
	return ev.View
}

// formatEvent renders one journaled operation on a single line.
func formatEvent(seq int64, op, subject string, position, length int, errCode string) string {
	line := fmt.Sprintf("[%d] %-6s %s", seq, op, subject)
	if position >= 0 {
		line += fmt.Sprintf(" @%d", position)
	}
	line += fmt.Sprintf(" len=%d", length)
	if errCode != "" {
		line += " error=" + errCode
	}
	return line
}
