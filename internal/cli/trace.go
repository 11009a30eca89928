package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/babysitter/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - show one run's operations
	Op       string // optional - filter operations by kind
}

// TraceResult holds a run and its journaled operations.
type TraceResult struct {
	Run   store.Run  `json:"run"`
	Ops   []store.Op `json:"ops"`
	Stats TraceStats `json:"stats"`
}

// TraceStats holds summary statistics for a run.
type TraceStats struct {
	TotalOps int            `json:"total_ops"`
	ByOp     map[string]int `json:"by_op"`
	Errors   int            `json:"errors"`
}

// RunList holds every journaled run.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect journaled runs",
		Long: `Inspect runs journaled by "sitter run --db".

Without --run, lists every run with its outcome. With --run, prints the
run's operations in order, with the position, resulting length and snapshot
hash of each.

Examples:
  sitter trace --db ./runs.db
  sitter trace --db ./runs.db --run nightly-1
  sitter trace --db ./runs.db --run nightly-1 --op remove --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to show")
	cmd.Flags().StringVar(&opts.Op, "op", "", "filter to one operation kind (seed|add|remove|call)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	// Opening a missing path would create an empty journal.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if formatter.IsJSON() {
			return formatter.Success(RunList{Runs: runs})
		}
		writeRunList(cmd.OutOrStdout(), runs)
		return nil
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	ops, err := st.ReadOps(ctx, opts.RunID)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read operations", err)
	}
	if opts.Op != "" {
		ops = slices.DeleteFunc(ops, func(op store.Op) bool { return op.Op != opts.Op })
	}

	result := TraceResult{Run: run, Ops: ops, Stats: buildStats(ops)}
	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	writeTraceText(cmd.OutOrStdout(), result, opts.Verbose)
	return nil
}

func buildStats(ops []store.Op) TraceStats {
	stats := TraceStats{TotalOps: len(ops), ByOp: map[string]int{}}
	for _, op := range ops {
		stats.ByOp[op.Op]++
		if op.Error != "" {
			stats.Errors++
		}
	}
	return stats
}

func writeRunList(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %-6s  %s\n", run.ID, runStatus(run), run.Scenario)
	}
}

func runStatus(run store.Run) string {
	switch {
	case !run.Finished:
		return "open"
	case run.Pass:
		return "pass"
	default:
		return "fail"
	}
}

func writeTraceText(w io.Writer, result TraceResult, verbose bool) {
	fmt.Fprintf(w, "Run: %s (%s)\n", result.Run.ID, result.Run.Scenario)
	fmt.Fprintf(w, "Status: %s\n", runStatus(result.Run))
	if result.Run.FinalHash != "" {
		fmt.Fprintf(w, "Final hash: %s\n", result.Run.FinalHash)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Operations:")
	for _, op := range result.Ops {
		fmt.Fprintf(w, "  %s\n", formatEvent(op.Seq, op.Op, op.View, op.Position, op.Length, op.Error))
		if verbose {
			fmt.Fprintf(w, "       hash: %s\n", op.Hash)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Stats:")
	fmt.Fprintf(w, "  Total:  %d\n", result.Stats.TotalOps)
	fmt.Fprintf(w, "  Errors: %d\n", result.Stats.Errors)
}
