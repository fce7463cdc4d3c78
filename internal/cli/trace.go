package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/iocplan/internal/engine"
	"github.com/roach88/iocplan/internal/ir"
	"github.com/roach88/iocplan/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - defaults to the latest run
	Unit     string // optional - filter to one unit key
}

// TraceRun is the summary of a stored run.
type TraceRun struct {
	ID            string   `json:"id"`
	Seq           int64    `json:"seq"`
	Status        string   `json:"status"`
	Error         string   `json:"error,omitempty"`
	CatalogHash   string   `json:"catalog_hash"`
	Fingerprint   string   `json:"fingerprint"`
	Packages      []string `json:"packages"`
	TestMode      bool     `json:"test_mode"`
	Batches       int      `json:"batches"`
	Skipped       int      `json:"skipped"`
	Suppressed    int      `json:"suppressed"`
	EngineVersion string   `json:"engine_version"`
}

// TraceUnit is one planned unit with its executions.
type TraceUnit struct {
	Position   int                      `json:"position"`
	Key        string                   `json:"key"`
	DependsOn  []string                 `json:"depends_on"`
	Actions    ir.List                  `json:"actions"`
	Executions []engine.ExecutionRecord `json:"executions"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Units      int  `json:"units"`
	Actions    int  `json:"actions"`
	Executions int  `json:"executions"`
	Handled    int  `json:"handled"`
	IsComplete bool `json:"is_complete"` // every planned action executed
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run   TraceRun    `json:"run"`
	Units []TraceUnit `json:"units"`
	Stats TraceStats  `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show a recorded run",
		Long: `Show a recorded run: its plan units in order, and the executions
recorded for each unit.

The output includes:
- Run: Status, options and fingerprint of the run
- Units: Planned units with their dependencies, actions and executions
- Stats: Summary statistics for the run

Examples:
  iocplan trace --db ./iocplan.db
  iocplan trace --db ./iocplan.db --run 0190f3c4-...
  iocplan trace --db ./iocplan.db --unit org.acme.Repo --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace (default: latest run)")
	cmd.Flags().StringVar(&opts.Unit, "unit", "", "filter to a specific unit key")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	run, err := findRun(ctx, st, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		if opts.RunID == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}
		_ = formatter.Error(ErrCodeStoreFailed, fmt.Sprintf("run not found: %s", opts.RunID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	result, err := buildTrace(ctx, st, run, opts.Unit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build trace", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", RunID: run.ID, Data: result})
	}
	outputTraceText(cmd, result)
	return nil
}

// findRun reads the run with the given ID, or the latest run when id is
// empty. Returns sql.ErrNoRows when there is no such run.
func findRun(ctx context.Context, st *store.Store, id string) (store.Run, error) {
	if id == "" {
		return st.LatestRun(ctx)
	}
	return st.ReadRun(ctx, id)
}

// buildTrace joins a run's plan units with its executions. When unit is
// set, only that unit is kept.
func buildTrace(ctx context.Context, st *store.Store, run store.Run, unit string) (TraceResult, error) {
	units, err := st.ReadPlanUnits(ctx, run.ID)
	if err != nil {
		return TraceResult{}, err
	}
	records, err := st.ReadExecutions(ctx, run.ID)
	if err != nil {
		return TraceResult{}, err
	}

	byUnit := make(map[string][]engine.ExecutionRecord)
	for _, rec := range records {
		byUnit[rec.Unit] = append(byUnit[rec.Unit], rec)
	}

	result := TraceResult{
		Run:   traceRun(run),
		Units: []TraceUnit{},
	}
	for _, u := range units {
		result.Stats.Actions += len(u.Actions)
		result.Stats.Executions += len(byUnit[u.Key])
		for _, rec := range byUnit[u.Key] {
			if rec.Handled {
				result.Stats.Handled++
			}
		}

		if unit != "" && u.Key != unit {
			continue
		}
		execs := byUnit[u.Key]
		if execs == nil {
			execs = []engine.ExecutionRecord{}
		}
		deps := u.DependsOn
		if deps == nil {
			deps = []string{}
		}
		result.Units = append(result.Units, TraceUnit{
			Position:   u.Position,
			Key:        u.Key,
			DependsOn:  deps,
			Actions:    u.Actions,
			Executions: execs,
		})
	}
	result.Stats.Units = len(units)
	result.Stats.IsComplete = result.Stats.Executions == result.Stats.Actions
	return result, nil
}

func traceRun(run store.Run) TraceRun {
	packages := run.Packages
	if packages == nil {
		packages = []string{}
	}
	return TraceRun{
		ID:            run.ID,
		Seq:           run.Seq,
		Status:        string(run.Status),
		Error:         run.Error,
		CatalogHash:   run.CatalogHash,
		Fingerprint:   run.Fingerprint,
		Packages:      packages,
		TestMode:      run.TestMode,
		Batches:       run.Batches,
		Skipped:       run.Skipped,
		Suppressed:    run.Suppressed,
		EngineVersion: run.EngineVersion,
	}
}

// formatExecution renders a record as "element @Annotation (kind, binding)".
func formatExecution(rec engine.ExecutionRecord) string {
	s := fmt.Sprintf("%s @%s (%s, %s)", rec.Element, rec.Annotation, rec.Kind, rec.Binding)
	if !rec.Handled {
		s += " not handled"
	}
	return s
}

func outputTraceText(cmd *cobra.Command, result TraceResult) {
	w := cmd.OutOrStdout()
	run := result.Run

	fmt.Fprintf(w, "Run: %s (#%d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "Status: %s\n", run.Status)
	if run.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", run.Error)
	}
	fmt.Fprintf(w, "Packages: %s, test mode: %t\n", strings.Join(run.Packages, ", "), run.TestMode)
	fmt.Fprintf(w, "Fingerprint: %s\n", run.Fingerprint)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Units:")
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, u := range result.Units {
		fmt.Fprintf(w, "%d. %s", u.Position+1, u.Key)
		if len(u.DependsOn) > 0 {
			fmt.Fprintf(w, " (after %s)", strings.Join(u.DependsOn, ", "))
		}
		fmt.Fprintln(w)
		for _, rec := range u.Executions {
			marker := "✓"
			if !rec.Handled {
				marker = "·"
			}
			fmt.Fprintf(w, "   %s [%d] %s\n", marker, rec.Seq, formatExecution(rec))
		}
		if pending := len(u.Actions) - len(u.Executions); pending > 0 {
			fmt.Fprintf(w, "   ✗ %d action(s) not executed\n", pending)
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", 60))

	s := result.Stats
	fmt.Fprintf(w, "Stats: %d unit(s), %d action(s), %d execution(s), %d handled\n",
		s.Units, s.Actions, s.Executions, s.Handled)
	if !s.IsComplete {
		fmt.Fprintln(w, "Run is incomplete: some planned actions did not execute.")
	}
}
