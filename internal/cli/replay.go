package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/iocplan/internal/compiler"
	"github.com/roach88/iocplan/internal/engine"
	"github.com/roach88/iocplan/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	store.ReplayReport
	// CatalogChanged is set when the catalog hash differs from the one the
	// run was recorded with. A changed catalog can still plan identically.
	CatalogChanged bool   `json:"catalog_changed"`
	Error          string `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs       []ReplayRunResult `json:"runs"`
	TotalRuns  int               `json:"total_runs"`
	Mismatches int               `json:"mismatches"`
	AllMatch   bool              `json:"all_match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <catalog-dir>",
		Short: "Re-plan recorded runs and verify the plans are unchanged",
		Long: `Re-plan every recorded run against a catalog and compare the result
with the stored plan.

Each run is planned again with the packages and test mode it was recorded
with. Nothing is executed. A run matches when the recomputed plan
fingerprint equals the stored one.

Exit codes:
  0 - Every replayed plan matches
  1 - At least one plan differs (or can no longer be planned)
  2 - Command error (database not found, invalid catalog path, etc.)

Examples:
  iocplan replay --db ./iocplan.db ./catalog
  iocplan replay --db ./iocplan.db --run 0190f3c4-... ./catalog
  iocplan replay --db ./iocplan.db ./catalog --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, catalogDir string, cmd *cobra.Command) error {
	ctx := context.Background()
	configureLogging(cmd, opts.Verbose)
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := loadCatalog(formatter, catalogDir)
	if err != nil {
		return err
	}
	if err := checkCatalog(formatter, loaded.Catalog); err != nil {
		return err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := runsToReplay(ctx, st, opts.RunID)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, ReplayResult{
				Runs:     []ReplayRunResult{},
				AllMatch: true,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in database.")
		return nil
	}

	result := ReplayResult{
		Runs:      make([]ReplayRunResult, 0, len(runs)),
		TotalRuns: len(runs),
		AllMatch:  true,
	}
	for _, run := range runs {
		runResult, err := replayRun(ctx, st, loaded, run)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		formatter.VerboseLog("Replayed run %s: match=%t", run.ID, runResult.Match)

		result.Runs = append(result.Runs, runResult)
		if !runResult.Match {
			result.Mismatches++
			result.AllMatch = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

func runsToReplay(ctx context.Context, st *store.Store, runID string) ([]store.Run, error) {
	if runID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return runs, nil
	}

	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read run", err)
	}
	return []store.Run{run}, nil
}

// replayRun plans the catalog with the run's recorded options and compares
// the plan with the stored one. A planning failure is reported as a
// mismatch, not an error.
func replayRun(ctx context.Context, st *store.Store, loaded *compiler.LoadResult, run store.Run) (ReplayRunResult, error) {
	result := ReplayRunResult{
		ReplayReport: store.ReplayReport{
			RunID:             run.ID,
			StoredFingerprint: run.Fingerprint,
			FirstDivergence:   -1,
		},
		CatalogChanged: run.CatalogHash != loaded.Hash,
	}

	opts := &ProcessOptions{Packages: run.Packages, TestMode: run.TestMode}
	pctx := engine.ProcessingContext{Packages: run.Packages, TestMode: run.TestMode}
	p, err := opts.newProcessor(loaded.Catalog, pctx)
	if err != nil {
		result.Error = err.Error()
		return result, nil
	}
	plan, err := p.Plan()
	if err != nil {
		result.Error = fmt.Sprintf("%s: %v", engine.ErrorCode(err), err)
		return result, nil
	}

	report, err := st.Replay(ctx, run.ID, plan.Describe())
	if err != nil {
		return ReplayRunResult{}, err
	}
	result.ReplayReport = report
	return result, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if !result.AllMatch {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeReplayMismatch,
			Message: fmt.Sprintf("%d run(s) replayed to a different plan", result.Mismatches),
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}

	if !result.AllMatch {
		return NewExitError(ExitFailure, "replay verification failed: plans differ")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	for _, run := range result.Runs {
		if run.Match {
			fmt.Fprintf(w, "✓ %s\n", run.RunID)
		} else {
			fmt.Fprintf(w, "✗ %s\n", run.RunID)
			switch {
			case run.Error != "":
				fmt.Fprintf(w, "  Planning failed: %s\n", run.Error)
			case run.FirstDivergence >= 0:
				fmt.Fprintf(w, "  Unit order differs at position %d: stored %s, now %s\n",
					run.FirstDivergence,
					unitAt(run.StoredUnits, run.FirstDivergence),
					unitAt(run.Units, run.FirstDivergence))
			default:
				fmt.Fprintln(w, "  Unit order is unchanged; actions or dependencies differ")
			}
		}
		if verbose {
			fmt.Fprintf(w, "  Stored fingerprint: %s\n", run.StoredFingerprint)
			fmt.Fprintf(w, "  Replay fingerprint: %s\n", run.Fingerprint)
		}
		if run.CatalogChanged {
			fmt.Fprintln(w, "  Catalog changed since this run was recorded")
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Replayed %d run(s): %d match, %d differ\n",
		result.TotalRuns, result.TotalRuns-result.Mismatches, result.Mismatches)

	if !result.AllMatch {
		return NewExitError(ExitFailure, "replay verification failed: plans differ")
	}
	return nil
}

func unitAt(units []string, i int) string {
	if i < len(units) {
		return units[i]
	}
	return "(none)"
}
