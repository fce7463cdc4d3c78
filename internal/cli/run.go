package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/iocplan/internal/engine"
	"github.com/roach88/iocplan/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ProcessOptions
	Database string
}

// RunResult is the output of the run command.
type RunResult struct {
	RunID       string                   `json:"run_id"`
	Fingerprint string                   `json:"fingerprint"`
	Units       int                      `json:"units"`
	Batches     int                      `json:"batches"`
	Skipped     int                      `json:"skipped"`
	Suppressed  int                      `json:"suppressed"`
	Stored      bool                     `json:"stored"`
	Executions  []engine.ExecutionRecord `json:"executions"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <catalog-dir>",
		Short: "Plan and execute a catalog, recording the run",
		Long: `Plan the catalog, execute every action in plan order and record the run.

The run, its plan and its executions are stored in a SQLite database
(created if it doesn't exist). A handler failure stops execution; the
executions that completed are still recorded with the run marked failed.

Example:
  iocplan run --db ./iocplan.db ./catalog
  iocplan run --db /tmp/runs.db ./catalog --test-mode --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	addProcessFlags(cmd, &opts.ProcessOptions)

	return cmd
}

func runProcess(opts *RunOptions, catalogDir string, cmd *cobra.Command) error {
	configureLogging(cmd, opts.Verbose)
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := loadCatalog(formatter, catalogDir)
	if err != nil {
		return err
	}
	if err := checkCatalog(formatter, loaded.Catalog); err != nil {
		return err
	}

	slog.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, fmt.Sprintf("failed to open database: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	pctx := opts.processingContext(loaded.Catalog)
	p, err := opts.newProcessor(loaded.Catalog, pctx)
	if err != nil {
		return outputProcessError(formatter, err, "")
	}

	res, runErr := p.Process()
	if res == nil {
		// Planning failed; there is no run to record.
		return outputProcessError(formatter, runErr, "")
	}

	inserted, err := st.WriteRun(commandContext(cmd), store.NewRun(res, loaded.Hash, pctx, runErr), res.Records)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, fmt.Sprintf("failed to store run: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to store run", err)
	}
	if !inserted {
		slog.Warn("run already stored", "run_id", res.RunID)
	}

	if runErr != nil {
		return outputProcessError(formatter, runErr, res.RunID)
	}

	result := RunResult{
		RunID:       res.RunID,
		Fingerprint: res.Fingerprint,
		Units:       len(res.Plan.Units),
		Batches:     res.Plan.Discovery.Batches,
		Skipped:     res.Plan.Discovery.Skipped,
		Suppressed:  res.Suppressed,
		Stored:      inserted,
		Executions:  res.Records,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Run %s completed\n", result.RunID)
	fmt.Fprintf(w, "  Units: %d, executions: %d, suppressed: %d, skipped: %d\n",
		result.Units, len(result.Executions), result.Suppressed, result.Skipped)
	fmt.Fprintf(w, "  Fingerprint: %s\n", result.Fingerprint)
	if opts.Verbose {
		for _, rec := range result.Executions {
			fmt.Fprintf(w, "  [%d] %s\n", rec.Seq, formatExecution(rec))
		}
	}
	return nil
}
