package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/iocplan/internal/compiler"
	"github.com/roach88/iocplan/internal/engine"
	"github.com/roach88/iocplan/internal/handlers"
	"github.com/roach88/iocplan/internal/ir"
	"github.com/roach88/iocplan/internal/scan"
)

// ProcessOptions holds the flags shared by commands that process a catalog.
type ProcessOptions struct {
	Packages   []string // packages to scan; empty means the catalog's own
	TestMode   bool     // include test-only elements
	MaxBatches int      // discovery batch quota; 0 keeps the engine default

	// RunIDs overrides the run ID generator (for testing).
	// If nil, the engine's UUIDv7 generator is used.
	RunIDs engine.RunIDGenerator
}

func addProcessFlags(cmd *cobra.Command, opts *ProcessOptions) {
	cmd.Flags().StringSliceVar(&opts.Packages, "packages", nil, "packages to scan (default: the catalog's packages)")
	cmd.Flags().BoolVar(&opts.TestMode, "test-mode", false, "include test-only elements")
	cmd.Flags().IntVar(&opts.MaxBatches, "max-batches", 0, "discovery batch limit (0 uses the default)")
}

// processingContext resolves the packages to scan for c.
func (o *ProcessOptions) processingContext(c *ir.Catalog) engine.ProcessingContext {
	pctx := engine.ProcessingContext{
		Packages: o.Packages,
		TestMode: o.TestMode,
	}
	if len(pctx.Packages) == 0 {
		pctx.Packages = c.Packages
	}
	return pctx
}

// newProcessor builds a processor over c with every catalog binding
// registered.
func (o *ProcessOptions) newProcessor(c *ir.Catalog, pctx engine.ProcessingContext) (*engine.Processor, error) {
	var opts []engine.Option
	if o.MaxBatches > 0 {
		opts = append(opts, engine.WithMaxBatches(o.MaxBatches))
	}
	if o.RunIDs != nil {
		opts = append(opts, engine.WithRunIDGenerator(o.RunIDs))
	}

	p := engine.New(scan.New(c), pctx, opts...)
	if err := handlers.Bind(p, c, handlers.NewMetadata()); err != nil {
		return nil, err
	}
	return p, nil
}

// configureLogging routes the default slog logger to the command's stderr.
func configureLogging(cmd *cobra.Command, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// loadCatalog compiles dir, reporting load failures as command errors
// (exit code 2).
func loadCatalog(formatter *OutputFormatter, dir string) (*compiler.LoadResult, error) {
	loaded, err := compiler.LoadDir(dir)
	if err == nil {
		formatter.VerboseLog("Loaded %d catalog file(s) from %s", loaded.FileCount(), dir)
		return loaded, nil
	}

	code, message := parseLoadError(err)
	_ = formatter.Error(code, message, nil)
	return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// parseLoadError extracts error code and message from a load error.
func parseLoadError(err error) (string, string) {
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return compiler.ErrCodeGeneric, err.Error()
}

// checkCatalog validates c and reports validation errors as failures
// (exit code 1).
func checkCatalog(formatter *OutputFormatter, c *ir.Catalog) error {
	errs := compiler.Validate(c)
	if len(errs) == 0 {
		return nil
	}
	return outputValidationErrors(formatter, errs)
}

// outputValidationErrors prints every validation error.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: fmt.Sprintf("validation failed with %d error(s)", len(errs)),
				Details: errs,
			},
		}
		if err := writeJSON(formatter.Writer, response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", e.Error())
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "%d error(s) found\n", len(errs))

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// outputProcessError reports a planning or execution failure with its
// engine error code (exit code 1).
func outputProcessError(formatter *OutputFormatter, err error, runID string) error {
	code := engine.ErrorCode(err)
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			RunID:  runID,
			Error: &CLIError{
				Code:    code,
				Message: err.Error(),
			},
		}
		if werr := writeJSON(formatter.Writer, response); werr != nil {
			return werr
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ Processing failed [%s]: %v\n", code, err)
		if runID != "" {
			fmt.Fprintf(formatter.Writer, "  Run: %s\n", runID)
		}
	}
	return WrapExitError(ExitFailure, code, err)
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// commandContext returns the command's context, or a background context
// when the command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
