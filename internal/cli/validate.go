package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/iocplan/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
	// Order lists the bindings in the order the processor runs them.
	Order []string `json:"order,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <catalog-dir>",
		Short: "Validate a catalog without processing it",
		Long: `Validate a catalog without discovering or executing anything.

Checks names, annotation targets, handler names, provided types, package
prefixes and the before/after rules between bindings. On success the
bindings are listed in processing order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, catalogDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, err := compiler.LoadDir(catalogDir)
	if err != nil {
		// A catalog that does not compile is invalid, not a command error.
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) && loadErr.Code == compiler.ErrCodeCompileFailed {
			return outputValidationErrors(formatter, []compiler.ValidationError{{
				Field:   "compile",
				Message: loadErr.Message,
				Code:    loadErr.Code,
			}})
		}
		code, message := parseLoadError(err)
		_ = formatter.Error(code, message, nil)
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
	}

	formatter.VerboseLog("Loaded %d catalog file(s) from %s", loaded.FileCount(), catalogDir)

	if errs := compiler.Validate(loaded.Catalog); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	order, err := bindingOrder(loaded)
	if err != nil {
		return outputProcessError(formatter, err, "")
	}

	result := ValidationResult{Valid: true, Order: order}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Catalog valid: %d annotation(s), %d type(s), %d binding(s)\n",
		len(loaded.Catalog.Annotations), len(loaded.Catalog.Types), len(loaded.Catalog.Bindings))
	if len(order) > 0 {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, "Binding order:")
		for i, name := range order {
			fmt.Fprintf(formatter.Writer, "  %d. %s\n", i+1, name)
		}
	}
	return nil
}

// bindingOrder registers the catalog's bindings and returns their names in
// processing order.
func bindingOrder(loaded *compiler.LoadResult) ([]string, error) {
	opts := &ProcessOptions{}
	p, err := opts.newProcessor(loaded.Catalog, opts.processingContext(loaded.Catalog))
	if err != nil {
		return nil, err
	}

	entries, err := p.Registry().Ordered()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names, nil
}
