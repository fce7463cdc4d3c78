package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/iocplan/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled catalog and its content hash.
type CompilationResult struct {
	Catalog *ir.Catalog `json:"catalog"`
	Hash    string      `json:"hash"`
	Files   int         `json:"files"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	AnnotationCount int
	TypeCount       int
	MethodCount     int
	FieldCount      int
	BindingCount    int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <catalog-dir>",
		Short: "Compile a CUE/HCL catalog to its canonical model",
		Long: `Compile the CUE and HCL files of a catalog directory into one catalog.

The CUE files form a single package; HCL files are merged after it in
path order. The output is the compiled catalog and its content hash.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, catalogDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := loadCatalog(formatter, catalogDir)
	if err != nil {
		return err
	}

	for _, t := range loaded.Catalog.Types {
		formatter.VerboseLog("Compiled type: %s", t.Name)
	}
	for _, b := range loaded.Catalog.Bindings {
		formatter.VerboseLog("Compiled binding: %s", b.Name)
	}

	result := &CompilationResult{
		Catalog: loaded.Catalog,
		Hash:    loaded.Hash,
		Files:   loaded.FileCount(),
	}
	stats := calculateStats(loaded.Catalog)

	if opts.Output != "" {
		if err := writeCatalogToFile(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
		}
	}

	return outputCompileSuccess(formatter, result, stats, opts.Output)
}

// calculateStats computes summary statistics for a catalog.
func calculateStats(c *ir.Catalog) CompilationStats {
	stats := CompilationStats{
		AnnotationCount: len(c.Annotations),
		TypeCount:       len(c.Types),
		BindingCount:    len(c.Bindings),
	}
	for _, t := range c.Types {
		stats.MethodCount += len(t.Methods)
		stats.FieldCount += len(t.Fields)
	}
	return stats
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, stats CompilationStats, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d annotation(s), %d type(s), %d binding(s)\n\n",
		stats.AnnotationCount, stats.TypeCount, stats.BindingCount)

	c := result.Catalog
	if len(c.Packages) > 0 {
		fmt.Fprintf(w, "Packages: %s\n\n", strings.Join(c.Packages, ", "))
	}

	if len(c.Types) > 0 {
		fmt.Fprintln(w, "Types:")
		for _, t := range c.Types {
			fmt.Fprintf(w, "  %s: %d method(s), %d field(s)%s\n",
				t.Name, len(t.Methods), len(t.Fields), formatAnnotations(t.Annotations))
		}
		fmt.Fprintln(w)
	}

	if len(c.Bindings) > 0 {
		fmt.Fprintln(w, "Bindings:")
		for _, b := range c.Bindings {
			fmt.Fprintf(w, "  %s: @%s → %s\n", b.Name, b.Annotation, b.Handler)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Hash: %s\n", result.Hash)
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote catalog to %s\n", outputFile)
	}

	return nil
}

// formatAnnotations renders annotation names as " @A @B".
func formatAnnotations(anns []ir.Annotation) string {
	var sb strings.Builder
	for _, a := range anns {
		sb.WriteString(" @")
		sb.WriteString(a.Name)
	}
	return sb.String()
}

// writeCatalogToFile writes the compilation result to a file.
func writeCatalogToFile(result *CompilationResult, filename string) error {
	// Indented for readability; canonical JSON is used only for hashing.
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
