package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/iocplan/internal/engine"
	"github.com/roach88/iocplan/internal/ir"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	ProcessOptions
}

// PlanResult is the output of the plan command.
type PlanResult struct {
	Fingerprint string    `json:"fingerprint"`
	Plan        ir.Object `json:"plan"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <catalog-dir>",
		Short: "Show the execution plan without running handlers",
		Long: `Discover the catalog's annotated elements and print the ordered plan.

Handlers register metadata and declare dependencies during discovery but
nothing is executed. The fingerprint identifies the plan: equal catalogs
processed with equal options always produce the same fingerprint.

Example:
  iocplan plan ./catalog
  iocplan plan ./catalog --test-mode --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	addProcessFlags(cmd, &opts.ProcessOptions)

	return cmd
}

func runPlan(opts *PlanOptions, catalogDir string, cmd *cobra.Command) error {
	configureLogging(cmd, opts.Verbose)
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, err := loadCatalog(formatter, catalogDir)
	if err != nil {
		return err
	}
	if err := checkCatalog(formatter, loaded.Catalog); err != nil {
		return err
	}

	p, err := opts.newProcessor(loaded.Catalog, opts.processingContext(loaded.Catalog))
	if err != nil {
		return outputProcessError(formatter, err, "")
	}

	plan, err := p.Plan()
	if err != nil {
		return outputProcessError(formatter, err, "")
	}
	fp, err := plan.Fingerprint()
	if err != nil {
		return WrapExitError(ExitFailure, "computing plan fingerprint", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(PlanResult{Fingerprint: fp, Plan: plan.Describe()})
	}

	outputPlanText(formatter, plan, fp)
	return nil
}

func outputPlanText(formatter *OutputFormatter, plan *engine.Plan, fp string) {
	w := formatter.Writer
	actions := plan.Actions()

	fmt.Fprintf(w, "Plan: %d unit(s), %d action(s)\n", len(plan.Units), len(actions))
	fmt.Fprintf(w, "Batches: %d, skipped: %d\n", plan.Discovery.Batches, plan.Discovery.Skipped)
	fmt.Fprintf(w, "Fingerprint: %s\n", fp)

	for i, u := range plan.Units {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%d. %s", i+1, u.Key)
		if deps := plan.Discovery.Graph.DependsOn(u.Key); len(deps) > 0 {
			names := make([]string, len(deps))
			for j, d := range deps {
				names[j] = string(d)
			}
			fmt.Fprintf(w, " (after %s)", strings.Join(names, ", "))
		}
		fmt.Fprintln(w)
		for _, item := range u.Items {
			a, ok := item.(*engine.Action)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "   %s %s @%s [%s]\n",
				a.Element.Kind(), a.Element.Name(), a.Annotation.Name, a.Entry.Name)
		}
	}
}
