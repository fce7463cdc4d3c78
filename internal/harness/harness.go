package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/iocplan/internal/compiler"
	"github.com/roach88/iocplan/internal/engine"
	"github.com/roach88/iocplan/internal/handlers"
	"github.com/roach88/iocplan/internal/ir"
	"github.com/roach88/iocplan/internal/scan"
	"github.com/roach88/iocplan/internal/store"
	"github.com/roach88/iocplan/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a fixed run ID against a throwaway store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Load and validate the catalog
//  2. Bind the catalog's handlers and process it
//  3. Store the run, then read its plan units and executions back
//  4. Evaluate assertions against the result
//
// Processing failures are part of the result, not errors: a scenario can
// assert them with fails_with. Run returns an error only when the scenario
// cannot be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	loaded, err := compiler.LoadDir(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.Default().With("scenario", scenario.Name),
	}

	result := NewResult()
	if err := h.process(context.Background(), scenario, loaded, result); err != nil {
		return nil, err
	}

	if result.Failed() && !scenario.expectsFailure() {
		result.AddError(fmt.Sprintf("unexpected failure: %s", result.Error))
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	h.logger.Debug("scenario evaluated",
		"pass", result.Pass,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (h *Harness) process(ctx context.Context, scenario *Scenario, loaded *compiler.LoadResult, result *Result) error {
	catalog := loaded.Catalog

	if verrs := compiler.Validate(catalog); len(verrs) > 0 {
		result.ErrorCode = verrs[0].Code
		result.Error = verrs[0].Error()
		h.logger.Debug("catalog invalid",
			"errors", len(verrs),
			"first", result.Error,
		)
		return nil
	}

	pctx := engine.ProcessingContext{
		Packages: scenario.Packages,
		TestMode: scenario.TestMode,
	}
	if len(pctx.Packages) == 0 {
		pctx.Packages = catalog.Packages
	}

	opts := []engine.Option{
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.RunID)),
	}
	if scenario.MaxBatches > 0 {
		opts = append(opts, engine.WithMaxBatches(scenario.MaxBatches))
	}

	p := engine.New(scan.New(catalog), pctx, opts...)
	if err := handlers.Bind(p, catalog, handlers.NewMetadata()); err != nil {
		return fmt.Errorf("failed to bind handlers: %w", err)
	}

	res, runErr := p.Process()
	if runErr != nil {
		result.ErrorCode = engine.ErrorCode(runErr)
		result.Error = runErr.Error()
	}
	result.Injected = injectedTypes(p.Injection())

	// Planning failed: nothing to store.
	if res == nil {
		return nil
	}

	result.RunID = res.RunID
	result.Plan = res.Plan.Describe()
	result.Fingerprint = res.Fingerprint

	if _, err := h.store.WriteRun(ctx, store.NewRun(res, loaded.Hash, pctx, runErr), res.Records); err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}

	units, err := h.store.ReadPlanUnits(ctx, res.RunID)
	if err != nil {
		return fmt.Errorf("failed to read plan units: %w", err)
	}
	records, err := h.store.ReadExecutions(ctx, res.RunID)
	if err != nil {
		return fmt.Errorf("failed to read executions: %w", err)
	}
	result.Units = units
	result.Records = records
	return nil
}

func injectedTypes(ic *engine.InjectionContext) []InjectedType {
	out := []InjectedType{}
	for _, name := range ic.Types() {
		inj, _ := ic.Injector(name)
		handled := make([]string, len(inj.Handled))
		copy(handled, inj.Handled)
		out = append(out, InjectedType{Type: name, Handled: handled})
	}
	return out
}

// snapshotValue renders the deterministic part of a result as a Value. The
// fingerprint is left out: it is derived from the plan, which is included.
func snapshotValue(name string, r *Result) ir.Object {
	var plan ir.Value = ir.Null{}
	if r.Plan != nil {
		plan = r.Plan
	}

	execs := ir.List{}
	for _, rec := range r.Records {
		execs = append(execs, ir.Object{
			"seq":        ir.Int(rec.Seq),
			"unit":       ir.String(rec.Unit),
			"element":    ir.String(rec.Element),
			"kind":       ir.String(rec.Kind),
			"annotation": ir.String(rec.Annotation),
			"binding":    ir.String(rec.Binding),
			"handled":    ir.Bool(rec.Handled),
		})
	}

	injected := ir.List{}
	for _, it := range r.Injected {
		handled := ir.List{}
		for _, a := range it.Handled {
			handled = append(handled, ir.String(a))
		}
		injected = append(injected, ir.Object{
			"type":    ir.String(it.Type),
			"handled": handled,
		})
	}

	var errCode ir.Value = ir.Null{}
	if r.ErrorCode != "" {
		errCode = ir.String(r.ErrorCode)
	}

	return ir.Object{
		"scenario":   ir.String(name),
		"run_id":     ir.String(r.RunID),
		"plan":       plan,
		"executions": execs,
		"injected":   injected,
		"error":      errCode,
	}
}
