package store

import (
	"context"
	"fmt"

	"github.com/roach88/iocplan/internal/engine"
	"github.com/roach88/iocplan/internal/ir"
)

// RunStatus is the outcome of a processing run.
type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Run is the stored summary of one processing run.
type Run struct {
	ID            string
	Seq           int64 // assigned by WriteRun
	CatalogHash   string
	Fingerprint   string
	Packages      []string
	TestMode      bool
	Batches       int
	Skipped       int
	Suppressed    int
	Status        RunStatus
	Error         string
	EngineVersion string
	PlanFormat    string
	Plan          ir.Object // engine.Plan.Describe output
}

// PlanUnit is one stored unit of a run's plan.
type PlanUnit struct {
	Position  int
	Key       string
	DependsOn []string
	Actions   ir.List
}

// NewRun builds the stored form of a processing result. runErr is the
// error Process returned alongside res; a non-nil runErr marks the run
// failed.
func NewRun(res *engine.Result, catalogHash string, pctx engine.ProcessingContext, runErr error) Run {
	run := Run{
		ID:            res.RunID,
		CatalogHash:   catalogHash,
		Fingerprint:   res.Fingerprint,
		Packages:      pctx.Packages,
		TestMode:      pctx.TestMode,
		Batches:       res.Plan.Discovery.Batches,
		Skipped:       res.Plan.Discovery.Skipped,
		Suppressed:    res.Suppressed,
		Status:        StatusCompleted,
		EngineVersion: ir.EngineVersion,
		PlanFormat:    ir.PlanFormat,
		Plan:          res.Plan.Describe(),
	}
	if runErr != nil {
		run.Status = StatusFailed
		run.Error = runErr.Error()
	}
	return run
}

// WriteRun stores a run, its plan units and its executions in a single
// transaction. Returns inserted=false without writing anything if a run
// with the same ID already exists.
//
// run.Seq is ignored; the store assigns the next run sequence number.
func (s *Store) WriteRun(ctx context.Context, run Run, execs []engine.ExecutionRecord) (inserted bool, err error) {
	if run.Status != StatusCompleted && run.Status != StatusFailed {
		return false, fmt.Errorf("write run: invalid status %q", run.Status)
	}

	packagesJSON, err := marshalStrings(run.Packages)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}
	planJSON, err := marshalCanonical(run.Plan)
	if err != nil {
		return false, fmt.Errorf("write run: marshal plan: %w", err)
	}
	units, err := unitsFromPlan(run.Plan)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return false, fmt.Errorf("write run: next seq: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, catalog_hash, fingerprint, packages, test_mode, batches, skipped, suppressed,
		 status, error, engine_version, plan_format, plan)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		seq,
		run.CatalogHash,
		run.Fingerprint,
		packagesJSON,
		boolToInt(run.TestMode),
		run.Batches,
		run.Skipped,
		run.Suppressed,
		string(run.Status),
		run.Error,
		run.EngineVersion,
		run.PlanFormat,
		planJSON,
	)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run: rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	for _, u := range units {
		depsJSON, err := marshalStrings(u.DependsOn)
		if err != nil {
			return false, fmt.Errorf("write run: unit %q: %w", u.Key, err)
		}
		actionsJSON, err := marshalCanonical(u.Actions)
		if err != nil {
			return false, fmt.Errorf("write run: unit %q: marshal actions: %w", u.Key, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO plan_units (run_id, position, unit_key, depends_on, actions)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, u.Position, u.Key, depsJSON, actionsJSON); err != nil {
			return false, fmt.Errorf("write run: unit %q: %w", u.Key, err)
		}
	}

	for _, rec := range execs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO executions (run_id, seq, unit_key, element, kind, annotation, binding, handled)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			rec.Seq,
			rec.Unit,
			rec.Element,
			rec.Kind,
			rec.Annotation,
			rec.Binding,
			boolToInt(rec.Handled),
		); err != nil {
			return false, fmt.Errorf("write run: execution %d: %w", rec.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run: commit: %w", err)
	}
	return true, nil
}

// unitsFromPlan extracts the ordered units of a plan description.
func unitsFromPlan(plan ir.Object) ([]PlanUnit, error) {
	units, err := plan.GetObjects("units")
	if err != nil {
		return nil, err
	}

	out := make([]PlanUnit, 0, len(units))
	for i, u := range units {
		key, ok := u.GetString("key")
		if !ok {
			return nil, fmt.Errorf("plan unit %d: missing key", i)
		}
		deps, err := u.GetStrings("depends_on")
		if err != nil {
			return nil, fmt.Errorf("plan unit %q: %w", key, err)
		}
		actions, _ := u["actions"].(ir.List)
		if actions == nil {
			actions = ir.List{}
		}
		out = append(out, PlanUnit{
			Position:  i,
			Key:       key,
			DependsOn: deps,
			Actions:   actions,
		})
	}
	return out, nil
}
