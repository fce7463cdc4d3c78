package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/iocplan/internal/engine"
)

const runColumns = `id, seq, catalog_hash, fingerprint, packages, test_mode, batches, skipped,
	suppressed, status, error, engine_version, plan_format, plan`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// LatestRun returns the run with the highest sequence number.
// Returns sql.ErrNoRows if the store holds no runs.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq DESC LIMIT 1`)
	return scanRun(row)
}

// ListRuns returns every run ordered by seq ASC.
// Returns an empty slice (not nil) if the store holds no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadPlanUnits returns the plan units of a run ordered by position.
func (s *Store) ReadPlanUnits(ctx context.Context, runID string) ([]PlanUnit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, unit_key, depends_on, actions
		FROM plan_units
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query plan units: %w", err)
	}
	defer rows.Close()

	units := []PlanUnit{}
	for rows.Next() {
		var (
			u                     PlanUnit
			depsJSON, actionsJSON string
		)
		if err := rows.Scan(&u.Position, &u.Key, &depsJSON, &actionsJSON); err != nil {
			return nil, fmt.Errorf("scan plan unit: %w", err)
		}
		if u.DependsOn, err = unmarshalStrings(depsJSON); err != nil {
			return nil, err
		}
		if u.Actions, err = unmarshalList(actionsJSON); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan units: %w", err)
	}
	return units, nil
}

// ReadExecutions returns the executions of a run in execution order
// (seq ASC).
func (s *Store) ReadExecutions(ctx context.Context, runID string) ([]engine.ExecutionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, unit_key, element, kind, annotation, binding, handled
		FROM executions
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	records := []engine.ExecutionRecord{}
	for rows.Next() {
		var (
			rec     engine.ExecutionRecord
			handled int
		)
		if err := rows.Scan(&rec.Seq, &rec.Unit, &rec.Element, &rec.Kind, &rec.Annotation, &rec.Binding, &handled); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		rec.Handled = handled == 1
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	return records, nil
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run                    Run
		packagesJSON, planJSON string
		status                 string
		testMode               int
	)
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.CatalogHash,
		&run.Fingerprint,
		&packagesJSON,
		&testMode,
		&run.Batches,
		&run.Skipped,
		&run.Suppressed,
		&status,
		&run.Error,
		&run.EngineVersion,
		&run.PlanFormat,
		&planJSON,
	)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.TestMode = testMode == 1
	run.Status = RunStatus(status)
	if run.Packages, err = unmarshalStrings(packagesJSON); err != nil {
		return Run{}, err
	}
	if run.Plan, err = unmarshalObject(planJSON); err != nil {
		return Run{}, err
	}
	return run, nil
}
