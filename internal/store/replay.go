package store

import (
	"context"
	"fmt"

	"github.com/roach88/iocplan/internal/ir"
)

// ReplayReport compares a stored run with a freshly computed plan.
type ReplayReport struct {
	RunID             string   `json:"run_id"`
	StoredFingerprint string   `json:"stored_fingerprint"`
	Fingerprint       string   `json:"fingerprint"`
	Match             bool     `json:"match"`
	StoredUnits       []string `json:"stored_units"`
	Units             []string `json:"units"`
	// FirstDivergence is the first unit position where the orders differ,
	// or -1 when the unit orders are identical.
	FirstDivergence int `json:"first_divergence"`
}

// Replay compares the stored plan of runID with plan, a plan description
// recomputed from the same catalog and options. Returns sql.ErrNoRows if
// the run does not exist.
func (s *Store) Replay(ctx context.Context, runID string, plan ir.Object) (ReplayReport, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return ReplayReport{}, err
	}
	stored, err := s.ReadPlanUnits(ctx, runID)
	if err != nil {
		return ReplayReport{}, err
	}

	fp, err := ir.PlanFingerprint(plan)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: %w", err)
	}
	units, err := unitsFromPlan(plan)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: %w", err)
	}

	report := ReplayReport{
		RunID:             runID,
		StoredFingerprint: run.Fingerprint,
		Fingerprint:       fp,
		Match:             fp == run.Fingerprint,
		StoredUnits:       make([]string, len(stored)),
		Units:             make([]string, len(units)),
		FirstDivergence:   -1,
	}
	for i, u := range stored {
		report.StoredUnits[i] = u.Key
	}
	for i, u := range units {
		report.Units[i] = u.Key
	}
	report.FirstDivergence = firstDivergence(report.StoredUnits, report.Units)
	return report, nil
}

func firstDivergence(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return min(len(a), len(b))
	}
	return -1
}
