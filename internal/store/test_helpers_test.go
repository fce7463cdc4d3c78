package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/iocplan/internal/engine"
	"github.com/roach88/iocplan/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testPlan builds a plan description with one action per unit. Each unit
// depends on the previous one.
func testPlan(keys ...string) ir.Object {
	units := ir.List{}
	for i, k := range keys {
		deps := ir.List{}
		if i > 0 {
			deps = append(deps, ir.String(keys[i-1]))
		}
		units = append(units, ir.Object{
			"key":        ir.String(k),
			"depends_on": deps,
			"actions": ir.List{ir.Object{
				"element":    ir.String(k),
				"kind":       ir.String("type"),
				"annotation": ir.String("Bean"),
				"binding":    ir.String("beans"),
			}},
		})
	}
	return ir.Object{
		"format":  ir.String(ir.PlanFormat),
		"units":   units,
		"batches": ir.Int(1),
		"skipped": ir.Int(0),
	}
}

// createTestRun creates a completed run over the given plan.
func createTestRun(id string, plan ir.Object) Run {
	return Run{
		ID:            id,
		CatalogHash:   "test-hash",
		Fingerprint:   ir.MustPlanFingerprint(plan),
		Packages:      []string{"org.acme"},
		Batches:       1,
		Status:        StatusCompleted,
		EngineVersion: ir.EngineVersion,
		PlanFormat:    ir.PlanFormat,
		Plan:          plan,
	}
}

// createTestExecutions creates one handled execution per key.
func createTestExecutions(keys ...string) []engine.ExecutionRecord {
	out := make([]engine.ExecutionRecord, 0, len(keys))
	for i, k := range keys {
		out = append(out, engine.ExecutionRecord{
			Seq:        int64(i + 1),
			Unit:       k,
			Element:    k,
			Kind:       "type",
			Annotation: "Bean",
			Binding:    "beans",
			Handled:    true,
		})
	}
	return out
}
