package engine

import (
	"github.com/roach88/iocplan/internal/graph"
	"github.com/roach88/iocplan/internal/ir"
)

// Plan is the ordered set of units produced from a discovery.
type Plan struct {
	Discovery *Discovery
	Units     []*graph.Unit
}

// Keys returns unit keys in plan order.
func (pl *Plan) Keys() []string {
	out := make([]string, len(pl.Units))
	for i, u := range pl.Units {
		out[i] = string(u.Key)
	}
	return out
}

// Actions returns every action in plan order.
func (pl *Plan) Actions() []*Action {
	var out []*Action
	for _, u := range pl.Units {
		for _, item := range u.Items {
			if a, ok := item.(*Action); ok {
				out = append(out, a)
			}
		}
	}
	return out
}

// Describe renders the plan as a Value: units in order, each with its
// effective dependencies and its actions.
func (pl *Plan) Describe() ir.Object {
	units := make(ir.List, 0, len(pl.Units))
	for _, u := range pl.Units {
		deps := ir.List{}
		for _, d := range pl.Discovery.Graph.DependsOn(u.Key) {
			deps = append(deps, ir.String(d))
		}

		actions := ir.List{}
		for _, item := range u.Items {
			a, ok := item.(*Action)
			if !ok {
				continue
			}
			actions = append(actions, ir.Object{
				"element":    ir.String(a.Element.Name()),
				"kind":       ir.String(a.Element.Kind().String()),
				"annotation": ir.String(a.Annotation.Name),
				"binding":    ir.String(a.Entry.Name),
			})
		}

		units = append(units, ir.Object{
			"key":        ir.String(u.Key),
			"depends_on": deps,
			"actions":    actions,
		})
	}

	return ir.Object{
		"format":  ir.String(ir.PlanFormat),
		"units":   units,
		"batches": ir.Int(pl.Discovery.Batches),
		"skipped": ir.Int(pl.Discovery.Skipped),
	}
}

// Fingerprint hashes Describe. Equal inputs give equal fingerprints.
func (pl *Plan) Fingerprint() (string, error) {
	return ir.PlanFingerprint(pl.Describe())
}
