package graph

import "slices"

// Key is the identity of a work unit.
type Key string

// Unit is a mergeable work unit.
type Unit struct {
	Key   Key
	Items []any
	Deps  []Key
	Seq   int
}

// Graph accumulates units and their dependency keys.
// A Graph is not safe for concurrent use.
type Graph struct {
	units   map[Key]*Unit
	order   []Key
	nextSeq int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{units: make(map[Key]*Unit)}
}

// Add records item under key with the given dependency keys. The first Add
// for a key assigns its discovery sequence; later Adds merge into it.
// Returns the unit now holding item.
func (g *Graph) Add(key Key, item any, deps ...Key) *Unit {
	u, ok := g.units[key]
	if !ok {
		u = &Unit{Key: key, Seq: g.nextSeq}
		g.nextSeq++
		g.units[key] = u
		g.order = append(g.order, key)
	}
	if item != nil {
		u.Items = append(u.Items, item)
	}
	for _, d := range deps {
		if !slices.Contains(u.Deps, d) {
			u.Deps = append(u.Deps, d)
		}
	}
	return u
}

// Lookup returns the unit for key.
func (g *Graph) Lookup(key Key) (*Unit, bool) {
	u, ok := g.units[key]
	return u, ok
}

// Len returns the number of distinct units.
func (g *Graph) Len() int {
	return len(g.order)
}

// Units returns all units in discovery order.
func (g *Graph) Units() []*Unit {
	out := make([]*Unit, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, g.units[k])
	}
	return out
}

// DependsOn returns the dependency keys of key that take part in ordering:
// keys naming an existing unit other than key itself, in first-seen order.
func (g *Graph) DependsOn(key Key) []Key {
	u, ok := g.units[key]
	if !ok {
		return nil
	}
	var out []Key
	for _, d := range u.Deps {
		if d == key {
			continue
		}
		if _, exists := g.units[d]; exists {
			out = append(out, d)
		}
	}
	return out
}
