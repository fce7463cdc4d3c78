package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/iocplan/internal/ir"
)

// RuleConflict is a set of bindings whose before/after rules contradict
// each other. Processing such a catalog fails with RULE_CONFLICT.
type RuleConflict struct {
	Path    []string `json:"path"`    // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
}

// AnalyzeRules performs static conflict analysis on binding rules.
//
// It builds the same precedence graph the processor builds at registration
// time: an edge a → b means a must be processed before b. A binding's own
// rule naming the other binding's annotation decides the pair; otherwise
// the other binding's rule decides it. Strongly connected components of
// two or more bindings are reported as conflicts.
func AnalyzeRules(bindings []ir.BindingDecl) []RuleConflict {
	if len(bindings) == 0 {
		return []RuleConflict{}
	}

	graph := buildPrecedenceGraph(bindings)
	sccs := tarjanSCC(graph)

	conflicts := []RuleConflict{}
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}
		path := reconstructCyclePath(scc, graph)
		conflicts = append(conflicts, RuleConflict{
			Path:    path,
			Message: fmt.Sprintf("contradictory ordering rules: %s", strings.Join(path, " -> ")),
		})
	}
	return conflicts
}

// precedenceGraph maps a binding name to the bindings that must follow it.
// order keeps binding declaration order for deterministic traversal.
type precedenceGraph struct {
	order []string
	edges map[string][]string
}

func buildPrecedenceGraph(bindings []ir.BindingDecl) precedenceGraph {
	g := precedenceGraph{edges: make(map[string][]string)}
	for i, a := range bindings {
		if _, seen := g.edges[a.Name]; seen {
			continue
		}
		g.order = append(g.order, a.Name)
		g.edges[a.Name] = []string{}
		for j, b := range bindings {
			if i == j || a.Name == b.Name {
				continue
			}
			if bindingPrecedes(a, b) {
				g.edges[a.Name] = append(g.edges[a.Name], b.Name)
			}
		}
	}
	return g
}

// bindingPrecedes reports whether a's or b's rules place a before b.
func bindingPrecedes(a, b ir.BindingDecl) bool {
	for _, rule := range a.Rules {
		if rule.Annotation == b.Annotation {
			return rule.Order == ir.Before
		}
	}
	for _, rule := range b.Rules {
		if rule.Annotation == a.Annotation {
			return rule.Order == ir.After
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in declaration order.
func tarjanSCC(graph precedenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack into an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range graph.order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath walks edges inside the SCC from its earliest
// declared member until the walk returns to it.
func reconstructCyclePath(scc []string, graph precedenceGraph) []string {
	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	var start string
	for _, node := range graph.order {
		if sccSet[node] {
			start = node
			break
		}
	}

	path := []string{start}
	visited := map[string]bool{start: true}
	var walk func(string) bool
	walk = func(current string) bool {
		for _, next := range graph.edges[current] {
			if !sccSet[next] {
				continue
			}
			if next == start {
				path = append(path, start)
				return true
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			path = append(path, next)
			if walk(next) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}
	walk(start)
	return path
}
