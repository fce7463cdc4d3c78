package graph

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// CycleError reports that the units cannot be ordered. Each entry of Cycles
// is one closed path through a strongly connected component, starting and
// ending at the member with the lowest discovery sequence. Edges point from
// a unit to a unit it depends on.
type CycleError struct {
	Cycles [][]Key
}

func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Cycles))
	for _, c := range e.Cycles {
		parts = append(parts, FormatPath(c))
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(parts, "; "))
}

// FormatPath renders a cycle path as "A -> B -> A".
func FormatPath(path []Key) string {
	names := make([]string, len(path))
	for i, k := range path {
		names[i] = string(k)
	}
	return strings.Join(names, " -> ")
}

// IsCycleError reports whether err is or wraps a *CycleError.
func IsCycleError(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}

// cycles finds every strongly connected component with more than one
// member using Tarjan's algorithm. Self-dependencies never form a cycle.
// Units are visited in discovery order so the result is deterministic.
func (g *Graph) cycles() [][]Key {
	var (
		index   int
		stack   []Key
		indices = make(map[Key]int)
		lowlink = make(map[Key]int)
		onStack = make(map[Key]bool)
		sccs    [][]Key
	)

	var strongConnect func(Key)
	strongConnect = func(v Key) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.DependsOn(v) {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []Key
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

	for _, k := range g.order {
		if _, visited := indices[k]; !visited {
			strongConnect(k)
		}
	}

	var out [][]Key
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}
		slices.SortFunc(scc, func(a, b Key) int {
			return g.units[a].Seq - g.units[b].Seq
		})
		out = append(out, g.cyclePath(scc))
	}
	slices.SortFunc(out, func(a, b []Key) int {
		return g.units[a[0]].Seq - g.units[b[0]].Seq
	})
	return out
}

// cyclePath walks edges inside scc from its first member until it returns
// to the start. Every member of an SCC reaches every other, so a DFS
// restricted to the component always closes the loop.
func (g *Graph) cyclePath(scc []Key) []Key {
	members := make(map[Key]bool, len(scc))
	for _, k := range scc {
		members[k] = true
	}
	start := scc[0]

	visited := make(map[Key]bool)
	var path []Key

	var dfs func(Key) bool
	dfs = func(v Key) bool {
		visited[v] = true
		path = append(path, v)
		for _, w := range g.DependsOn(v) {
			if !members[w] {
				continue
			}
			if w == start {
				path = append(path, start)
				return true
			}
			if !visited[w] && dfs(w) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}

	if !dfs(start) {
		return append(slices.Clone(scc), start)
	}
	return path
}
