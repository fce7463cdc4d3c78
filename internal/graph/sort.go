package graph

import (
	"container/heap"
	"log/slog"
)

// Sort returns every unit in an order where each unit follows all units it
// depends on. Among units that are ready at the same time, the one with the
// lowest discovery sequence comes first.
//
// Dependency keys that name no unit are ignored and logged at debug level.
// A unit's dependency on its own key is ignored.
func (g *Graph) Sort() ([]*Unit, error) {
	dependents := make(map[Key][]Key, len(g.order))
	inDegree := make(map[Key]int, len(g.order))

	for _, k := range g.order {
		u := g.units[k]
		for _, d := range u.Deps {
			if d == k {
				continue
			}
			if _, exists := g.units[d]; !exists {
				slog.Debug("dropping unknown dependency",
					"unit", string(k),
					"dependency", string(d),
				)
				continue
			}
			dependents[d] = append(dependents[d], k)
			inDegree[k]++
		}
	}

	ready := &seqHeap{}
	for _, k := range g.order {
		if inDegree[k] == 0 {
			heap.Push(ready, g.units[k])
		}
	}

	sorted := make([]*Unit, 0, len(g.order))
	for ready.Len() > 0 {
		u := heap.Pop(ready).(*Unit)
		sorted = append(sorted, u)

		for _, dep := range dependents[u.Key] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				heap.Push(ready, g.units[dep])
			}
		}
	}

	if len(sorted) != len(g.order) {
		return nil, &CycleError{Cycles: g.cycles()}
	}
	return sorted, nil
}

// seqHeap is a min-heap of units by discovery sequence.
type seqHeap []*Unit

func (h seqHeap) Len() int           { return len(h) }
func (h seqHeap) Less(i, j int) bool { return h[i].Seq < h[j].Seq }
func (h seqHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *seqHeap) Push(x any) { *h = append(*h, x.(*Unit)) }

func (h *seqHeap) Pop() any {
	old := *h
	n := len(old)
	u := old[n-1]
	*h = old[:n-1]
	return u
}
