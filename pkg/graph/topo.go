package graph

import (
	"container/heap"

	"github.com/matzehuels/nodeflow/pkg/ids"
)

// TopoSort returns every node in dependency order using Kahn's algorithm.
//
// Among all nodes whose producers have been emitted, the smallest id is
// always emitted next, so structurally identical graphs sort identically.
// The result is stable across calls and is what evaluation order, and
// therefore cache behaviour, is built on. A *CycleDetectedError is returned
// if g somehow contains a cycle.
func TopoSort(g *Graph) ([]ids.NodeID, error) {
	return topoSortSet(g, nil)
}

// topoSortSet sorts the nodes in only (or all nodes when only is nil),
// considering only edges whose endpoints are both included.
func topoSortSet(g *Graph, only NodeSet) ([]ids.NodeID, error) {
	include := func(id ids.NodeID) bool { return only == nil || only.Has(id) }

	remaining := make(map[ids.NodeID]int)
	ready := &idHeap{}
	for id := range g.nodes {
		if !include(id) {
			continue
		}
		n := 0
		for p := range g.incoming[id] {
			if include(p) {
				n++
			}
		}
		remaining[id] = n
		if n == 0 {
			*ready = append(*ready, id)
		}
	}
	heap.Init(ready)

	order := make([]ids.NodeID, 0, len(remaining))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(ids.NodeID)
		order = append(order, id)
		for child := range g.outgoing[id] {
			if !include(child) {
				continue
			}
			remaining[child]--
			if remaining[child] == 0 {
				heap.Push(ready, child)
			}
		}
	}

	if len(order) != len(remaining) {
		if path := DetectCycle(g); path != nil {
			return nil, &CycleDetectedError{Path: path}
		}
		return nil, &CycleDetectedError{}
	}
	return order, nil
}

// idHeap is a min-heap of node ids.
type idHeap []ids.NodeID

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x any)        { *h = append(*h, x.(ids.NodeID)) }
func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Sources returns nodes with no producers, in ascending order.
func Sources(g *Graph) []ids.NodeID {
	var out []ids.NodeID
	for _, id := range g.NodeIDs() {
		if len(g.incoming[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Sinks returns nodes with no consumers, in ascending order.
func Sinks(g *Graph) []ids.NodeID {
	var out []ids.NodeID
	for _, id := range g.NodeIDs() {
		if len(g.outgoing[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}
