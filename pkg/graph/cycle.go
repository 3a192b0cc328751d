package graph

import (
	"github.com/matzehuels/nodeflow/pkg/ids"
)

// DetectCycle returns the first directed cycle found, or nil.
//
// The search is a depth-first traversal with visiting/visited marks, started
// from every node in ascending id order and following children in ascending
// id order. The returned path starts and ends at the same node. Graphs built
// only through [Graph.AddWire] never contain a cycle.
func DetectCycle(g *Graph) []ids.NodeID {
	const (
		unvisited = iota
		visiting
		visited
	)

	state := make(map[ids.NodeID]int, len(g.nodes))
	var stack []ids.NodeID
	var cycle []ids.NodeID

	var dfs func(id ids.NodeID) bool
	dfs = func(id ids.NodeID) bool {
		state[id] = visiting
		stack = append(stack, id)
		for _, child := range g.Children(id) {
			switch state[child] {
			case visiting:
				for i, n := range stack {
					if n == child {
						cycle = append(append([]ids.NodeID{}, stack[i:]...), child)
						return true
					}
				}
			case unvisited:
				if dfs(child) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = visited
		return false
	}

	for _, id := range g.NodeIDs() {
		if state[id] == unvisited && dfs(id) {
			return cycle
		}
	}
	return nil
}

// HasPath reports whether a directed path leads from src to dst.
// A node always reaches itself.
func HasPath(g *Graph, src, dst ids.NodeID) bool {
	return g.pathBetween(src, dst) != nil
}

// pathBetween returns a directed node path from src to dst inclusive, or nil
// when dst is unreachable. Neighbours are explored in ascending id order so
// the reported path is deterministic.
func (g *Graph) pathBetween(src, dst ids.NodeID) []ids.NodeID {
	if src == dst {
		return []ids.NodeID{src}
	}
	prev := map[ids.NodeID]ids.NodeID{src: src}
	queue := []ids.NodeID{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Children(cur) {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == dst {
				return reconstruct(prev, src, dst)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func reconstruct(prev map[ids.NodeID]ids.NodeID, src, dst ids.NodeID) []ids.NodeID {
	var rev []ids.NodeID
	for n := dst; n != src; n = prev[n] {
		rev = append(rev, n)
	}
	rev = append(rev, src)
	path := make([]ids.NodeID, len(rev))
	for i, n := range rev {
		path[len(rev)-1-i] = n
	}
	return path
}
