package graph

import (
	"github.com/matzehuels/nodeflow/pkg/ids"
)

// UpstreamClosure returns the seeds together with every node that can reach
// one of them. Seeds missing from g are ignored.
func UpstreamClosure(g *Graph, seeds ...ids.NodeID) NodeSet {
	return g.closure(g.incoming, seeds)
}

// DownstreamClosure returns the seeds together with every node reachable from
// one of them. Seeds missing from g are ignored.
func DownstreamClosure(g *Graph, seeds ...ids.NodeID) NodeSet {
	return g.closure(g.outgoing, seeds)
}

func (g *Graph) closure(adj map[ids.NodeID]map[ids.NodeID]int, seeds []ids.NodeID) NodeSet {
	out := make(NodeSet)
	stack := make([]ids.NodeID, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := g.nodes[s]; ok && !out.Has(s) {
			out[s] = struct{}{}
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range adj[cur] {
			if !out.Has(next) {
				out[next] = struct{}{}
				stack = append(stack, next)
			}
		}
	}
	return out
}

// ConnectedComponents groups nodes by undirected connectivity. Components
// are ordered by their smallest member id since discovery starts from each
// unvisited node in ascending order.
func ConnectedComponents(g *Graph) []NodeSet {
	seen := make(NodeSet, len(g.nodes))
	var out []NodeSet
	for _, start := range g.NodeIDs() {
		if seen.Has(start) {
			continue
		}
		comp := NewNodeSet(start)
		seen[start] = struct{}{}
		queue := []ids.NodeID{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, adj := range []map[ids.NodeID]int{g.outgoing[cur], g.incoming[cur]} {
				for next := range adj {
					if !seen.Has(next) {
						seen[next] = struct{}{}
						comp[next] = struct{}{}
						queue = append(queue, next)
					}
				}
			}
		}
		out = append(out, comp)
	}
	return out
}
