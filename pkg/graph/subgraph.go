package graph

import (
	"slices"

	"github.com/matzehuels/nodeflow/pkg/ids"
)

// Subgraph is a node-induced view of a graph: the member nodes and every
// socket and wire that lies entirely inside them.
type Subgraph struct {
	Nodes   NodeSet
	Sockets []ids.SocketID // sorted
	Wires   []ids.WireID   // sorted
	Outputs []ids.SocketID // requested output sockets, in request order
	Order   []ids.NodeID   // members in TopoSort order
}

// Induced returns the subgraph of g induced by nodes. Members missing from g
// are dropped.
func Induced(g *Graph, nodes NodeSet) *Subgraph {
	sub := &Subgraph{Nodes: make(NodeSet, len(nodes))}
	for id := range nodes {
		n, ok := g.nodes[id]
		if !ok {
			continue
		}
		sub.Nodes[id] = struct{}{}
		sub.Sockets = append(sub.Sockets, n.Inputs...)
		sub.Sockets = append(sub.Sockets, n.Outputs...)
	}
	slices.Sort(sub.Sockets)
	for _, wid := range ids.Sorted(g.wires) {
		w := g.wires[wid]
		if sub.Nodes.Has(g.sockets[w.From].NodeID) && sub.Nodes.Has(g.sockets[w.To].NodeID) {
			sub.Wires = append(sub.Wires, wid)
		}
	}
	// A node-induced subgraph of an acyclic graph is acyclic.
	sub.Order, _ = topoSortSet(g, sub.Nodes)
	return sub
}

// ExecutionSubgraphByOutputSockets returns the minimal work unit needed to
// compute the given output sockets: the subgraph induced by the upstream
// closure of their owning nodes. Every id must name an existing output
// socket.
func ExecutionSubgraphByOutputSockets(g *Graph, outputs []ids.SocketID) (*Subgraph, error) {
	owners := make([]ids.NodeID, 0, len(outputs))
	for _, sid := range outputs {
		s, ok := g.sockets[sid]
		if !ok {
			return nil, &MissingSocketError{SocketID: sid}
		}
		if s.Direction != Output {
			return nil, &InvalidSocketDirectionError{SocketID: sid, Want: Output, Got: s.Direction}
		}
		owners = append(owners, s.NodeID)
	}
	sub := Induced(g, UpstreamClosure(g, owners...))
	sub.Outputs = slices.Clone(outputs)
	return sub, nil
}
