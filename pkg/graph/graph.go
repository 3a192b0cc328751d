package graph

import (
	"cmp"
	"maps"
	"slices"

	"github.com/matzehuels/nodeflow/pkg/ids"
)

// Graph is an immutable node/socket/wire graph.
//
// The zero value is not usable - create graphs with [New]. Every method that
// changes the graph returns a new *Graph and leaves the receiver untouched.
type Graph struct {
	id       ids.GraphID
	nodes    map[ids.NodeID]Node
	sockets  map[ids.SocketID]Socket
	wires    map[ids.WireID]Wire
	frames   map[ids.FrameID]Frame
	outgoing map[ids.NodeID]map[ids.NodeID]int // node -> consumer -> wire count
	incoming map[ids.NodeID]map[ids.NodeID]int // node -> producer -> wire count
	conns    map[ids.SocketID]int              // live wire count per socket
}

// New creates an empty graph with the given id.
func New(id ids.GraphID) *Graph {
	return &Graph{
		id:       id,
		nodes:    make(map[ids.NodeID]Node),
		sockets:  make(map[ids.SocketID]Socket),
		wires:    make(map[ids.WireID]Wire),
		frames:   make(map[ids.FrameID]Frame),
		outgoing: make(map[ids.NodeID]map[ids.NodeID]int),
		incoming: make(map[ids.NodeID]map[ids.NodeID]int),
		conns:    make(map[ids.SocketID]int),
	}
}

// clone returns a shallow copy whose top-level maps may be modified freely.
// Inner adjacency maps are still shared and must be copied before writing.
func (g *Graph) clone() *Graph {
	return &Graph{
		id:       g.id,
		nodes:    maps.Clone(g.nodes),
		sockets:  maps.Clone(g.sockets),
		wires:    maps.Clone(g.wires),
		frames:   maps.Clone(g.frames),
		outgoing: maps.Clone(g.outgoing),
		incoming: maps.Clone(g.incoming),
		conns:    maps.Clone(g.conns),
	}
}

// ID returns the graph id.
func (g *Graph) ID() ids.GraphID { return g.id }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// WireCount returns the number of wires.
func (g *Graph) WireCount() int { return len(g.wires) }

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(id ids.NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id ids.NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Socket returns a copy of the socket with the given id.
func (g *Graph) Socket(id ids.SocketID) (Socket, bool) {
	s, ok := g.sockets[id]
	if !ok {
		return Socket{}, false
	}
	return s.clone(), true
}

// Wire returns the wire with the given id.
func (g *Graph) Wire(id ids.WireID) (Wire, bool) {
	w, ok := g.wires[id]
	return w, ok
}

// Frame returns a copy of the frame with the given id.
func (g *Graph) Frame(id ids.FrameID) (Frame, bool) {
	f, ok := g.frames[id]
	if !ok {
		return Frame{}, false
	}
	return f.clone(), true
}

// NodeIDs returns every node id in ascending order.
func (g *Graph) NodeIDs() []ids.NodeID { return ids.Sorted(g.nodes) }

// Nodes returns copies of every node, sorted by id.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, id := range g.NodeIDs() {
		out = append(out, g.nodes[id].clone())
	}
	return out
}

// Sockets returns copies of every socket, sorted by id.
func (g *Graph) Sockets() []Socket {
	out := make([]Socket, 0, len(g.sockets))
	for _, id := range ids.Sorted(g.sockets) {
		out = append(out, g.sockets[id].clone())
	}
	return out
}

// Wires returns every wire, sorted by id.
func (g *Graph) Wires() []Wire {
	out := make([]Wire, 0, len(g.wires))
	for _, id := range ids.Sorted(g.wires) {
		out = append(out, g.wires[id])
	}
	return out
}

// Frames returns copies of every frame, sorted by id.
func (g *Graph) Frames() []Frame {
	out := make([]Frame, 0, len(g.frames))
	for _, id := range ids.Sorted(g.frames) {
		out = append(out, g.frames[id].clone())
	}
	return out
}

// NodeSockets returns copies of a node's sockets: inputs in declared order,
// then outputs in declared order.
func (g *Graph) NodeSockets(id ids.NodeID) []Socket {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]Socket, 0, len(n.Inputs)+len(n.Outputs))
	for _, sid := range n.Inputs {
		out = append(out, g.sockets[sid].clone())
	}
	for _, sid := range n.Outputs {
		out = append(out, g.sockets[sid].clone())
	}
	return out
}

// WiresAt returns the wires attached to a socket, sorted by id.
func (g *Graph) WiresAt(id ids.SocketID) []Wire {
	var out []Wire
	for _, w := range g.wires {
		if w.From == id || w.To == id {
			out = append(out, w)
		}
	}
	slices.SortFunc(out, func(a, b Wire) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// ConnectionCount returns the number of wires attached to a socket.
func (g *Graph) ConnectionCount(id ids.SocketID) int { return g.conns[id] }

// Children returns the nodes fed by id, in ascending order.
func (g *Graph) Children(id ids.NodeID) []ids.NodeID { return ids.Sorted(g.outgoing[id]) }

// Parents returns the nodes feeding id, in ascending order.
func (g *Graph) Parents(id ids.NodeID) []ids.NodeID { return ids.Sorted(g.incoming[id]) }

// InDegree returns the number of distinct producer nodes of id.
func (g *Graph) InDegree(id ids.NodeID) int { return len(g.incoming[id]) }

// OutDegree returns the number of distinct consumer nodes of id.
func (g *Graph) OutDegree(id ids.NodeID) int { return len(g.outgoing[id]) }

// FrameExposedSockets returns the sockets a collapsed frame presents, inputs
// first. An expanded frame exposes nothing.
func (g *Graph) FrameExposedSockets(id ids.FrameID) ([]ids.SocketID, error) {
	f, ok := g.frames[id]
	if !ok {
		return nil, &MissingFrameError{FrameID: id}
	}
	if !f.Collapsed {
		return nil, nil
	}
	return slices.Concat(f.ExposedInputs, f.ExposedOutputs), nil
}
