package graph

import (
	"maps"
	"slices"

	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// AddNode returns a graph with node and its sockets added.
//
// Every socket must have a valid unique id and belong to node (an empty
// NodeID is filled in). Socket names must be unique per direction within the
// node. When node.Inputs and node.Outputs are both empty they are derived
// from sockets in the given order; otherwise they must list exactly the
// given sockets with matching directions.
func (g *Graph) AddNode(node Node, sockets []Socket) (*Graph, error) {
	if _, err := ids.ParseNodeID(string(node.ID)); err != nil {
		return nil, err
	}
	if node.Type == "" {
		return nil, &MissingNodeTypeError{NodeID: node.ID}
	}
	if _, exists := g.nodes[node.ID]; exists {
		return nil, &DuplicateNodeError{NodeID: node.ID}
	}

	byID := make(map[ids.SocketID]Socket, len(sockets))
	names := make(map[Direction]map[string]bool, 2)
	var inputs, outputs []ids.SocketID
	for _, s := range sockets {
		if _, err := ids.ParseSocketID(string(s.ID)); err != nil {
			return nil, err
		}
		if _, exists := g.sockets[s.ID]; exists {
			return nil, &DuplicateSocketError{SocketID: s.ID}
		}
		if _, exists := byID[s.ID]; exists {
			return nil, &DuplicateSocketError{SocketID: s.ID}
		}
		if s.NodeID == "" {
			s.NodeID = node.ID
		}
		if s.NodeID != node.ID {
			return nil, &InvalidSocketOwnerError{SocketID: s.ID, NodeID: node.ID, Owner: s.NodeID}
		}
		if !s.Direction.Valid() {
			return nil, &InvalidSocketDirectionError{SocketID: s.ID, Got: s.Direction}
		}
		if names[s.Direction] == nil {
			names[s.Direction] = make(map[string]bool)
		}
		if names[s.Direction][s.Name] {
			return nil, &DuplicateSocketError{SocketID: s.ID, Name: s.Name}
		}
		names[s.Direction][s.Name] = true
		byID[s.ID] = s.clone()
		if s.Direction == Input {
			inputs = append(inputs, s.ID)
		} else {
			outputs = append(outputs, s.ID)
		}
	}

	node = node.clone()
	if len(node.Inputs) == 0 && len(node.Outputs) == 0 {
		node.Inputs, node.Outputs = inputs, outputs
	} else if err := checkDeclared(node, byID); err != nil {
		return nil, err
	}

	next := g.clone()
	next.nodes[node.ID] = node
	maps.Copy(next.sockets, byID)
	return next, nil
}

func checkDeclared(node Node, byID map[ids.SocketID]Socket) error {
	seen := make(map[ids.SocketID]bool, len(byID))
	check := func(list []ids.SocketID, want Direction) error {
		for _, sid := range list {
			s, ok := byID[sid]
			if !ok {
				return &MissingSocketError{SocketID: sid}
			}
			if s.Direction != want {
				return &InvalidSocketDirectionError{SocketID: sid, Want: want, Got: s.Direction}
			}
			if seen[sid] {
				return &DuplicateSocketError{SocketID: sid}
			}
			seen[sid] = true
		}
		return nil
	}
	if err := check(node.Inputs, Input); err != nil {
		return err
	}
	if err := check(node.Outputs, Output); err != nil {
		return err
	}
	for _, sid := range ids.Sorted(byID) {
		if !seen[sid] {
			return &InvalidSocketOwnerError{SocketID: sid, NodeID: node.ID, Owner: node.ID}
		}
	}
	return nil
}

// RemoveNode returns a graph without the node, its sockets and every wire
// touching them. Frames drop their references to the removed entities.
func (g *Graph) RemoveNode(id ids.NodeID) (*Graph, error) {
	node, ok := g.nodes[id]
	if !ok {
		return nil, &MissingNodeError{NodeID: id}
	}

	next := g.clone()
	owned := make(map[ids.SocketID]bool, len(node.Inputs)+len(node.Outputs))
	for _, sid := range slices.Concat(node.Inputs, node.Outputs) {
		owned[sid] = true
	}
	for _, wid := range ids.Sorted(g.wires) {
		w := g.wires[wid]
		if owned[w.From] || owned[w.To] {
			next.detachWire(w)
		}
	}
	for sid := range owned {
		delete(next.sockets, sid)
		delete(next.conns, sid)
	}
	delete(next.nodes, id)
	delete(next.outgoing, id)
	delete(next.incoming, id)

	for fid, f := range g.frames {
		if !slices.Contains(f.Nodes, id) && !touchesAny(f, owned) {
			continue
		}
		f = f.clone()
		f.Nodes = slices.DeleteFunc(f.Nodes, func(n ids.NodeID) bool { return n == id })
		f.ExposedInputs = slices.DeleteFunc(f.ExposedInputs, func(s ids.SocketID) bool { return owned[s] })
		f.ExposedOutputs = slices.DeleteFunc(f.ExposedOutputs, func(s ids.SocketID) bool { return owned[s] })
		next.frames[fid] = f
	}
	return next, nil
}

func touchesAny(f Frame, sockets map[ids.SocketID]bool) bool {
	for _, s := range slices.Concat(f.ExposedInputs, f.ExposedOutputs) {
		if sockets[s] {
			return true
		}
	}
	return false
}

// AddWire returns a graph with w added.
//
// Checks run in order: unknown wire id reuse, unknown sockets, same-node
// endpoints, direction, duplicate socket pair, type compatibility under m,
// connection limits on both endpoints, and finally cycle creation. A nil m
// allows only identical types (and inputs typed [types.Any]).
func (g *Graph) AddWire(w Wire, m *types.Matrix) (*Graph, error) {
	if _, err := ids.ParseWireID(string(w.ID)); err != nil {
		return nil, err
	}
	if _, exists := g.wires[w.ID]; exists {
		return nil, &DuplicateEdgeError{WireID: w.ID}
	}
	from, ok := g.sockets[w.From]
	if !ok {
		return nil, &MissingSocketError{SocketID: w.From}
	}
	to, ok := g.sockets[w.To]
	if !ok {
		return nil, &MissingSocketError{SocketID: w.To}
	}
	if from.NodeID == to.NodeID {
		return nil, &SelfLoopError{WireID: w.ID, NodeID: from.NodeID}
	}
	if from.Direction != Output {
		return nil, &InvalidSocketDirectionError{SocketID: from.ID, Want: Output, Got: from.Direction}
	}
	if to.Direction != Input {
		return nil, &InvalidSocketDirectionError{SocketID: to.ID, Want: Input, Got: to.Direction}
	}
	for _, existing := range g.wires {
		if existing.From == w.From && existing.To == w.To {
			return nil, &DuplicateEdgeError{WireID: w.ID, Existing: existing.ID}
		}
	}
	if !m.Compatible(from.Type, to.Type) {
		return nil, &IncompatibleSocketTypesError{FromType: from.Type, ToType: to.Type}
	}
	if limit := from.Max(); limit != Unbounded && g.conns[from.ID]+1 > limit {
		return nil, &SocketConnectionLimitExceededError{SocketID: from.ID, Max: limit}
	}
	if limit := to.Max(); limit != Unbounded && g.conns[to.ID]+1 > limit {
		return nil, &SocketConnectionLimitExceededError{SocketID: to.ID, Max: limit}
	}
	if path := g.pathBetween(to.NodeID, from.NodeID); path != nil {
		return nil, &CycleDetectedError{Path: append([]ids.NodeID{from.NodeID}, path...)}
	}

	next := g.clone()
	next.attachWire(w, from.NodeID, to.NodeID)
	return next, nil
}

// Connect wires from into to under a freshly generated wire id.
func (g *Graph) Connect(from, to ids.SocketID, m *types.Matrix) (*Graph, ids.WireID, error) {
	id := ids.NewWireID()
	next, err := g.AddWire(Wire{ID: id, From: from, To: to}, m)
	if err != nil {
		return nil, "", err
	}
	return next, id, nil
}

// RemoveWire returns a graph without the wire.
func (g *Graph) RemoveWire(id ids.WireID) (*Graph, error) {
	w, ok := g.wires[id]
	if !ok {
		return nil, &MissingWireError{WireID: id}
	}
	next := g.clone()
	next.detachWire(w)
	return next, nil
}

// AddFrame returns a graph with f added. Member nodes and exposed sockets
// must exist and exposed sockets must have the matching direction.
func (g *Graph) AddFrame(f Frame) (*Graph, error) {
	if _, err := ids.ParseFrameID(string(f.ID)); err != nil {
		return nil, err
	}
	if _, exists := g.frames[f.ID]; exists {
		return nil, &DuplicateFrameError{FrameID: f.ID}
	}
	for _, n := range f.Nodes {
		if _, ok := g.nodes[n]; !ok {
			return nil, &MissingNodeError{NodeID: n}
		}
	}
	if err := g.checkExposed(f.ExposedInputs, Input); err != nil {
		return nil, err
	}
	if err := g.checkExposed(f.ExposedOutputs, Output); err != nil {
		return nil, err
	}
	next := g.clone()
	next.frames[f.ID] = f.clone()
	return next, nil
}

func (g *Graph) checkExposed(list []ids.SocketID, want Direction) error {
	for _, sid := range list {
		s, ok := g.sockets[sid]
		if !ok {
			return &MissingSocketError{SocketID: sid}
		}
		if s.Direction != want {
			return &InvalidSocketDirectionError{SocketID: sid, Want: want, Got: s.Direction}
		}
	}
	return nil
}

// RemoveFrame returns a graph without the frame. Member nodes are kept.
func (g *Graph) RemoveFrame(id ids.FrameID) (*Graph, error) {
	if _, ok := g.frames[id]; !ok {
		return nil, &MissingFrameError{FrameID: id}
	}
	next := g.clone()
	delete(next.frames, id)
	return next, nil
}

// SetFrameCollapsed returns a graph with the frame's collapse state changed.
func (g *Graph) SetFrameCollapsed(id ids.FrameID, collapsed bool) (*Graph, error) {
	f, ok := g.frames[id]
	if !ok {
		return nil, &MissingFrameError{FrameID: id}
	}
	next := g.clone()
	f = f.clone()
	f.Collapsed = collapsed
	next.frames[id] = f
	return next, nil
}

// SetNodeParams returns a graph whose node carries params instead of its
// previous parameters.
func (g *Graph) SetNodeParams(id ids.NodeID, params Params) (*Graph, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, &MissingNodeError{NodeID: id}
	}
	next := g.clone()
	n = n.clone()
	n.Params = params.Clone()
	next.nodes[id] = n
	return next, nil
}

// PatchNodeParams returns a graph whose node params have patch merged over
// them, key by key.
func (g *Graph) PatchNodeParams(id ids.NodeID, patch Params) (*Graph, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, &MissingNodeError{NodeID: id}
	}
	merged := n.Params.Clone()
	for k, v := range patch {
		merged[k] = CloneValue(v)
	}
	return g.SetNodeParams(id, merged)
}

// SetNodePosition returns a graph with the node moved.
func (g *Graph) SetNodePosition(id ids.NodeID, pos Position) (*Graph, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, &MissingNodeError{NodeID: id}
	}
	next := g.clone()
	n.Position = pos
	next.nodes[id] = n
	return next, nil
}

// attachWire records w on a graph produced by clone.
func (g *Graph) attachWire(w Wire, src, dst ids.NodeID) {
	g.wires[w.ID] = w
	g.conns[w.From]++
	g.conns[w.To]++
	g.outgoing[src] = bump(g.outgoing[src], dst, 1)
	g.incoming[dst] = bump(g.incoming[dst], src, 1)
}

// detachWire removes w from a graph produced by clone.
func (g *Graph) detachWire(w Wire) {
	src, dst := g.sockets[w.From].NodeID, g.sockets[w.To].NodeID
	delete(g.wires, w.ID)
	g.conns[w.From]--
	g.conns[w.To]--
	g.outgoing[src] = bump(g.outgoing[src], dst, -1)
	g.incoming[dst] = bump(g.incoming[dst], src, -1)
}

// bump returns a copy of counts with key adjusted by delta, dropping keys
// that reach zero. The input map is never written.
func bump(counts map[ids.NodeID]int, key ids.NodeID, delta int) map[ids.NodeID]int {
	out := maps.Clone(counts)
	if out == nil {
		out = make(map[ids.NodeID]int)
	}
	out[key] += delta
	if out[key] <= 0 {
		delete(out, key)
	}
	return out
}
