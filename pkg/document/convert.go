package document

import (
	"fmt"

	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// ToGraph builds the graph a document describes, checking wires against m.
//
// Nodes, wires and frames are added in id order through the graph mutation
// API. The first failure is returned as a *ParseError naming the offending
// entity and wrapping the structural error.
func ToGraph(d *Document, m *types.Matrix) (*graph.Graph, error) {
	if err := checkHeader(d); err != nil {
		return nil, err
	}
	d = Normalize(d)

	byNode := make(map[ids.NodeID][]graph.Socket, len(d.Nodes))
	for _, s := range d.Sockets {
		byNode[s.NodeID] = append(byNode[s.NodeID], graph.Socket{
			ID:             s.ID,
			NodeID:         s.NodeID,
			Name:           s.Name,
			Direction:      s.Direction,
			Type:           s.Type,
			Required:       s.Required,
			Default:        s.Default,
			MinConnections: s.MinConnections,
			MaxConnections: s.MaxConnections,
			Label:          s.Label,
			Meta:           s.Meta,
		})
	}

	g := graph.New(d.GraphID)
	var err error
	for _, n := range d.Nodes {
		g, err = g.AddNode(graph.Node{
			ID:       n.ID,
			Type:     n.Type,
			Position: n.Position,
			Params:   n.Params,
			Inputs:   n.Inputs,
			Outputs:  n.Outputs,
		}, byNode[n.ID])
		if err != nil {
			return nil, &ParseError{Path: fmt.Sprintf("nodes[%s]", n.ID), Err: err}
		}
		delete(byNode, n.ID)
	}
	if len(byNode) > 0 {
		nid := ids.Sorted(byNode)[0]
		return nil, &ParseError{
			Path: fmt.Sprintf("sockets[%s]", byNode[nid][0].ID),
			Err:  &graph.MissingNodeError{NodeID: nid},
		}
	}

	for _, w := range d.Wires {
		g, err = g.AddWire(graph.Wire{ID: w.ID, From: w.From, To: w.To}, m)
		if err != nil {
			return nil, &ParseError{Path: fmt.Sprintf("wires[%s]", w.ID), Err: err}
		}
	}
	for _, f := range d.Frames {
		g, err = g.AddFrame(graph.Frame{
			ID:             f.ID,
			Label:          f.Label,
			Position:       f.Position,
			Width:          f.Width,
			Height:         f.Height,
			Collapsed:      f.Collapsed,
			Nodes:          f.Nodes,
			ExposedInputs:  f.ExposedInputs,
			ExposedOutputs: f.ExposedOutputs,
		})
		if err != nil {
			return nil, &ParseError{Path: fmt.Sprintf("frames[%s]", f.ID), Err: err}
		}
	}
	return g, nil
}

// FromGraph returns the normalized document describing g. Metadata is left
// empty for the caller to fill in.
func FromGraph(g *graph.Graph) *Document {
	d := &Document{SchemaVersion: SchemaVersion, GraphID: g.ID()}
	for _, n := range g.Nodes() {
		d.Nodes = append(d.Nodes, Node{
			ID:       n.ID,
			Type:     n.Type,
			Position: n.Position,
			Params:   n.Params,
			Inputs:   n.Inputs,
			Outputs:  n.Outputs,
		})
	}
	for _, s := range g.Sockets() {
		d.Sockets = append(d.Sockets, Socket{
			ID:             s.ID,
			NodeID:         s.NodeID,
			Name:           s.Name,
			Direction:      s.Direction,
			Type:           s.Type,
			Required:       s.Required,
			Default:        s.Default,
			MinConnections: s.MinConnections,
			MaxConnections: s.MaxConnections,
			Label:          s.Label,
			Meta:           s.Meta,
		})
	}
	for _, w := range g.Wires() {
		d.Wires = append(d.Wires, Wire{ID: w.ID, From: w.From, To: w.To})
	}
	for _, f := range g.Frames() {
		d.Frames = append(d.Frames, Frame{
			ID:             f.ID,
			Label:          f.Label,
			Position:       f.Position,
			Width:          f.Width,
			Height:         f.Height,
			Collapsed:      f.Collapsed,
			Nodes:          f.Nodes,
			ExposedInputs:  f.ExposedInputs,
			ExposedOutputs: f.ExposedOutputs,
		})
	}
	return Normalize(d)
}
