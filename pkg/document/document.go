package document

import (
	"cmp"
	"encoding/json"
	"slices"

	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// SchemaVersion is the only document version this package reads and writes.
const SchemaVersion = "1"

// Document is the serialized form of a graph.
type Document struct {
	SchemaVersion string         `json:"schemaVersion"`
	GraphID       ids.GraphID    `json:"graphId"`
	Nodes         []Node         `json:"nodes"`
	Sockets       []Socket       `json:"sockets"`
	Wires         []Wire         `json:"wires"`
	Frames        []Frame        `json:"frames,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Node is the serialized form of a graph node.
type Node struct {
	ID       ids.NodeID     `json:"id"`
	Type     string         `json:"type"`
	Position graph.Position `json:"position"`
	Params   map[string]any `json:"params,omitempty"`
	Inputs   []ids.SocketID `json:"inputs,omitempty"`
	Outputs  []ids.SocketID `json:"outputs,omitempty"`
}

// Socket is the serialized form of a graph socket.
type Socket struct {
	ID             ids.SocketID    `json:"id"`
	NodeID         ids.NodeID      `json:"nodeId"`
	Name           string          `json:"name"`
	Direction      graph.Direction `json:"direction"`
	Type           types.TypeID    `json:"type"`
	Required       bool            `json:"required,omitempty"`
	Default        any             `json:"default,omitempty"`
	MinConnections *int            `json:"minConnections,omitempty"`
	MaxConnections *int            `json:"maxConnections,omitempty"`
	Label          string          `json:"label,omitempty"`
	Meta           map[string]any  `json:"meta,omitempty"`
}

// Wire is the serialized form of a graph wire.
type Wire struct {
	ID   ids.WireID   `json:"id"`
	From ids.SocketID `json:"fromSocketId"`
	To   ids.SocketID `json:"toSocketId"`
}

// Frame is the serialized form of a visual frame.
type Frame struct {
	ID             ids.FrameID    `json:"id"`
	Label          string         `json:"label,omitempty"`
	Position       graph.Position `json:"position"`
	Width          float64        `json:"width,omitempty"`
	Height         float64        `json:"height,omitempty"`
	Collapsed      bool           `json:"collapsed,omitempty"`
	Nodes          []ids.NodeID   `json:"nodes,omitempty"`
	ExposedInputs  []ids.SocketID `json:"exposedInputs,omitempty"`
	ExposedOutputs []ids.SocketID `json:"exposedOutputs,omitempty"`
}

// Normalize returns the canonical form of d. The input is not modified.
//
// Entities are sorted by id, frame membership lists are sorted, empty
// optional collections become nil, and all free-form values are converted to
// their JSON representation. Socket order within a node is significant and
// is kept.
func Normalize(d *Document) *Document {
	out := &Document{
		SchemaVersion: d.SchemaVersion,
		GraphID:       d.GraphID,
		Nodes:         make([]Node, 0, len(d.Nodes)),
		Sockets:       make([]Socket, 0, len(d.Sockets)),
		Wires:         make([]Wire, 0, len(d.Wires)),
		Metadata:      canonicalMap(d.Metadata),
	}
	if out.SchemaVersion == "" {
		out.SchemaVersion = SchemaVersion
	}

	for _, n := range d.Nodes {
		n.Params = canonicalMap(n.Params)
		n.Inputs = nilIfEmpty(slices.Clone(n.Inputs))
		n.Outputs = nilIfEmpty(slices.Clone(n.Outputs))
		out.Nodes = append(out.Nodes, n)
	}
	slices.SortStableFunc(out.Nodes, func(a, b Node) int { return cmp.Compare(a.ID, b.ID) })

	for _, s := range d.Sockets {
		s.Default = canonicalValue(s.Default)
		s.Meta = canonicalMap(s.Meta)
		s.MinConnections = cloneInt(s.MinConnections)
		s.MaxConnections = cloneInt(s.MaxConnections)
		out.Sockets = append(out.Sockets, s)
	}
	slices.SortStableFunc(out.Sockets, func(a, b Socket) int { return cmp.Compare(a.ID, b.ID) })

	out.Wires = append(out.Wires, d.Wires...)
	slices.SortStableFunc(out.Wires, func(a, b Wire) int { return cmp.Compare(a.ID, b.ID) })

	for _, f := range d.Frames {
		f.Nodes = nilIfEmpty(slices.Sorted(slices.Values(f.Nodes)))
		f.ExposedInputs = nilIfEmpty(slices.Clone(f.ExposedInputs))
		f.ExposedOutputs = nilIfEmpty(slices.Clone(f.ExposedOutputs))
		out.Frames = append(out.Frames, f)
	}
	slices.SortStableFunc(out.Frames, func(a, b Frame) int { return cmp.Compare(a.ID, b.ID) })

	return out
}

// canonicalValue converts v into the value encoding/json would decode from
// its serialized form.
func canonicalValue(v any) any {
	switch x := v.(type) {
	case nil, bool, string, float64:
		return x
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case map[string]any:
		return canonicalMap(x)
	case graph.Params:
		return canonicalMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = canonicalValue(e)
		}
		return out
	}
	// Anything else (typed slices, structs, json.Number) takes the long way.
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func canonicalMap(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = canonicalValue(v)
	}
	return out
}

func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := *d
	out.Nodes = slices.Clone(d.Nodes)
	for i := range out.Nodes {
		out.Nodes[i].Params = cloneMap(out.Nodes[i].Params)
		out.Nodes[i].Inputs = slices.Clone(out.Nodes[i].Inputs)
		out.Nodes[i].Outputs = slices.Clone(out.Nodes[i].Outputs)
	}
	out.Sockets = slices.Clone(d.Sockets)
	for i := range out.Sockets {
		out.Sockets[i].Default = graph.CloneValue(out.Sockets[i].Default)
		out.Sockets[i].Meta = cloneMap(out.Sockets[i].Meta)
		out.Sockets[i].MinConnections = cloneInt(out.Sockets[i].MinConnections)
		out.Sockets[i].MaxConnections = cloneInt(out.Sockets[i].MaxConnections)
	}
	out.Wires = slices.Clone(d.Wires)
	out.Frames = slices.Clone(d.Frames)
	for i := range out.Frames {
		out.Frames[i].Nodes = slices.Clone(out.Frames[i].Nodes)
		out.Frames[i].ExposedInputs = slices.Clone(out.Frames[i].ExposedInputs)
		out.Frames[i].ExposedOutputs = slices.Clone(out.Frames[i].ExposedOutputs)
	}
	out.Metadata = cloneMap(d.Metadata)
	return &out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return graph.Params(m).Clone()
}
