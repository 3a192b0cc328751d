package graph

import (
	"maps"
	"slices"

	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// Unbounded is the maximum connection count of a socket without a limit.
const Unbounded = -1

// Direction is the data-flow direction of a socket.
type Direction string

const (
	// Input sockets receive values from at most their maximum number of wires.
	Input Direction = "input"
	// Output sockets publish a node's computed values.
	Output Direction = "output"
)

// Valid reports whether d is Input or Output.
func (d Direction) Valid() bool { return d == Input || d == Output }

// Position is a 2D canvas location. It has no effect on evaluation.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Params holds a node's JSON-like parameter values: nil, bool, float64,
// string, []any and map[string]any.
type Params map[string]any

// Clone returns a deep copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a JSON-like value.
func CloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = CloneValue(e)
		}
		return out
	case Params:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = CloneValue(e)
		}
		return out
	}
	return v
}

// Node is a vertex of the graph. Its Type names the behaviour resolved at
// evaluation time and cannot change after the node is added.
type Node struct {
	ID       ids.NodeID
	Type     string
	Position Position
	Params   Params
	Inputs   []ids.SocketID // ordered input sockets
	Outputs  []ids.SocketID // ordered output sockets
}

func (n Node) clone() Node {
	n.Params = n.Params.Clone()
	n.Inputs = slices.Clone(n.Inputs)
	n.Outputs = slices.Clone(n.Outputs)
	return n
}

// Socket is a typed, directional port on a node.
//
// MinConnections and MaxConnections are optional; use [Socket.Min] and
// [Socket.Max] for the effective limits. Label and Meta are presentation
// data and ignored by every algorithm.
type Socket struct {
	ID             ids.SocketID
	NodeID         ids.NodeID
	Name           string
	Direction      Direction
	Type           types.TypeID
	Required       bool
	Default        any // nil means no default
	MinConnections *int
	MaxConnections *int
	Label          string
	Meta           map[string]any
}

// Min returns the effective minimum connection count (default 0).
func (s Socket) Min() int {
	if s.MinConnections != nil {
		return *s.MinConnections
	}
	return 0
}

// Max returns the effective maximum connection count: 1 for inputs and
// [Unbounded] for outputs unless set explicitly.
func (s Socket) Max() int {
	if s.MaxConnections != nil {
		return *s.MaxConnections
	}
	if s.Direction == Input {
		return 1
	}
	return Unbounded
}

// HasDefault reports whether the socket declares a default value.
func (s Socket) HasDefault() bool { return s.Default != nil }

func (s Socket) clone() Socket {
	s.Default = CloneValue(s.Default)
	s.Meta = maps.Clone(s.Meta)
	if s.MinConnections != nil {
		v := *s.MinConnections
		s.MinConnections = &v
	}
	if s.MaxConnections != nil {
		v := *s.MaxConnections
		s.MaxConnections = &v
	}
	return s
}

// Limit returns a pointer to n for use in MinConnections/MaxConnections.
func Limit(n int) *int { return &n }

// Wire is a directed edge from an output socket to an input socket.
type Wire struct {
	ID   ids.WireID
	From ids.SocketID
	To   ids.SocketID
}

// Frame is a visual grouping box. Only presentation collaborators read it;
// a collapsed frame's exposed sockets are what such a collaborator shows.
type Frame struct {
	ID             ids.FrameID
	Label          string
	Position       Position
	Width, Height  float64
	Collapsed      bool
	Nodes          []ids.NodeID
	ExposedInputs  []ids.SocketID
	ExposedOutputs []ids.SocketID
}

func (f Frame) clone() Frame {
	f.Nodes = slices.Clone(f.Nodes)
	f.ExposedInputs = slices.Clone(f.ExposedInputs)
	f.ExposedOutputs = slices.Clone(f.ExposedOutputs)
	return f
}

// NodeSet is an unordered set of node ids.
type NodeSet map[ids.NodeID]struct{}

// NewNodeSet returns a set holding nodes.
func NewNodeSet(nodes ...ids.NodeID) NodeSet {
	s := make(NodeSet, len(nodes))
	for _, n := range nodes {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s NodeSet) Has(id ids.NodeID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending id order.
func (s NodeSet) Sorted() []ids.NodeID { return ids.Sorted(s) }

// Equal reports whether s and o contain the same members.
func (s NodeSet) Equal(o NodeSet) bool {
	if len(s) != len(o) {
		return false
	}
	for id := range s {
		if !o.Has(id) {
			return false
		}
	}
	return true
}
