package engine

import (
	"maps"
	"slices"

	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/plugin"
)

// ExecState is the evaluation cache of one graph: the dirty node set, the
// outputs of every successfully computed node and the errors of every failed
// one.
//
// An ExecState is a snapshot. Nothing in this package modifies a state it was
// given; evaluation and the MarkDirty functions return a successor. A nil
// *ExecState is a valid empty state.
type ExecState struct {
	dirty   graph.NodeSet
	outputs map[ids.NodeID]plugin.Values
	errors  map[ids.NodeID][]*NodeComputeFailedError
	nested  map[ids.NodeID]*ExecState
}

// NewExecState returns an empty state.
func NewExecState() *ExecState {
	return &ExecState{
		dirty:   make(graph.NodeSet),
		outputs: make(map[ids.NodeID]plugin.Values),
		errors:  make(map[ids.NodeID][]*NodeComputeFailedError),
		nested:  make(map[ids.NodeID]*ExecState),
	}
}

// Clone returns a copy of s that can be modified without affecting s.
// Cached output values are shared and must be treated as read-only.
func (s *ExecState) Clone() *ExecState {
	if s == nil {
		return NewExecState()
	}
	c := &ExecState{
		dirty:   maps.Clone(s.dirty),
		outputs: maps.Clone(s.outputs),
		errors:  maps.Clone(s.errors),
		nested:  maps.Clone(s.nested),
	}
	if c.dirty == nil {
		c.dirty = make(graph.NodeSet)
	}
	if c.outputs == nil {
		c.outputs = make(map[ids.NodeID]plugin.Values)
	}
	if c.errors == nil {
		c.errors = make(map[ids.NodeID][]*NodeComputeFailedError)
	}
	if c.nested == nil {
		c.nested = make(map[ids.NodeID]*ExecState)
	}
	return c
}

// IsDirty reports whether the node is marked for recomputation.
func (s *ExecState) IsDirty(id ids.NodeID) bool {
	return s != nil && s.dirty.Has(id)
}

// Dirty returns the dirty nodes in ascending order.
func (s *ExecState) Dirty() []ids.NodeID {
	if s == nil {
		return nil
	}
	return s.dirty.Sorted()
}

// Cached reports whether the node has cached outputs.
func (s *ExecState) Cached(id ids.NodeID) bool {
	if s == nil {
		return false
	}
	_, ok := s.outputs[id]
	return ok
}

// Output returns the cached value of a node's output socket.
func (s *ExecState) Output(id ids.NodeID, name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	out, ok := s.outputs[id]
	if !ok {
		return nil, false
	}
	v, ok := out[name]
	return v, ok
}

// Outputs returns a copy of every cached output of a node.
func (s *ExecState) Outputs(id ids.NodeID) (plugin.Values, bool) {
	if s == nil {
		return nil, false
	}
	out, ok := s.outputs[id]
	return maps.Clone(out), ok
}

// Errors returns the errors recorded against a node by its last evaluation.
func (s *ExecState) Errors(id ids.NodeID) []*NodeComputeFailedError {
	if s == nil {
		return nil
	}
	return slices.Clone(s.errors[id])
}

// Failed returns every node with recorded errors, in ascending order.
func (s *ExecState) Failed() []ids.NodeID {
	if s == nil {
		return nil
	}
	return ids.Sorted(s.errors)
}

// Nested returns the state of the most recent expansion of a subgraph node.
func (s *ExecState) Nested(id ids.NodeID) (*ExecState, bool) {
	if s == nil {
		return nil, false
	}
	n, ok := s.nested[id]
	return n, ok
}

// Subgraphs returns every node with a nested state, in ascending order.
func (s *ExecState) Subgraphs() []ids.NodeID {
	if s == nil {
		return nil
	}
	return ids.Sorted(s.nested)
}

// Prune returns a copy of s without entries for nodes missing from g.
func (s *ExecState) Prune(g *graph.Graph) *ExecState {
	c := s.Clone()
	maps.DeleteFunc(c.dirty, func(id ids.NodeID, _ struct{}) bool { return !g.HasNode(id) })
	maps.DeleteFunc(c.outputs, func(id ids.NodeID, _ plugin.Values) bool { return !g.HasNode(id) })
	maps.DeleteFunc(c.errors, func(id ids.NodeID, _ []*NodeComputeFailedError) bool { return !g.HasNode(id) })
	maps.DeleteFunc(c.nested, func(id ids.NodeID, _ *ExecState) bool { return !g.HasNode(id) })
	return c
}

func (s *ExecState) store(id ids.NodeID, out plugin.Values) {
	s.outputs[id] = out
	delete(s.errors, id)
	delete(s.dirty, id)
}

func (s *ExecState) fail(err *NodeComputeFailedError) {
	delete(s.outputs, err.NodeID)
	delete(s.nested, err.NodeID)
	s.errors[err.NodeID] = []*NodeComputeFailedError{err}
	s.dirty[err.NodeID] = struct{}{}
}

func (s *ExecState) skip(id ids.NodeID) {
	delete(s.outputs, id)
	delete(s.errors, id)
	delete(s.nested, id)
	s.dirty[id] = struct{}{}
}
