package engine

import (
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
)

// MarkDirty returns a successor of s with id and everything downstream of it
// marked dirty. Producers of id are never touched. Unknown ids are ignored.
func MarkDirty(g *graph.Graph, s *ExecState, id ids.NodeID) *ExecState {
	next := s.Clone()
	for n := range graph.DownstreamClosure(g, id) {
		next.dirty[n] = struct{}{}
	}
	return next
}

// MarkDirtyForParamChange is MarkDirty for a node whose params changed.
func MarkDirtyForParamChange(g *graph.Graph, s *ExecState, id ids.NodeID) *ExecState {
	return MarkDirty(g, s, id)
}

// MarkDirtyForWireChange dirties the consumer side of a wire that was added
// or removed. g may already be the graph without the wire; only the wire's
// input socket has to resolve. A *graph.MissingSocketError is returned when
// it does not.
func MarkDirtyForWireChange(g *graph.Graph, s *ExecState, w graph.Wire) (*ExecState, error) {
	sock, ok := g.Socket(w.To)
	if !ok {
		return nil, &graph.MissingSocketError{SocketID: w.To}
	}
	return MarkDirty(g, s, sock.NodeID), nil
}
