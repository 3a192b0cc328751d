package graph

import (
	"errors"

	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// Validate checks g as a whole against every structural invariant, including
// minimum connection counts that single mutations cannot enforce. It returns
// nil or an errors.Join of [StructuralError] values in a deterministic order:
// socket errors by socket id, then wire errors by wire id, then cycles.
//
// Graphs built through the mutation methods only ever fail the minimum
// count check; the remaining checks guard graphs assembled elsewhere.
func (g *Graph) Validate(m *types.Matrix) error {
	var errs []error

	for _, sid := range ids.Sorted(g.sockets) {
		s := g.sockets[sid]
		if _, ok := g.nodes[s.NodeID]; !ok {
			errs = append(errs, &MissingNodeError{NodeID: s.NodeID})
			continue
		}
		count := g.conns[sid]
		if limit := s.Max(); limit != Unbounded && count > limit {
			errs = append(errs, &SocketConnectionLimitExceededError{SocketID: sid, Max: limit})
		}
		if least := s.Min(); count < least {
			errs = append(errs, &SocketConnectionBelowMinError{SocketID: sid, Min: least, Count: count})
		}
	}

	for _, wid := range ids.Sorted(g.wires) {
		w := g.wires[wid]
		from, okFrom := g.sockets[w.From]
		to, okTo := g.sockets[w.To]
		switch {
		case !okFrom:
			errs = append(errs, &MissingSocketError{SocketID: w.From})
		case !okTo:
			errs = append(errs, &MissingSocketError{SocketID: w.To})
		case from.NodeID == to.NodeID:
			errs = append(errs, &SelfLoopError{WireID: wid, NodeID: from.NodeID})
		case from.Direction != Output:
			errs = append(errs, &InvalidSocketDirectionError{SocketID: from.ID, Want: Output, Got: from.Direction})
		case to.Direction != Input:
			errs = append(errs, &InvalidSocketDirectionError{SocketID: to.ID, Want: Input, Got: to.Direction})
		case !m.Compatible(from.Type, to.Type):
			errs = append(errs, &IncompatibleSocketTypesError{FromType: from.Type, ToType: to.Type})
		}
	}

	if path := DetectCycle(g); path != nil {
		errs = append(errs, &CycleDetectedError{Path: path})
	}
	return errors.Join(errs...)
}
