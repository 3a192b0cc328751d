// Package graph provides the immutable node/socket/wire graph behind a visual
// node editor, together with the graph algorithms the execution engine uses
// to schedule work.
//
// # Overview
//
// A [Graph] holds nodes, their typed input and output sockets, wires between
// sockets, and visual frames. Node-level adjacency (which node feeds which) is
// derived from wires and kept alongside them, so reachability queries never
// rescan the wire set.
//
// # Immutability
//
// A Graph is never modified in place. Every mutation returns a new Graph or a
// typed error, and the receiver is left untouched:
//
//	g := graph.New("main")
//	g, err := g.AddNode(graph.Node{ID: "a", Type: "math/const"}, sockets)
//	g, err = g.AddWire(graph.Wire{ID: "w1", From: "a.out", To: "b.in"}, matrix)
//
// A reader holding an older snapshot always sees a consistent view. Mutations
// copy the top-level maps they touch, which is cheap at editor scale (hundreds
// of nodes). Graph values are safe for concurrent reads; serializing writers
// is the caller's job.
//
// # Invariants
//
// Every mutation enforces:
//
//  1. A wire never connects a node to itself
//  2. A wire runs from an output socket to an input socket
//  3. Adding a wire never creates a directed cycle between nodes
//  4. A socket's connection count never exceeds its maximum
//  5. Removing a node removes every wire touching its sockets
//
// [Graph.Validate] re-checks all of them on a whole graph and additionally
// reports sockets below their declared minimum connection count, which cannot
// be enforced edit by edit.
//
// # Algorithms
//
// [DetectCycle], [TopoSort], [UpstreamClosure], [DownstreamClosure],
// [ConnectedComponents] and [ExecutionSubgraphByOutputSockets] are pure
// functions over a Graph. All of them visit nodes in ascending id order, so
// results are identical across runs for structurally identical graphs. The
// topological sort in particular always emits the smallest ready id next,
// which is what makes evaluation order and cache behaviour reproducible.
//
// # Errors
//
// Mutations return values implementing [StructuralError]. Use a type switch or
// errors.As to inspect them:
//
//	var cyc *graph.CycleDetectedError
//	if errors.As(err, &cyc) {
//	    highlight(cyc.Path)
//	}
package graph
