// Package document implements the canonical JSON format for nodeflow graphs.
//
// # Overview
//
// A [Document] is the persisted form of a [graph.Graph]:
//
//	{
//	  "schemaVersion": "1",
//	  "graphId": "main",
//	  "nodes":   [{"id": "a", "type": "math/const", "position": {"x": 0, "y": 0}, ...}],
//	  "sockets": [{"id": "a.out", "nodeId": "a", "name": "out", "direction": "output", "type": "float"}],
//	  "wires":   [{"id": "w1", "fromSocketId": "a.out", "toSocketId": "b.in"}],
//	  "frames":  [...],
//	  "metadata": {...}
//	}
//
// frames and metadata are optional. Unknown fields are rejected.
//
// # Canonical Form
//
// [Normalize] sorts nodes, sockets, wires and frames by id and rewrites every
// parameter, default and metadata value into its JSON form (float64 numbers,
// []any arrays, map[string]any objects). [Marshal] always normalizes first
// and object keys are emitted in sorted order, so structurally identical
// documents serialize to identical bytes. Normalization is a fixed point and
// Parse(Marshal(d)) equals Normalize(d).
//
// [Hash] returns the SHA-256 of the canonical bytes for change detection and
// content-addressed storage.
//
// # Graph Boundary
//
// [ToGraph] and [FromGraph] are the only conversions between documents and
// graphs. ToGraph replays the document through the graph mutation API, so the
// result satisfies every structural invariant. Any failure, syntactic or
// structural, is reported as a *[ParseError] whose cause can be inspected
// with errors.As.
package document
