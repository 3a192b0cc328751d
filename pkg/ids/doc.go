// Package ids defines the opaque identifiers used throughout nodeflow.
//
// Every entity category has its own string-backed type ([NodeID], [SocketID],
// [WireID], [FrameID], [GraphID]) so an identifier from one category cannot be
// passed where another is expected without an explicit conversion. Values are
// constructed through a validating parser per category:
//
//	id, err := ids.ParseNodeID("blur-1")
//
// or generated fresh for editor-created entities:
//
//	id := ids.NewNodeID()
//
// Generated identifiers are UUIDv4 strings. Parsed identifiers only need to be
// non-empty, at most 256 bytes and free of control characters; no other
// structure is imposed, so documents authored by hand keep readable ids.
//
// Identifiers order lexicographically by their string value. Graph algorithms
// rely on that ordering for deterministic traversal.
package ids
