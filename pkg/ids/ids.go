package ids

import (
	"cmp"
	"slices"

	"github.com/google/uuid"

	apperr "github.com/matzehuels/nodeflow/pkg/errors"
)

// NodeID identifies a node within a graph.
type NodeID string

// SocketID identifies a socket. Socket ids are unique within a graph, not
// merely within their owning node.
type SocketID string

// WireID identifies a wire within a graph.
type WireID string

// FrameID identifies a visual frame within a graph.
type FrameID string

// GraphID identifies a graph document. Subgraph evaluation compares graph ids
// to detect self-reference.
type GraphID string

// ID is the constraint satisfied by every identifier type.
type ID interface {
	~string
}

// ParseNodeID validates s and returns it as a NodeID.
func ParseNodeID(s string) (NodeID, error) {
	if err := apperr.ValidateIdentifier("node", s); err != nil {
		return "", err
	}
	return NodeID(s), nil
}

// ParseSocketID validates s and returns it as a SocketID.
func ParseSocketID(s string) (SocketID, error) {
	if err := apperr.ValidateIdentifier("socket", s); err != nil {
		return "", err
	}
	return SocketID(s), nil
}

// ParseWireID validates s and returns it as a WireID.
func ParseWireID(s string) (WireID, error) {
	if err := apperr.ValidateIdentifier("wire", s); err != nil {
		return "", err
	}
	return WireID(s), nil
}

// ParseFrameID validates s and returns it as a FrameID.
func ParseFrameID(s string) (FrameID, error) {
	if err := apperr.ValidateIdentifier("frame", s); err != nil {
		return "", err
	}
	return FrameID(s), nil
}

// ParseGraphID validates s and returns it as a GraphID.
func ParseGraphID(s string) (GraphID, error) {
	if err := apperr.ValidateIdentifier("graph", s); err != nil {
		return "", err
	}
	return GraphID(s), nil
}

// NewNodeID returns a fresh random NodeID.
func NewNodeID() NodeID { return NodeID(uuid.NewString()) }

// NewSocketID returns a fresh random SocketID.
func NewSocketID() SocketID { return SocketID(uuid.NewString()) }

// NewWireID returns a fresh random WireID.
func NewWireID() WireID { return WireID(uuid.NewString()) }

// NewFrameID returns a fresh random FrameID.
func NewFrameID() FrameID { return FrameID(uuid.NewString()) }

// NewGraphID returns a fresh random GraphID.
func NewGraphID() GraphID { return GraphID(uuid.NewString()) }

// Valid reports whether id would be accepted by its category's parser.
func Valid[T ID](id T) bool {
	return apperr.ValidateIdentifier("entity", string(id)) == nil
}

// Sorted returns the keys of set in ascending order.
func Sorted[T ID, V any](set map[T]V) []T {
	out := make([]T, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.SortFunc(out, cmp.Compare[T])
	return out
}

// Strings converts a slice of identifiers to plain strings.
func Strings[T ID](in []T) []string {
	out := make([]string, len(in))
	for i, id := range in {
		out[i] = string(id)
	}
	return out
}
