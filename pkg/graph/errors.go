package graph

import (
	"fmt"
	"strings"

	apperr "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// StructuralError is implemented by every error a graph mutation or
// validation returns. The set of implementations is closed:
//
//	*DuplicateNodeError, *DuplicateSocketError, *DuplicateFrameError,
//	*MissingNodeError, *MissingNodeTypeError, *MissingSocketError,
//	*MissingWireError, *MissingFrameError, *SelfLoopError, *DuplicateEdgeError,
//	*CycleDetectedError, *IncompatibleSocketTypesError,
//	*SocketConnectionLimitExceededError, *SocketConnectionBelowMinError,
//	*InvalidSocketDirectionError, *InvalidSocketOwnerError
type StructuralError interface {
	apperr.Coded
	structural()
}

// DuplicateNodeError reports a node id that is already present.
type DuplicateNodeError struct{ NodeID ids.NodeID }

func (e *DuplicateNodeError) Error() string   { return fmt.Sprintf("duplicate node %q", e.NodeID) }
func (e *DuplicateNodeError) ErrorCode() Code { return apperr.CodeDuplicateNode }
func (*DuplicateNodeError) structural()       {}

// DuplicateSocketError reports a socket id already present in the graph, or
// two sockets of one node sharing a name and direction.
type DuplicateSocketError struct {
	SocketID ids.SocketID
	Name     string
}

func (e *DuplicateSocketError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("duplicate socket name %q (socket %q)", e.Name, e.SocketID)
	}
	return fmt.Sprintf("duplicate socket %q", e.SocketID)
}
func (e *DuplicateSocketError) ErrorCode() Code { return apperr.CodeDuplicateSocket }
func (*DuplicateSocketError) structural()       {}

// DuplicateFrameError reports a frame id that is already present.
type DuplicateFrameError struct{ FrameID ids.FrameID }

func (e *DuplicateFrameError) Error() string   { return fmt.Sprintf("duplicate frame %q", e.FrameID) }
func (e *DuplicateFrameError) ErrorCode() Code { return apperr.CodeDuplicateFrame }
func (*DuplicateFrameError) structural()       {}

// MissingNodeError reports a reference to a node that does not exist.
type MissingNodeError struct{ NodeID ids.NodeID }

func (e *MissingNodeError) Error() string   { return fmt.Sprintf("node %q not found", e.NodeID) }
func (e *MissingNodeError) ErrorCode() Code { return apperr.CodeMissingNode }
func (*MissingNodeError) structural()       {}

// MissingNodeTypeError reports a node added without a type tag.
type MissingNodeTypeError struct{ NodeID ids.NodeID }

func (e *MissingNodeTypeError) Error() string   { return fmt.Sprintf("node %q has no type", e.NodeID) }
func (e *MissingNodeTypeError) ErrorCode() Code { return apperr.CodeMissingNodeType }
func (*MissingNodeTypeError) structural()       {}

// MissingSocketError reports a reference to a socket that does not exist.
type MissingSocketError struct{ SocketID ids.SocketID }

func (e *MissingSocketError) Error() string   { return fmt.Sprintf("socket %q not found", e.SocketID) }
func (e *MissingSocketError) ErrorCode() Code { return apperr.CodeMissingSocket }
func (*MissingSocketError) structural()       {}

// MissingWireError reports a reference to a wire that does not exist.
type MissingWireError struct{ WireID ids.WireID }

func (e *MissingWireError) Error() string   { return fmt.Sprintf("wire %q not found", e.WireID) }
func (e *MissingWireError) ErrorCode() Code { return apperr.CodeMissingWire }
func (*MissingWireError) structural()       {}

// MissingFrameError reports a reference to a frame that does not exist.
type MissingFrameError struct{ FrameID ids.FrameID }

func (e *MissingFrameError) Error() string   { return fmt.Sprintf("frame %q not found", e.FrameID) }
func (e *MissingFrameError) ErrorCode() Code { return apperr.CodeMissingFrame }
func (*MissingFrameError) structural()       {}

// SelfLoopError reports a wire whose endpoints belong to the same node.
type SelfLoopError struct {
	WireID ids.WireID
	NodeID ids.NodeID
}

func (e *SelfLoopError) Error() string {
	return fmt.Sprintf("wire %q connects node %q to itself", e.WireID, e.NodeID)
}
func (e *SelfLoopError) ErrorCode() Code { return apperr.CodeSelfLoop }
func (*SelfLoopError) structural()       {}

// DuplicateEdgeError reports a wire id already in use, or a second wire
// between the same pair of sockets.
type DuplicateEdgeError struct {
	WireID   ids.WireID
	Existing ids.WireID // set when an identical socket pair is already wired
}

func (e *DuplicateEdgeError) Error() string {
	if e.Existing != "" {
		return fmt.Sprintf("wire %q duplicates existing wire %q", e.WireID, e.Existing)
	}
	return fmt.Sprintf("duplicate wire %q", e.WireID)
}
func (e *DuplicateEdgeError) ErrorCode() Code { return apperr.CodeDuplicateEdge }
func (*DuplicateEdgeError) structural()       {}

// CycleDetectedError reports a wire that would close a directed cycle.
// Path starts and ends at the same node.
type CycleDetectedError struct {
	Path []ids.NodeID
}

func (e *CycleDetectedError) Error() string {
	return "cycle detected: " + strings.Join(ids.Strings(e.Path), " -> ")
}
func (e *CycleDetectedError) ErrorCode() Code { return apperr.CodeCycleDetected }
func (*CycleDetectedError) structural()       {}

// IncompatibleSocketTypesError reports a wire between types the
// compatibility matrix does not relate.
type IncompatibleSocketTypesError struct {
	FromType types.TypeID
	ToType   types.TypeID
}

func (e *IncompatibleSocketTypesError) Error() string {
	return fmt.Sprintf("incompatible socket types: %s -> %s", e.FromType, e.ToType)
}
func (e *IncompatibleSocketTypesError) ErrorCode() Code { return apperr.CodeIncompatibleTypes }
func (*IncompatibleSocketTypesError) structural()       {}

// SocketConnectionLimitExceededError reports a socket that would exceed its
// maximum connection count.
type SocketConnectionLimitExceededError struct {
	SocketID ids.SocketID
	Max      int
}

func (e *SocketConnectionLimitExceededError) Error() string {
	return fmt.Sprintf("socket %q already has its maximum of %d connection(s)", e.SocketID, e.Max)
}
func (e *SocketConnectionLimitExceededError) ErrorCode() Code { return apperr.CodeConnectionLimit }
func (*SocketConnectionLimitExceededError) structural()       {}

// SocketConnectionBelowMinError reports a socket with fewer connections than
// its declared minimum. Only whole-graph validation returns it.
type SocketConnectionBelowMinError struct {
	SocketID ids.SocketID
	Min      int
	Count    int
}

func (e *SocketConnectionBelowMinError) Error() string {
	return fmt.Sprintf("socket %q has %d connection(s), needs at least %d", e.SocketID, e.Count, e.Min)
}
func (e *SocketConnectionBelowMinError) ErrorCode() Code { return apperr.CodeConnectionBelowMin }
func (*SocketConnectionBelowMinError) structural()       {}

// InvalidSocketDirectionError reports a socket used in a role that its
// direction does not permit. Want is empty when Got is not a direction at
// all.
type InvalidSocketDirectionError struct {
	SocketID ids.SocketID
	Want     Direction
	Got      Direction
}

func (e *InvalidSocketDirectionError) Error() string {
	if e.Want == "" {
		return fmt.Sprintf("socket %q has unknown direction %q", e.SocketID, e.Got)
	}
	return fmt.Sprintf("socket %q is %s, want %s", e.SocketID, e.Got, e.Want)
}
func (e *InvalidSocketDirectionError) ErrorCode() Code { return apperr.CodeInvalidSocketDirection }
func (*InvalidSocketDirectionError) structural()       {}

// InvalidSocketOwnerError reports a socket declared for a different node
// than the one being added.
type InvalidSocketOwnerError struct {
	SocketID ids.SocketID
	NodeID   ids.NodeID
	Owner    ids.NodeID
}

func (e *InvalidSocketOwnerError) Error() string {
	return fmt.Sprintf("socket %q belongs to node %q, not %q", e.SocketID, e.Owner, e.NodeID)
}
func (e *InvalidSocketOwnerError) ErrorCode() Code { return apperr.CodeInvalidSocketOwner }
func (*InvalidSocketOwnerError) structural()       {}

// Code aliases the shared error code type for brevity in this package.
type Code = apperr.Code
