package engine

import (
	"fmt"
	"strings"

	apperr "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// ExecutionError is implemented by every error attached to a node in an
// [ExecState]. The set of implementations is closed:
//
//	*NodeComputeFailedError, *UnknownNodeTypeError, *ConversionError,
//	*SubgraphSelfReferenceError, *SubgraphDepthExceededError,
//	*InvalidSubgraphError
//
// Only *NodeComputeFailedError is ever recorded directly; the others appear
// as its Cause.
type ExecutionError interface {
	apperr.Coded
	execution()
}

// NodeComputeFailedError records that a node produced no outputs.
type NodeComputeFailedError struct {
	NodeID   ids.NodeID
	NodeType string
	Cause    error
}

func (e *NodeComputeFailedError) Error() string {
	return fmt.Sprintf("node %q (%s) failed: %v", e.NodeID, e.NodeType, e.Cause)
}
func (e *NodeComputeFailedError) Unwrap() error          { return e.Cause }
func (e *NodeComputeFailedError) ErrorCode() apperr.Code { return apperr.CodeNodeComputeFailed }
func (*NodeComputeFailedError) execution()               {}

// UnknownNodeTypeError reports a node type the resolver does not know.
type UnknownNodeTypeError struct{ NodeType string }

func (e *UnknownNodeTypeError) Error() string {
	return fmt.Sprintf("no definition for node type %q", e.NodeType)
}
func (e *UnknownNodeTypeError) ErrorCode() apperr.Code { return apperr.CodeUnknownNodeType }
func (*UnknownNodeTypeError) execution()               {}

// ConversionError reports a wired value the compatibility matrix could not
// convert into the input socket's type.
type ConversionError struct {
	SocketID ids.SocketID
	From, To types.TypeID
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("input %q: convert %s to %s: %v", e.SocketID, e.From, e.To, e.Err)
}
func (e *ConversionError) Unwrap() error          { return e.Err }
func (e *ConversionError) ErrorCode() apperr.Code { return apperr.CodeConversionFailed }
func (*ConversionError) execution()               {}

// SubgraphSelfReferenceError reports an embedded graph whose id is already
// being evaluated further up the stack.
type SubgraphSelfReferenceError struct {
	GraphID ids.GraphID
	Stack   []ids.GraphID
}

func (e *SubgraphSelfReferenceError) Error() string {
	return fmt.Sprintf("subgraph %q references itself: %s", e.GraphID,
		strings.Join(append(ids.Strings(e.Stack), string(e.GraphID)), " -> "))
}
func (e *SubgraphSelfReferenceError) ErrorCode() apperr.Code {
	return apperr.CodeSubgraphSelfReference
}
func (*SubgraphSelfReferenceError) execution() {}

// SubgraphDepthExceededError reports an expansion nested deeper than the
// evaluator allows.
type SubgraphDepthExceededError struct {
	Depth int
	Max   int
}

func (e *SubgraphDepthExceededError) Error() string {
	return fmt.Sprintf("subgraph depth %d exceeds maximum of %d", e.Depth, e.Max)
}
func (e *SubgraphDepthExceededError) ErrorCode() apperr.Code {
	return apperr.CodeSubgraphDepthExceeded
}
func (*SubgraphDepthExceededError) execution() {}

// InvalidSubgraphError reports a subgraph node whose params do not describe
// an evaluable embedded graph.
type InvalidSubgraphError struct {
	Issue string
	Err   error
}

func (e *InvalidSubgraphError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid subgraph: %s: %v", e.Issue, e.Err)
	}
	return "invalid subgraph: " + e.Issue
}
func (e *InvalidSubgraphError) Unwrap() error          { return e.Err }
func (e *InvalidSubgraphError) ErrorCode() apperr.Code { return apperr.CodeInvalidSubgraph }
func (*InvalidSubgraphError) execution()               {}
