// Package errors provides the machine-readable error codes shared by every
// nodeflow package.
//
// Each failure the engine can report is a typed value owned by the package that
// produces it (graph.CycleDetectedError, plugin.DuplicatePluginError, ...).
// Those types implement [Coded], which lets hosts branch on a stable [Code]
// without importing every package that might have produced the error.
//
// # Error Codes
//
// Codes are grouped by the component that returns them:
//   - Structural: returned by graph mutations and whole-graph validation
//   - Execution: attached to nodes in an engine.ExecState, never returned
//   - Registry: returned by plugin registration and removal
//   - Document: returned at the JSON document boundary
//   - Host: returned by configuration loading and the CLI
//
// # Usage
//
//	g2, err := g.AddWire(w, matrix)
//	if errors.Is(err, errors.CodeCycleDetected) {
//	    // reject the edit in the editor
//	}
//
//	// Wrap host-side failures
//	err := errors.Wrap(errors.CodeInternal, origErr, "load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Structural errors
	CodeDuplicateNode          Code = "DUPLICATE_NODE"
	CodeDuplicateSocket        Code = "DUPLICATE_SOCKET"
	CodeDuplicateFrame         Code = "DUPLICATE_FRAME"
	CodeMissingNode            Code = "MISSING_NODE"
	CodeMissingNodeType        Code = "MISSING_NODE_TYPE"
	CodeMissingSocket          Code = "MISSING_SOCKET"
	CodeMissingWire            Code = "MISSING_WIRE"
	CodeMissingFrame           Code = "MISSING_FRAME"
	CodeSelfLoop               Code = "SELF_LOOP"
	CodeDuplicateEdge          Code = "DUPLICATE_EDGE"
	CodeCycleDetected          Code = "CYCLE_DETECTED"
	CodeIncompatibleTypes      Code = "INCOMPATIBLE_SOCKET_TYPES"
	CodeConnectionLimit        Code = "SOCKET_CONNECTION_LIMIT_EXCEEDED"
	CodeConnectionBelowMin     Code = "SOCKET_CONNECTION_BELOW_MIN"
	CodeInvalidSocketDirection Code = "INVALID_SOCKET_DIRECTION"
	CodeInvalidSocketOwner     Code = "INVALID_SOCKET_OWNER"

	// Execution errors
	CodeNodeComputeFailed     Code = "NODE_COMPUTE_FAILED"
	CodeUnknownNodeType       Code = "UNKNOWN_NODE_TYPE"
	CodeConversionFailed      Code = "CONVERSION_FAILED"
	CodeSubgraphSelfReference Code = "SUBGRAPH_SELF_REFERENCE"
	CodeSubgraphDepthExceeded Code = "SUBGRAPH_DEPTH_EXCEEDED"
	CodeInvalidSubgraph       Code = "INVALID_SUBGRAPH"

	// Registry errors
	CodeDuplicatePlugin         Code = "DUPLICATE_PLUGIN"
	CodeUnknownPlugin           Code = "UNKNOWN_PLUGIN"
	CodeDuplicateNodeDefinition Code = "DUPLICATE_NODE_DEFINITION"
	CodeInvalidNodeDefinition   Code = "INVALID_NODE_DEFINITION"
	CodeDuplicateSocketType     Code = "DUPLICATE_SOCKET_TYPE"
	CodeDuplicateParamSchema    Code = "DUPLICATE_PARAM_SCHEMA"
	CodePluginInitFailed        Code = "PLUGIN_INIT_FAILED"
	CodePluginDestroyFailed     Code = "PLUGIN_DESTROY_FAILED"
	CodePluginOwnership         Code = "PLUGIN_OWNERSHIP_MISMATCH"
	CodeInvalidParam            Code = "INVALID_PARAM"

	// Document and identifier errors
	CodeInvalidID       Code = "INVALID_ID"
	CodeInvalidDocument Code = "INVALID_DOCUMENT"

	// Host errors
	CodeInvalidConfig Code = "INVALID_CONFIG"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeUnsupported   Code = "UNSUPPORTED"
)

// Coded is implemented by every typed error in nodeflow.
type Coded interface {
	error
	ErrorCode() Code
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorCode implements [Coded].
func (e *Error) ErrorCode() Code {
	return e.Code
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// Only the outermost [Coded] error in the chain is consulted, so a
// NODE_COMPUTE_FAILED wrapping a CYCLE_DETECTED reports the former.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain implements [Coded].
func GetCode(err error) Code {
	var c Coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
