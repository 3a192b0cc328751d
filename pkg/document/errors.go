package document

import (
	"fmt"

	apperr "github.com/matzehuels/nodeflow/pkg/errors"
)

// ParseError reports a document that cannot be decoded or does not describe
// a valid graph. Err holds the underlying cause, which for structural
// problems is a graph.StructuralError.
type ParseError struct {
	Path   string // entity the problem was found at, e.g. "wires[w3]"; empty for the whole document
	Offset int64  // byte offset of a syntax error, 0 when unknown
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Path != "":
		return fmt.Sprintf("invalid document: %s: %v", e.Path, e.Err)
	case e.Offset > 0:
		return fmt.Sprintf("invalid document at byte %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("invalid document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrorCode implements apperr.Coded.
func (e *ParseError) ErrorCode() apperr.Code { return apperr.CodeInvalidDocument }
