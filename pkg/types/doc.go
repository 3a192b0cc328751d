// Package types defines socket data-type identifiers and the compatibility
// matrix deciding which output types may be wired into which input types.
//
// A [Matrix] is always passed explicitly to the operations that need it
// (graph.AddWire, graph.Validate, engine evaluation). There is no process-wide
// active matrix, so tests and concurrent hosts never share hidden state.
//
// Compatibility is reflexive: every type is compatible with itself, and the
// [Any] input type accepts every output type. Further pairs are declared with
// [Matrix.Allow], optionally with a conversion applied to values flowing over
// the wire.
package types
