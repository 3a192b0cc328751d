// Package pipeline runs the host-side evaluation pipeline for nodeflow.
//
// The pipeline takes a graph document through three stages:
//
//  1. Build: convert the document into a validated graph
//  2. Evaluate: compute the requested output sockets, consulting the result cache
//  3. Render: optionally export the evaluated graph as DOT or SVG
//
// The CLI and any other host share this code so caching behaves the same
// everywhere.
//
// # Usage
//
//	runner := pipeline.NewRunner(registry, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Document: doc,
//	    Targets:  []ids.SocketID{"sum.out"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Values["sum.out"])
//
// Results come back from the cache as decoded JSON, so a cached int arrives
// as float64. A result is only cached when no node failed.
package pipeline

import (
	"fmt"
	"time"

	"github.com/matzehuels/nodeflow/pkg/document"
	"github.com/matzehuels/nodeflow/pkg/engine"
	apperr "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
)

// Output formats for the render stage.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return apperr.New(apperr.CodeUnsupported, "invalid format: %q (must be one of: dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options configures one pipeline run.
type Options struct {
	Document *document.Document

	// Targets lists the output sockets to evaluate. Empty means every output
	// socket of every sink node (see DefaultTargets).
	Targets []ids.SocketID

	Refresh bool          // ignore cached results (a fresh result is still stored)
	TTL     time.Duration // result lifetime; zero means cache.TTLResult

	Formats  []string // render formats; empty skips the render stage
	Detailed bool     // include params in rendered node labels

	Hooks *engine.Hooks // per-node progress; not called on a cache hit
}

// Validate checks required fields.
func (o *Options) Validate() error {
	if o.Document == nil {
		return apperr.New(apperr.CodeInvalidDocument, "no document")
	}
	if o.TTL < 0 {
		return fmt.Errorf("negative ttl %s", o.TTL)
	}
	return ValidateFormats(o.Formats)
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Graph        *graph.Graph
	DocumentHash string
	Targets      []ids.SocketID

	// Values holds every target's value; nil where it failed.
	Values map[ids.SocketID]any

	// Failures lists every failed node, including nodes inside subgraphs.
	Failures []Failure

	// State is the engine state after evaluation; nil on a cache hit.
	State *engine.ExecState

	// Eval is the engine's statistics; zero on a cache hit.
	Eval engine.Stats

	// Artifacts holds rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats    Stats
	CacheHit bool
}

// Stats contains pipeline timing and size information.
type Stats struct {
	NodeCount    int
	WireCount    int
	BuildTime    time.Duration
	EvaluateTime time.Duration
	RenderTime   time.Duration
}

// Failure describes one failed node.
type Failure struct {
	// Path is the chain of subgraph nodes leading to the failed node,
	// which is last.
	Path     []ids.NodeID `json:"path"`
	NodeType string       `json:"nodeType"`
	Code     apperr.Code  `json:"code"`
	Message  string       `json:"message"`
}

// NodeID returns the failed node's own id.
func (f Failure) NodeID() ids.NodeID { return f.Path[len(f.Path)-1] }

// DefaultTargets returns every output socket of every node without
// consumers, in node order then declared order.
func DefaultTargets(g *graph.Graph) []ids.SocketID {
	var out []ids.SocketID
	for _, n := range g.Nodes() {
		if g.OutDegree(n.ID) == 0 {
			out = append(out, n.Outputs...)
		}
	}
	return out
}

// Failures flattens the errors recorded in st and its nested states.
func Failures(st *engine.ExecState) []Failure {
	var out []Failure
	collectFailures(st, nil, &out)
	return out
}

func collectFailures(st *engine.ExecState, prefix []ids.NodeID, out *[]Failure) {
	for _, id := range st.Failed() {
		for _, e := range st.Errors(id) {
			code := apperr.GetCode(e.Cause)
			if code == "" {
				code = e.ErrorCode()
			}
			msg := ""
			if e.Cause != nil {
				msg = e.Cause.Error()
			}
			*out = append(*out, Failure{
				Path:     append(append([]ids.NodeID(nil), prefix...), id),
				NodeType: e.NodeType,
				Code:     code,
				Message:  msg,
			})
		}
	}
	for _, id := range st.Subgraphs() {
		nested, _ := st.Nested(id)
		collectFailures(nested, append(append([]ids.NodeID(nil), prefix...), id), out)
	}
}
