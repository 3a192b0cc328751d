// Package pkg provides the core libraries for nodeflow, a headless engine for
// node-based dataflow graphs.
//
// # Overview
//
// A nodeflow graph is a set of typed nodes whose output sockets are wired to
// the input sockets of other nodes. Node behaviour comes from plugins; the
// engine evaluates only what a requested output needs and reuses cached
// node results between edits. The pkg directory is organized into three
// areas:
//
//  1. Core - identifiers, socket types, the immutable graph and its algorithms
//  2. Evaluation - the plugin registry and the execution engine
//  3. Host - documents, caching, storage, rendering and the pipeline that ties them together
//
// # Architecture
//
// The typical data flow through nodeflow:
//
//	graph document (JSON)
//	         ↓
//	    [document] package (parse, normalize, hash)
//	         ↓
//	    [graph] package (validated immutable graph)
//	         ↓
//	    [engine] package (dirty tracking, node cache, subgraphs)
//	         ↓
//	    output socket values, optional DOT/SVG diagram
//
// # Quick Start
//
// Register a plugin and evaluate a document:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/nodeflow/pkg/document"
//	    "github.com/matzehuels/nodeflow/pkg/engine"
//	    "github.com/matzehuels/nodeflow/pkg/graph"
//	    "github.com/matzehuels/nodeflow/pkg/plugin"
//	    "github.com/matzehuels/nodeflow/pkg/plugin/mathnodes"
//	)
//
//	// 1. Register node types
//	reg := plugin.NewRegistry(nil)
//	_ = reg.Register(ctx, mathnodes.Plugin())
//
//	// 2. Build the graph
//	doc, _ := document.ReadFile("sum.json")
//	g, _ := document.ToGraph(doc, reg.Matrix())
//
//	// 3. Evaluate an output socket
//	ev := engine.New(reg, reg.Matrix(), nil)
//	value, state, _ := ev.EvaluateSocket(ctx, g, "sum.out", nil)
//
//	// 4. Edit and re-evaluate; only the edited node and its dependents rerun
//	g2, _ := g.PatchNodeParams("a", graph.Params{"value": 4.0})
//	state = engine.MarkDirtyForParamChange(g2, state, "a")
//	value, state, _ = ev.EvaluateSocket(ctx, g2, "sum.out", state)
//
// # Main Packages
//
// ## Core
//
// [ids] - Nominal identifiers for nodes, sockets, wires, frames and graphs.
//
// [types] - Socket type ids and the compatibility matrix with conversions.
//
// [graph] - Immutable graph store: every mutation returns a new graph and
// rejects cycles, incompatible wires and connection-limit violations.
// Algorithms include topological sort, closures, cycle detection and the
// execution subgraph of a set of outputs.
//
// [errors] - Machine-readable error codes shared by every package.
//
// ## Evaluation
//
// [plugin] - Transactional plugin registry for node types, socket types and
// param schemas. A failed registration leaves the registry unchanged.
//
// [plugin/mathnodes] - Built-in arithmetic and vector nodes.
//
// [engine] - Evaluates output sockets against an ExecState, with dirty
// propagation, per-node caching, statistics hooks and nested subgraphs.
//
// [observability] - Hook interfaces for engine, cache and registry metrics.
//
// ## Host
//
// [document] - Canonical JSON documents and their content hash.
//
// [cache] - Result cache backends (file, redis) and key derivation.
//
// [docstore] - Document stores (file, MongoDB).
//
// [render/nodelink] - Graphviz DOT export and SVG rendering.
//
// [pipeline] - Build, evaluate and render with result caching, shared by
// every host.
//
// [config] - TOML host configuration.
//
// # Testing
//
// Run tests:
//
//	go test ./...                        # All tests
//	go test -run Example ./pkg/...       # Examples only
//	go test -tags integration ./pkg/...  # Include redis and mongo tests
//
// [ids]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/ids
// [types]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/types
// [graph]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/graph
// [errors]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/errors
// [plugin]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/plugin
// [plugin/mathnodes]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/plugin/mathnodes
// [engine]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/engine
// [observability]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/observability
// [document]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/document
// [cache]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/cache
// [docstore]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/docstore
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/matzehuels/nodeflow/pkg/config
package pkg
