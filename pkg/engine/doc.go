// Package engine evaluates output sockets of a graph incrementally.
//
// # Overview
//
// An [Evaluator] computes the value of one or more output sockets. It
// derives the execution subgraph of the targets, visits its nodes in
// deterministic topological order and calls each node's compute function
// through a [Resolver], normally a *plugin.Registry:
//
//	ev := engine.New(reg, reg.Matrix(), logger)
//	res, err := ev.EvaluateSocketWithStats(ctx, g, "sum.out", state, nil)
//	if err != nil {
//	    return err // bad target or cancelled ctx
//	}
//	state = res.State
//
// # Caching
//
// Results live in an [ExecState]. A node that is not dirty and has cached
// outputs is reused without calling compute. Hosts invalidate nodes after
// editing the graph with [MarkDirty], [MarkDirtyForParamChange] and
// [MarkDirtyForWireChange], which dirty a node and everything downstream.
// Evaluating an unchanged graph against its own result state is all hits.
//
// # Failures
//
// A failing node does not fail the evaluation. The node gets a
// [NodeComputeFailedError] in the state, nodes that depend on it are
// skipped, and every target downstream of it evaluates to nil.
//
// # Subgraphs
//
// Nodes of type plugin.SubgraphType evaluate an embedded graph document
// instead of a compute function. Their params map ports to internal
// subgraph input nodes and output sockets, may promote ports to internal
// params, and may patch internal params per instance. Expansion fails the
// node when the embedded graph id is already being evaluated or when
// nesting exceeds [Evaluator.MaxSubgraphDepth].
package engine
