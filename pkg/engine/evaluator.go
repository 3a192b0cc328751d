package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/observability"
	"github.com/matzehuels/nodeflow/pkg/plugin"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// MaxSubgraphDepth is the default limit on nested subgraph expansion.
const MaxSubgraphDepth = 10

// Resolver maps a node type to its definition.
type Resolver interface {
	Resolve(nodeType string) (*plugin.NodeDefinition, bool)
}

// ResolverFunc adapts a function to [Resolver].
type ResolverFunc func(nodeType string) (*plugin.NodeDefinition, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(nodeType string) (*plugin.NodeDefinition, bool) { return f(nodeType) }

// NodeTiming describes one node visit of an evaluation.
type NodeTiming struct {
	NodeID   ids.NodeID
	NodeType string
	Duration time.Duration
	CacheHit bool
	Skipped  bool  // an upstream node failed; compute was not called
	Err      error // *NodeComputeFailedError when the node failed
}

// Stats summarizes an evaluation. Nodes lists every visit in evaluation
// order. Misses includes Failed; Skipped nodes count as neither.
type Stats struct {
	Total   time.Duration
	Hits    int
	Misses  int
	Failed  int
	Skipped int
	Nodes   []NodeTiming
}

// Hooks are optional callbacks invoked synchronously during evaluation.
type Hooks struct {
	// OnNode is called after each node of the evaluated graph, in order.
	// Nodes inside expanded subgraphs are not reported.
	OnNode func(NodeTiming)
}

// Result is the outcome of an evaluation.
type Result struct {
	Value  any                  // value of the first target
	Values map[ids.SocketID]any // value of every target; nil where it failed
	State  *ExecState           // successor of the state passed in
	Stats  Stats
}

// Evaluator computes output socket values of a graph, reusing and updating
// an [ExecState] between calls.
//
// An Evaluator holds no per-call state and may be shared between goroutines
// as long as its Resolver is safe for concurrent use.
type Evaluator struct {
	Resolver         Resolver
	Matrix           *types.Matrix // conversions for wires between differing types
	Logger           *log.Logger
	MaxSubgraphDepth int
}

// New creates an evaluator. A nil logger uses log.Default().
func New(r Resolver, m *types.Matrix, logger *log.Logger) *Evaluator {
	if logger == nil {
		logger = log.Default()
	}
	return &Evaluator{
		Resolver:         r,
		Matrix:           m,
		Logger:           logger,
		MaxSubgraphDepth: MaxSubgraphDepth,
	}
}

// EvaluateSocket returns the value of an output socket and the successor
// state.
func (e *Evaluator) EvaluateSocket(ctx context.Context, g *graph.Graph, target ids.SocketID, state *ExecState) (any, *ExecState, error) {
	res, err := e.EvaluateSocketWithStats(ctx, g, target, state, nil)
	if err != nil {
		return nil, nil, err
	}
	return res.Value, res.State, nil
}

// EvaluateSocketWithStats evaluates the execution subgraph of one output
// socket.
//
// Nodes run in TopoSort order. A node that is not dirty and has cached
// outputs is reused; any other node is computed and cached. A failing node
// gets a *NodeComputeFailedError in the returned state and stays dirty;
// nodes downstream of it are skipped and their outputs read as nil, while
// independent branches complete normally. The returned error is only
// non-nil for an unusable target or a cancelled ctx.
//
// state is never modified. Cancellation is checked between nodes; a
// cancelled call returns ctx.Err() and no state, so abandoning a call can
// never leave a partially written cache behind.
func (e *Evaluator) EvaluateSocketWithStats(ctx context.Context, g *graph.Graph, target ids.SocketID, state *ExecState, hooks *Hooks) (*Result, error) {
	return e.EvaluateSockets(ctx, g, []ids.SocketID{target}, state, hooks)
}

// EvaluateSockets evaluates several output sockets in a single pass over the
// union of their execution subgraphs.
func (e *Evaluator) EvaluateSockets(ctx context.Context, g *graph.Graph, targets []ids.SocketID, state *ExecState, hooks *Hooks) (*Result, error) {
	sub, err := graph.ExecutionSubgraphByOutputSockets(g, targets)
	if err != nil {
		return nil, err
	}
	gid := string(g.ID())
	observability.Engine().OnEvaluateStart(ctx, gid, len(targets))

	start := time.Now()
	r := &run{e: e, ctx: ctx, hooks: hooks, stack: []ids.GraphID{g.ID()}}
	st := state.Clone()
	var stats Stats
	if err := r.pass(g, sub, st, nil, &stats); err != nil {
		return nil, err
	}
	stats.Total = time.Since(start)

	res := &Result{Values: readTargets(g, targets, st), State: st, Stats: stats}
	if len(targets) > 0 {
		res.Value = res.Values[targets[0]]
	}
	observability.Engine().OnEvaluateComplete(ctx, gid, stats.Hits, stats.Misses, stats.Failed, stats.Total)
	e.logger().Debug("evaluated",
		"graph", gid,
		"nodes", len(sub.Order),
		"hits", stats.Hits,
		"misses", stats.Misses,
		"failed", stats.Failed,
		"duration", stats.Total)
	return res, nil
}

func (e *Evaluator) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}

func (e *Evaluator) maxDepth() int {
	if e.MaxSubgraphDepth <= 0 {
		return MaxSubgraphDepth
	}
	return e.MaxSubgraphDepth
}

func readTargets(g *graph.Graph, targets []ids.SocketID, st *ExecState) map[ids.SocketID]any {
	out := make(map[ids.SocketID]any, len(targets))
	for _, sid := range targets {
		s, _ := g.Socket(sid)
		v, _ := st.Output(s.NodeID, s.Name)
		out[sid] = v
	}
	return out
}

// run carries what one top-level call shares with its nested expansions.
type run struct {
	e     *Evaluator
	ctx   context.Context
	hooks *Hooks
	stack []ids.GraphID // embedded graph ids being evaluated, outermost first
}

// pass visits the nodes of sub in order, updating st in place. injected
// supplies the values of subgraph input nodes. Only ctx errors are returned.
func (r *run) pass(g *graph.Graph, sub *graph.Subgraph, st *ExecState, injected map[ids.NodeID]any, stats *Stats) error {
	for _, id := range sub.Order {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		node, _ := g.Node(id)
		t := NodeTiming{NodeID: id, NodeType: node.Type}

		switch {
		case !st.IsDirty(id) && st.Cached(id):
			t.CacheHit = true
			stats.Hits++
		case r.blocked(g, id, st):
			st.skip(id)
			t.Skipped = true
			stats.Skipped++
		default:
			start := time.Now()
			out, err := r.evaluateNode(g, node, st, injected)
			t.Duration = time.Since(start)
			if cerr := r.ctx.Err(); cerr != nil {
				return cerr
			}
			stats.Misses++
			if err != nil {
				ferr := &NodeComputeFailedError{NodeID: id, NodeType: node.Type, Cause: err}
				st.fail(ferr)
				t.Err = ferr
				stats.Failed++
				r.e.logger().Warn("node failed", "node", id, "type", node.Type, "err", err)
			} else {
				st.store(id, out)
				r.e.logger().Debug("node evaluated", "node", id, "type", node.Type, "duration", t.Duration)
			}
		}

		stats.Nodes = append(stats.Nodes, t)
		if !t.Skipped {
			observability.Engine().OnNodeEvaluated(r.ctx, node.Type, t.CacheHit, t.Duration, t.Err)
		}
		if r.hooks != nil && r.hooks.OnNode != nil {
			r.hooks.OnNode(t)
		}
	}
	return nil
}

// blocked reports whether a producer of id has no outputs after its own
// visit, which means it failed or was skipped.
func (r *run) blocked(g *graph.Graph, id ids.NodeID, st *ExecState) bool {
	for _, p := range g.Parents(id) {
		if !st.Cached(p) {
			return true
		}
	}
	return false
}

func (r *run) evaluateNode(g *graph.Graph, node graph.Node, st *ExecState, injected map[ids.NodeID]any) (plugin.Values, error) {
	inputs, err := r.gatherInputs(g, node, st)
	if err != nil {
		return nil, err
	}
	switch node.Type {
	case plugin.SubgraphInputType:
		return plugin.Values{"value": graph.CloneValue(injected[node.ID])}, nil
	case plugin.SubgraphType:
		return r.expand(node, inputs, st)
	}

	def, ok := r.e.Resolver.Resolve(node.Type)
	if !ok || def == nil || def.Compute == nil {
		return nil, &UnknownNodeTypeError{NodeType: node.Type}
	}
	params, err := def.CoerceParams(node.Params)
	if err != nil {
		return nil, err
	}
	cc := plugin.ComputeContext{NodeID: node.ID, Logger: r.e.logger().With("node", node.ID)}
	return callCompute(def.Compute, inputs, params, cc)
}

func callCompute(fn plugin.ComputeFunc, in plugin.Values, params graph.Params, cc plugin.ComputeContext) (out plugin.Values, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("panic: %v", rec)
		}
	}()
	out, err = fn(in, params, cc)
	if err == nil && out == nil {
		out = plugin.Values{}
	}
	return out, err
}

// gatherInputs reads every input socket of node. An unconnected socket
// yields its default (nil without one). A socket accepting a single wire
// yields that wire's value; other sockets yield a []any ordered by wire id.
func (r *run) gatherInputs(g *graph.Graph, node graph.Node, st *ExecState) (plugin.Values, error) {
	in := make(plugin.Values, len(node.Inputs))
	for _, sid := range node.Inputs {
		sock, _ := g.Socket(sid)
		var vals []any
		for _, w := range g.WiresAt(sid) {
			if w.To != sid {
				continue
			}
			from, _ := g.Socket(w.From)
			v, _ := st.Output(from.NodeID, from.Name)
			cv, err := r.e.Matrix.Convert(from.Type, sock.Type, v)
			if err != nil {
				return nil, &ConversionError{SocketID: sid, From: from.Type, To: sock.Type, Err: err}
			}
			vals = append(vals, cv)
		}
		switch {
		case len(vals) == 0:
			in[sock.Name] = sock.Default
		case sock.Max() == 1:
			in[sock.Name] = vals[0]
		default:
			in[sock.Name] = vals
		}
	}
	return in, nil
}
