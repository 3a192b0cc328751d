package engine

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/plugin"
	"github.com/matzehuels/nodeflow/pkg/plugin/mathnodes"
	"github.com/matzehuels/nodeflow/pkg/types"
)

func quietLogger() *log.Logger { return log.New(io.Discard) }

// testPlugin contributes node types the math plugin lacks.
func testPlugin() plugin.PluginDefinition {
	return plugin.PluginDefinition{
		ID: "test",
		NodeTypes: []plugin.NodeDefinition{
			{
				Type:    "test/int",
				Outputs: []plugin.SocketDecl{{Key: "out", Type: types.Int}},
				Compute: func(plugin.Values, graph.Params, plugin.ComputeContext) (plugin.Values, error) {
					return plugin.Values{"out": 3}, nil
				},
			},
			{
				Type:    "test/bad-int",
				Outputs: []plugin.SocketDecl{{Key: "out", Type: types.Int}},
				Compute: func(plugin.Values, graph.Params, plugin.ComputeContext) (plugin.Values, error) {
					return plugin.Values{"out": "three"}, nil
				},
			},
			{
				Type:    "test/collect",
				Inputs:  []plugin.SocketDecl{{Key: "items", Type: types.Any, MaxConnections: graph.Limit(graph.Unbounded)}},
				Outputs: []plugin.SocketDecl{{Key: "out", Type: types.Any}},
				Compute: func(in plugin.Values, _ graph.Params, _ plugin.ComputeContext) (plugin.Values, error) {
					return plugin.Values{"out": in["items"]}, nil
				},
			},
			{
				Type:    "test/echo",
				Inputs:  []plugin.SocketDecl{{Key: "in", Type: types.Any, Required: true}},
				Outputs: []plugin.SocketDecl{{Key: "out", Type: types.Any}},
				Compute: func(in plugin.Values, _ graph.Params, _ plugin.ComputeContext) (plugin.Values, error) {
					return plugin.Values{"out": in["in"]}, nil
				},
			},
			{
				Type:    "test/panic",
				Outputs: []plugin.SocketDecl{{Key: "out", Type: types.Float}},
				Compute: func(plugin.Values, graph.Params, plugin.ComputeContext) (plugin.Values, error) {
					panic("boom")
				},
			},
		},
	}
}

func testRegistry(t *testing.T) *plugin.Registry {
	t.Helper()
	r := plugin.NewRegistry(quietLogger())
	for _, p := range []plugin.PluginDefinition{mathnodes.Plugin(), testPlugin()} {
		if err := r.Register(context.Background(), p); err != nil {
			t.Fatalf("Register(%s): %v", p.ID, err)
		}
	}
	return r
}

// builder assembles graphs from registered node types.
type builder struct {
	t     *testing.T
	reg   *plugin.Registry
	g     *graph.Graph
	wires int
}

func newBuilder(t *testing.T, id ids.GraphID) *builder {
	t.Helper()
	return &builder{t: t, reg: testRegistry(t), g: graph.New(id)}
}

func (b *builder) node(id ids.NodeID, typ string, params graph.Params) *builder {
	b.t.Helper()
	def, ok := b.reg.Resolve(typ)
	if !ok {
		b.t.Fatalf("unknown node type %q", typ)
	}
	n, socks := def.Instantiate(id, graph.Position{})
	for k, v := range params {
		n.Params[k] = v
	}
	return b.add(n, socks)
}

func (b *builder) add(n graph.Node, socks []graph.Socket) *builder {
	b.t.Helper()
	g, err := b.g.AddNode(n, socks)
	if err != nil {
		b.t.Fatalf("AddNode(%s): %v", n.ID, err)
	}
	b.g = g
	return b
}

func (b *builder) wire(from, to ids.SocketID) *builder {
	b.t.Helper()
	b.wires++
	w := graph.Wire{ID: ids.WireID(fmt.Sprintf("w%02d", b.wires)), From: from, To: to}
	g, err := b.g.AddWire(w, b.reg.Matrix())
	if err != nil {
		b.t.Fatalf("AddWire(%s -> %s): %v", from, to, err)
	}
	b.g = g
	return b
}

func (b *builder) evaluator() *Evaluator {
	return New(b.reg, b.reg.Matrix(), quietLogger())
}

// sumGraph is a = 2, b = 3, s = a + b.
func sumGraph(t *testing.T) *builder {
	return newBuilder(t, "sum").
		node("a", mathnodes.TypeConst, graph.Params{"value": 2.0}).
		node("b", mathnodes.TypeConst, graph.Params{"value": 3.0}).
		node("s", mathnodes.TypeAdd, nil).
		wire("a.value", "s.a").
		wire("b.value", "s.b")
}

func evaluate(t *testing.T, b *builder, target ids.SocketID, st *ExecState) *Result {
	t.Helper()
	res, err := b.evaluator().EvaluateSocketWithStats(context.Background(), b.g, target, st, nil)
	if err != nil {
		t.Fatalf("EvaluateSocketWithStats(%s): %v", target, err)
	}
	return res
}

func equalIDs(a, b []ids.NodeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
