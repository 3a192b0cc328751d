package graph_test

import (
	"errors"
	"fmt"

	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// scalarNode builds a float node with optional "in" and "out" sockets.
func scalarNode(id string, hasIn, hasOut bool) (graph.Node, []graph.Socket) {
	var sockets []graph.Socket
	if hasIn {
		sockets = append(sockets, graph.Socket{ID: ids.SocketID(id + ".in"), Name: "in", Direction: graph.Input, Type: types.Float})
	}
	if hasOut {
		sockets = append(sockets, graph.Socket{ID: ids.SocketID(id + ".out"), Name: "out", Direction: graph.Output, Type: types.Float})
	}
	return graph.Node{ID: ids.NodeID(id), Type: "math/add"}, sockets
}

func ExampleGraph_AddWire() {
	g := graph.New("demo")
	for _, row := range []struct {
		id            string
		hasIn, hasOut bool
	}{{"a", false, true}, {"b", true, true}, {"c", true, false}} {
		n, s := scalarNode(row.id, row.hasIn, row.hasOut)
		g, _ = g.AddNode(n, s)
	}
	g, _ = g.AddWire(graph.Wire{ID: "w1", From: "a.out", To: "b.in"}, nil)
	g, _ = g.AddWire(graph.Wire{ID: "w2", From: "b.out", To: "c.in"}, nil)

	order, _ := graph.TopoSort(g)
	fmt.Println("order:", order)
	fmt.Println("downstream of b:", graph.DownstreamClosure(g, "b").Sorted())
	// Output:
	// order: [a b c]
	// downstream of b: [b c]
}

func ExampleCycleDetectedError() {
	g := graph.New("loop")
	for _, id := range []string{"a", "b"} {
		n, s := scalarNode(id, true, true)
		g, _ = g.AddNode(n, s)
	}
	g, _ = g.AddWire(graph.Wire{ID: "w1", From: "a.out", To: "b.in"}, nil)
	_, err := g.AddWire(graph.Wire{ID: "w2", From: "b.out", To: "a.in"}, nil)

	var cyc *graph.CycleDetectedError
	if errors.As(err, &cyc) {
		fmt.Println(cyc.Path)
		fmt.Println(err)
	}
	// Output:
	// [b a b]
	// cycle detected: b -> a -> b
}
