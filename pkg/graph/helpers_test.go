package graph

import (
	"testing"

	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// sock describes a socket as "name:type"; the socket id becomes node.name.
type sock struct {
	name string
	typ  types.TypeID
}

func in(name string) sock  { return sock{name: name, typ: types.Float} }
func out(name string) sock { return sock{name: name, typ: types.Float} }

func mustAddNode(t *testing.T, g *Graph, id string, inputs, outputs []sock) *Graph {
	t.Helper()
	var sockets []Socket
	for _, s := range inputs {
		sockets = append(sockets, Socket{
			ID: ids.SocketID(id + "." + s.name), Name: s.name, Direction: Input, Type: s.typ,
		})
	}
	for _, s := range outputs {
		sockets = append(sockets, Socket{
			ID: ids.SocketID(id + "." + s.name), Name: s.name, Direction: Output, Type: s.typ,
		})
	}
	next, err := g.AddNode(Node{ID: ids.NodeID(id), Type: "test/node"}, sockets)
	if err != nil {
		t.Fatalf("AddNode(%s): %v", id, err)
	}
	return next
}

func mustWire(t *testing.T, g *Graph, id, from, to string) *Graph {
	t.Helper()
	next, err := g.AddWire(Wire{ID: ids.WireID(id), From: ids.SocketID(from), To: ids.SocketID(to)}, nil)
	if err != nil {
		t.Fatalf("AddWire(%s): %v", id, err)
	}
	return next
}

// chain builds A(out o) -> B(in i, out o) -> C(in i).
func chain(t *testing.T) *Graph {
	t.Helper()
	g := New("chain")
	g = mustAddNode(t, g, "A", nil, []sock{out("o")})
	g = mustAddNode(t, g, "B", []sock{in("i")}, []sock{out("o")})
	g = mustAddNode(t, g, "C", []sock{in("i")}, nil)
	g = mustWire(t, g, "w1", "A.o", "B.i")
	g = mustWire(t, g, "w2", "B.o", "C.i")
	return g
}

// diamond builds a -> b, a -> c, b -> d, c -> d plus an isolated node z.
func diamond(t *testing.T) *Graph {
	t.Helper()
	g := New("diamond")
	g = mustAddNode(t, g, "a", nil, []sock{out("o")})
	g = mustAddNode(t, g, "b", []sock{in("i")}, []sock{out("o")})
	g = mustAddNode(t, g, "c", []sock{in("i")}, []sock{out("o")})
	g = mustAddNode(t, g, "d", []sock{in("x"), in("y")}, []sock{out("o")})
	g = mustAddNode(t, g, "z", nil, []sock{out("o")})
	g = mustWire(t, g, "w1", "a.o", "b.i")
	g = mustWire(t, g, "w2", "a.o", "c.i")
	g = mustWire(t, g, "w3", "b.o", "d.x")
	g = mustWire(t, g, "w4", "c.o", "d.y")
	return g
}

func equalIDs[T ids.ID](a, b []T) bool {
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
