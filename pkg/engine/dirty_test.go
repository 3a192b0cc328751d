package engine

import (
	"errors"
	"testing"

	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/plugin/mathnodes"
)

// chainGraph is A -> B -> C plus an unrelated D.
func chainGraph(t *testing.T) *builder {
	return newBuilder(t, "chain").
		node("A", mathnodes.TypeConst, nil).
		node("B", mathnodes.TypeAdd, nil).
		node("C", mathnodes.TypeAdd, nil).
		node("D", mathnodes.TypeConst, nil).
		wire("A.value", "B.a").
		wire("B.out", "C.a")
}

func TestMarkDirty(t *testing.T) {
	b := chainGraph(t)
	tests := []struct {
		node ids.NodeID
		want []ids.NodeID
	}{
		{"A", []ids.NodeID{"A", "B", "C"}},
		{"B", []ids.NodeID{"B", "C"}},
		{"C", []ids.NodeID{"C"}},
		{"D", []ids.NodeID{"D"}},
		{"missing", nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.node), func(t *testing.T) {
			got := MarkDirty(b.g, nil, tt.node).Dirty()
			if !equalIDs(got, tt.want) {
				t.Errorf("MarkDirty(%s) = %v, want %v", tt.node, got, tt.want)
			}
		})
	}
}

func TestMarkDirtyMatchesDownstreamClosure(t *testing.T) {
	b := chainGraph(t)
	for _, id := range b.g.NodeIDs() {
		got := MarkDirty(b.g, nil, id).Dirty()
		want := graph.DownstreamClosure(b.g, id).Sorted()
		if !equalIDs(got, want) {
			t.Errorf("MarkDirty(%s) = %v, want %v", id, got, want)
		}
		for _, up := range graph.UpstreamClosure(b.g, id).Sorted() {
			if up != id && MarkDirty(b.g, nil, id).IsDirty(up) {
				t.Errorf("MarkDirty(%s) dirtied producer %s", id, up)
			}
		}
	}
}

func TestMarkDirtyKeepsInput(t *testing.T) {
	b := chainGraph(t)
	base := MarkDirty(b.g, nil, "D")
	next := MarkDirtyForParamChange(b.g, base, "B")
	if got := base.Dirty(); !equalIDs(got, []ids.NodeID{"D"}) {
		t.Errorf("input state changed to %v", got)
	}
	if got := next.Dirty(); !equalIDs(got, []ids.NodeID{"B", "C", "D"}) {
		t.Errorf("Dirty() = %v, want [B C D]", got)
	}
}

func TestMarkDirtyForWireChange(t *testing.T) {
	b := chainGraph(t)
	w, _ := b.g.Wire("w01") // A.value -> B.a
	removed, err := b.g.RemoveWire(w.ID)
	if err != nil {
		t.Fatal(err)
	}

	st, err := MarkDirtyForWireChange(removed, nil, w)
	if err != nil {
		t.Fatalf("MarkDirtyForWireChange: %v", err)
	}
	if got := st.Dirty(); !equalIDs(got, []ids.NodeID{"B", "C"}) {
		t.Errorf("Dirty() = %v, want [B C]", got)
	}

	gone, err := removed.RemoveNode("B")
	if err != nil {
		t.Fatal(err)
	}
	_, err = MarkDirtyForWireChange(gone, nil, w)
	var missing *graph.MissingSocketError
	if !errors.As(err, &missing) || missing.SocketID != "B.a" {
		t.Errorf("err = %v, want MissingSocketError for B.a", err)
	}
}

func TestDirtyReevaluation(t *testing.T) {
	b := chainGraph(t)
	first := evaluate(t, b, "C.out", nil)

	st := MarkDirty(b.g, first.State, "C")
	res := evaluate(t, b, "C.out", st)
	if res.Stats.Hits != 2 || res.Stats.Misses != 1 {
		t.Errorf("after MarkDirty(C) hits/misses = %d/%d, want 2/1", res.Stats.Hits, res.Stats.Misses)
	}

	st = MarkDirty(b.g, res.State, "A")
	res = evaluate(t, b, "C.out", st)
	if res.Stats.Hits != 0 || res.Stats.Misses != 3 {
		t.Errorf("after MarkDirty(A) hits/misses = %d/%d, want 0/3", res.Stats.Hits, res.Stats.Misses)
	}
}

func TestPrune(t *testing.T) {
	b := chainGraph(t)
	res := evaluate(t, b, "C.out", nil)
	st := MarkDirty(b.g, res.State, "D")

	g, err := b.g.RemoveNode("C")
	if err != nil {
		t.Fatal(err)
	}
	g, err = g.RemoveNode("D")
	if err != nil {
		t.Fatal(err)
	}
	pruned := st.Prune(g)
	if pruned.Cached("C") || pruned.IsDirty("D") {
		t.Error("Prune kept entries for removed nodes")
	}
	if !pruned.Cached("A") || !pruned.Cached("B") {
		t.Error("Prune dropped entries for live nodes")
	}
	if !st.Cached("C") {
		t.Error("Prune modified its receiver")
	}
}
