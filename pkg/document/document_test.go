package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	apperr "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// sample returns an unsorted document: const -> add <- const.
func sample() *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		GraphID:       "sample",
		Nodes: []Node{
			{ID: "sum", Type: "math/add", Position: graph.Position{X: 200}, Inputs: []ids.SocketID{"sum.b", "sum.a"}, Outputs: []ids.SocketID{"sum.out"}},
			{ID: "c1", Type: "math/const", Params: map[string]any{"value": 2, "tags": []any{"x", int64(3)}}, Outputs: []ids.SocketID{"c1.out"}},
			{ID: "c2", Type: "math/const", Params: map[string]any{"value": 3.5}, Outputs: []ids.SocketID{"c2.out"}},
		},
		Sockets: []Socket{
			{ID: "sum.out", NodeID: "sum", Name: "out", Direction: graph.Output, Type: types.Float},
			{ID: "sum.b", NodeID: "sum", Name: "b", Direction: graph.Input, Type: types.Float, Default: 0},
			{ID: "sum.a", NodeID: "sum", Name: "a", Direction: graph.Input, Type: types.Float, Required: true},
			{ID: "c2.out", NodeID: "c2", Name: "out", Direction: graph.Output, Type: types.Float},
			{ID: "c1.out", NodeID: "c1", Name: "out", Direction: graph.Output, Type: types.Float, MaxConnections: graph.Limit(4)},
		},
		Wires: []Wire{
			{ID: "w2", From: "c2.out", To: "sum.b"},
			{ID: "w1", From: "c1.out", To: "sum.a"},
		},
		Frames: []Frame{
			{ID: "f1", Label: "inputs", Nodes: []ids.NodeID{"c2", "c1"}, Collapsed: true, ExposedOutputs: []ids.SocketID{"c1.out"}},
		},
		Metadata: map[string]any{"author": "test", "zoom": 1},
	}
}

func TestNormalizeFixedPoint(t *testing.T) {
	once := Normalize(sample())
	twice := Normalize(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Normalize is not idempotent:\n%+v\n%+v", once, twice)
	}
	if once.Nodes[0].ID != "c1" || once.Wires[0].ID != "w1" || once.Sockets[0].ID != "c1.out" {
		t.Errorf("entities not sorted: nodes[0]=%s wires[0]=%s sockets[0]=%s", once.Nodes[0].ID, once.Wires[0].ID, once.Sockets[0].ID)
	}
	if got := once.Nodes[2].Inputs; got[0] != "sum.b" {
		t.Errorf("socket order within node changed: %v", got)
	}
	if got := once.Nodes[0].Params["value"]; got != 2.0 {
		t.Errorf("param value = %#v, want float64 2", got)
	}
	if got := once.Frames[0].Nodes; got[0] != "c1" {
		t.Errorf("frame nodes = %v, want sorted", got)
	}
}

func TestParseMarshalRoundTrip(t *testing.T) {
	d := sample()
	data, err := Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := Normalize(d); !reflect.DeepEqual(parsed, want) {
		t.Errorf("Parse(Marshal(d)) != Normalize(d)\ngot  %+v\nwant %+v", parsed, want)
	}
	again, err := Marshal(parsed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Errorf("re-marshal differs:\n%s\n%s", data, again)
	}
}

func TestMarshalSortsKeys(t *testing.T) {
	d := sample()
	d.Metadata = map[string]any{"zeta": 1, "alpha": map[string]any{"y": true, "b": false}}
	data, err := Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	assertSortedKeys(t, dec, "$")
	if g, v := bytes.Index(data, []byte(`"graphId"`)), bytes.Index(data, []byte(`"schemaVersion"`)); g > v {
		t.Errorf("graphId at %d, schemaVersion at %d, want graphId first", g, v)
	}
}

// assertSortedKeys walks one JSON value and reports any object whose keys
// are not in ascending order.
func assertSortedKeys(t *testing.T, dec *json.Decoder, path string) {
	t.Helper()
	tok, err := dec.Token()
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	switch tok {
	case json.Delim('{'):
		prev := ""
		for i := 0; dec.More(); i++ {
			kt, err := dec.Token()
			if err != nil {
				t.Fatalf("%s: %v", path, err)
			}
			key := kt.(string)
			if i > 0 && key <= prev {
				t.Errorf("%s: key %q follows %q", path, key, prev)
			}
			prev = key
			assertSortedKeys(t, dec, path+"."+key)
		}
		_, _ = dec.Token()
	case json.Delim('['):
		for dec.More() {
			assertSortedKeys(t, dec, path+"[]")
		}
		_, _ = dec.Token()
	}
}

func TestMarshalIsOrderIndependent(t *testing.T) {
	a := sample()
	b := sample()
	for i, j := 0, len(b.Nodes)-1; i < j; i, j = i+1, j-1 {
		b.Nodes[i], b.Nodes[j] = b.Nodes[j], b.Nodes[i]
	}
	b.Wires[0], b.Wires[1] = b.Wires[1], b.Wires[0]

	da, _ := Marshal(a)
	db, _ := Marshal(b)
	if !bytes.Equal(da, db) {
		t.Error("structurally identical documents serialize differently")
	}
	ha, _ := Hash(a)
	hb, _ := Hash(b)
	if ha != hb || len(ha) != 64 {
		t.Errorf("Hash = %s / %s, want equal 64-char digests", ha, hb)
	}
	b.Nodes[0].Position.X = 1
	if hc, _ := Hash(b); hc == ha {
		t.Error("Hash ignored a position change")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"Syntax", `{"schemaVersion": "1",`, "invalid document"},
		{"UnknownField", `{"schemaVersion":"1","graphId":"g","nodes":[],"sockets":[],"wires":[],"extra":1}`, "unknown field"},
		{"WrongType", `{"schemaVersion":"1","graphId":"g","nodes":{}}`, "invalid document"},
		{"Version", `{"schemaVersion":"2","graphId":"g","nodes":[],"sockets":[],"wires":[]}`, "schemaVersion"},
		{"MissingGraphID", `{"schemaVersion":"1","nodes":[],"sockets":[],"wires":[]}`, "graphId"},
		{"Trailing", `{"schemaVersion":"1","graphId":"g","nodes":[],"sockets":[],"wires":[]} {}`, "after document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse() error = %v, want *ParseError", err)
			}
			if !apperr.Is(err, apperr.CodeInvalidDocument) {
				t.Errorf("code = %s, want %s", apperr.GetCode(err), apperr.CodeInvalidDocument)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestGraphRoundTrip(t *testing.T) {
	d := sample()
	g, err := ToGraph(d, nil)
	if err != nil {
		t.Fatalf("ToGraph: %v", err)
	}
	if g.NodeCount() != 3 || g.WireCount() != 2 {
		t.Errorf("graph has %d nodes / %d wires, want 3 / 2", g.NodeCount(), g.WireCount())
	}
	n, _ := g.Node("sum")
	if n.Inputs[0] != "sum.b" {
		t.Errorf("declared input order lost: %v", n.Inputs)
	}
	back := FromGraph(g)
	back.Metadata = d.Metadata
	back = Normalize(back)
	if want := Normalize(d); !reflect.DeepEqual(back, want) {
		t.Errorf("FromGraph(ToGraph(d)) != Normalize(d)\ngot  %+v\nwant %+v", back, want)
	}
}

func TestToGraphErrors(t *testing.T) {
	t.Run("Cycle", func(t *testing.T) {
		d := &Document{
			SchemaVersion: SchemaVersion,
			GraphID:       "loop",
			Nodes:         []Node{{ID: "a", Type: "t"}, {ID: "b", Type: "t"}},
			Sockets: []Socket{
				{ID: "a.i", NodeID: "a", Name: "i", Direction: graph.Input, Type: types.Float},
				{ID: "a.o", NodeID: "a", Name: "o", Direction: graph.Output, Type: types.Float},
				{ID: "b.i", NodeID: "b", Name: "i", Direction: graph.Input, Type: types.Float},
				{ID: "b.o", NodeID: "b", Name: "o", Direction: graph.Output, Type: types.Float},
			},
			Wires: []Wire{{ID: "w1", From: "a.o", To: "b.i"}, {ID: "w2", From: "b.o", To: "a.i"}},
		}
		_, err := ToGraph(d, nil)
		var cyc *graph.CycleDetectedError
		if !errors.As(err, &cyc) {
			t.Fatalf("ToGraph() error = %v, want CycleDetectedError cause", err)
		}
		if !apperr.Is(err, apperr.CodeInvalidDocument) {
			t.Errorf("code = %s, want %s", apperr.GetCode(err), apperr.CodeInvalidDocument)
		}
		if !strings.Contains(err.Error(), "wires[w2]") {
			t.Errorf("error %q does not name wire w2", err)
		}
	})
	t.Run("OrphanSocket", func(t *testing.T) {
		d := &Document{
			SchemaVersion: SchemaVersion,
			GraphID:       "orphan",
			Sockets:       []Socket{{ID: "x.o", NodeID: "x", Name: "o", Direction: graph.Output, Type: types.Float}},
		}
		_, err := ToGraph(d, nil)
		var missing *graph.MissingNodeError
		if !errors.As(err, &missing) || missing.NodeID != "x" {
			t.Errorf("ToGraph() error = %v, want MissingNodeError for x", err)
		}
	})
	t.Run("Incompatible", func(t *testing.T) {
		d := sample()
		d.Sockets[1].Type = types.Vec3 // sum.b
		_, err := ToGraph(d, types.DefaultMatrix())
		var inc *graph.IncompatibleSocketTypesError
		if !errors.As(err, &inc) {
			t.Errorf("ToGraph() error = %v, want IncompatibleSocketTypesError", err)
		}
	})
}

func TestFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := WriteFile(path, sample()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	d, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !reflect.DeepEqual(d, Normalize(sample())) {
		t.Error("ReadFile(WriteFile(d)) != Normalize(d)")
	}
	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(&buf); err != nil {
		t.Errorf("Read: %v", err)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadFile(missing) = nil error")
	}
}

func TestClone(t *testing.T) {
	d := sample()
	c := d.Clone()
	c.Nodes[1].Params["value"] = 100
	c.Metadata["author"] = "other"
	if d.Nodes[1].Params["value"] != 2 || d.Metadata["author"] != "test" {
		t.Error("Clone shares maps with the original")
	}
}
