package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeflow/pkg/docstore"
	"github.com/matzehuels/nodeflow/pkg/document"
	apperr "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/plugin"
	"github.com/matzehuels/nodeflow/pkg/plugin/mathnodes"
)

// isolate points every XDG and home lookup at a fresh temp directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

// run executes the CLI with args and returns what the command wrote to its
// output stream.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

type node struct {
	id     ids.NodeID
	typ    string
	params graph.Params
}

func buildDoc(t *testing.T, id ids.GraphID, nodes []node, wires [][2]ids.SocketID) *document.Document {
	t.Helper()
	reg := plugin.NewRegistry(log.New(io.Discard))
	if err := reg.Register(context.Background(), mathnodes.Plugin()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	g := graph.New(id)
	for _, n := range nodes {
		def, ok := reg.Resolve(n.typ)
		if !ok {
			t.Fatalf("unknown type %s", n.typ)
		}
		gn, socks := def.Instantiate(n.id, graph.Position{})
		for k, v := range n.params {
			gn.Params[k] = v
		}
		var err error
		if g, err = g.AddNode(gn, socks); err != nil {
			t.Fatalf("AddNode(%s): %v", n.id, err)
		}
	}
	for i, w := range wires {
		var err error
		wire := graph.Wire{ID: ids.WireID(fmt.Sprintf("w%d", i)), From: w[0], To: w[1]}
		if g, err = g.AddWire(wire, reg.Matrix()); err != nil {
			t.Fatalf("AddWire(%s, %s): %v", w[0], w[1], err)
		}
	}
	return document.FromGraph(g)
}

func sumDoc(t *testing.T) *document.Document {
	return buildDoc(t, "sum", []node{
		{"a", mathnodes.TypeConst, graph.Params{"value": 2.0}},
		{"b", mathnodes.TypeConst, graph.Params{"value": 3.0}},
		{"s", mathnodes.TypeAdd, nil},
	}, [][2]ids.SocketID{{"a.value", "s.a"}, {"b.value", "s.b"}})
}

func writeDoc(t *testing.T, dir string, d *document.Document) string {
	t.Helper()
	path := filepath.Join(dir, string(d.GraphID)+".json")
	if err := document.WriteFile(path, d); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefaultCacheDir(t *testing.T) {
	home := isolate(t)

	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := defaultCacheDir()
	if err != nil {
		t.Fatalf("defaultCacheDir() error: %v", err)
	}
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("defaultCacheDir() = %q, want %q", dir, want)
	}

	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, _ = defaultCacheDir()
	if want := filepath.Join("/tmp/xdg", appName); dir != want {
		t.Errorf("defaultCacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "graphs/sum.json", "graphs/sum"},
		{"", "-", "graph"},
		{"out/diagram.svg", "sum.json", "out/diagram"},
		{"out/diagram.dot", "sum.json", "out/diagram"},
		{"out/diagram", "sum.json", "out/diagram"},
		{"out/diagram.png", "sum.json", "out/diagram.png"},
	}

	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestParseTargets(t *testing.T) {
	got, err := parseTargets([]string{"s.out", " a.value "})
	if err != nil {
		t.Fatalf("parseTargets: %v", err)
	}
	want := []ids.SocketID{"s.out", "a.value"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("parseTargets = %v, want %v", got, want)
	}

	if _, err := parseTargets([]string{""}); err == nil {
		t.Error("parseTargets should reject an empty id")
	}
}

func TestHashCommand(t *testing.T) {
	dir := isolate(t)
	d := sumDoc(t)
	path := writeDoc(t, dir, d)

	out, err := run(t, "hash", path)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	want, _ := document.Hash(d)
	if out != want+"\n" {
		t.Errorf("hash output = %q, want %q", out, want+"\n")
	}
}

func TestNormalizeCommand(t *testing.T) {
	dir := isolate(t)
	d := sumDoc(t)

	compact, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	raw := filepath.Join(dir, "raw.json")
	if err := os.WriteFile(raw, compact, 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "normalize", raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	canonical, _ := document.Marshal(d)
	if out != string(canonical) {
		t.Errorf("normalize output =\n%s\nwant\n%s", out, canonical)
	}

	if _, err := run(t, "normalize", "--check", raw); err == nil {
		t.Error("normalize --check should fail for a non-canonical file")
	}

	target := filepath.Join(dir, "canonical.json")
	if _, err := run(t, "normalize", "-o", target, raw); err != nil {
		t.Fatalf("normalize -o: %v", err)
	}
	if _, err := run(t, "normalize", "--check", target); err != nil {
		t.Errorf("normalize --check on canonical output: %v", err)
	}
}

func TestTopoCommand(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, sumDoc(t))

	out, err := run(t, "topo", path)
	if err != nil {
		t.Fatalf("topo: %v", err)
	}
	if want := "a\nb\ns\n"; out != want {
		t.Errorf("topo output = %q, want %q", out, want)
	}
}

func TestValidateCommand(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, sumDoc(t))

	if _, err := run(t, "validate", path); err != nil {
		t.Errorf("validate: %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"schemaVersion":"1","graphId":"x","bogus":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := run(t, "validate", bad)
	if !apperr.Is(err, apperr.CodeInvalidDocument) {
		t.Errorf("validate unknown field error = %v, want %s", err, apperr.CodeInvalidDocument)
	}

	if _, err := run(t, "validate", filepath.Join(dir, "missing.json")); err == nil {
		t.Error("validate should fail for a missing file")
	}
}

func TestEvalCommand(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, sumDoc(t))

	out, err := run(t, "eval", path)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if want := "s.out = 5\n"; out != want {
		t.Errorf("eval output = %q, want %q", out, want)
	}

	out, err = run(t, "eval", "--json", path)
	if err != nil {
		t.Fatalf("eval --json: %v", err)
	}
	var res jsonResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !res.Cached {
		t.Error("second eval should be served from the cache")
	}
	if res.Graph != "sum" {
		t.Errorf("graph = %q, want %q", res.Graph, "sum")
	}
	if res.Values["s.out"] != 5.0 {
		t.Errorf("values[s.out] = %v, want 5", res.Values["s.out"])
	}
	if len(res.Failures) != 0 {
		t.Errorf("failures = %v, want none", res.Failures)
	}

	out, err = run(t, "eval", "--json", "--refresh", path)
	if err != nil {
		t.Fatalf("eval --refresh: %v", err)
	}
	res = jsonResult{}
	_ = json.Unmarshal([]byte(out), &res)
	if res.Cached {
		t.Error("eval --refresh should not be served from the cache")
	}
}

func TestEvalTargets(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, sumDoc(t))

	out, err := run(t, "eval", "--no-cache", "-t", "a.value,s.out", path)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if want := "a.value = 2\ns.out = 5\n"; out != want {
		t.Errorf("eval output = %q, want %q", out, want)
	}
}

func TestEvalFailure(t *testing.T) {
	dir := isolate(t)
	d := buildDoc(t, "broken", []node{
		{"f", mathnodes.TypeFail, nil},
		{"s", mathnodes.TypeAdd, nil},
	}, [][2]ids.SocketID{{"f.out", "s.a"}})
	path := writeDoc(t, dir, d)

	out, err := run(t, "eval", "--json", path)
	if err == nil || !strings.Contains(err.Error(), "1 node(s) failed") {
		t.Fatalf("eval error = %v, want 1 failed node", err)
	}
	var res jsonResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if v, ok := res.Values["s.out"]; !ok || v != nil {
		t.Errorf("values[s.out] = %v (present %v), want null", v, ok)
	}
	if len(res.Failures) != 1 || res.Failures[0].NodeID() != "f" {
		t.Fatalf("failures = %+v, want one failure of f", res.Failures)
	}
	if res.Failures[0].NodeType != mathnodes.TypeFail {
		t.Errorf("failure node type = %q, want %q", res.Failures[0].NodeType, mathnodes.TypeFail)
	}

	// Failed runs are not cached.
	out, _ = run(t, "eval", "--json", path)
	res = jsonResult{}
	_ = json.Unmarshal([]byte(out), &res)
	if res.Cached {
		t.Error("a failed evaluation should not be cached")
	}
}

func TestEvalRender(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, sumDoc(t))
	base := filepath.Join(dir, "diagram")

	if _, err := run(t, "eval", "--no-cache", "--format", "dot", "-o", base+".dot", path); err != nil {
		t.Fatalf("eval --format dot: %v", err)
	}
	data, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatalf("read rendered file: %v", err)
	}
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("rendered DOT = %q, want digraph", data)
	}

	if _, err := run(t, "eval", "--format", "png", path); !apperr.Is(err, apperr.CodeUnsupported) {
		t.Errorf("eval --format png error = %v, want %s", err, apperr.CodeUnsupported)
	}
}

func TestDotCommand(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, sumDoc(t))

	out, err := run(t, "dot", path)
	if err != nil {
		t.Fatalf("dot: %v", err)
	}
	for _, want := range []string{"digraph G {", `"a"`, `"s"`} {
		if !strings.Contains(out, want) {
			t.Errorf("dot output missing %q:\n%s", want, out)
		}
	}
}

func TestNodesCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "nodes")
	if err != nil {
		t.Fatalf("nodes: %v", err)
	}
	for _, want := range []string{mathnodes.TypeAdd, mathnodes.TypeSplit3, mathnodes.PluginID, "v:vec3*"} {
		if !strings.Contains(out, want) {
			t.Errorf("nodes output missing %q:\n%s", want, out)
		}
	}
}

func TestStoreCommands(t *testing.T) {
	dir := isolate(t)
	d := sumDoc(t)
	path := writeDoc(t, dir, d)

	if _, err := run(t, "store", "put", path); err != nil {
		t.Fatalf("store put: %v", err)
	}

	out, err := run(t, "store", "list")
	if err != nil {
		t.Fatalf("store list: %v", err)
	}
	hash, _ := document.Hash(d)
	if !strings.HasPrefix(out, "sum\t"+hash[:12]+"\t") {
		t.Errorf("store list = %q, want entry for sum", out)
	}

	out, err = run(t, "store", "get", "sum")
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	canonical, _ := document.Marshal(d)
	if out != string(canonical) {
		t.Errorf("store get =\n%s\nwant\n%s", out, canonical)
	}

	if _, err := run(t, "store", "delete", "sum"); err != nil {
		t.Fatalf("store delete: %v", err)
	}
	if _, err := run(t, "store", "get", "sum"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("store get after delete error = %v, want ErrNotFound", err)
	}
}

func TestCacheCommands(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, sumDoc(t))

	out, err := run(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	cacheDir := filepath.Join(dir, "cache", appName)
	if out != cacheDir+"\n" {
		t.Errorf("cache path = %q, want %q", out, cacheDir+"\n")
	}

	if _, err := run(t, "eval", path); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if _, err := run(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	out, _ = run(t, "eval", "--json", path)
	var res jsonResult
	_ = json.Unmarshal([]byte(out), &res)
	if res.Cached {
		t.Error("eval after cache clear should not be cached")
	}
}

func TestConfigFlag(t *testing.T) {
	dir := isolate(t)
	path := writeDoc(t, dir, sumDoc(t))

	cfg := filepath.Join(dir, "nodeflow.toml")
	if err := os.WriteFile(cfg, []byte("[cache]\nbackend = \"none\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		out, err := run(t, "--config", cfg, "eval", "--json", path)
		if err != nil {
			t.Fatalf("eval: %v", err)
		}
		var res jsonResult
		_ = json.Unmarshal([]byte(out), &res)
		if res.Cached {
			t.Error("eval with cache backend none should never be cached")
		}
	}

	if _, err := run(t, "--config", filepath.Join(dir, "missing.toml"), "nodes"); !apperr.Is(err, apperr.CodeInvalidConfig) {
		t.Errorf("missing explicit config error = %v, want %s", err, apperr.CodeInvalidConfig)
	}

	if err := os.WriteFile(cfg, []byte("[cache]\nbackend = \"redis\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "--config", cfg, "nodes"); err == nil {
		t.Error("redis backend without redis_addr should be rejected")
	}
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := run(t, "completion", shell)
		if err != nil {
			t.Errorf("completion %s: %v", shell, err)
			continue
		}
		if !strings.Contains(out, appName) {
			t.Errorf("completion %s output does not mention %s", shell, appName)
		}
	}

	if _, err := run(t, "completion", "tcsh"); err == nil {
		t.Error("completion should reject unknown shells")
	}
}
