package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nodeflow/pkg/engine"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds socket types and node params to the labels.
	// When false, only names are shown.
	Detailed bool

	// State, when set, colours nodes by evaluation status: failed nodes
	// red, dirty nodes dashed, cached nodes green.
	State *engine.ExecState
}

// ToDOT converts a graph to Graphviz DOT format. The resulting DOT string
// can be rendered using [RenderSVG].
//
// Each node is a record with its input sockets on top and its outputs at
// the bottom; wires connect socket ports. Frames become clusters.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=record, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	framed := make(map[ids.NodeID]bool)
	for _, f := range g.Frames() {
		fmt.Fprintf(&buf, "  subgraph %q {\n", "cluster_"+string(f.ID))
		fmt.Fprintf(&buf, "    label=%q;\n", f.Label)
		if f.Collapsed {
			buf.WriteString("    style=\"dashed\";\n")
		}
		for _, nid := range f.Nodes {
			if n, ok := g.Node(nid); ok && !framed[nid] {
				framed[nid] = true
				writeNode(&buf, g, n, opts, "    ")
			}
		}
		buf.WriteString("  }\n")
	}
	for _, n := range g.Nodes() {
		if !framed[n.ID] {
			writeNode(&buf, g, n, opts, "  ")
		}
	}

	buf.WriteString("\n")
	for _, w := range g.Wires() {
		from, _ := g.Socket(w.From)
		to, _ := g.Socket(w.To)
		fmt.Fprintf(&buf, "  %q:%s -> %q:%s;\n", from.NodeID, port(g, from), to.NodeID, port(g, to))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, g *graph.Graph, n graph.Node, opts Options, indent string) {
	label := fmtLabel(g, n, opts.Detailed)
	attrs := fmtAttrs(n, label, opts.State)
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.ID, strings.Join(attrs, ", "))
}

// port returns the record field name of a socket: i<k> or o<k> by position.
func port(g *graph.Graph, s graph.Socket) string {
	n, _ := g.Node(s.NodeID)
	if s.Direction == graph.Input {
		return fmt.Sprintf("i%d", slices.Index(n.Inputs, s.ID))
	}
	return fmt.Sprintf("o%d", slices.Index(n.Outputs, s.ID))
}

func fmtLabel(g *graph.Graph, n graph.Node, detailed bool) string {
	fields := func(list []ids.SocketID, prefix string) string {
		parts := make([]string, len(list))
		for i, sid := range list {
			s, _ := g.Socket(sid)
			text := s.Name
			if detailed {
				text += ": " + string(s.Type)
			}
			parts[i] = fmt.Sprintf("<%s%d> %s", prefix, i, escape(text))
		}
		return "{" + strings.Join(parts, "|") + "}"
	}

	title := escape(string(n.ID)) + "\\n" + escape(n.Type)
	if detailed {
		for _, k := range slices.Sorted(maps.Keys(n.Params)) {
			title += "\\n" + escape(fmt.Sprintf("%s: %v", k, n.Params[k]))
		}
	}

	rows := []string{title}
	if len(n.Inputs) > 0 {
		rows = append([]string{fields(n.Inputs, "i")}, rows...)
	}
	if len(n.Outputs) > 0 {
		rows = append(rows, fields(n.Outputs, "o"))
	}
	return "{" + strings.Join(rows, "|") + "}"
}

func fmtAttrs(n graph.Node, label string, st *engine.ExecState) []string {
	attrs := []string{`label="` + label + `"`}
	switch {
	case st == nil:
	case len(st.Errors(n.ID)) > 0:
		attrs = append(attrs, "fillcolor=\"#f8d7da\"", "color=\"#c0392b\"")
	case st.IsDirty(n.ID):
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	case st.Cached(n.ID):
		attrs = append(attrs, "fillcolor=\"#d4edda\"")
	}
	return attrs
}

var recordSpecial = strings.NewReplacer(
	`\`, `\\`, `{`, `\{`, `}`, `\}`, `|`, `\|`, `<`, `\<`, `>`, `\>`, `"`, `\"`, "\n", `\n`,
)

// escape quotes characters that are structural inside record labels. The
// result is already valid inside a DOT string.
func escape(s string) string { return recordSpecial.Replace(s) }

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
