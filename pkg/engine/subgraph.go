package engine

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/matzehuels/nodeflow/pkg/document"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/observability"
	"github.com/matzehuels/nodeflow/pkg/plugin"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// Params understood by nodes of type plugin.SubgraphType.
const (
	// ParamGraph holds the embedded graph: a *document.Document or its
	// JSON object form.
	ParamGraph = "graph"
	// ParamInputMap maps an input port to an internal subgraph input node.
	ParamInputMap = "inputMap"
	// ParamOutputMap maps an output port to an internal output socket.
	ParamOutputMap = "outputMap"
	// ParamPromoted maps an input port to {"nodeId", "field"}: the port's
	// value replaces that internal param.
	ParamPromoted = "promotedParams"
	// ParamOverrides maps an internal node id to a param patch applied to
	// this instance only.
	ParamOverrides = "overrides"
)

// SubgraphInputNode returns a subgraph input node with its single output
// socket "<id>.value". Inside an embedded graph it forwards the value wired
// into the mapped port of the enclosing subgraph node.
func SubgraphInputNode(id ids.NodeID, typ types.TypeID) (graph.Node, []graph.Socket) {
	sid := ids.SocketID(string(id) + ".value")
	return graph.Node{ID: id, Type: plugin.SubgraphInputType, Outputs: []ids.SocketID{sid}},
		[]graph.Socket{{ID: sid, NodeID: id, Name: "value", Direction: graph.Output, Type: typ}}
}

type promotion struct {
	node  ids.NodeID
	field string
}

// subgraphDef is the decoded form of a subgraph node's params.
type subgraphDef struct {
	doc       *document.Document
	inputs    map[string]ids.NodeID
	outputs   map[string]ids.SocketID
	promoted  map[string]promotion
	overrides map[ids.NodeID]graph.Params
}

// expand evaluates the graph embedded in a subgraph node and returns the
// node's outputs. Failures inside the embedded graph do not fail the node;
// the affected outputs are nil and the inner state is kept for inspection.
func (r *run) expand(node graph.Node, inputs plugin.Values, st *ExecState) (plugin.Values, error) {
	def, err := decodeSubgraph(node.Params)
	if err != nil {
		return nil, err
	}
	gid := def.doc.GraphID
	if slices.Contains(r.stack, gid) {
		return nil, &SubgraphSelfReferenceError{GraphID: gid, Stack: slices.Clone(r.stack)}
	}
	depth := len(r.stack)
	if limit := r.e.maxDepth(); depth > limit {
		return nil, &SubgraphDepthExceededError{Depth: depth, Max: limit}
	}

	inner, err := document.ToGraph(def.doc, r.e.Matrix)
	if err != nil {
		return nil, &InvalidSubgraphError{Issue: "embedded graph", Err: err}
	}
	if inner, err = def.apply(inner, inputs); err != nil {
		return nil, err
	}
	injected := make(map[ids.NodeID]any, len(def.inputs))
	for port, nid := range def.inputs {
		n, ok := inner.Node(nid)
		if !ok || n.Type != plugin.SubgraphInputType {
			return nil, &InvalidSubgraphError{Issue: fmt.Sprintf("input %q maps to %q, which is not a subgraph input node", port, nid)}
		}
		injected[nid] = inputs[port]
	}

	ports := make([]string, 0, len(def.outputs))
	for port := range def.outputs {
		ports = append(ports, port)
	}
	slices.Sort(ports)
	targets := make([]ids.SocketID, len(ports))
	for i, port := range ports {
		targets[i] = def.outputs[port]
	}
	sub, err := graph.ExecutionSubgraphByOutputSockets(inner, targets)
	if err != nil {
		return nil, &InvalidSubgraphError{Issue: "output map", Err: err}
	}

	observability.Engine().OnSubgraphEnter(r.ctx, string(gid), depth)
	r.e.logger().Debug("entering subgraph", "node", node.ID, "graph", gid, "depth", depth)

	child := &run{e: r.e, ctx: r.ctx, stack: append(slices.Clone(r.stack), gid)}
	innerState := NewExecState()
	if err := child.pass(inner, sub, innerState, injected, &Stats{}); err != nil {
		return nil, err
	}
	st.nested[node.ID] = innerState

	vals := readTargets(inner, targets, innerState)
	out := make(plugin.Values, len(ports))
	for i, port := range ports {
		out[port] = vals[targets[i]]
	}
	return out, nil
}

// apply patches the per-instance overrides and then the promoted params
// into inner. Promoted ports left unconnected keep the embedded value.
func (s *subgraphDef) apply(inner *graph.Graph, inputs plugin.Values) (*graph.Graph, error) {
	var err error
	for _, nid := range ids.Sorted(s.overrides) {
		if inner, err = inner.PatchNodeParams(nid, s.overrides[nid]); err != nil {
			return nil, &InvalidSubgraphError{Issue: "overrides", Err: err}
		}
	}
	ports := make([]string, 0, len(s.promoted))
	for port := range s.promoted {
		ports = append(ports, port)
	}
	slices.Sort(ports)
	for _, port := range ports {
		v := inputs[port]
		if v == nil {
			continue
		}
		p := s.promoted[port]
		if inner, err = inner.PatchNodeParams(p.node, graph.Params{p.field: v}); err != nil {
			return nil, &InvalidSubgraphError{Issue: fmt.Sprintf("promoted param %q", port), Err: err}
		}
	}
	return inner, nil
}

func decodeSubgraph(params graph.Params) (*subgraphDef, error) {
	doc, err := embeddedDocument(params[ParamGraph])
	if err != nil {
		return nil, err
	}
	def := &subgraphDef{
		doc:       doc,
		inputs:    make(map[string]ids.NodeID),
		outputs:   make(map[string]ids.SocketID),
		promoted:  make(map[string]promotion),
		overrides: make(map[ids.NodeID]graph.Params),
	}

	in, err := stringMap(ParamInputMap, params[ParamInputMap])
	if err != nil {
		return nil, err
	}
	for port, v := range in {
		def.inputs[port] = ids.NodeID(v)
	}
	out, err := stringMap(ParamOutputMap, params[ParamOutputMap])
	if err != nil {
		return nil, err
	}
	for port, v := range out {
		def.outputs[port] = ids.SocketID(v)
	}

	promoted, err := objectMap(ParamPromoted, params[ParamPromoted])
	if err != nil {
		return nil, err
	}
	for port, v := range promoted {
		nid, _ := v["nodeId"].(string)
		field, _ := v["field"].(string)
		if nid == "" || field == "" {
			return nil, &InvalidSubgraphError{Issue: fmt.Sprintf("promoted param %q needs nodeId and field", port)}
		}
		def.promoted[port] = promotion{node: ids.NodeID(nid), field: field}
	}
	overrides, err := objectMap(ParamOverrides, params[ParamOverrides])
	if err != nil {
		return nil, err
	}
	for nid, patch := range overrides {
		def.overrides[ids.NodeID(nid)] = graph.Params(patch)
	}
	return def, nil
}

func embeddedDocument(v any) (*document.Document, error) {
	switch x := v.(type) {
	case nil:
		return nil, &InvalidSubgraphError{Issue: "missing " + ParamGraph + " param"}
	case *document.Document:
		return x, nil
	case document.Document:
		return &x, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &InvalidSubgraphError{Issue: ParamGraph + " param", Err: err}
	}
	doc, err := document.Parse(data)
	if err != nil {
		return nil, &InvalidSubgraphError{Issue: ParamGraph + " param", Err: err}
	}
	return doc, nil
}

func stringMap(key string, v any) (map[string]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return x, nil
	case map[string]any:
		out := make(map[string]string, len(x))
		for k, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, &InvalidSubgraphError{Issue: fmt.Sprintf("%s[%q] is %T, want string", key, k, e)}
			}
			out[k] = s
		}
		return out, nil
	}
	return nil, &InvalidSubgraphError{Issue: fmt.Sprintf("%s is %T, want an object", key, v)}
}

func objectMap(key string, v any) (map[string]map[string]any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case map[string]map[string]any:
		return x, nil
	case map[string]any:
		out := make(map[string]map[string]any, len(x))
		for k, e := range x {
			switch m := e.(type) {
			case map[string]any:
				out[k] = m
			case graph.Params:
				out[k] = m
			default:
				return nil, &InvalidSubgraphError{Issue: fmt.Sprintf("%s[%q] is %T, want an object", key, k, e)}
			}
		}
		return out, nil
	}
	return nil, &InvalidSubgraphError{Issue: fmt.Sprintf("%s is %T, want an object", key, v)}
}
