package plugin

import (
	"context"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/ids"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// Kind names one of the three definition namespaces.
type Kind string

const (
	KindNodeType    Kind = "node type"
	KindSocketType  Kind = "socket type"
	KindParamSchema Kind = "param schema"
)

// Node types the engine evaluates itself. Plugins cannot register them.
const (
	SubgraphType      = "core/subgraph"
	SubgraphInputType = "core/subgraph-input"
)

// Values maps socket keys to values.
type Values map[string]any

// ComputeContext carries per-call information into a compute function.
type ComputeContext struct {
	NodeID ids.NodeID
	Logger *log.Logger
}

// ComputeFunc computes a node's outputs from its inputs and params. It must
// be pure: the same inputs and params always give the same outputs. Missing
// output keys evaluate to nil.
type ComputeFunc func(inputs Values, params graph.Params, cc ComputeContext) (Values, error)

// SocketDecl declares one socket of a node type. Key is the socket name and
// must be unique across a definition's inputs and outputs.
type SocketDecl struct {
	Key            string
	Label          string
	Type           types.TypeID
	Required       bool
	Default        any
	MinConnections *int
	MaxConnections *int
}

// NodeDefinition describes a node type.
type NodeDefinition struct {
	Type        string
	Label       string
	Category    string
	Inputs      []SocketDecl
	Outputs     []SocketDecl
	ParamSchema string // optional param schema id
	Compute     ComputeFunc

	schema *ParamSchemaDefinition // resolved at registration
}

// CoerceParams runs params through the definition's param schema. Without a
// resolved schema the params are returned as a copy.
func (d *NodeDefinition) CoerceParams(params graph.Params) (graph.Params, error) {
	if d.schema == nil {
		return params.Clone(), nil
	}
	return d.schema.Coerce(params)
}

// Instantiate returns a node of this type together with its sockets. Socket
// ids are "<id>.<key>"; params start from the schema defaults.
func (d *NodeDefinition) Instantiate(id ids.NodeID, pos graph.Position) (graph.Node, []graph.Socket) {
	params := graph.Params{}
	if d.schema != nil {
		params = d.schema.Defaults()
	}
	node := graph.Node{ID: id, Type: d.Type, Position: pos, Params: params}
	sockets := make([]graph.Socket, 0, len(d.Inputs)+len(d.Outputs))
	add := func(decls []SocketDecl, dir graph.Direction) {
		for _, s := range decls {
			sockets = append(sockets, graph.Socket{
				ID:             ids.SocketID(string(id) + "." + s.Key),
				NodeID:         id,
				Name:           s.Key,
				Direction:      dir,
				Type:           s.Type,
				Required:       s.Required,
				Default:        graph.CloneValue(s.Default),
				MinConnections: s.MinConnections,
				MaxConnections: s.MaxConnections,
				Label:          s.Label,
			})
		}
	}
	add(d.Inputs, graph.Input)
	add(d.Outputs, graph.Output)
	return node, sockets
}

// Conversion declares that values of the owning socket type may be wired
// into To. A nil Convert passes values through.
type Conversion struct {
	To      types.TypeID
	Convert types.ConvertFunc
}

// SocketTypeDefinition declares a custom socket data type.
type SocketTypeDefinition struct {
	ID          types.TypeID
	Label       string
	Color       string
	Conversions []Conversion
}

// Env is passed to lifecycle hooks.
type Env struct {
	PluginID string
	Logger   *log.Logger
}

// Hook is a plugin lifecycle hook. Host services travel in ctx.
type Hook func(ctx context.Context, env Env) error

// PluginDefinition bundles everything one extension contributes.
type PluginDefinition struct {
	ID           string
	Version      string
	NodeTypes    []NodeDefinition
	SocketTypes  []SocketTypeDefinition
	ParamSchemas []ParamSchemaDefinition
	Init         Hook
	Destroy      Hook
}

func (p PluginDefinition) clone() PluginDefinition {
	p.NodeTypes = slices.Clone(p.NodeTypes)
	p.SocketTypes = slices.Clone(p.SocketTypes)
	p.ParamSchemas = slices.Clone(p.ParamSchemas)
	for i := range p.ParamSchemas {
		p.ParamSchemas[i].Fields = slices.Clone(p.ParamSchemas[i].Fields)
	}
	return p
}

// Catalog lists every registered definition, each slice sorted by id.
type Catalog struct {
	NodeTypes    []NodeDefinition
	SocketTypes  []SocketTypeDefinition
	ParamSchemas []ParamSchemaDefinition
	Owners       map[Kind]map[string]string // kind -> id -> plugin id
}

func cloneOwners(in map[Kind]map[string]string) map[Kind]map[string]string {
	out := make(map[Kind]map[string]string, len(in))
	for k, m := range in {
		out[k] = maps.Clone(m)
	}
	return out
}
