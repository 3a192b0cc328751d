// Package mathnodes provides the core.math plugin: scalar arithmetic,
// vec3 composition and a node that always fails, for demos and tests.
package mathnodes

import (
	"errors"
	"fmt"

	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/plugin"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// PluginID is the id the plugin registers under.
const PluginID = "core.math"

// Node types provided by the plugin.
const (
	TypeConst    = "math/const"
	TypeAdd      = "math/add"
	TypeMultiply = "math/multiply"
	TypeClamp    = "math/clamp"
	TypeCompose3 = "vec/compose3"
	TypeSplit3   = "vec/split3"
	TypeFail     = "util/fail"
)

// ErrFail is the error util/fail nodes return.
var ErrFail = errors.New("util/fail always fails")

// Plugin returns the core.math plugin definition.
func Plugin() plugin.PluginDefinition {
	lo, hi := 0.0, 1.0
	return plugin.PluginDefinition{
		ID:      PluginID,
		Version: "1.0.0",
		ParamSchemas: []plugin.ParamSchemaDefinition{
			{ID: "scalar", Fields: []plugin.ParamField{
				{Key: "value", Label: "Value", Type: plugin.FieldFloat, Step: 0.1},
			}},
			{ID: "range", Fields: []plugin.ParamField{
				{Key: "min", Label: "Min", Type: plugin.FieldFloat, Default: lo},
				{Key: "max", Label: "Max", Type: plugin.FieldFloat, Default: hi},
			}},
		},
		NodeTypes: []plugin.NodeDefinition{
			{
				Type:        TypeConst,
				Label:       "Constant",
				Category:    "math",
				Outputs:     []plugin.SocketDecl{{Key: "value", Type: types.Float}},
				ParamSchema: "scalar",
				Compute:     constant,
			},
			{
				Type:     TypeAdd,
				Label:    "Add",
				Category: "math",
				Inputs:   []plugin.SocketDecl{floatIn("a", 0), floatIn("b", 0)},
				Outputs:  []plugin.SocketDecl{{Key: "out", Type: types.Float}},
				Compute:  binary(func(a, b float64) float64 { return a + b }),
			},
			{
				Type:     TypeMultiply,
				Label:    "Multiply",
				Category: "math",
				Inputs:   []plugin.SocketDecl{floatIn("a", 1), floatIn("b", 1)},
				Outputs:  []plugin.SocketDecl{{Key: "out", Type: types.Float}},
				Compute:  binary(func(a, b float64) float64 { return a * b }),
			},
			{
				Type:        TypeClamp,
				Label:       "Clamp",
				Category:    "math",
				Inputs:      []plugin.SocketDecl{{Key: "x", Type: types.Float, Required: true}},
				Outputs:     []plugin.SocketDecl{{Key: "out", Type: types.Float}},
				ParamSchema: "range",
				Compute:     clamp,
			},
			{
				Type:     TypeCompose3,
				Label:    "Compose Vec3",
				Category: "vector",
				Inputs:   []plugin.SocketDecl{floatIn("x", 0), floatIn("y", 0), floatIn("z", 0)},
				Outputs:  []plugin.SocketDecl{{Key: "v", Type: types.Vec3}},
				Compute:  compose3,
			},
			{
				Type:     TypeSplit3,
				Label:    "Split Vec3",
				Category: "vector",
				Inputs:   []plugin.SocketDecl{{Key: "v", Type: types.Vec3, Required: true}},
				Outputs: []plugin.SocketDecl{
					{Key: "x", Type: types.Float},
					{Key: "y", Type: types.Float},
					{Key: "z", Type: types.Float},
				},
				Compute: split3,
			},
			{
				Type:     TypeFail,
				Label:    "Fail",
				Category: "util",
				Inputs:   []plugin.SocketDecl{{Key: "in", Type: types.Any}},
				Outputs:  []plugin.SocketDecl{{Key: "out", Type: types.Float}},
				Compute: func(plugin.Values, graph.Params, plugin.ComputeContext) (plugin.Values, error) {
					return nil, ErrFail
				},
			},
		},
	}
}

func floatIn(key string, def float64) plugin.SocketDecl {
	return plugin.SocketDecl{Key: key, Type: types.Float, Default: def}
}

func constant(_ plugin.Values, params graph.Params, _ plugin.ComputeContext) (plugin.Values, error) {
	v, err := Float(params["value"])
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	return plugin.Values{"value": v}, nil
}

func binary(op func(a, b float64) float64) plugin.ComputeFunc {
	return func(in plugin.Values, _ graph.Params, _ plugin.ComputeContext) (plugin.Values, error) {
		a, err := Float(in["a"])
		if err != nil {
			return nil, fmt.Errorf("a: %w", err)
		}
		b, err := Float(in["b"])
		if err != nil {
			return nil, fmt.Errorf("b: %w", err)
		}
		return plugin.Values{"out": op(a, b)}, nil
	}
}

func clamp(in plugin.Values, params graph.Params, _ plugin.ComputeContext) (plugin.Values, error) {
	x, err := Float(in["x"])
	if err != nil {
		return nil, fmt.Errorf("x: %w", err)
	}
	lo, _ := Float(params["min"])
	hi, _ := Float(params["max"])
	if lo > hi {
		return nil, fmt.Errorf("min %g above max %g", lo, hi)
	}
	return plugin.Values{"out": min(max(x, lo), hi)}, nil
}

func compose3(in plugin.Values, _ graph.Params, _ plugin.ComputeContext) (plugin.Values, error) {
	var v [3]float64
	for i, k := range []string{"x", "y", "z"} {
		f, err := Float(in[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		v[i] = f
	}
	return plugin.Values{"v": []any{v[0], v[1], v[2]}}, nil
}

func split3(in plugin.Values, _ graph.Params, _ plugin.ComputeContext) (plugin.Values, error) {
	v, err := Vec3(in["v"])
	if err != nil {
		return nil, fmt.Errorf("v: %w", err)
	}
	return plugin.Values{"x": v[0], "y": v[1], "z": v[2]}, nil
}

// Float reads a scalar socket value. nil reads as 0.
func Float(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("want a number, got %T", v)
}

// Vec3 reads a vec3 socket value. nil reads as the zero vector.
func Vec3(v any) ([3]float64, error) {
	var out [3]float64
	switch x := v.(type) {
	case nil:
		return out, nil
	case [3]float64:
		return x, nil
	case []float64:
		if len(x) != 3 {
			return out, fmt.Errorf("want 3 components, got %d", len(x))
		}
		copy(out[:], x)
		return out, nil
	case []any:
		if len(x) != 3 {
			return out, fmt.Errorf("want 3 components, got %d", len(x))
		}
		for i, e := range x {
			f, err := Float(e)
			if err != nil {
				return out, fmt.Errorf("component %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	}
	return out, fmt.Errorf("want a vec3, got %T", v)
}
