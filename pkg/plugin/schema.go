package plugin

import (
	"errors"
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/matzehuels/nodeflow/pkg/graph"
)

// FieldType is the value type of a param field.
type FieldType string

const (
	FieldFloat FieldType = "float"
	FieldInt   FieldType = "int"
	FieldBool  FieldType = "bool"
	FieldVec2  FieldType = "vec2"
	FieldVec3  FieldType = "vec3"
	FieldVec4  FieldType = "vec4"
)

// ctyType returns the cty type a field converts to and, for vectors, the
// required length.
func (t FieldType) ctyType() (cty.Type, int, bool) {
	switch t {
	case FieldFloat, FieldInt:
		return cty.Number, 0, true
	case FieldBool:
		return cty.Bool, 0, true
	case FieldVec2:
		return cty.List(cty.Number), 2, true
	case FieldVec3:
		return cty.List(cty.Number), 3, true
	case FieldVec4:
		return cty.List(cty.Number), 4, true
	}
	return cty.NilType, 0, false
}

// ParamField declares one parameter. Min and Max bound numbers and every
// vector component; Step is a presentation hint.
type ParamField struct {
	Key     string
	Label   string
	Type    FieldType
	Min     *float64
	Max     *float64
	Step    float64
	Default any
}

// ParamSchemaDefinition is an ordered list of typed parameter fields.
type ParamSchemaDefinition struct {
	ID     string
	Fields []ParamField
}

// Coerce returns params with every schema field converted to its declared
// type, clamped into bounds, and defaulted when absent or null. Numbers come
// back as float64 and vectors as []any of float64, matching what a JSON
// document decodes to. Keys outside the schema are kept unchanged.
func (s *ParamSchemaDefinition) Coerce(params graph.Params) (graph.Params, error) {
	out := params.Clone()
	for _, f := range s.Fields {
		raw, ok := params[f.Key]
		if !ok || raw == nil {
			raw = f.Default
		}
		v, err := f.coerce(raw)
		if err != nil {
			return nil, &ParamError{Schema: s.ID, Field: f.Key, Err: err}
		}
		out[f.Key] = v
	}
	return out, nil
}

// Defaults returns the coerced default of every field.
func (s *ParamSchemaDefinition) Defaults() graph.Params {
	out := make(graph.Params, len(s.Fields))
	for _, f := range s.Fields {
		if v, err := f.coerce(f.Default); err == nil {
			out[f.Key] = v
		}
	}
	return out
}

// validate returns a description of the first problem with s, or "".
func (s *ParamSchemaDefinition) validate() string {
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Key == "" {
			return "field with empty key"
		}
		if seen[f.Key] {
			return fmt.Sprintf("duplicate field %q", f.Key)
		}
		seen[f.Key] = true
		if _, _, ok := f.Type.ctyType(); !ok {
			return fmt.Sprintf("field %q has unknown type %q", f.Key, f.Type)
		}
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			return fmt.Sprintf("field %q has min %g above max %g", f.Key, *f.Min, *f.Max)
		}
		if f.Step < 0 {
			return fmt.Sprintf("field %q has negative step", f.Key)
		}
		if _, err := f.coerce(f.Default); err != nil {
			return fmt.Sprintf("field %q default: %v", f.Key, err)
		}
	}
	return ""
}

func (f ParamField) coerce(raw any) (any, error) {
	target, length, ok := f.Type.ctyType()
	if !ok {
		return nil, fmt.Errorf("unknown field type %q", f.Type)
	}
	if raw == nil {
		return f.zero(length), nil
	}
	val, err := toCty(raw)
	if err != nil {
		return nil, err
	}
	conv, err := convert.Convert(val, target)
	if err != nil {
		return nil, fmt.Errorf("want %s: %w", f.Type, err)
	}

	switch f.Type {
	case FieldBool:
		return conv.True(), nil
	case FieldFloat, FieldInt:
		if f.Type == FieldInt && !conv.AsBigFloat().IsInt() {
			return nil, errors.New("want a whole number")
		}
		var n float64
		if err := gocty.FromCtyValue(conv, &n); err != nil {
			return nil, err
		}
		return f.clamp(n), nil
	}

	if n := conv.LengthInt(); n != length {
		return nil, fmt.Errorf("want %d components, got %d", length, n)
	}
	var comps []float64
	if err := gocty.FromCtyValue(conv, &comps); err != nil {
		return nil, err
	}
	out := make([]any, len(comps))
	for i, c := range comps {
		out[i] = f.clamp(c)
	}
	return out, nil
}

func (f ParamField) zero(length int) any {
	switch f.Type {
	case FieldBool:
		return false
	case FieldFloat, FieldInt:
		return f.clamp(0)
	}
	out := make([]any, length)
	for i := range out {
		out[i] = f.clamp(0)
	}
	return out
}

func (f ParamField) clamp(v float64) float64 {
	if f.Min != nil && v < *f.Min {
		v = *f.Min
	}
	if f.Max != nil && v > *f.Max {
		v = *f.Max
	}
	return v
}

// toCty converts a JSON-like Go value into a cty value.
func toCty(v any) (cty.Value, error) {
	switch x := v.(type) {
	case bool:
		return cty.BoolVal(x), nil
	case string:
		return cty.StringVal(x), nil
	case float64:
		if math.IsNaN(x) {
			return cty.NilVal, errors.New("NaN is not a number")
		}
		return cty.NumberFloatVal(x), nil
	case float32:
		return toCty(float64(x))
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case []float64:
		elems := make([]any, len(x))
		for i, e := range x {
			elems[i] = e
		}
		return toCty(elems)
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(x))
		for i, e := range x {
			ev, err := toCty(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	}
	return cty.NilVal, fmt.Errorf("unsupported value of type %T", v)
}
