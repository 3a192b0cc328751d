package types

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// TypeID names a socket data type such as "float" or "vec3".
type TypeID string

// Built-in type identifiers.
const (
	Float  TypeID = "float"
	Int    TypeID = "int"
	Bool   TypeID = "bool"
	Vec2   TypeID = "vec2"
	Vec3   TypeID = "vec3"
	Vec4   TypeID = "vec4"
	Color  TypeID = "color"
	String TypeID = "string"
	Any    TypeID = "any"
)

// Builtins lists the built-in type identifiers in declaration order.
func Builtins() []TypeID {
	return []TypeID{Float, Int, Bool, Vec2, Vec3, Vec4, Color, String, Any}
}

// ConvertFunc converts a value of the source type into the target type.
type ConvertFunc func(v any) (any, error)

type pair struct{ from, to TypeID }

// Matrix is a compatibility relation between output and input types.
//
// The zero value is not usable; create one with [NewMatrix] or
// [DefaultMatrix]. A Matrix is safe for concurrent reads once built.
type Matrix struct {
	entries map[pair]ConvertFunc
}

// NewMatrix returns a matrix containing only the reflexive relation.
func NewMatrix() *Matrix {
	return &Matrix{entries: make(map[pair]ConvertFunc)}
}

// DefaultMatrix returns the built-in conversions:
// int→float, float→int, bool→float, bool→int, vec3→color and color→vec3.
// Scalars are deliberately not broadcast into vectors.
func DefaultMatrix() *Matrix {
	m := NewMatrix()
	m.Allow(Int, Float, toFloat)
	m.Allow(Float, Int, toInt)
	m.Allow(Bool, Float, toFloat)
	m.Allow(Bool, Int, toInt)
	m.Allow(Vec3, Color, nil)
	m.Allow(Color, Vec3, nil)
	return m
}

// Allow declares that from may be wired into to. A nil convert passes
// values through unchanged.
func (m *Matrix) Allow(from, to TypeID, convert ConvertFunc) *Matrix {
	m.entries[pair{from, to}] = convert
	return m
}

// Clone returns an independent copy of m.
func (m *Matrix) Clone() *Matrix {
	if m == nil {
		return NewMatrix()
	}
	return &Matrix{entries: maps.Clone(m.entries)}
}

// Compatible reports whether an output of type from may feed an input of
// type to. A nil matrix behaves like [NewMatrix].
func (m *Matrix) Compatible(from, to TypeID) bool {
	if from == to || to == Any {
		return true
	}
	if m == nil {
		return false
	}
	_, ok := m.entries[pair{from, to}]
	return ok
}

// Convert applies the conversion registered for from→to. Identical types,
// Any targets, pass-through entries and nil values are returned unchanged.
func (m *Matrix) Convert(from, to TypeID, v any) (any, error) {
	if v == nil || from == to || to == Any {
		return v, nil
	}
	if m == nil {
		return nil, fmt.Errorf("no conversion from %s to %s", from, to)
	}
	fn, ok := m.entries[pair{from, to}]
	if !ok {
		return nil, fmt.Errorf("no conversion from %s to %s", from, to)
	}
	if fn == nil {
		return v, nil
	}
	return fn(v)
}

// Pairs returns every declared non-reflexive pair as [from, to], sorted.
func (m *Matrix) Pairs() [][2]TypeID {
	if m == nil {
		return nil
	}
	out := make([][2]TypeID, 0, len(m.entries))
	for p := range m.entries {
		out = append(out, [2]TypeID{p.from, p.to})
	}
	slices.SortFunc(out, func(a, b [2]TypeID) int {
		if a[0] != b[0] {
			if a[0] < b[0] {
				return -1
			}
			return 1
		}
		switch {
		case a[1] < b[1]:
			return -1
		case a[1] > b[1]:
			return 1
		}
		return 0
	})
	return out
}

func toFloat(v any) (any, error) {
	switch x := v.(type) {
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
			return 1.0, nil
		}
		return 0.0, nil
	}
	return nil, fmt.Errorf("cannot convert %T to float", v)
}

func toInt(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return truncInt(x)
	case float32:
		return truncInt(float64(x))
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return nil, fmt.Errorf("cannot convert %T to int", v)
}

// truncInt truncates x toward zero, rejecting values with no int
// representation. -float64(math.MinInt) is the exact power of two one past
// math.MaxInt.
func truncInt(x float64) (any, error) {
	t := math.Trunc(x)
	if math.IsNaN(t) || t < float64(math.MinInt) || t >= -float64(math.MinInt) {
		return nil, fmt.Errorf("float %v out of int range", x)
	}
	return int(t), nil
}
