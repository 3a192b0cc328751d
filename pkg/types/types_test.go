package types

import (
	"math"
	"testing"
)

func TestCompatible(t *testing.T) {
	m := DefaultMatrix()
	tests := []struct {
		from, to TypeID
		want     bool
	}{
		{Float, Float, true},
		{Vec3, Vec3, true},
		{Int, Float, true},
		{Vec3, Color, true},
		{Float, Vec3, false},
		{String, Float, false},
		{String, Any, true},
		{TypeID("texture"), TypeID("texture"), true},
	}
	for _, tt := range tests {
		if got := m.Compatible(tt.from, tt.to); got != tt.want {
			t.Errorf("Compatible(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestNilMatrixIsReflexiveOnly(t *testing.T) {
	var m *Matrix
	if !m.Compatible(Float, Float) {
		t.Error("nil matrix should be reflexive")
	}
	if m.Compatible(Int, Float) {
		t.Error("nil matrix should not allow int->float")
	}
}

func TestConvert(t *testing.T) {
	m := DefaultMatrix()

	got, err := m.Convert(Int, Float, 3)
	if err != nil || got != 3.0 {
		t.Errorf("Convert(int->float, 3) = %v, %v, want 3.0", got, err)
	}

	got, err = m.Convert(Float, Int, 2.9)
	if err != nil || got != 2 {
		t.Errorf("Convert(float->int, 2.9) = %v, %v, want 2", got, err)
	}

	got, err = m.Convert(Bool, Float, true)
	if err != nil || got != 1.0 {
		t.Errorf("Convert(bool->float, true) = %v, %v, want 1.0", got, err)
	}

	vec := []any{1.0, 2.0, 3.0}
	got, err = m.Convert(Vec3, Color, vec)
	if err != nil || len(got.([]any)) != 3 {
		t.Errorf("Convert(vec3->color) = %v, %v, want passthrough", got, err)
	}

	if _, err := m.Convert(Float, Vec3, 1.0); err == nil {
		t.Error("Convert(float->vec3) should fail without an entry")
	}

	got, err = m.Convert(Float, Vec3, nil)
	if err != nil || got != nil {
		t.Errorf("Convert(nil) = %v, %v, want nil, nil", got, err)
	}
}

func TestConvertFloatToIntRange(t *testing.T) {
	m := DefaultMatrix()

	tests := []struct {
		name    string
		in      any
		want    int
		wantErr bool
	}{
		{"Negative", -2.9, -2, false},
		{"Float32", float32(7.5), 7, false},
		{"Large", 1e15, 1_000_000_000_000_000, false},
		{"NaN", math.NaN(), 0, true},
		{"PosInf", math.Inf(1), 0, true},
		{"NegInf", math.Inf(-1), 0, true},
		{"TooLarge", 1e300, 0, true},
		{"TooSmall", -1e300, 0, true},
		{"TwoPow63", math.Ldexp(1, 63), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Convert(Float, Int, tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Convert(float->int, %v) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Convert(float->int, %v) = %v, %v, want %d", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := NewMatrix()
	c := m.Clone().Allow(Float, Vec3, nil)
	if m.Compatible(Float, Vec3) {
		t.Error("Allow on clone leaked into original")
	}
	if !c.Compatible(Float, Vec3) {
		t.Error("clone missing its own entry")
	}
	if len(c.Pairs()) != 1 {
		t.Errorf("Pairs() = %v, want 1 entry", c.Pairs())
	}
}
