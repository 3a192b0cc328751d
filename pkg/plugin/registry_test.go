package plugin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/types"
)

func nopCompute(Values, graph.Params, ComputeContext) (Values, error) { return Values{}, nil }

func quietRegistry() *Registry {
	logger := log.Default().WithPrefix("test")
	logger.SetLevel(log.FatalLevel)
	return NewRegistry(logger)
}

// testPlugin declares one socket type, one schema and two node types.
func testPlugin(id string) PluginDefinition {
	return PluginDefinition{
		ID:      id,
		Version: "1.0.0",
		SocketTypes: []SocketTypeDefinition{{
			ID:          types.TypeID(id + "/mesh"),
			Conversions: []Conversion{{To: types.String}},
		}},
		ParamSchemas: []ParamSchemaDefinition{{
			ID:     id + "/params",
			Fields: []ParamField{{Key: "gain", Type: FieldFloat, Default: 1.0}},
		}},
		NodeTypes: []NodeDefinition{
			{
				Type:        id + "/scale",
				Inputs:      []SocketDecl{{Key: "in", Type: types.Float}},
				Outputs:     []SocketDecl{{Key: "out", Type: types.Float}},
				ParamSchema: id + "/params",
				Compute:     nopCompute,
			},
			{
				Type:    id + "/mesh",
				Outputs: []SocketDecl{{Key: "mesh", Type: types.TypeID(id + "/mesh")}},
				Compute: nopCompute,
			},
		},
	}
}

// resolvable reports which of p's ids the registry still knows about.
func resolvable(r *Registry, p PluginDefinition) []string {
	var out []string
	for _, nd := range p.NodeTypes {
		if _, ok := r.Resolve(nd.Type); ok {
			out = append(out, nd.Type)
		}
	}
	for _, st := range p.SocketTypes {
		if _, ok := r.SocketType(st.ID); ok {
			out = append(out, string(st.ID))
		}
	}
	for _, s := range p.ParamSchemas {
		if _, ok := r.ParamSchema(s.ID); ok {
			out = append(out, s.ID)
		}
	}
	if _, ok := r.Plugin(p.ID); ok {
		out = append(out, p.ID)
	}
	return out
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	r := quietRegistry()
	p := testPlugin("acme")
	if err := r.Register(ctx, p); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got := resolvable(r, p); len(got) != 5 {
		t.Errorf("resolvable = %v, want all 5 ids", got)
	}
	if owner, _ := r.Owner(KindNodeType, "acme/scale"); owner != "acme" {
		t.Errorf("Owner(acme/scale) = %q, want acme", owner)
	}
	if owner, _ := r.Owner(KindSocketType, "float"); owner != BuiltinOwner {
		t.Errorf("Owner(float) = %q, want %q", owner, BuiltinOwner)
	}
	if got := r.Plugins(); len(got) != 1 || got[0] != "acme" {
		t.Errorf("Plugins() = %v, want [acme]", got)
	}
	if err := r.Register(ctx, p); !errors.As(err, new(*DuplicatePluginError)) {
		t.Errorf("second Register() = %v, want DuplicatePluginError", err)
	}
}

func TestRegisterRejects(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		mutate   func(p *PluginDefinition)
		wantCode apperr.Code
	}{
		{
			name:     "BadPluginID",
			mutate:   func(p *PluginDefinition) { p.ID = "" },
			wantCode: apperr.CodeInvalidNodeDefinition,
		},
		{
			name: "DuplicateNodeInPlugin",
			mutate: func(p *PluginDefinition) {
				p.NodeTypes = append(p.NodeTypes, p.NodeTypes[0])
			},
			wantCode: apperr.CodeDuplicateNodeDefinition,
		},
		{
			name: "CollidesWithOtherPlugin",
			mutate: func(p *PluginDefinition) {
				p.NodeTypes = append(p.NodeTypes, NodeDefinition{Type: "base/scale", Compute: nopCompute})
			},
			wantCode: apperr.CodeDuplicateNodeDefinition,
		},
		{
			name: "ShadowsBuiltinType",
			mutate: func(p *PluginDefinition) {
				p.SocketTypes = append(p.SocketTypes, SocketTypeDefinition{ID: types.Vec3})
			},
			wantCode: apperr.CodeDuplicateSocketType,
		},
		{
			name: "SocketTypeTaken",
			mutate: func(p *PluginDefinition) {
				p.SocketTypes = append(p.SocketTypes, SocketTypeDefinition{ID: "base/mesh"})
			},
			wantCode: apperr.CodeDuplicateSocketType,
		},
		{
			name: "SchemaTaken",
			mutate: func(p *PluginDefinition) {
				p.ParamSchemas = append(p.ParamSchemas, ParamSchemaDefinition{ID: "base/params"})
			},
			wantCode: apperr.CodeDuplicateParamSchema,
		},
		{
			name: "CollidingSocketKeys",
			mutate: func(p *PluginDefinition) {
				p.NodeTypes[1].Inputs = []SocketDecl{{Key: "mesh", Type: types.Float}}
			},
			wantCode: apperr.CodeInvalidNodeDefinition,
		},
		{
			name: "UnknownSocketType",
			mutate: func(p *PluginDefinition) {
				p.NodeTypes[1].Outputs[0].Type = "nope"
			},
			wantCode: apperr.CodeInvalidNodeDefinition,
		},
		{
			name: "UnknownSchema",
			mutate: func(p *PluginDefinition) {
				p.NodeTypes[0].ParamSchema = "nope"
			},
			wantCode: apperr.CodeInvalidNodeDefinition,
		},
		{
			name: "MissingCompute",
			mutate: func(p *PluginDefinition) {
				p.NodeTypes[1].Compute = nil
			},
			wantCode: apperr.CodeInvalidNodeDefinition,
		},
		{
			name: "BadSchemaDefault",
			mutate: func(p *PluginDefinition) {
				p.ParamSchemas[0].Fields[0].Default = "loud"
			},
			wantCode: apperr.CodeInvalidNodeDefinition,
		},
		{
			name: "ConversionToUnknownType",
			mutate: func(p *PluginDefinition) {
				p.SocketTypes[0].Conversions = []Conversion{{To: "nope"}}
			},
			wantCode: apperr.CodeInvalidNodeDefinition,
		},
		{
			name: "InitFails",
			mutate: func(p *PluginDefinition) {
				p.Init = func(context.Context, Env) error { return errors.New("no device") }
			},
			wantCode: apperr.CodePluginInitFailed,
		},
		{
			name: "InitPanics",
			mutate: func(p *PluginDefinition) {
				p.Init = func(context.Context, Env) error { panic("boom") }
			},
			wantCode: apperr.CodePluginInitFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := quietRegistry()
			if err := r.Register(ctx, testPlugin("base")); err != nil {
				t.Fatal(err)
			}
			before := r.Catalog()

			p := testPlugin("extra")
			tt.mutate(&p)
			err := r.Register(ctx, p)
			if !apperr.Is(err, tt.wantCode) {
				t.Fatalf("Register() error = %v, want code %s", err, tt.wantCode)
			}
			if _, ok := err.(RegistryError); !ok {
				t.Errorf("error %T does not implement RegistryError", err)
			}
			for _, id := range resolvable(r, p) {
				if strings.HasPrefix(id, "extra") {
					t.Errorf("id %q still resolvable after failed Register", id)
				}
			}
			after := r.Catalog()
			if len(after.NodeTypes) != len(before.NodeTypes) ||
				len(after.SocketTypes) != len(before.SocketTypes) ||
				len(after.ParamSchemas) != len(before.ParamSchemas) {
				t.Errorf("catalog changed: %d/%d/%d -> %d/%d/%d",
					len(before.NodeTypes), len(before.SocketTypes), len(before.ParamSchemas),
					len(after.NodeTypes), len(after.SocketTypes), len(after.ParamSchemas))
			}
			for kind, ids := range after.Owners {
				for id, owner := range ids {
					if owner == "extra" {
						t.Errorf("%s %q still owned by extra", kind, id)
					}
				}
			}
			if _, ok := r.Plugin("extra"); ok {
				t.Error("plugin extra registered after failure")
			}
		})
	}
}

func TestRegisterCleanAfterFailure(t *testing.T) {
	ctx := context.Background()
	r := quietRegistry()
	p := testPlugin("acme")
	p.Init = func(context.Context, Env) error { return errors.New("later") }
	if err := r.Register(ctx, p); err == nil {
		t.Fatal("Register() = nil, want init failure")
	}
	if got := resolvable(r, p); len(got) != 0 {
		t.Errorf("resolvable after failed Register = %v, want none", got)
	}
	p.Init = nil
	if err := r.Register(ctx, p); err != nil {
		t.Errorf("retry Register() = %v, want nil", err)
	}
}

func TestUnregister(t *testing.T) {
	ctx := context.Background()
	r := quietRegistry()

	if err := r.Unregister(ctx, "ghost"); !apperr.Is(err, apperr.CodeUnknownPlugin) {
		t.Errorf("Unregister(ghost) = %v, want %s", err, apperr.CodeUnknownPlugin)
	}

	destroyed := 0
	p := testPlugin("acme")
	p.Destroy = func(_ context.Context, env Env) error {
		destroyed++
		if env.PluginID != "acme" {
			t.Errorf("Env.PluginID = %q, want acme", env.PluginID)
		}
		return nil
	}
	if err := r.Register(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := r.Unregister(ctx, "acme"); err != nil {
		t.Fatalf("Unregister() = %v", err)
	}
	if destroyed != 1 {
		t.Errorf("destroy ran %d times, want 1", destroyed)
	}
	if got := resolvable(r, p); len(got) != 0 {
		t.Errorf("resolvable after Unregister = %v", got)
	}
}

func TestUnregisterDestroyFailure(t *testing.T) {
	ctx := context.Background()
	r := quietRegistry()
	p := testPlugin("acme")
	p.Destroy = func(context.Context, Env) error { return errors.New("busy") }
	if err := r.Register(ctx, p); err != nil {
		t.Fatal(err)
	}

	err := r.Unregister(ctx, "acme")
	var dfe *PluginDestroyFailedError
	if !errors.As(err, &dfe) || dfe.Err.Error() != "busy" {
		t.Fatalf("Unregister() = %v, want PluginDestroyFailedError(busy)", err)
	}
	if got := resolvable(r, p); len(got) != 5 {
		t.Errorf("plugin partially removed after destroy failure: %v", got)
	}

	if err := r.ForceUnregister(ctx, "acme"); err != nil {
		t.Fatalf("ForceUnregister() = %v", err)
	}
	if got := resolvable(r, p); len(got) != 0 {
		t.Errorf("resolvable after ForceUnregister = %v", got)
	}
}

func TestUnregisterOwnershipMismatch(t *testing.T) {
	ctx := context.Background()
	r := quietRegistry()
	if err := r.Register(ctx, testPlugin("acme")); err != nil {
		t.Fatal(err)
	}
	r.owners[KindNodeType]["acme/scale"] = "intruder"

	err := r.Unregister(ctx, "acme")
	var mismatch *PluginOwnershipMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Unregister() = %v, want PluginOwnershipMismatchError", err)
	}
	if mismatch.ID != "acme/scale" || mismatch.Owner != "intruder" {
		t.Errorf("mismatch = %+v", mismatch)
	}
	if _, ok := r.Resolve("acme/mesh"); !ok {
		t.Error("Unregister removed definitions despite ownership mismatch")
	}
}

func TestMatrix(t *testing.T) {
	r := quietRegistry()
	if err := r.Register(context.Background(), testPlugin("acme")); err != nil {
		t.Fatal(err)
	}
	m := r.Matrix()
	if !m.Compatible("acme/mesh", types.String) {
		t.Error("registered conversion acme/mesh -> string missing")
	}
	if !m.Compatible(types.Int, types.Float) {
		t.Error("built-in int -> float missing")
	}
	if m.Compatible(types.Float, types.Vec3) {
		t.Error("float -> vec3 should stay incompatible")
	}
}

func TestResolveAndInstantiate(t *testing.T) {
	r := quietRegistry()
	if err := r.Register(context.Background(), testPlugin("acme")); err != nil {
		t.Fatal(err)
	}
	def, ok := r.Resolve("acme/scale")
	if !ok {
		t.Fatal("Resolve(acme/scale) failed")
	}
	node, sockets := def.Instantiate("n1", graph.Position{X: 10})
	if node.Type != "acme/scale" || node.Params["gain"] != 1.0 {
		t.Errorf("node = %+v", node)
	}
	if len(sockets) != 2 || sockets[0].ID != "n1.in" || sockets[1].Direction != graph.Output {
		t.Errorf("sockets = %+v", sockets)
	}
	params, err := def.CoerceParams(graph.Params{"gain": "2.5"})
	if err != nil || params["gain"] != 2.5 {
		t.Errorf("CoerceParams = %v, %v; want gain 2.5", params, err)
	}
	if _, ok := r.Resolve("acme/missing"); ok {
		t.Error("Resolve(acme/missing) succeeded")
	}
}
