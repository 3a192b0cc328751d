package plugin

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/observability"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// BuiltinOwner is reported as the owner of the built-in socket types.
const BuiltinOwner = "builtin"

// Registry holds registered plugins and their definitions.
//
// A Registry is not safe for concurrent mutation. Lookups may run
// concurrently with each other once registration is done.
type Registry struct {
	logger *log.Logger

	plugins     map[string]*entry
	nodeTypes   map[string]*NodeDefinition
	socketTypes map[types.TypeID]SocketTypeDefinition
	schemas     map[string]*ParamSchemaDefinition
	owners      map[Kind]map[string]string
}

// entry is the bookkeeping for one registered plugin.
type entry struct {
	def   PluginDefinition
	owned map[Kind][]string
}

// NewRegistry creates an empty registry. If logger is nil, log.Default() is
// used.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		logger:      logger,
		plugins:     make(map[string]*entry),
		nodeTypes:   make(map[string]*NodeDefinition),
		socketTypes: make(map[types.TypeID]SocketTypeDefinition),
		schemas:     make(map[string]*ParamSchemaDefinition),
		owners: map[Kind]map[string]string{
			KindNodeType:    {},
			KindSocketType:  {},
			KindParamSchema: {},
		},
	}
}

// txn is the undo log of one registration attempt.
type txn struct {
	undo []func()
}

func (t *txn) record(fn func()) { t.undo = append(t.undo, fn) }

func (t *txn) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// Register validates and applies p, then runs its init hook.
//
// Socket types are applied first, then param schemas, then node types, so a
// node type may reference types and schemas from its own plugin. The first
// rejected definition or a failing init hook rolls back every id this call
// inserted; on error the registry is exactly as it was before the call.
func (r *Registry) Register(ctx context.Context, p PluginDefinition) (err error) {
	start := time.Now()
	defer func() {
		observability.Registry().OnPluginRegistered(ctx, p.ID, time.Since(start), err)
	}()

	if e := apperr.ValidateDefinitionName("plugin", p.ID); e != nil {
		return &InvalidNodeDefinitionError{Plugin: p.ID, Issue: apperr.UserMessage(e)}
	}
	if _, exists := r.plugins[p.ID]; exists {
		return &DuplicatePluginError{PluginID: p.ID}
	}

	p = p.clone()
	ent := &entry{def: p, owned: make(map[Kind][]string)}
	tx := &txn{}

	apply := func() error {
		for _, st := range p.SocketTypes {
			if err := r.addSocketType(tx, ent, st); err != nil {
				return err
			}
		}
		for i := range p.ParamSchemas {
			if err := r.addSchema(tx, ent, &p.ParamSchemas[i]); err != nil {
				return err
			}
		}
		for _, nd := range p.NodeTypes {
			if err := r.addNodeType(tx, ent, nd); err != nil {
				return err
			}
		}
		return nil
	}
	if err := apply(); err != nil {
		tx.rollback()
		r.logger.Debug("plugin rejected", "plugin", p.ID, "error", err)
		return err
	}

	r.plugins[p.ID] = ent
	tx.record(func() { delete(r.plugins, p.ID) })

	if p.Init != nil {
		if hookErr := runHook(ctx, p.Init, Env{PluginID: p.ID, Logger: r.logger.With("plugin", p.ID)}); hookErr != nil {
			tx.rollback()
			r.logger.Warn("plugin init failed", "plugin", p.ID, "error", hookErr)
			return &PluginInitFailedError{PluginID: p.ID, Err: hookErr}
		}
	}

	r.logger.Info("plugin registered", "plugin", p.ID, "version", p.Version,
		"nodes", len(p.NodeTypes), "socketTypes", len(p.SocketTypes), "schemas", len(p.ParamSchemas))
	return nil
}

// runHook runs a lifecycle hook, turning a panic into an error.
func runHook(ctx context.Context, hook Hook, env Env) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return hook(ctx, env)
}

func (r *Registry) claim(tx *txn, ent *entry, kind Kind, id string) {
	r.owners[kind][id] = ent.def.ID
	ent.owned[kind] = append(ent.owned[kind], id)
	tx.record(func() { delete(r.owners[kind], id) })
}

func (r *Registry) addSocketType(tx *txn, ent *entry, st SocketTypeDefinition) error {
	pid := ent.def.ID
	if err := apperr.ValidateDefinitionName("socket type", string(st.ID)); err != nil {
		return &InvalidNodeDefinitionError{Plugin: pid, Subject: string(st.ID), Issue: apperr.UserMessage(err)}
	}
	if slices.Contains(types.Builtins(), st.ID) {
		return &DuplicateSocketTypeError{TypeID: st.ID, Plugin: pid, Owner: BuiltinOwner}
	}
	if owner, taken := r.owners[KindSocketType][string(st.ID)]; taken {
		return &DuplicateSocketTypeError{TypeID: st.ID, Plugin: pid, Owner: owner}
	}
	for _, c := range st.Conversions {
		declared := slices.ContainsFunc(ent.def.SocketTypes, func(o SocketTypeDefinition) bool { return o.ID == c.To })
		if !declared && !r.knownType(c.To) {
			return &InvalidNodeDefinitionError{Plugin: pid, Subject: string(st.ID), Issue: fmt.Sprintf("conversion to unknown type %q", c.To)}
		}
	}
	st.Conversions = slices.Clone(st.Conversions)
	r.socketTypes[st.ID] = st
	tx.record(func() { delete(r.socketTypes, st.ID) })
	r.claim(tx, ent, KindSocketType, string(st.ID))
	return nil
}

func (r *Registry) addSchema(tx *txn, ent *entry, s *ParamSchemaDefinition) error {
	pid := ent.def.ID
	if err := apperr.ValidateDefinitionName("param schema", s.ID); err != nil {
		return &InvalidNodeDefinitionError{Plugin: pid, Subject: s.ID, Issue: apperr.UserMessage(err)}
	}
	if owner, taken := r.owners[KindParamSchema][s.ID]; taken {
		return &DuplicateParamSchemaError{SchemaID: s.ID, Plugin: pid, Owner: owner}
	}
	if issue := s.validate(); issue != "" {
		return &InvalidNodeDefinitionError{Plugin: pid, Subject: s.ID, Issue: issue}
	}
	r.schemas[s.ID] = s
	tx.record(func() { delete(r.schemas, s.ID) })
	r.claim(tx, ent, KindParamSchema, s.ID)
	return nil
}

func (r *Registry) addNodeType(tx *txn, ent *entry, nd NodeDefinition) error {
	pid := ent.def.ID
	if err := apperr.ValidateDefinitionName("node type", nd.Type); err != nil {
		return &InvalidNodeDefinitionError{Plugin: pid, Subject: nd.Type, Issue: apperr.UserMessage(err)}
	}
	if nd.Type == SubgraphType || nd.Type == SubgraphInputType {
		return &InvalidNodeDefinitionError{Plugin: pid, Subject: nd.Type, Issue: "reserved node type"}
	}
	if owner, taken := r.owners[KindNodeType][nd.Type]; taken {
		return &DuplicateNodeDefinitionError{NodeType: nd.Type, Plugin: pid, Owner: owner}
	}
	if issue := r.checkNode(nd); issue != "" {
		return &InvalidNodeDefinitionError{Plugin: pid, Subject: nd.Type, Issue: issue}
	}

	nd.Inputs = slices.Clone(nd.Inputs)
	nd.Outputs = slices.Clone(nd.Outputs)
	nd.schema = nil
	if nd.ParamSchema != "" {
		nd.schema = r.schemas[nd.ParamSchema]
	}
	r.nodeTypes[nd.Type] = &nd
	tx.record(func() { delete(r.nodeTypes, nd.Type) })
	r.claim(tx, ent, KindNodeType, nd.Type)
	return nil
}

// checkNode returns a description of the first problem with nd, or "".
func (r *Registry) checkNode(nd NodeDefinition) string {
	if nd.Compute == nil {
		return "missing compute function"
	}
	keys := make(map[string]bool, len(nd.Inputs)+len(nd.Outputs))
	for _, s := range slices.Concat(nd.Inputs, nd.Outputs) {
		if s.Key == "" {
			return "socket with empty key"
		}
		if keys[s.Key] {
			return fmt.Sprintf("duplicate socket key %q", s.Key)
		}
		keys[s.Key] = true
		if !r.knownType(s.Type) {
			return fmt.Sprintf("socket %q uses unknown type %q", s.Key, s.Type)
		}
		if s.MinConnections != nil && s.MaxConnections != nil && *s.MaxConnections >= 0 && *s.MinConnections > *s.MaxConnections {
			return fmt.Sprintf("socket %q has min connections above max", s.Key)
		}
	}
	if nd.ParamSchema != "" {
		if _, ok := r.schemas[nd.ParamSchema]; !ok {
			return fmt.Sprintf("unknown param schema %q", nd.ParamSchema)
		}
	}
	return ""
}

func (r *Registry) knownType(t types.TypeID) bool {
	if slices.Contains(types.Builtins(), t) {
		return true
	}
	_, ok := r.socketTypes[t]
	return ok
}

// Unregister runs the plugin's destroy hook and removes every definition it
// contributed. A failing destroy hook leaves the plugin registered.
func (r *Registry) Unregister(ctx context.Context, id string) error {
	return r.unregister(ctx, id, false)
}

// ForceUnregister is like Unregister but removes the plugin even when its
// destroy hook fails. The hook failure is logged.
func (r *Registry) ForceUnregister(ctx context.Context, id string) error {
	return r.unregister(ctx, id, true)
}

func (r *Registry) unregister(ctx context.Context, id string, force bool) (err error) {
	defer func() { observability.Registry().OnPluginUnregistered(ctx, id, err) }()

	ent, ok := r.plugins[id]
	if !ok {
		return &UnknownPluginError{PluginID: id}
	}
	for _, kind := range []Kind{KindNodeType, KindSocketType, KindParamSchema} {
		for _, owned := range ent.owned[kind] {
			if owner := r.owners[kind][owned]; owner != id {
				return &PluginOwnershipMismatchError{PluginID: id, Kind: kind, ID: owned, Owner: owner}
			}
		}
	}

	if ent.def.Destroy != nil {
		if hookErr := runHook(ctx, ent.def.Destroy, Env{PluginID: id, Logger: r.logger.With("plugin", id)}); hookErr != nil {
			if !force {
				return &PluginDestroyFailedError{PluginID: id, Err: hookErr}
			}
			r.logger.Warn("plugin destroy failed, removing anyway", "plugin", id, "error", hookErr)
		}
	}

	for _, nt := range ent.owned[KindNodeType] {
		delete(r.nodeTypes, nt)
		delete(r.owners[KindNodeType], nt)
	}
	for _, st := range ent.owned[KindSocketType] {
		delete(r.socketTypes, types.TypeID(st))
		delete(r.owners[KindSocketType], st)
	}
	for _, s := range ent.owned[KindParamSchema] {
		delete(r.schemas, s)
		delete(r.owners[KindParamSchema], s)
	}
	delete(r.plugins, id)
	r.logger.Info("plugin unregistered", "plugin", id)
	return nil
}

// Resolve returns the definition of a node type.
func (r *Registry) Resolve(nodeType string) (*NodeDefinition, bool) {
	nd, ok := r.nodeTypes[nodeType]
	return nd, ok
}

// SocketType returns a registered socket type definition.
func (r *Registry) SocketType(id types.TypeID) (SocketTypeDefinition, bool) {
	st, ok := r.socketTypes[id]
	return st, ok
}

// ParamSchema returns a registered param schema.
func (r *Registry) ParamSchema(id string) (*ParamSchemaDefinition, bool) {
	s, ok := r.schemas[id]
	return s, ok
}

// Owner returns the plugin that registered id in the given namespace.
// Built-in socket types report [BuiltinOwner].
func (r *Registry) Owner(kind Kind, id string) (string, bool) {
	if kind == KindSocketType && slices.Contains(types.Builtins(), types.TypeID(id)) {
		return BuiltinOwner, true
	}
	owner, ok := r.owners[kind][id]
	return owner, ok
}

// Plugins returns the registered plugin ids in ascending order.
func (r *Registry) Plugins() []string {
	out := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Plugin returns the definition a plugin was registered with.
func (r *Registry) Plugin(id string) (PluginDefinition, bool) {
	ent, ok := r.plugins[id]
	if !ok {
		return PluginDefinition{}, false
	}
	return ent.def.clone(), true
}

// Catalog returns every registered definition.
func (r *Registry) Catalog() Catalog {
	c := Catalog{Owners: cloneOwners(r.owners)}
	for _, nd := range r.nodeTypes {
		c.NodeTypes = append(c.NodeTypes, *nd)
	}
	slices.SortFunc(c.NodeTypes, func(a, b NodeDefinition) int { return cmp.Compare(a.Type, b.Type) })
	for _, st := range r.socketTypes {
		c.SocketTypes = append(c.SocketTypes, st)
	}
	slices.SortFunc(c.SocketTypes, func(a, b SocketTypeDefinition) int { return cmp.Compare(a.ID, b.ID) })
	for _, s := range r.schemas {
		c.ParamSchemas = append(c.ParamSchemas, *s)
	}
	slices.SortFunc(c.ParamSchemas, func(a, b ParamSchemaDefinition) int { return cmp.Compare(a.ID, b.ID) })
	return c
}

// Matrix returns the compatibility matrix of the built-in conversions plus
// every conversion declared by a registered socket type.
func (r *Registry) Matrix() *types.Matrix {
	m := types.DefaultMatrix()
	for _, id := range sortedTypeIDs(r.socketTypes) {
		for _, c := range r.socketTypes[id].Conversions {
			m.Allow(id, c.To, c.Convert)
		}
	}
	return m
}

func sortedTypeIDs(m map[types.TypeID]SocketTypeDefinition) []types.TypeID {
	out := make([]types.TypeID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
