// Package plugin implements the transactional registry of node, socket-type
// and param-schema definitions contributed by extensions.
//
// # Overview
//
// A [PluginDefinition] bundles the definitions one extension contributes,
// along with optional init and destroy hooks. A [Registry] holds every
// registered plugin and resolves node types for the execution engine:
//
//	reg := plugin.NewRegistry(logger)
//	if err := reg.Register(ctx, mathnodes.Plugin()); err != nil {
//	    return err
//	}
//	def, ok := reg.Resolve("math/add")
//
// Node-type, socket-type and param-schema ids are globally unique across
// all registered plugins. Each lives in its own namespace, so a param schema
// and a node type may share a name.
//
// # Transactions
//
// [Registry.Register] applies a plugin one definition at a time, recording
// every id it inserts. If any definition is rejected, or the init hook
// fails, exactly those ids are removed again, so a failed registration is
// never observable. [Registry.Unregister] runs the destroy hook first; if
// it fails the plugin stays registered so the caller can retry or use
// [Registry.ForceUnregister].
//
// # Errors
//
// Every registry failure implements [RegistryError]:
//
//	var dup *plugin.DuplicateNodeDefinitionError
//	if errors.As(err, &dup) {
//	    fmt.Println(dup.NodeType, "already provided by", dup.Owner)
//	}
//
// # Param Schemas
//
// A [ParamSchemaDefinition] declares typed, bounded parameter fields.
// [ParamSchemaDefinition.Coerce] converts loosely typed JSON values into the
// declared types using go-cty, clamps numbers into bounds and fills defaults.
package plugin
