package plugin

import (
	"fmt"

	apperr "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/types"
)

// RegistryError is implemented by every error Register and Unregister
// return. The set of implementations is closed:
//
//	*DuplicatePluginError, *UnknownPluginError,
//	*DuplicateNodeDefinitionError, *InvalidNodeDefinitionError,
//	*DuplicateSocketTypeError, *DuplicateParamSchemaError,
//	*PluginInitFailedError, *PluginDestroyFailedError,
//	*PluginOwnershipMismatchError
type RegistryError interface {
	apperr.Coded
	registry()
}

// DuplicatePluginError reports a plugin id that is already registered.
type DuplicatePluginError struct{ PluginID string }

func (e *DuplicatePluginError) Error() string {
	return fmt.Sprintf("plugin %q is already registered", e.PluginID)
}
func (e *DuplicatePluginError) ErrorCode() apperr.Code { return apperr.CodeDuplicatePlugin }
func (*DuplicatePluginError) registry()                {}

// UnknownPluginError reports a plugin id that is not registered.
type UnknownPluginError struct{ PluginID string }

func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("plugin %q is not registered", e.PluginID)
}
func (e *UnknownPluginError) ErrorCode() apperr.Code { return apperr.CodeUnknownPlugin }
func (*UnknownPluginError) registry()                {}

// DuplicateNodeDefinitionError reports a node type declared twice. Owner is
// the plugin that already holds it; it equals Plugin for duplicates inside a
// single plugin.
type DuplicateNodeDefinitionError struct {
	NodeType string
	Plugin   string
	Owner    string
}

func (e *DuplicateNodeDefinitionError) Error() string {
	return fmt.Sprintf("plugin %q: node type %q already defined by %q", e.Plugin, e.NodeType, e.Owner)
}
func (e *DuplicateNodeDefinitionError) ErrorCode() apperr.Code {
	return apperr.CodeDuplicateNodeDefinition
}
func (*DuplicateNodeDefinitionError) registry() {}

// InvalidNodeDefinitionError reports a malformed definition. Subject names the
// offending node type, socket type or schema; Issue says what is wrong.
type InvalidNodeDefinitionError struct {
	Plugin  string
	Subject string
	Issue   string
}

func (e *InvalidNodeDefinitionError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("plugin %q: %s", e.Plugin, e.Issue)
	}
	return fmt.Sprintf("plugin %q: %s: %s", e.Plugin, e.Subject, e.Issue)
}
func (e *InvalidNodeDefinitionError) ErrorCode() apperr.Code {
	return apperr.CodeInvalidNodeDefinition
}
func (*InvalidNodeDefinitionError) registry() {}

// DuplicateSocketTypeError reports a socket type declared twice or shadowing
// a built-in type (Owner is "builtin").
type DuplicateSocketTypeError struct {
	TypeID types.TypeID
	Plugin string
	Owner  string
}

func (e *DuplicateSocketTypeError) Error() string {
	return fmt.Sprintf("plugin %q: socket type %q already defined by %q", e.Plugin, e.TypeID, e.Owner)
}
func (e *DuplicateSocketTypeError) ErrorCode() apperr.Code { return apperr.CodeDuplicateSocketType }
func (*DuplicateSocketTypeError) registry()                {}

// DuplicateParamSchemaError reports a param schema declared twice.
type DuplicateParamSchemaError struct {
	SchemaID string
	Plugin   string
	Owner    string
}

func (e *DuplicateParamSchemaError) Error() string {
	return fmt.Sprintf("plugin %q: param schema %q already defined by %q", e.Plugin, e.SchemaID, e.Owner)
}
func (e *DuplicateParamSchemaError) ErrorCode() apperr.Code { return apperr.CodeDuplicateParamSchema }
func (*DuplicateParamSchemaError) registry()                {}

// PluginInitFailedError reports an init hook failure. The registration was
// rolled back.
type PluginInitFailedError struct {
	PluginID string
	Err      error
}

func (e *PluginInitFailedError) Error() string {
	return fmt.Sprintf("plugin %q: init failed: %v", e.PluginID, e.Err)
}
func (e *PluginInitFailedError) Unwrap() error          { return e.Err }
func (e *PluginInitFailedError) ErrorCode() apperr.Code { return apperr.CodePluginInitFailed }
func (*PluginInitFailedError) registry()                {}

// PluginDestroyFailedError reports a destroy hook failure. The plugin is
// still registered.
type PluginDestroyFailedError struct {
	PluginID string
	Err      error
}

func (e *PluginDestroyFailedError) Error() string {
	return fmt.Sprintf("plugin %q: destroy failed: %v", e.PluginID, e.Err)
}
func (e *PluginDestroyFailedError) Unwrap() error          { return e.Err }
func (e *PluginDestroyFailedError) ErrorCode() apperr.Code { return apperr.CodePluginDestroyFailed }
func (*PluginDestroyFailedError) registry()                {}

// PluginOwnershipMismatchError reports registry bookkeeping that records id
// as belonging to PluginID while the id's owner is someone else. Nothing is
// removed when it is returned.
type PluginOwnershipMismatchError struct {
	PluginID string
	Kind     Kind
	ID       string
	Owner    string
}

func (e *PluginOwnershipMismatchError) Error() string {
	return fmt.Sprintf("plugin %q: %s %q is owned by %q", e.PluginID, e.Kind, e.ID, e.Owner)
}
func (e *PluginOwnershipMismatchError) ErrorCode() apperr.Code { return apperr.CodePluginOwnership }
func (*PluginOwnershipMismatchError) registry()                {}

// ParamError reports a parameter value that does not fit its schema field.
// It is returned by coercion, not by registration.
type ParamError struct {
	Schema string
	Field  string
	Err    error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("param %s.%s: %v", e.Schema, e.Field, e.Err)
}
func (e *ParamError) Unwrap() error          { return e.Err }
func (e *ParamError) ErrorCode() apperr.Code { return apperr.CodeInvalidParam }
