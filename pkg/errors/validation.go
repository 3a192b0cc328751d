package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxIdentifierLength bounds every entity identifier and definition name.
const MaxIdentifierLength = 256

// ValidateIdentifier validates an opaque entity identifier (node, socket, wire,
// frame or graph id). kind names the category in the returned message.
//
// The rules are intentionally conservative:
//   - No empty or whitespace-only values
//   - No control characters (including null bytes and newlines)
//   - Maximum length of [MaxIdentifierLength] bytes
func ValidateIdentifier(kind, value string) error {
	if value == "" {
		return New(CodeInvalidID, "%s id cannot be empty", kind)
	}
	if len(value) > MaxIdentifierLength {
		return New(CodeInvalidID, "%s id too long (max %d characters)", kind, MaxIdentifierLength)
	}
	if strings.TrimSpace(value) == "" {
		return New(CodeInvalidID, "%s id cannot be blank", kind)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return New(CodeInvalidID, "%s id contains invalid control characters", kind)
		}
	}
	return nil
}

// definitionNameRegex matches plugin, node-type, socket-type and param-schema
// names such as "core.math", "math/add" or "vec3".
var definitionNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._/-]*$`)

// ValidateDefinitionName validates a name contributed by a plugin definition.
func ValidateDefinitionName(kind, name string) error {
	if name == "" {
		return New(CodeInvalidNodeDefinition, "%s name cannot be empty", kind)
	}
	if len(name) > MaxIdentifierLength {
		return New(CodeInvalidNodeDefinition, "%s name too long (max %d characters)", kind, MaxIdentifierLength)
	}
	if !definitionNameRegex.MatchString(name) {
		return New(CodeInvalidNodeDefinition, "invalid %s name: %q", kind, name)
	}
	return nil
}
