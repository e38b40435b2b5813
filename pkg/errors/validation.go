package errors

import (
	"strings"
	"unicode"
)

// ValidateBlockType validates a block type name for use as a registry key.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or whitespace
//   - Maximum length of 128 characters
//
// Type names are used in event envelopes and store keys, so anything that
// could break a key namespace is rejected here rather than downstream.
func ValidateBlockType(name string) error {
	if name == "" {
		return New(ErrCodeInvalidDefinition, "block type cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidDefinition, "block type too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidDefinition, "block type contains invalid characters")
		}
	}

	return nil
}

// ValidateID validates a block or workspace identifier.
// IDs appear in event envelopes, HTTP paths, and store keys, so the rules
// mirror ValidateBlockType with a few extra reserved characters.
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "id contains invalid characters")
		}
	}

	if strings.ContainsAny(id, "/\\:") {
		return New(ErrCodeInvalidInput, "id cannot contain path or key separators")
	}

	return nil
}

// ValidateInputName validates an input name within a block definition.
// Dummy inputs may have empty names; value and statement inputs may not,
// which is enforced by the definition registry, not here.
func ValidateInputName(name string) error {
	if len(name) > 128 {
		return New(ErrCodeInvalidDefinition, "input name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDefinition, "input name contains invalid characters")
		}
	}

	return nil
}
