package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// JSON size limits (in bytes)
const (
	MaxJSONSize     = 1 * 1024 * 1024 // 1MB - maximum invoke request size
	MaxSnapshotSize = 64 * 1024 * 1024
)

// String length limits
const (
	MaxUsernameLength = 32
	MinUsernameLength = 1
	MaxVarNameLength  = 128
	MaxAliasLength    = 64
	MaxIDLength       = 128
)

// Regular expressions for validation
var (
	// ToolIDPattern allows module.function identifiers
	ToolIDPattern = regexp.MustCompile(`^[a-z_]+\.[a-z_]+$`)
	// UsernamePattern allows alphanumeric and underscores
	UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	// VarNamePattern is a shell environment variable name
	VarNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// ReservedNames may not be registered as users or groups.
var ReservedNames = map[string]struct{}{
	"all":    {},
	"nobody": {},
	"system": {},
	"sudo":   {},
}

// JSONSizeValidator validates JSON size limits
type JSONSizeValidator struct {
	maxSize int
}

// NewJSONSizeValidator creates a new validator with the specified max size
func NewJSONSizeValidator(maxSize int) *JSONSizeValidator {
	return &JSONSizeValidator{maxSize: maxSize}
}

// ValidateSize checks if the data size is within limits
func (v *JSONSizeValidator) ValidateSize(data []byte) error {
	size := len(data)
	if size > v.maxSize {
		return fmt.Errorf("JSON size %d bytes exceeds maximum %d bytes", size, v.maxSize)
	}
	return nil
}

// ValidateJSON validates both size and JSON structure
func (v *JSONSizeValidator) ValidateJSON(data []byte) error {
	// Check size first (faster than parsing)
	if err := v.ValidateSize(data); err != nil {
		return err
	}

	var js interface{}
	if err := sonic.Unmarshal(data, &js); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil // Optional field, empty is OK
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateToolID validates a module.function identifier
func ValidateToolID(id string) error {
	if err := ValidateString(id, "tool_id", 3, MaxIDLength, true); err != nil {
		return err
	}

	if !ToolIDPattern.MatchString(id) {
		return fmt.Errorf("tool_id must have the form module.function")
	}

	return nil
}

// ValidateUsername validates a username
func ValidateUsername(username string) error {
	return validateAccountName(username, "username")
}

// ValidateGroupName validates a group name. Groups share the username format.
func ValidateGroupName(name string) error {
	return validateAccountName(name, "group name")
}

func validateAccountName(name, fieldName string) error {
	if err := ValidateString(name, fieldName, MinUsernameLength, MaxUsernameLength, true); err != nil {
		return err
	}

	if !UsernamePattern.MatchString(name) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric and underscores allowed)", fieldName)
	}

	if _, reserved := ReservedNames[strings.ToLower(name)]; reserved {
		return fmt.Errorf("%s '%s' is reserved", fieldName, name)
	}

	return nil
}

// ValidateVarName validates an environment variable name
func ValidateVarName(name string) error {
	if err := ValidateString(name, "variable name", 1, MaxVarNameLength, true); err != nil {
		return err
	}
	if !VarNamePattern.MatchString(name) {
		return fmt.Errorf("invalid variable name: '%s'", name)
	}
	return nil
}

// ValidateAliasName validates an alias name. Aliases may contain any
// printable characters except whitespace, quotes and '='.
func ValidateAliasName(name string) error {
	if err := ValidateString(name, "alias name", 1, MaxAliasLength, true); err != nil {
		return err
	}
	if strings.ContainsAny(name, " \t\n\r='\"") {
		return fmt.Errorf("invalid alias name: '%s'", name)
	}
	return nil
}
