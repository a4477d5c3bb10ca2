package settings

import (
	"errors"
	"fmt"
)

// Domain-specific errors for settings validation.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrSettingsNotFound is returned when the settings file does not exist.
	ErrSettingsNotFound = errors.New("settings: settings file not found")

	// ErrInvalidSchema is returned by NewSchema for a malformed schema.
	ErrInvalidSchema = errors.New("settings: invalid schema")

	// ErrMissingRequired is matched by a ValidationError of KindMissingRequired.
	ErrMissingRequired = errors.New("settings: required setting missing")

	// ErrTypeMismatch is matched by a ValidationError of KindTypeMismatch.
	ErrTypeMismatch = errors.New("settings: setting has the wrong type")

	// ErrPatternMismatch is matched by a ValidationError of KindPatternMismatch.
	ErrPatternMismatch = errors.New("settings: setting does not match pattern")

	// ErrConditionalRequired is matched by a ValidationError of KindConditionalRequired.
	ErrConditionalRequired = errors.New("settings: conditionally required setting missing")
)

// Kind classifies a validation failure.
type Kind int

const (
	KindMissingRequired Kind = iota + 1
	KindTypeMismatch
	KindPatternMismatch
	KindConditionalRequired
)

func (k Kind) String() string {
	switch k {
	case KindMissingRequired:
		return "missing-required"
	case KindTypeMismatch:
		return "type-mismatch"
	case KindPatternMismatch:
		return "pattern-mismatch"
	case KindConditionalRequired:
		return "conditional-required"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ValidationError describes the first setting that failed validation.
type ValidationError struct {
	Kind Kind

	// Key is the setting that failed.
	Key string

	// Ref is the controlling setting for KindConditionalRequired.
	Ref string

	// Value is the raw value for KindTypeMismatch and KindPatternMismatch.
	Value string

	// Expected is the schema type for KindTypeMismatch.
	Expected Type
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindMissingRequired:
		return fmt.Sprintf("required setting %s not present in settings file", e.Key)
	case KindTypeMismatch:
		return fmt.Sprintf("%s is of wrong type: found %q, expected %s", e.Key, e.Value, e.Expected)
	case KindPatternMismatch:
		return fmt.Sprintf("value of %s does not match pattern: %q", e.Key, e.Value)
	case KindConditionalRequired:
		return fmt.Sprintf("setting %s required as setting %s is set to true", e.Key, e.Ref)
	default:
		return fmt.Sprintf("setting %s is invalid", e.Key)
	}
}

// Unwrap maps the kind onto its sentinel so errors.Is works.
func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case KindMissingRequired:
		return ErrMissingRequired
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindPatternMismatch:
		return ErrPatternMismatch
	case KindConditionalRequired:
		return ErrConditionalRequired
	default:
		return nil
	}
}
