package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNotConfigured   = errors.New("entity not configured")
	ErrUnknownEntity   = errors.New("unknown entity")
	ErrMappingNotFound = errors.New("mapping not found")
	ErrSchemaLookup    = errors.New("schema lookup failed")
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidValue    = errors.New("invalid value")
	ErrUnsupportedType = errors.New("unsupported property type")
	ErrNothingToWrite  = errors.New("nothing to write")
	ErrReadOnly        = errors.New("provider is read-only")
	ErrUnsupported     = errors.New("operation not supported by source")
	ErrNotFound        = errors.New("record not found")
	ErrUpstream        = errors.New("upstream service error")
)

// ValidationError reports malformed or missing input for a single alias.
// Its message is safe to return to API clients.
type ValidationError struct {
	Alias    string
	Expected string
	Kind     error
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrMissingField):
		return fmt.Sprintf("missing required field: %s", e.Alias)
	case errors.Is(e.Kind, ErrUnsupportedType):
		return fmt.Sprintf("unsupported property type %s for %s", e.Expected, e.Alias)
	default:
		return fmt.Sprintf("%s must be %s", e.Alias, e.Expected)
	}
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// Invalid builds a validation error for a value of the wrong shape.
func Invalid(alias, expected string) error {
	return &ValidationError{Alias: alias, Expected: expected, Kind: ErrInvalidValue}
}

// Missing builds a validation error for an absent required field.
func Missing(alias string) error {
	return &ValidationError{Alias: alias, Kind: ErrMissingField}
}

// Unsupported builds a validation error for an unknown declared type.
func Unsupported(alias, typ string) error {
	return &ValidationError{Alias: alias, Expected: typ, Kind: ErrUnsupportedType}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
