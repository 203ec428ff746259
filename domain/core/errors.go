package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound          = errors.New("resource not found")
	ErrParcelNotFound    = fmt.Errorf("%w: parcel", ErrNotFound)
	ErrValuationNotFound = fmt.Errorf("%w: valuation", ErrNotFound)
	ErrAppealNotFound    = fmt.Errorf("%w: appeal", ErrNotFound)
	ErrPresetNotFound    = fmt.Errorf("%w: comparables preset", ErrNotFound)

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrAppealClosed = errors.New("appeal already decided")
)

// NewNotFoundError wraps ErrNotFound with the resource and identifier
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewValidationError reports an invalid request field
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidInput, field, reason)
}

// IsNotFoundError reports whether err is any not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError reports whether err was caused by caller input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrAppealClosed)
}
