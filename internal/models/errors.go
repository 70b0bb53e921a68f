package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a missing record and a record owned by someone else.
	ErrNotFound = errors.New("not found")

	ErrValidation         = errors.New("validation failed")
	ErrNoChanges          = errors.New("no changes requested")
	ErrDuplicateIdentity  = errors.New("identity already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports a missing or empty required field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
