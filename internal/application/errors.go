package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/job-tracker/internal/validation"
)

var (
	// ErrNotFound is returned when the referenced entity does not exist or is
	// not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials is returned when a login does not match a stored account.
	ErrInvalidCredentials = errors.New("invalid username/email or password")
	// ErrUnauthenticated is returned when no valid session backs the call.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInternal marks storage or runtime failures that carry no user facing detail.
	ErrInternal = errors.New("internal error")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// NewValidationError returns a ValidationError holding a single field issue.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.FieldErrors))
	for _, field := range validation.SortedFields(v.FieldErrors) {
		parts = append(parts, field+" "+v.FieldErrors[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func (v *ValidationError) merge(fields map[string]string) {
	for field, msg := range fields {
		v.add(field, msg)
	}
}

// IsAuthError reports whether err belongs to the authentication family.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUnauthenticated)
}

// classify leaves known error kinds untouched and wraps anything else as ErrInternal.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if ErrorKind(err) != KindInternal || errors.Is(err, ErrInternal) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInternal, err)
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}
