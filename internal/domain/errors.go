package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates that the referenced weight record does not exist.
	ErrNotFound = errors.New("weight record not found")
	// ErrForbidden indicates that the acting user does not own the record.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries field-level validation messages. The request that
// produced it has no side effect.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an empty validation error to be filled in.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a message for a field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = message
}

// Empty reports whether no field failed validation.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}
