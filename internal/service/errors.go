package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/social-blog-api/internal/validation"
)

var (
	// ErrNotFound is returned when a referenced user, group or post does not exist
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the actor may not change the resource
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated is returned when a guest attempts a write
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidCredentials is returned by login for an unknown user or wrong password
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationErrors is returned when submitted input is rejected. Nothing is
// written when it is returned.
type ValidationErrors struct {
	Errors []validation.ValidationError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", ve.Field, ve.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// invalid wraps validator output, returning nil when there is nothing to report
func invalid(errs []validation.ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationErrors{Errors: errs}
}

func fieldError(field, message string, value interface{}) error {
	return &ValidationErrors{Errors: []validation.ValidationError{{Field: field, Message: message, Value: value}}}
}
