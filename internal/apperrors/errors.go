package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/records-api/internal/models"
)

// Error codes returned in API error bodies
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeConflict   = "CONFLICT"
	CodeNotFound   = "NOT_FOUND"
	CodeStorage    = "STORAGE_ERROR"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Field   string              // colliding or offending field, if any
	Details []models.FieldError // field-level validation failures
	Err     error               // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Validation creates a validation error carrying field-level details
func Validation(message string, details ...models.FieldError) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message, Details: details}
}

// InvalidID reports a malformed record id
func InvalidID(entity string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: fmt.Sprintf("invalid %s id", entity), Field: "id"}
}

// Conflict reports a uniqueness violation on field
func Conflict(field, message string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: message, Field: field}
}

// NotFound reports a missing record
func NotFound(entity string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: entity + " not found"}
}

// Storage wraps a failure of the persistence layer
func Storage(op string, err error) *DomainError {
	return &DomainError{Code: CodeStorage, Message: op + " failed", Err: err}
}

// As extracts the domain error from an error chain
func As(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// Is reports whether err carries a domain error with the given code
func Is(err error, code string) bool {
	domainErr, ok := As(err)
	return ok && domainErr.Code == code
}

// ToHTTPStatus maps domain errors to HTTP status codes
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	domainErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
