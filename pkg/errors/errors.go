package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates that structured model output failed
	// schema parsing or validation
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeMissingField indicates a required input field was absent
	// from a stage dispatch request
	ErrorTypeMissingField ErrorType = "MISSING_FIELD"

	// ErrorTypeProvider indicates a failure calling an external inference
	// or search provider (network, quota, timeout)
	ErrorTypeProvider ErrorType = "PROVIDER"

	// ErrorTypeEmbedding indicates a vector could not be computed for a
	// given text
	ErrorTypeEmbedding ErrorType = "EMBEDDING"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Err:     err,
	}
}

// NewMissingFieldError creates a new missing field error
func NewMissingFieldError(field string) *AppError {
	return &AppError{
		Type:    ErrorTypeMissingField,
		Message: fmt.Sprintf("missing required field: %s", field),
	}
}

// NewProviderError creates a new provider error
func NewProviderError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeProvider,
		Message: message,
		Err:     err,
	}
}

// NewEmbeddingError creates a new embedding error
func NewEmbeddingError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeEmbedding,
		Message: message,
		Err:     err,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal when err is not
// an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsNotFound reports whether err is a not found error
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsMissingField reports whether err is a missing field error
func IsMissingField(err error) bool {
	return TypeOf(err) == ErrorTypeMissingField
}

// IsProvider reports whether err is a provider error
func IsProvider(err error) bool {
	return TypeOf(err) == ErrorTypeProvider
}

// IsEmbedding reports whether err is an embedding error
func IsEmbedding(err error) bool {
	return TypeOf(err) == ErrorTypeEmbedding
}

// IsConflict reports whether err is a conflict error
func IsConflict(err error) bool {
	return TypeOf(err) == ErrorTypeConflict
}
