// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies application errors.
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation_error"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeOutOfRange    ErrorType = "out_of_range"
	ErrorTypeRemoteService ErrorType = "remote_service_error"
	ErrorTypeStorage       ErrorType = "storage_error"
	ErrorTypeConflict      ErrorType = "conflict"
)

// AppError is the error type surfaced by services.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap supports errors.Is / errors.As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewValidationError reports missing or malformed user input.
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// NewNotFoundError reports an absent selection or update target.
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewOutOfRangeError reports a variation index outside the valid range.
func NewOutOfRangeError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeOutOfRange, message, originalError)
}

// NewRemoteServiceError reports a non-success status or transport failure
// from the generation/processing service.
func NewRemoteServiceError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeRemoteService, message, originalError)
}

// NewStorageError reports an upload or URL-resolution failure.
func NewStorageError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeStorage, message, originalError)
}

// NewConflictError reports an operation rejected because another one is
// already in flight for the same target.
func NewConflictError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeConflict, message, originalError)
}

// IsValidationError checks whether err is a validation error.
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsNotFoundError checks whether err is a not-found error.
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsOutOfRangeError checks whether err is an out-of-range error.
func IsOutOfRangeError(err error) bool {
	return isType(err, ErrorTypeOutOfRange)
}

// IsRemoteServiceError checks whether err is a remote-service error.
func IsRemoteServiceError(err error) bool {
	return isType(err, ErrorTypeRemoteService)
}

// IsStorageError checks whether err is a storage error.
func IsStorageError(err error) bool {
	return isType(err, ErrorTypeStorage)
}

// IsConflictError checks whether err is a conflict error.
func IsConflictError(err error) bool {
	return isType(err, ErrorTypeConflict)
}

func isType(err error, errType ErrorType) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == errType
	}
	return false
}

// generateErrorCode derives the user-facing error code from the type.
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeOutOfRange:
		return "OUT_OF_RANGE"
	case ErrorTypeRemoteService:
		return "REMOTE_SERVICE_ERROR"
	case ErrorTypeStorage:
		return "STORAGE_ERROR"
	case ErrorTypeConflict:
		return "CONFLICT"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError wraps an existing error, preserving an AppError's type if err
// already is one.
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	return NewAppError(errType, message, err)
}
