package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Load-level failures. Terminal for one refresh cycle.
	ErrTypeSourceUnavailable ErrorType = "SOURCE_UNAVAILABLE"
	ErrTypeShapeMismatch     ErrorType = "SHAPE_MISMATCH"

	// Value-level failures. Always recovered with a default.
	ErrTypeFieldUnresolvable ErrorType = "FIELD_UNRESOLVABLE"
	ErrTypeValueUnparseable  ErrorType = "VALUE_UNPARSEABLE"

	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// Sentinels usable with errors.Is. Any AppError of the same type matches.
var (
	ErrSourceUnavailable = &AppError{Type: ErrTypeSourceUnavailable, Message: "no data source available"}
	ErrShapeMismatch     = &AppError{Type: ErrTypeShapeMismatch, Message: "unexpected payload shape"}
	ErrFieldUnresolvable = &AppError{Type: ErrTypeFieldUnresolvable, Message: "field has no matching header"}
	ErrValueUnparseable  = &AppError{Type: ErrTypeValueUnparseable, Message: "value could not be parsed"}
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// NewSourceUnavailableError reports that every configured source failed.
func NewSourceUnavailableError(message string, cause error) *AppError {
	return NewAppError(ErrTypeSourceUnavailable, message, cause)
}

// NewShapeMismatchError reports a payload that is neither records nor a matrix.
func NewShapeMismatchError(message string, cause error) *AppError {
	return NewAppError(ErrTypeShapeMismatch, message, cause)
}

// NewFieldUnresolvableError reports a logical field with no matching header.
func NewFieldUnresolvableError(field string) *AppError {
	return NewAppError(ErrTypeFieldUnresolvable, fmt.Sprintf("no header matches field %s", field), nil).
		WithContext("field", field)
}

// NewValueUnparseableError reports a cell value that could not be parsed.
func NewValueUnparseableError(kind string, value interface{}) *AppError {
	return NewAppError(ErrTypeValueUnparseable, fmt.Sprintf("cannot parse %s", kind), nil).
		WithContext("value", value)
}

// NewNetworkError creates a network-related error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNetwork, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
