package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

var (
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrInvalidParameter = New(http.StatusBadRequest, "INVALID_PARAMETER", "Invalid parameter value")

	ErrNotFound         = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrDatasetNotLoaded = New(http.StatusServiceUnavailable, "DATASET_NOT_LOADED", "No dataset has been loaded yet")

	ErrRefreshInProgress = New(http.StatusConflict, "REFRESH_IN_PROGRESS", "A dataset refresh is already running")

	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")

	ErrInternalServer   = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	ErrWebSocketUpgrade = New(http.StatusInternalServerError, "WEBSOCKET_UPGRADE_FAILED", "WebSocket upgrade failed")

	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service temporarily unavailable")
)

// withDetails copies a sentinel's status and code onto a new error.
func withDetails(base *APIError, message string, details interface{}) *APIError {
	if message == "" {
		message = base.Message
	}
	return NewWithDetails(base.StatusCode, base.ErrorCode, message, details)
}

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return withDetails(ErrInvalidRequest, "", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return withDetails(ErrValidationFailed, "", ValidationError{
		Field:   field,
		Message: message,
	})
}

// InvalidParameter reports a malformed query or path parameter.
func InvalidParameter(param, message string) *APIError {
	return withDetails(ErrInvalidParameter, "", ValidationError{
		Field:   param,
		Message: message,
	})
}

// NotFoundError creates a not found error with details
func NotFoundError(resource string) *APIError {
	return withDetails(ErrNotFound, fmt.Sprintf("%s not found", resource), resource)
}

// RefreshFailed creates an error for a dataset load that could not complete.
func RefreshFailed(err error) *APIError {
	status := http.StatusBadGateway
	code := "SOURCE_UNAVAILABLE"
	if TypeOf(err) == ErrTypeShapeMismatch {
		status = http.StatusUnprocessableEntity
		code = "SHAPE_MISMATCH"
	}
	return NewWithDetails(status, code, "Dataset refresh failed", err.Error())
}

// WebSocketUpgradeFailed reports a rejected upgrade with the status chosen
// by the upgrader.
func WebSocketUpgradeFailed(status int, reason error) *APIError {
	apiErr := withDetails(ErrWebSocketUpgrade, "", reason.Error())
	apiErr.StatusCode = status
	return apiErr
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// Render implements the render.Renderer interface
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return withDetails(ErrValidationFailed, "", ValidationErrors{Errors: errors})
}

// ErrPanic creates a panic recovery error
func ErrPanic(rec interface{}) *APIError {
	return withDetails(ErrInternalServer, "", map[string]string{"message": fmt.Sprintf("%v", rec)})
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(NewErrorResponse(err))
}
