package apierr

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okonma/pressgate/internal/logger"
)

// ErrorCode represents a structured error code
type ErrorCode string

// Error code constants organized by category
const (
	// VALIDATION_ - Request validation errors
	ErrValidationInvalidJSON  ErrorCode = "VALIDATION_INVALID_JSON"
	ErrValidationEmptyInput   ErrorCode = "VALIDATION_EMPTY_INPUT"
	ErrValidationInputTooBig  ErrorCode = "VALIDATION_INPUT_TOO_LARGE"
	ErrValidationMissingField ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrValidationInvalidParam ErrorCode = "VALIDATION_INVALID_PARAM"

	// RATE_LIMIT_ - Rate limiting errors
	ErrRateLimitGlobal ErrorCode = "RATE_LIMIT_GLOBAL"
	ErrRateLimitClient ErrorCode = "RATE_LIMIT_CLIENT"

	// RENDER_ - Conversion engine errors
	ErrRenderFailed      ErrorCode = "RENDER_FAILED"
	ErrRenderTimeout     ErrorCode = "RENDER_TIMEOUT"
	ErrRenderUnavailable ErrorCode = "RENDER_UNAVAILABLE"

	// SYSTEM_ - System and server errors
	ErrSystemInternal ErrorCode = "SYSTEM_INTERNAL"

	// RESOURCE_ - Resource errors
	ErrResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
)

// Error represents a structured API error
type Error struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	status    int                    // HTTP status code (not serialized)
}

// ErrorResponse is the top-level error response wrapper
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// New creates a new API error
func New(code ErrorCode, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		status:  status,
	}
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// WithRequestID adds a request ID to the error
func (e *Error) WithRequestID(requestID string) *Error {
	e.RequestID = requestID
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Status returns the HTTP status code
func (e *Error) Status() int {
	return e.status
}

// WriteError writes a structured error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status())
	json.NewEncoder(w).Encode(ErrorResponse{Error: err})
}

// Helper functions for common errors

// ValidationInvalidJSON creates an invalid JSON error
func ValidationInvalidJSON() *Error {
	return New(ErrValidationInvalidJSON, "Invalid JSON request body", http.StatusBadRequest)
}

// ValidationEmptyInput creates an empty input error
func ValidationEmptyInput() *Error {
	return New(ErrValidationEmptyInput, "Input must not be empty", http.StatusBadRequest)
}

// ValidationInputTooLarge creates an oversized input error
func ValidationInputTooLarge(size, limit int64) *Error {
	return New(ErrValidationInputTooBig, "Input exceeds the maximum allowed size", http.StatusBadRequest).
		WithDetails(map[string]interface{}{"size_bytes": size, "limit_bytes": limit})
}

// ValidationMissingField creates a missing field error
func ValidationMissingField(field string) *Error {
	return New(ErrValidationMissingField, "Missing required field: "+field, http.StatusBadRequest).
		WithDetails(map[string]interface{}{"field": field})
}

// RateLimitGlobal creates a global rate limit error
func RateLimitGlobal() *Error {
	return New(ErrRateLimitGlobal, "Rate limit exceeded - too many requests globally", http.StatusTooManyRequests)
}

// RateLimitClient creates a per-client rate limit error
func RateLimitClient() *Error {
	return New(ErrRateLimitClient, "Rate limit exceeded - too many requests from your client", http.StatusTooManyRequests)
}

// RenderFailed creates a rendering failure error
func RenderFailed(message string) *Error {
	if message == "" {
		message = "Document rendering failed"
	}
	return New(ErrRenderFailed, message, http.StatusInternalServerError)
}

// RenderTimeout creates a render deadline exceeded error
func RenderTimeout() *Error {
	return New(ErrRenderTimeout, "Rendering did not complete within the configured deadline", http.StatusGatewayTimeout)
}

// RenderUnavailable creates a render engine unavailable error
func RenderUnavailable() *Error {
	return New(ErrRenderUnavailable, "Render engine temporarily unavailable", http.StatusServiceUnavailable)
}

// SystemInternal creates an internal server error
func SystemInternal(message string) *Error {
	if message == "" {
		message = "Internal server error"
	}
	return New(ErrSystemInternal, message, http.StatusInternalServerError)
}

// ResourceNotFound creates a resource not found error
func ResourceNotFound(resourceType string) *Error {
	return New(ErrResourceNotFound, resourceType+" not found", http.StatusNotFound).
		WithDetails(map[string]interface{}{"resource_type": resourceType})
}

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		return reqID
	}
	return ""
}

// WriteErrorWithContext writes a structured error response with request ID from context
func WriteErrorWithContext(w http.ResponseWriter, r *http.Request, err *Error) {
	if reqID := GetRequestID(r.Context()); reqID != "" {
		err = err.WithRequestID(reqID)
	}
	WriteError(w, err)
}
