package errors

import (
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

// Upload and download failures with a fixed response
var (
	ErrMissingFile       = New(http.StatusBadRequest, "MISSING_FILE", "No file selected")
	ErrUnsupportedFile   = New(http.StatusBadRequest, "UNSUPPORTED_FILE", "Only Excel (.xlsx, .xls) and CSV files are allowed")
	ErrRunInProgress     = New(http.StatusConflict, "RUN_IN_PROGRESS", "Another file is being processed")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
)

// InvalidRequest reports a request body that could not be read as an upload
func InvalidRequest(detail string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Expected a multipart form with a file field", detail)
}

// PayloadTooLarge reports an upload over limit bytes; limit 0 means unknown
func PayloadTooLarge(limit int64) *APIError {
	msg := "Uploaded file is too large"
	if limit > 0 {
		msg = fmt.Sprintf("Uploaded file exceeds the %d MB limit", limit>>20)
	}
	return New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", msg)
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// NotFoundError creates a not found error with details
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), resource)
}

// ProcessingFailed creates the error returned when a run fails fatally
func ProcessingFailed(err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, "PROCESSING_FAILED", "File could not be processed, please upload it again", err.Error())
}
