// Package errors defines the structured error responses of the HTTP API and
// the mapping from store/engine failures onto them.
//
// The taxonomy follows the four failure classes of the core: schema errors
// (blocking, no partial processing), parse errors (rows dropped, remainder
// processed), not-found errors (recoverable, user may retry with another
// key), and medium-unavailable errors (remote connection or auth failure,
// never downgraded to "no data").
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

// ValidationError represents a single field validation failure
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

// Predefined error types for common scenarios
var (
	// 400 Bad Request
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrInvalidDate      = New(http.StatusBadRequest, "INVALID_DATE", "Date must be in DD/MM/YYYY format")

	// 404 Not Found
	ErrNotFound            = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrObservationNotFound = New(http.StatusNotFound, "OBSERVATION_NOT_FOUND", "No observation exists for that code and date")

	// 422 Unprocessable Entity
	ErrSchemaInvalid = New(http.StatusUnprocessableEntity, "SCHEMA_ERROR", "Source is missing required columns")
	ErrNoBaseRecord  = New(http.StatusUnprocessableEntity, "NO_BASE_RECORD", "Unknown indicator code and no seed fields supplied")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")

	// 503 Service Unavailable
	ErrMediumUnavailable = New(http.StatusServiceUnavailable, "MEDIUM_UNAVAILABLE", "Backing medium is unreachable")
)

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// NotFoundError creates a not found error for a (code, date) key
func NotFoundError(code, date string) *APIError {
	return NewWithDetails(http.StatusNotFound, "OBSERVATION_NOT_FOUND",
		fmt.Sprintf("No observation for code %s on %s", code, date),
		map[string]string{"code": code, "date": date})
}

// SchemaError creates a schema error naming the missing columns
func SchemaError(missing []string) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, "SCHEMA_ERROR",
		"Source is missing required columns", missing)
}

// MediumUnavailableError wraps a remote medium failure
func MediumUnavailableError(err error) *APIError {
	return NewWithDetails(http.StatusServiceUnavailable, "MEDIUM_UNAVAILABLE",
		"Backing medium is unreachable", err.Error())
}

// ParseError reports how many rows were dropped during normalization
func ParseError(dropped int) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, "PARSE_ERROR",
		fmt.Sprintf("%d rows could not be parsed and were dropped", dropped), dropped)
}

// ErrorResponse represents a standard error response envelope
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

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(NewErrorResponse(err))
}
