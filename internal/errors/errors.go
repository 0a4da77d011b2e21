package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryClient   ErrorCategory = "client"
	CategoryServer   ErrorCategory = "server"
	CategoryExternal ErrorCategory = "external"
)

// Error codes returned to clients
const (
	// Client errors (4xx)
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidURL       = "INVALID_URL"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRateLimited      = "RATE_LIMITED"

	// Server errors (5xx)
	CodeMisconfigured = "MISCONFIGURED"
	CodeInternalError = "INTERNAL_ERROR"

	// Upstream service errors
	CodeUpstreamError = "UPSTREAM_ERROR"
	CodeTimeout       = "TIMEOUT"
)

// AppError represents a structured application error
type AppError struct {
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Category   ErrorCategory `json:"-"`
	HTTPStatus int           `json:"-"`
	Cause      error         `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail sets the client-facing detail shown in the "error" field
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// WithCause sets the underlying cause of the error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// ErrorResponse is the JSON structure returned to clients.
// Error carries the detail when present, otherwise the message.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// New creates a new AppError
func New(code string, message string, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Category:   category,
		HTTPStatus: httpStatus,
	}
}

// Client error constructors

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message, CategoryClient, http.StatusBadRequest)
}

func InvalidURL(message string) *AppError {
	return New(CodeInvalidURL, message, CategoryClient, http.StatusBadRequest)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message, CategoryClient, http.StatusNotFound)
}

func MethodNotAllowed() *AppError {
	return New(CodeMethodNotAllowed, "Method not allowed", CategoryClient, http.StatusMethodNotAllowed)
}

func RateLimited(message string) *AppError {
	return New(CodeRateLimited, message, CategoryClient, http.StatusTooManyRequests)
}

// Server error constructors

func Misconfigured(message string) *AppError {
	return New(CodeMisconfigured, message, CategoryServer, http.StatusInternalServerError)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message, CategoryServer, http.StatusInternalServerError)
}

// Upstream error constructors

func UpstreamError(message string) *AppError {
	return New(CodeUpstreamError, message, CategoryExternal, http.StatusInternalServerError)
}

func Timeout(message string) *AppError {
	return New(CodeTimeout, message, CategoryExternal, http.StatusGatewayTimeout)
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, requestID string, err error) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = InternalError("an unexpected error occurred").WithCause(err)
	}

	resp := ErrorResponse{
		Error:     appErr.Message,
		Message:   appErr.Message,
		Code:      appErr.Code,
		RequestID: requestID,
	}
	if appErr.Detail != "" {
		resp.Error = appErr.Detail
	}

	WriteJSON(w, requestID, appErr.HTTPStatus, resp)
}

// WriteJSON writes a JSON response with the request ID header
func WriteJSON(w http.ResponseWriter, requestID string, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set(RequestIDHeader, requestID)
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
