package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error codes exposed to API consumers.
const (
	CodeBadRequest       = "ERR_BAD_REQUEST"
	CodeNotFound         = "ERR_NOT_FOUND"
	CodeMethodNotAllowed = "ERR_METHOD_NOT_ALLOWED"
	CodeInternal         = "ERR_INTERNAL"
	CodeUpstream         = "ERR_UPSTREAM"
	CodeSnapshotNotReady = "SNAPSHOT_NOT_READY"
	CodeClientClosed     = "ERR_CLIENT_CLOSED"
)

// StatusClientClosedRequest is the nginx convention for a caller that went
// away before the response was ready.
const StatusClientClosedRequest = 499

// AppError represents application-level error with HTTP status.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Field:   field,
		Status:  status,
	}
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// NotFoundError creates a 404 error.
func NotFoundError(message string) *AppError {
	return NewAppError(CodeNotFound, "", message, http.StatusNotFound)
}

// InternalError creates a 500 error.
func InternalError(message string) *AppError {
	return NewAppError(CodeInternal, "", message, http.StatusInternalServerError)
}

// BadGatewayError creates a 502 error for an unreachable upstream.
func BadGatewayError(message string) *AppError {
	return NewAppError(CodeUpstream, "", message, http.StatusBadGateway)
}

// SnapshotNotReadyError creates the 503 returned when no closed bar is available.
func SnapshotNotReadyError(message string) *AppError {
	return NewAppError(CodeSnapshotNotReady, "", message, http.StatusServiceUnavailable)
}

func ClientClosedError(message string) *AppError {
	return NewAppError(CodeClientClosed, "", message, StatusClientClosedRequest)
}

// FromHTTPError maps an echo routing or binding error onto an AppError.
func FromHTTPError(he *echo.HTTPError) *AppError {
	msg := fmt.Sprintf("%v", he.Message)
	switch {
	case he.Code == http.StatusNotFound:
		return NotFoundError(msg)
	case he.Code == http.StatusMethodNotAllowed:
		return NewAppError(CodeMethodNotAllowed, "", msg, he.Code)
	case he.Code >= 400 && he.Code < 500:
		return NewAppError(CodeBadRequest, "", msg, he.Code)
	default:
		return InternalError(msg).WithError(he)
	}
}
