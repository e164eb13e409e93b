// Package errors provides structured error handling for the frontend.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode classifies an application error.
type ErrorCode string

const (
	// Client errors (4xx)
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"

	// Server errors (5xx)
	CodeInternal            ErrorCode = "INTERNAL_ERROR"
	CodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	CodeSessionStoreError   ErrorCode = "SESSION_STORE_ERROR"
)

// AppError carries a code, a user-safe message and an optional cause.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode maps the error code onto an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithCause attaches the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// New creates an application error.
func New(code ErrorCode, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

// NewUpstreamError reports a failed call to a backing service.
func NewUpstreamError(service string, cause error) *AppError {
	return New(
		CodeUpstreamUnavailable,
		"The "+service+" is unreachable. Please try again shortly.",
		"",
	).WithCause(cause)
}

// NewSessionStoreError reports a session persistence failure.
func NewSessionStoreError(operation string, cause error) *AppError {
	return New(
		CodeSessionStoreError,
		"Session storage failed",
		fmt.Sprintf("failed to %s session", operation),
	).WithCause(cause)
}

// GetCode extracts the code, defaulting to internal for foreign errors.
func GetCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeInternal
}
