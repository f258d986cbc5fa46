package types

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the runtime.
type ErrorCode string

// Lifecycle and resource error codes
const (
	ErrNotInitialized       ErrorCode = "NOT_INITIALIZED"
	ErrAlreadyInitialized   ErrorCode = "ALREADY_INITIALIZED"
	ErrInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
	ErrModelNotFound        ErrorCode = "MODEL_NOT_FOUND"
	ErrLoadFailed           ErrorCode = "LOAD_FAILED"
	ErrIncompatible         ErrorCode = "INCOMPATIBLE"
	ErrNotLoaded            ErrorCode = "NOT_LOADED"
	ErrStorage              ErrorCode = "STORAGE"
)

// Inference error codes
const (
	ErrGenerationFailed   ErrorCode = "GENERATION_FAILED"
	ErrTimeout            ErrorCode = "TIMEOUT"
	ErrContextTooLong     ErrorCode = "CONTEXT_TOO_LONG"
	ErrTokenLimitExceeded ErrorCode = "TOKEN_LIMIT_EXCEEDED"
	ErrCancelled          ErrorCode = "CANCELLED"
	ErrInvalidFormat      ErrorCode = "INVALID_FORMAT"
)

// Input and state error codes
const (
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrEmptyInput   ErrorCode = "EMPTY_INPUT"
	ErrInvalidState ErrorCode = "INVALID_STATE"
	ErrNotSupported ErrorCode = "NOT_SUPPORTED"
)

// Audio error codes
const (
	ErrAudioFormatUnsupported ErrorCode = "AUDIO_FORMAT_UNSUPPORTED"
	ErrAudioPermissionDenied  ErrorCode = "AUDIO_PERMISSION_DENIED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Component string    `json:"component,omitempty"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithComponent sets the component that produced the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// IsCancelled reports whether err is a cancellation. Cancellations are
// expected outcomes and must not be logged or forwarded as failures.
func IsCancelled(err error) bool {
	return IsCode(err, ErrCancelled) || errors.Is(err, context.Canceled)
}
