package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeTransport  ErrorType = "TRANSPORT"
	ErrTypeParse      ErrorType = "PARSE"
	ErrTypeFormat     ErrorType = "FORMAT"
	ErrTypeAlignment  ErrorType = "ALIGNMENT"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// Sentinels matched by errors.Is against any AppError of the same type
var (
	ErrTransport  = errors.New("transport error")
	ErrParse      = errors.New("parse error")
	ErrFormat     = errors.New("format error")
	ErrAlignment  = errors.New("alignment error")
	ErrStorage    = errors.New("storage error")
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConfig     = errors.New("config error")
)

var sentinels = map[ErrorType]error{
	ErrTypeTransport:  ErrTransport,
	ErrTypeParse:      ErrParse,
	ErrTypeFormat:     ErrFormat,
	ErrTypeAlignment:  ErrAlignment,
	ErrTypeStorage:    ErrStorage,
	ErrTypeValidation: ErrValidation,
	ErrTypeNotFound:   ErrNotFound,
	ErrTypeConfig:     ErrConfig,
}

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

// Is matches the sentinel of the error's type
func (e *AppError) Is(target error) bool {
	s, ok := sentinels[e.Type]
	return ok && s == target
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

// NewTransportError reports a failed or non-success upstream fetch. It is
// never retried internally.
func NewTransportError(message string, cause error) *AppError {
	return NewAppError(ErrTypeTransport, message, cause)
}

// NewHTTPStatusError is a TransportError for a non-success response status
func NewHTTPStatusError(url string, status int, statusText string) *AppError {
	return NewTransportError(fmt.Sprintf("unexpected status %s", statusText), nil).
		WithContext("url", url).
		WithContext("status_code", status)
}

// NewParseError reports a configuration blob that could not be understood
func NewParseError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParse, message, cause)
}

// NewFormatError reports a payload whose content type does not match the
// requested data format
func NewFormatError(message string, cause error) *AppError {
	return NewAppError(ErrTypeFormat, message, cause)
}

// NewAlignmentError reports two tables that cannot be reconciled
func NewAlignmentError(message string) *AppError {
	return NewAppError(ErrTypeAlignment, message, nil)
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

// TypeOf returns the AppError type found in the chain, or "" when none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
