// Package errors provides the typed error used across aws-cost.
//
// Every boundary call (Cost Explorer, resource listing, cancellation, ledger)
// reports failures as *Error with a Type. Callers branch on the Type to decide
// whether to degrade or surface the failure.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInput indicates an input validation error
	TypeInput Type = "INPUT_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeUnavailable indicates the upstream API could not be reached or returned no usable data
	TypeUnavailable Type = "UNAVAILABLE"

	// TypeNotSupported indicates the operation is not offered (service missing in a region, unmapped service)
	TypeNotSupported Type = "NOT_SUPPORTED"

	// TypeDenied indicates the caller lacks permission
	TypeDenied Type = "DENIED"

	// TypeNotFound indicates a resource not found error
	TypeNotFound Type = "NOT_FOUND"

	// TypeThrottled indicates the upstream API rate limited the call
	TypeThrottled Type = "THROTTLED"

	// TypePersistence indicates a local storage failure (ledger, cache)
	TypePersistence Type = "PERSISTENCE_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"

	// TypeUnknown indicates an upstream failure that could not be classified
	TypeUnknown Type = "UNKNOWN"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCode records the upstream error code (e.g. AccessDeniedException)
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// TypeOf returns the Type of the outermost *Error in the chain.
// Errors that are not *Error report TypeUnknown, nil reports "".
func TypeOf(err error) Type {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return TypeUnknown
}

// CodeOf returns the first upstream code found in the chain, or "UnknownError".
func CodeOf(err error) string {
	var e *Error
	for err != nil {
		if stderrors.As(err, &e) {
			if e.Code != "" {
				return e.Code
			}
			err = e.Cause
			continue
		}
		break
	}
	return "UnknownError"
}

// IsType checks if an error is of a specific type
func IsType(err error, t Type) bool {
	return TypeOf(err) == t
}

// Input creates an input error
func Input(message string) *Error {
	return New(TypeInput, message)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// NotSupported creates a not supported error
func NotSupported(operation string) *Error {
	return Newf(TypeNotSupported, "operation not supported: %s", operation)
}

// Unavailable creates an unavailable error
func Unavailable(message string, cause error) *Error {
	return Wrap(TypeUnavailable, message, cause)
}

// Persistence creates a persistence error
func Persistence(message string, cause error) *Error {
	return Wrap(TypePersistence, message, cause)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
