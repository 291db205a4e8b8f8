package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Descriptor errors
	ErrDescriptorParse   ErrorCode = "DESCRIPTOR_PARSE"
	ErrDescriptorInvalid ErrorCode = "DESCRIPTOR_INVALID"

	// Rules and variables
	ErrConditionUnknown ErrorCode = "CONDITION_UNKNOWN"
	ErrConditionInvalid ErrorCode = "CONDITION_INVALID"
	ErrCyclicDependency ErrorCode = "CYCLIC_DEPENDENCY"
	ErrVariableResolve  ErrorCode = "VARIABLE_RESOLVE"

	// Pack errors
	ErrPackNotFound ErrorCode = "PACK_NOT_FOUND"
	ErrPackInvalid  ErrorCode = "PACK_INVALID"

	// Packaging errors
	ErrSizeMismatch  ErrorCode = "SIZE_MISMATCH"
	ErrCompression   ErrorCode = "COMPRESSION"
	ErrArchiveWrite  ErrorCode = "ARCHIVE_WRITE"
	ErrArchiveRead   ErrorCode = "ARCHIVE_READ"
	ErrFileNotFound  ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess    ErrorCode = "FILE_ACCESS"
	ErrFileWrite     ErrorCode = "FILE_WRITE"
	ErrDirCreate     ErrorCode = "DIR_CREATE"
	ErrInstallFailed ErrorCode = "INSTALL_FAILED"
)

// PacksmithError represents a structured error with code and details
type PacksmithError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *PacksmithError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *PacksmithError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *PacksmithError) Is(target error) bool {
	var targetErr *PacksmithError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new PacksmithError with the given code and message
func New(code ErrorCode, message string) *PacksmithError {
	return &PacksmithError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new PacksmithError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PacksmithError {
	return &PacksmithError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a PacksmithError
func Wrap(err error, code ErrorCode, message string) *PacksmithError {
	if err == nil {
		return nil
	}
	return &PacksmithError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PacksmithError {
	if err == nil {
		return nil
	}
	return &PacksmithError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *PacksmithError) WithDetail(key string, value interface{}) *PacksmithError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *PacksmithError) WithDetails(details map[string]interface{}) *PacksmithError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error, or any error it wraps, has a specific code
func IsErrorCode(err error, code ErrorCode) bool {
	for err != nil {
		var pErr *PacksmithError
		if !errors.As(err, &pErr) {
			return false
		}
		if pErr.Code == code {
			return true
		}
		err = pErr.Wrapped
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a PacksmithError
func GetErrorCode(err error) ErrorCode {
	var pErr *PacksmithError
	if errors.As(err, &pErr) {
		return pErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details of an error and every PacksmithError it
// wraps. Outer details win over inner ones. Returns nil if err is not a
// PacksmithError.
func GetErrorDetails(err error) map[string]interface{} {
	var details map[string]interface{}
	for err != nil {
		var pErr *PacksmithError
		if !errors.As(err, &pErr) {
			break
		}
		if details == nil {
			details = make(map[string]interface{})
		}
		for k, v := range pErr.Details {
			if _, ok := details[k]; !ok {
				details[k] = v
			}
		}
		err = pErr.Wrapped
	}
	return details
}
