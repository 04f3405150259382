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
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrPermission    ErrorCode = "PERMISSION"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Link errors
	ErrLinkCreation      ErrorCode = "LINK_CREATION"
	ErrBrokenLink        ErrorCode = "BROKEN_LINK"
	ErrElevationRequired ErrorCode = "ELEVATION_REQUIRED"

	// Gating errors
	ErrGameRunning ErrorCode = "GAME_RUNNING"

	// Migration errors
	ErrMigrationFailed   ErrorCode = "MIGRATION_FAILED"
	ErrMigrationActive   ErrorCode = "MIGRATION_ACTIVE"
	ErrRollbackFailed    ErrorCode = "ROLLBACK_FAILED"
	ErrInsufficientSpace ErrorCode = "INSUFFICIENT_SPACE"

	// Subsystem errors
	ErrWatcher  ErrorCode = "WATCHER"
	ErrManifest ErrorCode = "MANIFEST"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// UnisyncError represents a structured error with code and details
type UnisyncError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *UnisyncError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *UnisyncError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *UnisyncError) Is(target error) bool {
	var targetErr *UnisyncError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new UnisyncError with the given code and message
func New(code ErrorCode, message string) *UnisyncError {
	return &UnisyncError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new UnisyncError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *UnisyncError {
	return &UnisyncError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a UnisyncError
func Wrap(err error, code ErrorCode, message string) *UnisyncError {
	if err == nil {
		return nil
	}
	return &UnisyncError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *UnisyncError {
	if err == nil {
		return nil
	}
	return &UnisyncError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *UnisyncError) WithDetail(key string, value interface{}) *UnisyncError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *UnisyncError) WithDetails(details map[string]interface{}) *UnisyncError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var uErr *UnisyncError
	if errors.As(err, &uErr) {
		return uErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a UnisyncError
func GetErrorCode(err error) ErrorCode {
	var uErr *UnisyncError
	if errors.As(err, &uErr) {
		return uErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a UnisyncError
func GetErrorDetails(err error) map[string]interface{} {
	var uErr *UnisyncError
	if errors.As(err, &uErr) {
		return uErr.Details
	}
	return nil
}
