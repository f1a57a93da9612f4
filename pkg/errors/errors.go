// Package errors provides structured error types for the pyven application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and library packages
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (recoverable, entry is skipped)
//   - NO_VENV: Missing virtual environment (fatal to the current command)
//   - INSTALLER_* / VERSION_NOT_FOUND: pip failures (recorded per package)
//   - DEPENDENCY_ERROR: graph/metadata analysis failures (recorded, analysis continues)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidFormat, "invalid requirement: %s", line)
//	if errors.Is(err, errors.ErrCodeInvalidFormat) {
//	    // Skip the offending entry
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors. These are always recoverable: the offending
	// line or entry is skipped with a warning and never aborts a whole parse.
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidVersion Code = "INVALID_VERSION"

	// Environment precondition errors. Fatal to the current command.
	ErrCodeNoVenv Code = "NO_VENV"

	// Resource not found errors. PACKAGE_NOT_FOUND and VERSION_NOT_FOUND
	// come from the index; FILE_NOT_FOUND from explicitly named local files.
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"

	// Installer errors. Recorded per package; VERSION_NOT_FOUND triggers
	// the auto-fix retry protocol.
	ErrCodeInstallerFailed Code = "INSTALLER_FAILED"
	ErrCodeVersionNotFound Code = "VERSION_NOT_FOUND"

	// Graph analysis errors. A single package's contribution is treated as
	// empty and analysis continues for the rest.
	ErrCodeDependency Code = "DEPENDENCY_ERROR"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
