// Package errors defines the typed error taxonomy used across srcguard.
//
// Only InvalidRoot and configuration errors are fatal. File read errors are
// recoverable: they are collected per scan and never abort it.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeInvalidRoot ErrorType = "invalid_root"
	ErrorTypeFileRead    ErrorType = "file_read"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeOutput      ErrorType = "output"
)

// Error codes.
const (
	CodeRootNotFound   = "ROOT_NOT_FOUND"
	CodeRootNotDir     = "ROOT_NOT_DIR"
	CodeRootUnreadable = "ROOT_UNREADABLE"
	CodeFileOpen       = "FILE_OPEN"
	CodeFileRead       = "FILE_READ"
	CodeInvalidFormat  = "INVALID_FORMAT"
	CodeInvalidExt     = "INVALID_EXTENSION"
	CodeInvalidGlob    = "INVALID_GLOB"
	CodeOutputWrite    = "OUTPUT_WRITE"
)

// ScanError is a structured error type with context.
type ScanError struct {
	Type    ErrorType
	Code    string
	Message string
	Path    string
	Cause   error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Path != "" {
		parts = append(parts, e.Path)
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Is matches another ScanError with the same type and code.
func (e *ScanError) Is(target error) bool {
	var t *ScanError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// NewInvalidRootError reports a scan root that cannot be scanned.
func NewInvalidRootError(code, path string, cause error) *ScanError {
	msg := "not a valid directory"
	switch code {
	case CodeRootNotFound:
		msg = "directory does not exist"
	case CodeRootNotDir:
		msg = "is not a directory"
	}

	return &ScanError{
		Type:    ErrorTypeInvalidRoot,
		Code:    code,
		Message: msg,
		Path:    path,
		Cause:   cause,
	}
}

// NewFileReadError reports a single file that could not be read.
func NewFileReadError(code, path string, cause error) *ScanError {
	return &ScanError{
		Type:    ErrorTypeFileRead,
		Code:    code,
		Message: "error reading file",
		Path:    path,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *ScanError {
	return &ScanError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewOutputError reports a failure writing the report.
func NewOutputError(path string, cause error) *ScanError {
	return &ScanError{
		Type:    ErrorTypeOutput,
		Code:    CodeOutputWrite,
		Message: "writing report",
		Path:    path,
		Cause:   cause,
	}
}

// IsInvalidRoot checks if err reports an unusable scan root.
func IsInvalidRoot(err error) bool {
	return hasType(err, ErrorTypeInvalidRoot)
}

// IsFileRead checks if err reports an unreadable file.
func IsFileRead(err error) bool {
	return hasType(err, ErrorTypeFileRead)
}

// IsConfig checks if err reports bad configuration.
func IsConfig(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

func hasType(err error, t ErrorType) bool {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Type == t
	}

	return false
}
