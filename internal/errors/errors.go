// Package errors provides structured error handling for reconkit operations.
// It defines error codes, error types, and utilities for creating and
// classifying errors raised by the scan and capture engines.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeCanceled      ErrorCode = "CANCELED"

	// Engine lifecycle errors.
	CodeAlreadyRunning ErrorCode = "ALREADY_RUNNING"

	// Resource and I/O errors.
	CodeResourceUnavailable ErrorCode = "RESOURCE_UNAVAILABLE"
	CodeRuntimeIO           ErrorCode = "RUNTIME_IO"
)

// ScanError represents an error raised by the host or port scan engines.
type ScanError struct {
	Code    ErrorCode
	Message string
	Target  string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s (target: %s)", e.Code, msg, e.Target)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *ScanError) WithContext(key string, value interface{}) *ScanError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewScanError creates a new scan error with the specified code and message.
func NewScanError(code ErrorCode, message string) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WrapScanError wraps an existing error as a scan error.
func WrapScanError(code ErrorCode, message string, err error) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// CaptureError represents packet capture errors.
type CaptureError struct {
	Code      ErrorCode
	Message   string
	Interface string
	Cause     error
}

// Error implements the error interface.
func (e *CaptureError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Interface != "" {
		return fmt.Sprintf("[%s] %s (interface: %s)", e.Code, msg, e.Interface)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying error.
func (e *CaptureError) Unwrap() error {
	return e.Cause
}

// NewCaptureError creates a new capture error.
func NewCaptureError(code ErrorCode, message string) *CaptureError {
	return &CaptureError{
		Code:    code,
		Message: message,
	}
}

// WrapCaptureError wraps an existing error as a capture error.
func WrapCaptureError(code ErrorCode, message, iface string, err error) *CaptureError {
	return &CaptureError{
		Code:      code,
		Message:   message,
		Interface: iface,
		Cause:     err,
	}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, msg, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigFieldError creates a configuration error for a specific field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Field:   field,
		Value:   value,
	}
}

// WrapConfigError wraps an existing error as a configuration error.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Utility functions for common error operations

// GetCode extracts the error code from an error chain if it has one.
func GetCode(err error) ErrorCode {
	var scanErr *ScanError
	if stderrors.As(err, &scanErr) {
		return scanErr.Code
	}
	var captureErr *CaptureError
	if stderrors.As(err, &captureErr) {
		return captureErr.Code
	}
	var configErr *ConfigError
	if stderrors.As(err, &configErr) {
		return configErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

// Common error creation functions

// ErrAlreadyRunning creates an error for a start request against a busy engine.
func ErrAlreadyRunning(kind string) *ScanError {
	return NewScanError(CodeAlreadyRunning, fmt.Sprintf("%s already running", kind))
}

// ErrInvalidTarget creates an error for targets that fail name resolution.
func ErrInvalidTarget(target string, err error) *ScanError {
	e := WrapScanError(CodeResourceUnavailable, "unable to resolve target host", err)
	e.Target = target
	return e
}

// ErrInvalidCIDR creates a validation error for a malformed subnet.
func ErrInvalidCIDR(subnet string, err error) *ScanError {
	e := WrapScanError(CodeValidation, "invalid subnet", err)
	e.Target = subnet
	return e
}

// ErrInvalidPorts creates a validation error for a malformed port specification.
func ErrInvalidPorts(spec string, err error) *ScanError {
	return WrapScanError(CodeValidation, "invalid port specification", err).WithContext("ports", spec)
}

// ErrConfigInvalid creates an error for invalid configuration.
func ErrConfigInvalid(field string, value interface{}) *ConfigError {
	return NewConfigFieldError(CodeValidation, "Invalid configuration value", field, value)
}
