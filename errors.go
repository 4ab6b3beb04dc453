// Package mist structured error types for better error handling
package mist

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Grid sizes or options rejected before a campaign begins
	ErrTypeConfiguration ErrorType = iota
	// Operation issued in the wrong emulator state
	ErrTypeInvalidState
	// More invocations than the configured grid volume
	ErrTypeGridOverflow
	// Kernel body failures
	ErrTypeExecution
	// Device errors
	ErrTypeDevice
	// Not implemented errors
	ErrTypeNotImplemented
)

// MistError represents a structured error with context
type MistError struct {
	Type    ErrorType
	Op      string      // Operation that failed
	Message string      // Human-readable message
	Err     error       // Underlying error if any
	Context interface{} // Additional context
}

// Error implements the error interface
func (e *MistError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mist %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("mist %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *MistError) Unwrap() error {
	return e.Err
}

// Is matches another MistError of the same type. An empty Op in target
// matches any operation.
func (e *MistError) Is(target error) bool {
	t, ok := target.(*MistError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Op == "" || t.Op == e.Op)
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConfiguration:
		return "Configuration"
	case ErrTypeInvalidState:
		return "InvalidState"
	case ErrTypeGridOverflow:
		return "GridOverflow"
	case ErrTypeExecution:
		return "Execution"
	case ErrTypeDevice:
		return "Device"
	case ErrTypeNotImplemented:
		return "NotImplemented"
	default:
		return "Unknown"
	}
}

// Common error constructors

// NewConfigurationError creates a configuration error
func NewConfigurationError(op string, message string, context interface{}) error {
	return &MistError{
		Type:    ErrTypeConfiguration,
		Op:      op,
		Message: message,
		Context: context,
	}
}

// NewInvalidStateError creates an invalid state error
func NewInvalidStateError(op string, message string) error {
	return &MistError{
		Type:    ErrTypeInvalidState,
		Op:      op,
		Message: message,
	}
}

// NewGridOverflowError creates a grid overflow error. The context carries
// the offending id.
func NewGridOverflowError(op string, message string, context interface{}) error {
	return &MistError{
		Type:    ErrTypeGridOverflow,
		Op:      op,
		Message: message,
		Context: context,
	}
}

// NewExecutionError creates an execution error
func NewExecutionError(op string, message string, err error) error {
	return &MistError{
		Type:    ErrTypeExecution,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewNotImplementedError creates a not implemented error
func NewNotImplementedError(op string, message string) error {
	return &MistError{
		Type:    ErrTypeNotImplemented,
		Op:      op,
		Message: message,
	}
}

// Common pre-defined errors

var (
	// ErrInvalidState indicates a coordinate request before BeginCampaign
	ErrInvalidState = NewInvalidStateError("NextCoordinate", "campaign has not begun")

	// ErrContextDestroyed indicates a launch on a context after Destroy
	ErrContextDestroyed = NewInvalidStateError("Launch", "context has been destroyed")

	// ErrGridOverflow matches any grid overflow error via errors.Is
	ErrGridOverflow = &MistError{Type: ErrTypeGridOverflow, Message: "global id overflow"}

	// ErrConfiguration matches any configuration error via errors.Is
	ErrConfiguration = &MistError{Type: ErrTypeConfiguration, Message: "invalid configuration"}

	// ErrNotSupported indicates the active backend cannot launch from the host
	ErrNotSupported = NewNotImplementedError("Launch", "backend runs on an external runtime")

	// ErrInvalidDevice indicates invalid device ID
	ErrInvalidDevice = &MistError{Type: ErrTypeDevice, Op: "SetDevice", Message: "invalid device ID"}
)

func isType(err error, t ErrorType) bool {
	var e *MistError
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	return isType(err, ErrTypeConfiguration)
}

// IsInvalidStateError checks if an error is an invalid state error
func IsInvalidStateError(err error) bool {
	return isType(err, ErrTypeInvalidState)
}

// IsGridOverflowError checks if an error is a grid overflow error
func IsGridOverflowError(err error) bool {
	return isType(err, ErrTypeGridOverflow)
}

// IsExecutionError checks if an error is an execution error
func IsExecutionError(err error) bool {
	return isType(err, ErrTypeExecution)
}

// IsNotImplementedError checks if an error is a not implemented error
func IsNotImplementedError(err error) bool {
	return isType(err, ErrTypeNotImplemented)
}
