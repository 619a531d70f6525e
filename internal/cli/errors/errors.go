// Package errors provides structured error types for the dcauth CLI.
//
// Every user-facing failure carries a stable exit code for scripting:
// 1 = operation or authentication failure, 2 = usage error, 3 = service
// unavailable.
package errors

import (
	"fmt"
)

// ErrorCode represents a standardized error code.
type ErrorCode string

const (
	// ErrCodeServiceUnavailable indicates the authentication service could
	// not be reached.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeAuthenticationFailed indicates rejected credentials or an
	// expired session.
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	// ErrCodeValidationFailed indicates input validation failure.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrCodeOperationFailed indicates a general operation failure.
	ErrCodeOperationFailed ErrorCode = "OPERATION_FAILED"
)

// CLIError is a structured CLI error with a recovery suggestion.
type CLIError struct {
	Code       ErrorCode
	Message    string
	Suggestion string
	Details    string
	ExitCode   int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Suggestion != "" {
		msg += "\n\nSuggestion: " + e.Suggestion
	}
	return msg
}

// NewServiceUnavailableError creates an error for an unreachable service.
func NewServiceUnavailableError(endpoint string) *CLIError {
	return &CLIError{
		Code:       ErrCodeServiceUnavailable,
		Message:    "Authentication service is unavailable",
		Details:    fmt.Sprintf("Endpoint: %s", endpoint),
		Suggestion: fmt.Sprintf("Verify the service is running and accessible at %s, or point dcauth elsewhere with DCAUTH_API_ENDPOINT.", endpoint),
		ExitCode:   3,
	}
}

// NewAuthenticationError creates an error for rejected credentials or
// sessions. details is the server-provided message when available.
func NewAuthenticationError(details string) *CLIError {
	return &CLIError{
		Code:       ErrCodeAuthenticationFailed,
		Message:    "Authentication failed",
		Details:    details,
		Suggestion: "Check your email and password, or run 'dcauth login' to start a new session.",
		ExitCode:   1,
	}
}

// NewValidationError creates an error for invalid input.
func NewValidationError(message, suggestion string) *CLIError {
	return &CLIError{
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		Details:    message,
		Suggestion: suggestion,
		ExitCode:   2,
	}
}

// NewOperationError creates an error for general operation failures.
func NewOperationError(message, suggestion string) *CLIError {
	return &CLIError{
		Code:       ErrCodeOperationFailed,
		Message:    "Operation failed",
		Details:    message,
		Suggestion: suggestion,
		ExitCode:   1,
	}
}
