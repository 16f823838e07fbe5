// Package service provides application-level services orchestrating
// authorization, persistence, and notification fan-out for tasks, teams,
// users, and analytics.
package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for
// with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrAccessDenied indicates the authorization policy denied the
	// operation. Never retried; the API layer maps this to HTTP 403.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidCredentials indicates an authentication attempt with an
	// unknown email, a wrong password, or a role that does not match the
	// account. Deliberately indistinguishable from the caller's side.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAdminRegistration indicates an attempt to self-register an Admin
	// account. Admin accounts are provisioned out of band.
	ErrAdminRegistration = errors.New("admin accounts cannot be self-registered")
)

// TaskServiceError is a custom error type for task service errors.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// TeamServiceError is a custom error type for team service errors.
type TeamServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TeamServiceError.
func (e *TeamServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("team service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("team service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TeamServiceError) Unwrap() error {
	return e.Err
}

// NewTeamServiceError creates a new TeamServiceError.
func NewTeamServiceError(operation, message string, err error) *TeamServiceError {
	return &TeamServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// UserServiceError is a custom error type for user service errors.
type UserServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for UserServiceError.
func (e *UserServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("user service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("user service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *UserServiceError) Unwrap() error {
	return e.Err
}

// NewUserServiceError creates a new UserServiceError.
func NewUserServiceError(operation, message string, err error) *UserServiceError {
	return &UserServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
