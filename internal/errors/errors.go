// Package errors defines the caller-visible error kinds used across services.
package errors

import "fmt"

// ErrUnauthenticated represents a request with no authenticated caller
var ErrUnauthenticated = &UnauthenticatedError{}

// UnauthenticatedError is a sentinel error for unauthenticated callers
type UnauthenticatedError struct {
	Message string
}

// Error implements the error interface
func (e *UnauthenticatedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "caller is not authenticated"
}

// Is implements the error interface for error comparison
func (e *UnauthenticatedError) Is(target error) bool {
	_, ok := target.(*UnauthenticatedError)
	return ok
}

// NewUnauthenticatedError creates a new UnauthenticatedError with a custom message
func NewUnauthenticatedError(message string) *UnauthenticatedError {
	return &UnauthenticatedError{Message: message}
}

// ErrInvalidArgument represents a request that fails input validation
var ErrInvalidArgument = &InvalidArgumentError{}

// InvalidArgumentError is a sentinel error for invalid caller input
type InvalidArgumentError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *InvalidArgumentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid argument: %s", e.Field)
	}
	return "invalid argument"
}

// Is implements the error interface for error comparison
func (e *InvalidArgumentError) Is(target error) bool {
	_, ok := target.(*InvalidArgumentError)
	return ok
}

// NewInvalidArgumentError creates a new InvalidArgumentError with a custom message
func NewInvalidArgumentError(field, message string) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Message: message}
}

// ErrNotFound represents a "not found" error
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found
type NotFoundError struct {
	Resource string
	Message  string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Resource != "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return "resource not found"
}

// Is implements the error interface for error comparison
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// NewNotFoundError creates a new NotFoundError with a custom message
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{Resource: resource, Message: message}
}

// ErrAnalysisFailed represents a provider failure while generating a report
// analysis. Unlike chat, the analyzer has no retrieval fallback, so the
// failure is surfaced to the caller instead of being converted to canned text.
var ErrAnalysisFailed = &AnalysisFailedError{}

// AnalysisFailedError is a sentinel error for failed report analyses
type AnalysisFailedError struct {
	Message string
}

// Error implements the error interface
func (e *AnalysisFailedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "analysis failed"
}

// Is implements the error interface for error comparison
func (e *AnalysisFailedError) Is(target error) bool {
	_, ok := target.(*AnalysisFailedError)
	return ok
}

// NewAnalysisFailedError creates a new AnalysisFailedError with a custom message
func NewAnalysisFailedError(message string) *AnalysisFailedError {
	return &AnalysisFailedError{Message: message}
}
