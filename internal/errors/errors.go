package errors

import (
	"fmt"
)

// MonitorError is the structured error type for filemonitor.
// It provides context for logging and operator-facing output.
type MonitorError struct {
	// Code is the unique error code (e.g., "ERR_101_HANDLER_MISSING").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Subscription, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the operator.
	Suggestion string
}

// Error implements the error interface.
func (e *MonitorError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *MonitorError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with MonitorError.
func (e *MonitorError) Is(target error) bool {
	if t, ok := target.(*MonitorError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *MonitorError) WithDetail(key, value string) *MonitorError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the operator.
func (e *MonitorError) WithSuggestion(suggestion string) *MonitorError {
	e.Suggestion = suggestion
	return e
}

// New creates a new MonitorError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *MonitorError {
	return &MonitorError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a MonitorError from an existing error.
// The error's message becomes the MonitorError message.
func Wrap(code string, err error) *MonitorError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates an error for an invalid monitor declaration.
func ConfigError(code, message string, cause error) *MonitorError {
	return New(code, message, cause)
}

// SubscriptionError creates an error for a watch root that cannot be observed.
func SubscriptionError(message string, cause error) *MonitorError {
	return New(ErrCodeWatchFailed, message, cause)
}

// InvocationError creates an error for a failed handler run.
func InvocationError(code, message string, cause error) *MonitorError {
	return New(code, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *MonitorError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if me, ok := err.(*MonitorError); ok {
		return me.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a MonitorError.
// Returns empty string if not a MonitorError.
func GetCode(err error) string {
	if me, ok := err.(*MonitorError); ok {
		return me.Code
	}
	return ""
}

// GetCategory extracts the category from a MonitorError.
// Returns empty string if not a MonitorError.
func GetCategory(err error) Category {
	if me, ok := err.(*MonitorError); ok {
		return me.Category
	}
	return ""
}
