package errors

import (
	stderrors "errors"
	"fmt"
)

// ShapeError is the structured error type for Shapeshifter.
// It carries enough context to be logged, mapped onto protocol errors,
// or shown to a chat user.
type ShapeError struct {
	// Code is the unique error code (e.g., "ERR_402_INVALID_ORDER").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ShapeError) Unwrap() error {
	return e.Cause
}

// Is matches by code so errors.Is works against sentinel ShapeErrors.
func (e *ShapeError) Is(target error) bool {
	if t, ok := target.(*ShapeError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *ShapeError) WithDetail(key, value string) *ShapeError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *ShapeError) WithSuggestion(suggestion string) *ShapeError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ShapeError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *ShapeError {
	return &ShapeError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a ShapeError from an existing error.
// The error's message becomes the ShapeError message.
func Wrap(code string, err error) *ShapeError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *ShapeError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates a source read error.
func IOError(message string, cause error) *ShapeError {
	return New(ErrCodeSourceRead, message, cause)
}

// NetworkError creates a network-related error.
// Network errors are retryable.
func NetworkError(message string, cause error) *ShapeError {
	return New(ErrCodeNetworkUnavailable, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *ShapeError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *ShapeError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var se *ShapeError
	if stderrors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current operation and are never recovered silently.
func IsFatal(err error) bool {
	var se *ShapeError
	if stderrors.As(err, &se) {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a ShapeError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var se *ShapeError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from a ShapeError anywhere in the chain.
func GetCategory(err error) Category {
	var se *ShapeError
	if stderrors.As(err, &se) {
		return se.Category
	}
	return ""
}
