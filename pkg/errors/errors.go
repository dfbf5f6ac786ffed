// Package errors provides the typed application errors used across the
// reconciliation service. Errors carry a category, a specific code, an
// optional suggestion for the operator, and structured context; the CLI
// maps categories to exit codes so scripted imports can distinguish a
// bad file from an unreachable store.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Category groups errors by the subsystem that produced them.
type Category string

const (
	CategoryFile           Category = "file"
	CategoryParse          Category = "parse"
	CategoryValidation     Category = "validation"
	CategoryStorage        Category = "storage"
	CategoryReconciliation Category = "reconciliation"
	CategoryInternal       Category = "internal"
)

// Code identifies a specific failure within a category.
type Code string

const (
	// File errors
	CodeFileNotFound   Code = "file_not_found"
	CodeFileUnreadable Code = "file_unreadable"
	CodeFileCorrupted  Code = "file_corrupted"

	// Parse errors
	CodeInvalidFormat Code = "invalid_format"
	CodeInvalidDate   Code = "invalid_date"
	CodeInvalidAmount Code = "invalid_amount"

	// Validation errors
	CodeInvalidState Code = "invalid_state"
	CodeMissingField Code = "missing_field"
	CodeNotFound     Code = "not_found"

	// Storage errors
	CodeStorageUnavailable Code = "storage_unavailable"
	CodeWriteFailed        Code = "write_failed"
	CodeQueryFailed        Code = "query_failed"

	// Reconciliation errors
	CodeMatchingFailed Code = "matching_failed"

	// Internal errors
	CodeUnexpected Code = "unexpected_error"
)

// Error is the base error type for the reconciliation service.
type Error struct {
	Category   Category               `json:"category"`
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace errors.StackTrace      `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code for the error category.
func (e *Error) ExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryStorage:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext attaches structured context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches an operator-facing suggestion.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error.
func New(category Category, code Code, message string) *Error {
	return &Error{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with category and code context.
func Wrap(err error, category Category, code Code, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// FileError creates a file access error.
func FileError(code Code, path string, err error) *Error {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("statement file not found: %s", path)
		suggestion = "check that the file path is correct"
	case CodeFileUnreadable:
		message = fmt.Sprintf("statement file could not be opened: %s", path)
		suggestion = "check file permissions and that the format matches the extension"
	case CodeFileCorrupted:
		message = fmt.Sprintf("statement file appears to be corrupted: %s", path)
		suggestion = "re-export the statement from the bank portal and retry"
	default:
		message = fmt.Sprintf("file error: %s", path)
	}

	result := New(CategoryFile, code, message)
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	}
	return result.WithSuggestion(suggestion).WithContext("file_path", path)
}

// StorageError creates a storage error. Storage failures are fatal for
// the operation in flight; no partial success is reported past them.
func StorageError(code Code, operation string, err error) *Error {
	var message, suggestion string

	switch code {
	case CodeStorageUnavailable:
		message = fmt.Sprintf("transaction store unavailable during %s", operation)
		suggestion = "check the database connection and retry"
	case CodeWriteFailed:
		message = fmt.Sprintf("transaction store write failed during %s", operation)
		suggestion = "retry; already-persisted lines remain valid"
	case CodeQueryFailed:
		message = fmt.Sprintf("transaction store query failed during %s", operation)
		suggestion = "check the database connection and retry"
	default:
		message = fmt.Sprintf("storage error during %s", operation)
	}

	result := New(CategoryStorage, code, message)
	if err != nil {
		result = Wrap(err, CategoryStorage, code, message)
	}
	return result.WithSuggestion(suggestion).WithContext("operation", operation)
}

// StateError creates a validation error for an illegal reconciliation
// state transition.
func StateError(entity, current, attempted string) *Error {
	return New(CategoryValidation, CodeInvalidState,
		fmt.Sprintf("%s in status %s cannot %s", entity, current, attempted)).
		WithSuggestion("reject the line first if it should be reconsidered").
		WithContext("status", current)
}

// NotFoundError creates a validation error for a missing record.
func NotFoundError(entity, id string) *Error {
	return New(CategoryValidation, CodeNotFound,
		fmt.Sprintf("%s not found: %s", entity, id)).
		WithContext("id", id)
}

// IsError checks if an error is a typed service error.
func IsError(err error) bool {
	_, ok := err.(*Error)
	return ok
}

// AsError extracts a typed service error from an error chain.
func AsError(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ExitCodeFor returns the exit code for any error, defaulting to 1 for
// untyped errors.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if appErr, ok := AsError(err); ok {
		return appErr.ExitCode()
	}
	return 1
}

// Summarize joins a bounded sample of error messages for logging.
func Summarize(errs []error, maxSamples int) string {
	if len(errs) == 0 {
		return "no errors"
	}

	limit := len(errs)
	if maxSamples > 0 && maxSamples < limit {
		limit = maxSamples
	}

	var msgs []string
	for i := 0; i < limit; i++ {
		msgs = append(msgs, errs[i].Error())
	}
	if limit < len(errs) {
		msgs = append(msgs, fmt.Sprintf("and %d more", len(errs)-limit))
	}

	return strings.Join(msgs, "; ")
}
