package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a snip error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"  // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"        // 404
	ErrConflict       ErrorCode = "CONFLICT"         // 409
	ErrPromptTooLarge ErrorCode = "PROMPT_TOO_LARGE" // 413
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"   // 404
	ErrStorage        ErrorCode = "STORAGE"          // 500
	ErrInternal       ErrorCode = "INTERNAL"         // 500
)

// SnipError represents a structured error with code, status, and details.
type SnipError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SnipError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for input that fails validation.
func NewInvalidRequest(msg string) *SnipError {
	return &SnipError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewMissingFields creates a 400 error listing required fields that were empty.
func NewMissingFields(fields []string) *SnipError {
	return &SnipError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: fmt.Sprintf("missing required fields: %s", strings.Join(fields, ", ")),
		Details: map[string]any{"missing_fields": fields},
	}
}

// NewNotFound creates a 404 error for when a snippet cannot be found.
func NewNotFound(identifier string) *SnipError {
	return &SnipError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("snippet not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewSelectionConflict creates a 409 error when an exclusive slot is already held.
func NewSelectionConflict(category, holderID string) *SnipError {
	return &SnipError{
		Code:    ErrConflict,
		Status:  409,
		Message: fmt.Sprintf("an exclusive snippet is already selected in category %q; deselect it first", category),
		Details: map[string]any{"category": category, "selected_id": holderID},
	}
}

// NewConflict creates a 409 error for general state conflicts.
func NewConflict(msg string) *SnipError {
	return &SnipError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewPromptTooLarge creates a 413 error when prompt text exceeds the configured limit.
func NewPromptTooLarge(max, actual int) *SnipError {
	return &SnipError{
		Code:    ErrPromptTooLarge,
		Status:  413,
		Message: fmt.Sprintf("prompt_text exceeds maximum size: %d chars (max %d)", actual, max),
		Details: map[string]any{"max_chars": max, "actual_chars": actual},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *SnipError {
	return &SnipError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewStorage creates a 500 error for a failed write to the data directory.
func NewStorage(err error) *SnipError {
	msg := "storage error"
	if err != nil {
		msg = err.Error()
	}
	return &SnipError{
		Code:    ErrStorage,
		Status:  500,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SnipError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SnipError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a SnipError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SnipError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// As returns the SnipError in err's chain, if any.
func As(err error) (*SnipError, bool) {
	var sErr *SnipError
	if stderrors.As(err, &sErr) {
		return sErr, true
	}
	return nil, false
}
