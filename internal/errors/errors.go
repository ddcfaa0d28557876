package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a shrule error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"     // 400
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"       // 400 (malformed journal stream)
	ErrNotFound       ErrorCode = "NOT_FOUND"           // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrParse          ErrorCode = "PARSE_ERROR"         // 422 (unterminated quote or substitution)
	ErrCancelled      ErrorCode = "CANCELLED"           // 499
	ErrInvariant      ErrorCode = "INVARIANT_VIOLATION" // 500
	ErrInternal       ErrorCode = "INTERNAL"            // 500
)

// ShruleError represents a structured error with code, status, and details.
type ShruleError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *ShruleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *ShruleError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ShruleError {
	return &ShruleError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidInput creates a 400 error for an unreadable shournal stream.
// line is 1-based; 0 means the stream as a whole.
func NewInvalidInput(line int, msg string) *ShruleError {
	if line > 0 {
		msg = fmt.Sprintf("line %d: %s", line, msg)
	}
	return &ShruleError{
		Code:    ErrInvalidInput,
		Status:  400,
		Message: msg,
		Details: map[string]any{"line": line},
	}
}

// NewNotFound creates a 404 error for when a rule set cannot be found.
func NewNotFound(identifier string) *ShruleError {
	return &ShruleError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("rule set not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing file.
func NewFileNotFound(path string) *ShruleError {
	return &ShruleError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewParse creates a 422 error wrapping a tokenizer failure.
func NewParse(command string, err error) *ShruleError {
	return &ShruleError{
		Code:    ErrParse,
		Status:  422,
		Message: fmt.Sprintf("unable to parse shell command: %v", err),
		Details: map[string]any{"command": command},
		cause:   err,
	}
}

// NewCancelled creates a 499 error when an operation is cancelled by its context.
func NewCancelled(op string) *ShruleError {
	return &ShruleError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInvariant creates a 500 error for a broken internal invariant. These indicate
// a bug and are never recovered from.
func NewInvariant(msg string) *ShruleError {
	return &ShruleError{
		Code:    ErrInvariant,
		Status:  500,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ShruleError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ShruleError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if err is, or wraps, a ShruleError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *ShruleError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}
