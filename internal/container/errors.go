package container

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by errors.Is for every NOT_FOUND Error.
var ErrNotFound = errors.New("element not found")

// Error represents a failure reported by a Container operation.
//
// Errors include:
//   - Not found: TryRemove of an element whose identity is not indexed
//   - Invoke failed: a method called through Apply returned an error
//   - Bad arguments: Apply arguments do not fit the method signature
//   - Invariant: Check found an index entry out of step with the sequence
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Identity is the affected element identity, formatted with %v.
	Identity string

	// Method is the method name for invoke and argument errors.
	Method string

	// Err is the underlying error, if any.
	Err error
}

// ErrorCode categorizes container errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the element is not held by the container.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInvokeFailed indicates an applied method returned an error.
	ErrCodeInvokeFailed ErrorCode = "INVOKE_FAILED"

	// ErrCodeBadArguments indicates arguments could not be passed to a method.
	ErrCodeBadArguments ErrorCode = "BAD_ARGUMENTS"

	// ErrCodeInvariant indicates the indices disagree with the sequence.
	ErrCodeInvariant ErrorCode = "INVARIANT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Method != "" {
		msg += fmt.Sprintf(" (method=%s)", e.Method)
	}
	if e.Identity != "" {
		msg += fmt.Sprintf(" (identity=%s)", e.Identity)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports NOT_FOUND errors as ErrNotFound.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Code == ErrCodeNotFound
}

// IsNotFound returns true if err is a NOT_FOUND container error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvokeError returns true if err came from a method invoked through
// Apply, Call or Invoke, including argument mismatches.
func IsInvokeError(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeInvokeFailed || ce.Code == ErrCodeBadArguments
	}
	return false
}

func newNotFoundError(id any) *Error {
	return &Error{
		Code:     ErrCodeNotFound,
		Message:  "identity is not indexed",
		Identity: fmt.Sprint(id),
	}
}

func newInvokeError(method string, id any, err error) *Error {
	return &Error{
		Code:     ErrCodeInvokeFailed,
		Message:  "method returned an error",
		Identity: fmt.Sprint(id),
		Method:   method,
		Err:      err,
	}
}

func newArgumentError(method string, id any, format string, args ...any) *Error {
	return &Error{
		Code:     ErrCodeBadArguments,
		Message:  fmt.Sprintf(format, args...),
		Identity: fmt.Sprint(id),
		Method:   method,
	}
}

func newInvariantError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvariant,
		Message: fmt.Sprintf(format, args...),
	}
}
