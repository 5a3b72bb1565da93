// Package errors provides the structured error system for Loom.
//
// Error Code Format: AABBCCC (7 digits)
//
//	AA  (00-99): Service code - identifies the source service
//	BB  (00-99): Category code - identifies the error category
//	CCC (000-999): Sequence number within the category
//
// Usage:
//
//	// Using predefined errors
//	return errors.ErrInvalidParam.WithMessage("collection_id is required")
//
//	// Wrapping underlying errors
//	return errors.ErrDatabase.WithCause(err)
package errors

import (
	stderrors "errors"
	"fmt"
	"sync"
)

// Is, As and Unwrap re-export the standard library helpers so callers
// need a single errors import.
var (
	Is     = stderrors.Is
	As     = stderrors.As
	Unwrap = stderrors.Unwrap
)


// Errno represents a structured error with code and message.
type Errno struct {
	// Code is the unique error code.
	Code int `json:"code"`

	// HTTP is the HTTP status code to return.
	HTTP int `json:"-"`

	// Message is the error message.
	Message string `json:"message"`

	// cause is the underlying error.
	cause error
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("errno %d: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("errno %d: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

// HTTPStatus returns the HTTP status for the Errno, defaulting to 500.
func (e *Errno) HTTPStatus() int {
	if e.HTTP == 0 {
		return 500
	}
	return e.HTTP
}

// Is reports whether target carries the same error code. This makes
// errors.Is work across WithMessage/WithCause copies.
func (e *Errno) Is(target error) bool {
	t, ok := target.(*Errno)
	return ok && t.Code == e.Code
}

// WithCause returns a copy of the Errno with the given cause attached.
func (e *Errno) WithCause(cause error) *Errno {
	clone := *e
	clone.cause = cause
	return &clone
}

// WithMessage returns a copy of the Errno with a custom message.
func (e *Errno) WithMessage(msg string) *Errno {
	clone := *e
	clone.Message = msg
	return &clone
}

// WithMessagef returns a copy of the Errno with a formatted message.
func (e *Errno) WithMessagef(format string, args ...interface{}) *Errno {
	clone := *e
	clone.Message = fmt.Sprintf(format, args...)
	return &clone
}

// Service codes (AA).
const (
	ServiceCommon = 0
	ServiceEngine = 20
)

// Category codes (BB).
const (
	CategoryRequest  = 1
	CategoryResource = 4
	CategoryConflict = 5
	CategoryInternal = 7
	CategoryDatabase = 8
)

// MakeCode builds an error code from service, category and sequence parts.
func MakeCode(service, category, seq int) int {
	return service*100000 + category*1000 + seq
}

var (
	registryMu sync.RWMutex
	registry   = make(map[int]*Errno)
)

// Register registers an Errno in the global code registry and returns it.
// Registering a duplicate code panics: codes are assigned statically and a
// collision is a programming error.
func Register(e *Errno) *Errno {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[e.Code]; ok {
		panic(fmt.Sprintf("errors: duplicate error code %d", e.Code))
	}
	registry[e.Code] = e
	return e
}

// Lookup returns the registered Errno for a code, or nil.
func Lookup(code int) *Errno {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[code]
}

// FromError converts any error into an *Errno. Unknown errors map to
// ErrInternal with the original error as cause.
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	var e *Errno
	if As(err, &e) {
		return e
	}
	return ErrInternal.WithCause(err)
}
