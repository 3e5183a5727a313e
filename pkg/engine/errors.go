package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openfroyo/intcode/pkg/intcode"
)

// Error codes carried by EngineError.
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeMachineFault = "MACHINE_FAULT"
	ErrCodeNoSignal     = "NO_SIGNAL"
	ErrCodeStalled      = "STALLED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeCancelled    = "CANCELLED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorClass tells callers whether repeating a failed run can help.
type ErrorClass string

const (
	// ErrorClassTransient failures come from outside the program, such as a
	// cancelled context.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassPermanent failures repeat on every attempt: machine faults,
	// bad phase settings, stalled networks.
	ErrorClassPermanent ErrorClass = "permanent"
)

// EngineError is a failure of a driver, as opposed to a *intcode.Fault
// raised by a single machine. A fault that aborts a driver is wrapped in an
// EngineError with code MACHINE_FAULT.
//
//nolint:revive
type EngineError struct {
	Class     ErrorClass             `json:"class"`
	Code      string                 `json:"code,omitempty"`
	Message   string                 `json:"message"`
	Operation string                 `json:"operation,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`

	Err error `json:"-"`
}

func newEngineError(class ErrorClass, message string, err error) *EngineError {
	return &EngineError{Class: class, Message: message, Err: err}
}

// NewTransientError returns a transient error wrapping err, which may be nil.
func NewTransientError(message string, err error) *EngineError {
	return newEngineError(ErrorClassTransient, message, err)
}

// NewPermanentError returns a permanent error wrapping err, which may be nil.
func NewPermanentError(message string, err error) *EngineError {
	return newEngineError(ErrorClassPermanent, message, err)
}

// Error formats as "operation: message (class, code): cause".
func (e *EngineError) Error() string {
	var b strings.Builder
	if e.Operation != "" {
		b.WriteString(e.Operation)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s, %s)", e.Class, e.Code)
	} else {
		fmt.Fprintf(&b, " (%s)", e.Class)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is matches another *EngineError with the same class and code.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	return ok && e.Class == t.Class && e.Code == t.Code
}

func (e *EngineError) WithOperation(operation string) *EngineError {
	e.Operation = operation
	return e
}

func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func asEngineError(err error) (*EngineError, bool) {
	var e *EngineError
	ok := errors.As(err, &e)
	return e, ok
}

// IsTransient reports whether err carries a transient EngineError.
func IsTransient(err error) bool {
	e, ok := asEngineError(err)
	return ok && e.Class == ErrorClassTransient
}

// IsPermanent reports whether err carries a permanent EngineError.
func IsPermanent(err error) bool {
	e, ok := asEngineError(err)
	return ok && e.Class == ErrorClassPermanent
}

// HasCode reports whether err carries an EngineError with the given code.
func HasCode(err error, code string) bool {
	e, ok := asEngineError(err)
	return ok && e.Code == code
}

// classifyError maps err onto an EngineError for operation. Machine faults
// become MACHINE_FAULT with the fault kind and ip as details, context
// errors become transient CANCELLED, anything else is INTERNAL_ERROR.
func classifyError(err error, operation string) *EngineError {
	if err == nil {
		return nil
	}

	if e, ok := asEngineError(err); ok {
		if e.Operation == "" {
			e.Operation = operation
		}
		return e
	}

	var classified *EngineError
	if fault, ok := intcode.AsFault(err); ok {
		classified = NewPermanentError("machine fault", err).
			WithCode(ErrCodeMachineFault).
			WithDetail("fault", string(fault.Kind)).
			WithDetail("ip", fault.IP)
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		classified = NewTransientError("operation cancelled", err).WithCode(ErrCodeCancelled)
	} else {
		classified = NewPermanentError("execution failed", err).WithCode(ErrCodeInternal)
	}
	return classified.WithOperation(operation)
}
