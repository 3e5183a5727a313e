package intcode

import (
	"errors"
	"fmt"
)

// FaultKind classifies a fatal machine fault.
type FaultKind string

const (
	// DecodeFault is raised for an opcode outside the supported set.
	DecodeFault FaultKind = "decode"

	// MemoryFault is raised when a resolved address falls outside memory.
	MemoryFault FaultKind = "memory"

	// OverflowFault is raised when an addition or multiplication does not fit
	// in 64 bits.
	OverflowFault FaultKind = "overflow"
)

// Sentinel errors matched by errors.Is against a *Fault of the same kind.
var (
	ErrDecode   = errors.New("intcode: unknown opcode")
	ErrMemory   = errors.New("intcode: address out of bounds")
	ErrOverflow = errors.New("intcode: arithmetic overflow")
)

// Fault describes a fatal fault raised while executing or inspecting a machine.
// A fault aborts the current call; it is never a resumable state.
type Fault struct {
	// Kind is the fault classification.
	Kind FaultKind `json:"kind"`

	// Op names the instruction or operation that faulted (e.g. "add", "poke").
	Op string `json:"op"`

	// IP is the instruction pointer at the time of the fault.
	IP int `json:"ip"`

	// Word is the raw instruction word at IP, when one was fetched.
	Word int64 `json:"word,omitempty"`

	// Address is the offending address for memory faults.
	Address int64 `json:"address,omitempty"`
}

// Error implements the error interface.
func (f *Fault) Error() string {
	switch f.Kind {
	case DecodeFault:
		return fmt.Sprintf("intcode: unknown opcode %d (word %d) at ip=%d", f.Word%100, f.Word, f.IP)
	case MemoryFault:
		return fmt.Sprintf("intcode: %s: address %d out of bounds at ip=%d", f.Op, f.Address, f.IP)
	case OverflowFault:
		return fmt.Sprintf("intcode: %s: arithmetic overflow at ip=%d", f.Op, f.IP)
	default:
		return fmt.Sprintf("intcode: %s fault at ip=%d", f.Kind, f.IP)
	}
}

// Unwrap returns the sentinel error matching the fault kind.
func (f *Fault) Unwrap() error {
	switch f.Kind {
	case DecodeFault:
		return ErrDecode
	case MemoryFault:
		return ErrMemory
	case OverflowFault:
		return ErrOverflow
	}
	return nil
}

// AsFault extracts a *Fault from an error chain.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsFault reports whether err carries a machine fault of any kind.
func IsFault(err error) bool {
	_, ok := AsFault(err)
	return ok
}
