package engine

import (
	"time"

	"github.com/openfroyo/intcode/pkg/intcode"
)

// Run represents one execution of a driver against a program.
type Run struct {
	// ID is the unique identifier for this run.
	ID string `json:"id"`

	// Kind identifies the driver that produced the run.
	Kind RunKind `json:"kind"`

	// ProgramHash is the content hash of the program that was executed.
	ProgramHash string `json:"program_hash"`

	// Status is the current status of the run.
	Status RunStatus `json:"status"`

	// Result is the headline answer of the run, if one was produced.
	Result *int64 `json:"result,omitempty"`

	// Detail holds driver-specific parameters and results.
	Detail map[string]interface{} `json:"detail,omitempty"`

	// Error is the error message when the run failed.
	Error string `json:"error,omitempty"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the run finished.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Duration is the total run time.
	Duration time.Duration `json:"duration"`
}

// Event represents a notable occurrence during a run.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// RunID is the run this event belongs to.
	RunID string `json:"run_id"`

	// Type is the event type.
	Type EventType `json:"type"`

	// Level is the severity (debug, info, warn, error).
	Level string `json:"level"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Payload carries structured event data.
	Payload map[string]interface{} `json:"payload,omitempty"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
}

// DiagnosticResult is the outcome of a single machine run.
type DiagnosticResult struct {
	RunID   string        `json:"run_id"`
	State   intcode.State `json:"state"`
	Outputs []int64       `json:"outputs"`
	Steps   uint64        `json:"steps"`
	// Cell0 is the value at address 0 after the run.
	Cell0 int64 `json:"cell0"`
}

// AmplifyResult is the outcome of one amplifier network run.
type AmplifyResult struct {
	RunID  string      `json:"run_id"`
	Mode   NetworkMode `json:"mode"`
	Phases []int64     `json:"phases"`
	Signal int64       `json:"signal"`
	Rounds int         `json:"rounds"`
	Steps  uint64      `json:"steps"`
}

// SearchResult is the outcome of a phase-setting search.
type SearchResult struct {
	RunID    string        `json:"run_id"`
	Mode     NetworkMode   `json:"mode"`
	Signal   int64         `json:"signal"`
	Phases   []int64       `json:"phases"`
	Trials   int           `json:"trials"`
	Steps    uint64        `json:"steps"`
	Duration time.Duration `json:"duration"`
}

// SweepSpec configures a noun/verb memory sweep.
type SweepSpec struct {
	// Target is the value address ResultAddr must hold after the run.
	Target int64 `json:"target"`

	NounMin int64 `json:"noun_min"`
	NounMax int64 `json:"noun_max"`
	VerbMin int64 `json:"verb_min"`
	VerbMax int64 `json:"verb_max"`

	NounAddr   int `json:"noun_addr"`
	VerbAddr   int `json:"verb_addr"`
	ResultAddr int `json:"result_addr"`
}

// DefaultSweepSpec returns the conventional sweep: nouns and verbs in
// [0, 99] patched into addresses 1 and 2, result read from address 0.
func DefaultSweepSpec(target int64) SweepSpec {
	return SweepSpec{
		Target:     target,
		NounMin:    0,
		NounMax:    99,
		VerbMin:    0,
		VerbMax:    99,
		NounAddr:   1,
		VerbAddr:   2,
		ResultAddr: 0,
	}
}

// Validate checks the sweep bounds.
func (s SweepSpec) Validate() error {
	if s.NounMin > s.NounMax || s.VerbMin > s.VerbMax {
		return NewPermanentError("sweep range is empty", nil).WithCode(ErrCodeValidation)
	}
	if s.NounAddr < 0 || s.VerbAddr < 0 || s.ResultAddr < 0 {
		return NewPermanentError("sweep addresses must be non-negative", nil).WithCode(ErrCodeValidation)
	}
	return nil
}

// trials returns the number of noun/verb pairs covered by the spec.
func (s SweepSpec) trials() int {
	return int((s.NounMax - s.NounMin + 1) * (s.VerbMax - s.VerbMin + 1))
}

// pair maps a trial index to its noun and verb in noun-major order.
func (s SweepSpec) pair(index int) (noun, verb int64) {
	width := s.VerbMax - s.VerbMin + 1
	return s.NounMin + int64(index)/width, s.VerbMin + int64(index)%width
}

// SweepResult is the outcome of a sweep.
type SweepResult struct {
	RunID   string `json:"run_id"`
	Noun    int64  `json:"noun"`
	Verb    int64  `json:"verb"`
	Answer  int64  `json:"answer"`
	Trials  int    `json:"trials"`
	Faulted int    `json:"faulted"`
}
