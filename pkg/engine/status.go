package engine

import "fmt"

// RunStatus represents the overall status of a run.
type RunStatus string

const (
	// RunStatusRunning indicates the run is currently executing.
	RunStatusRunning RunStatus = "running"

	// RunStatusSucceeded indicates the run completed successfully.
	RunStatusSucceeded RunStatus = "succeeded"

	// RunStatusFailed indicates the run failed with errors.
	RunStatusFailed RunStatus = "failed"

	// RunStatusCancelled indicates the run was interrupted.
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal returns true if the run status represents a final state.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed || s == RunStatusCancelled
}

// Validate checks if the run status is valid.
func (s RunStatus) Validate() error {
	switch s {
	case RunStatusRunning, RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return nil
	default:
		return fmt.Errorf("invalid run status: %s", s)
	}
}

// RunKind identifies which driver produced a run.
type RunKind string

const (
	// RunKindDiagnostic runs a program once with fixed inputs.
	RunKindDiagnostic RunKind = "diagnostic"

	// RunKindAmplify runs one amplifier network for one phase assignment.
	RunKindAmplify RunKind = "amplify"

	// RunKindSearch searches every phase permutation for the highest signal.
	RunKindSearch RunKind = "search"

	// RunKindSweep sweeps two patched memory cells for a target result.
	RunKindSweep RunKind = "sweep"
)

// NetworkMode selects how amplifier stages are connected.
type NetworkMode string

const (
	// NetworkSeries passes the signal through every stage exactly once.
	NetworkSeries NetworkMode = "series"

	// NetworkFeedback feeds the last stage back into the first until every
	// stage has halted.
	NetworkFeedback NetworkMode = "feedback"
)

// Validate checks if the network mode is valid.
func (m NetworkMode) Validate() error {
	switch m {
	case NetworkSeries, NetworkFeedback:
		return nil
	default:
		return NewPermanentError(fmt.Sprintf("invalid network mode %q (must be 'series' or 'feedback')", m), nil).
			WithCode(ErrCodeValidation)
	}
}

// EventType identifies a run event.
type EventType string

const (
	EventTypeRunStarted   EventType = "run.started"
	EventTypeRunCompleted EventType = "run.completed"
	EventTypeRunFailed    EventType = "run.failed"
	EventTypeNewBest      EventType = "search.new_best"
	EventTypeMatch        EventType = "sweep.match"
)
