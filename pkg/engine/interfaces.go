package engine

import (
	"context"
	"time"
)

// Recorder persists runs and their events.
// Recording failures are logged and never fail the run.
type Recorder interface {
	// SaveRun creates or updates a run record.
	SaveRun(ctx context.Context, run *Run) error

	// AppendEvent stores an event for a run.
	AppendEvent(ctx context.Context, event *Event) error
}

// Metrics receives engine measurements.
type Metrics interface {
	// RecordRun records a completed run.
	RecordRun(kind, status string, duration time.Duration)

	// RecordTrial records one machine or network execution inside a run.
	RecordTrial(kind string, steps uint64)

	// RecordFault records a machine fault by kind.
	RecordFault(kind string)
}
