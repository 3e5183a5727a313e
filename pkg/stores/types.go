package stores

import (
	"context"
	"encoding/json"
	"time"
)

// RunStatus mirrors the engine run lifecycle.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// EventLevel represents the severity level of an event
type EventLevel string

const (
	EventLevelDebug EventLevel = "debug"
	EventLevelInfo  EventLevel = "info"
	EventLevelWarn  EventLevel = "warn"
	EventLevelError EventLevel = "error"
)

// Run is a persisted run record.
type Run struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	ProgramHash string          `json:"program_hash"`
	Status      RunStatus       `json:"status"`
	Result      *int64          `json:"result,omitempty"`
	Detail      json.RawMessage `json:"detail,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	DurationMS  int64           `json:"duration_ms"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Event is an append-only run event.
type Event struct {
	ID        string          `json:"id"`
	RunID     string          `json:"run_id"`
	Type      string          `json:"type"`
	Level     EventLevel      `json:"level"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// RunFilter narrows ListRuns. Zero values match everything.
type RunFilter struct {
	Kind        string
	ProgramHash string
	Status      RunStatus
}

// Store defines the interface for run history persistence.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Run operations
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter, limit, offset int) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error

	// Event operations
	AppendEvent(ctx context.Context, event *Event) error
	ListEvents(ctx context.Context, runID string) ([]*Event, error)

	HealthCheck(ctx context.Context) error
}
