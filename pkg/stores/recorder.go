package stores

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openfroyo/intcode/pkg/engine"
)

// Recorder adapts a Store to engine.Recorder.
type Recorder struct {
	store Store
}

// NewRecorder returns an engine.Recorder that persists into store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

var _ engine.Recorder = (*Recorder)(nil)

// SaveRun persists an engine run.
func (r *Recorder) SaveRun(ctx context.Context, run *engine.Run) error {
	rec, err := FromEngineRun(run)
	if err != nil {
		return err
	}
	return r.store.SaveRun(ctx, rec)
}

// AppendEvent persists an engine event.
func (r *Recorder) AppendEvent(ctx context.Context, event *engine.Event) error {
	rec, err := FromEngineEvent(event)
	if err != nil {
		return err
	}
	return r.store.AppendEvent(ctx, rec)
}

// FromEngineRun converts an engine run into its stored form.
func FromEngineRun(run *engine.Run) (*Run, error) {
	detail, err := marshalMap(run.Detail)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run detail: %w", err)
	}

	return &Run{
		ID:          run.ID,
		Kind:        string(run.Kind),
		ProgramHash: run.ProgramHash,
		Status:      RunStatus(run.Status),
		Result:      run.Result,
		Detail:      detail,
		Error:       run.Error,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		DurationMS:  run.Duration.Milliseconds(),
	}, nil
}

// FromEngineEvent converts an engine event into its stored form.
func FromEngineEvent(event *engine.Event) (*Event, error) {
	payload, err := marshalMap(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event payload: %w", err)
	}

	level := EventLevel(event.Level)
	if level == "" {
		level = EventLevelInfo
	}

	return &Event{
		ID:        event.ID,
		RunID:     event.RunID,
		Type:      string(event.Type),
		Level:     level,
		Message:   event.Message,
		Payload:   payload,
		Timestamp: event.Timestamp,
	}, nil
}

func marshalMap(m map[string]interface{}) (json.RawMessage, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}
