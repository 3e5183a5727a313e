package stores

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/openfroyo/intcode/pkg/engine"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func int64Ptr(v int64) *int64 { return &v }

func newRun(id, kind string, started time.Time) *Run {
	return &Run{
		ID:          id,
		Kind:        kind,
		ProgramHash: "abc123",
		Status:      RunStatusRunning,
		StartedAt:   started,
	}
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{
		Path: filepath.Join(t.TempDir(), "history.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.HealthCheck(ctx); err == nil {
		t.Error("expected health check to fail before Init")
	}

	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	// Migrating twice is a no-op.
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, table := range []string{"runs", "events"} {
		var count int
		err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
		if err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

func TestRunCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	started := time.Date(2024, 12, 7, 10, 0, 0, 0, time.UTC)
	run := newRun("run-1", "search", started)
	run.Detail = json.RawMessage(`{"mode":"feedback"}`)

	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Kind != "search" || got.Status != RunStatusRunning {
		t.Errorf("got kind=%s status=%s", got.Kind, got.Status)
	}
	if got.Result != nil {
		t.Errorf("expected nil result, got %d", *got.Result)
	}
	if got.CompletedAt != nil {
		t.Error("expected nil completed_at")
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, started)
	}
	if string(got.Detail) != `{"mode":"feedback"}` {
		t.Errorf("detail = %s", got.Detail)
	}

	// Update to a terminal state.
	completed := started.Add(2 * time.Second)
	run.Status = RunStatusSucceeded
	run.Result = int64Ptr(139629729)
	run.CompletedAt = &completed
	run.DurationMS = 2000
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("failed to update run: %v", err)
	}

	got, err = store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Status != RunStatusSucceeded {
		t.Errorf("status = %s, want succeeded", got.Status)
	}
	if got.Result == nil || *got.Result != 139629729 {
		t.Errorf("result = %v, want 139629729", got.Result)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completed) {
		t.Errorf("completed_at = %v, want %v", got.CompletedAt, completed)
	}
	if got.DurationMS != 2000 {
		t.Errorf("duration_ms = %d", got.DurationMS)
	}

	if err := store.DeleteRun(ctx, "run-1"); err != nil {
		t.Fatalf("failed to delete run: %v", err)
	}

	if _, err := store.GetRun(ctx, "run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteRun(ctx, "run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestSaveRunRequiresID(t *testing.T) {
	store := setupTestStore(t)
	if err := store.SaveRun(context.Background(), &Run{Kind: "sweep"}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestSaveRunRejectsUnknownKind(t *testing.T) {
	store := setupTestStore(t)
	run := newRun("run-x", "unknown", time.Now())
	if err := store.SaveRun(context.Background(), run); err == nil {
		t.Fatal("expected check constraint violation")
	}
}

func TestListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC)
	seed := []struct {
		id     string
		kind   string
		status RunStatus
	}{
		{"a", "sweep", RunStatusSucceeded},
		{"b", "amplify", RunStatusSucceeded},
		{"c", "sweep", RunStatusFailed},
		{"d", "search", RunStatusSucceeded},
	}
	for i, s := range seed {
		run := newRun(s.id, s.kind, base.Add(time.Duration(i)*time.Minute))
		run.Status = s.status
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("failed to save run %s: %v", s.id, err)
		}
	}

	tests := []struct {
		name   string
		filter RunFilter
		limit  int
		offset int
		want   []string
	}{
		{name: "all newest first", want: []string{"d", "c", "b", "a"}},
		{name: "by kind", filter: RunFilter{Kind: "sweep"}, want: []string{"c", "a"}},
		{name: "by status", filter: RunFilter{Status: RunStatusSucceeded}, want: []string{"d", "b", "a"}},
		{name: "kind and status", filter: RunFilter{Kind: "sweep", Status: RunStatusFailed}, want: []string{"c"}},
		{name: "limit", limit: 2, want: []string{"d", "c"}},
		{name: "limit and offset", limit: 2, offset: 2, want: []string{"b", "a"}},
		{name: "no match", filter: RunFilter{ProgramHash: "zzz"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := store.ListRuns(ctx, tt.filter, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("failed to list runs: %v", err)
			}
			if len(runs) != len(tt.want) {
				t.Fatalf("got %d runs, want %d", len(runs), len(tt.want))
			}
			for i, id := range tt.want {
				if runs[i].ID != id {
					t.Errorf("runs[%d] = %s, want %s", i, runs[i].ID, id)
				}
			}
		})
	}
}

func TestEvents(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	started := time.Date(2024, 12, 7, 10, 0, 0, 0, time.UTC)
	if err := store.SaveRun(ctx, newRun("run-1", "amplify", started)); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	events := []*Event{
		{ID: "e1", RunID: "run-1", Type: "run.started", Level: EventLevelInfo, Message: "run started", Timestamp: started},
		{ID: "e2", RunID: "run-1", Type: "run.completed", Level: EventLevelInfo, Message: "run succeeded",
			Payload: json.RawMessage(`{"result":43210}`), Timestamp: started.Add(time.Millisecond)},
	}
	for _, e := range events {
		if err := store.AppendEvent(ctx, e); err != nil {
			t.Fatalf("failed to append event %s: %v", e.ID, err)
		}
	}

	got, err := store.ListEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].ID != "e1" || got[1].ID != "e2" {
		t.Errorf("events out of order: %s, %s", got[0].ID, got[1].ID)
	}
	if string(got[0].Payload) != "{}" {
		t.Errorf("empty payload stored as %s", got[0].Payload)
	}
	if string(got[1].Payload) != `{"result":43210}` {
		t.Errorf("payload = %s", got[1].Payload)
	}

	// Events for an unknown run violate the foreign key.
	orphan := &Event{ID: "e3", RunID: "missing", Type: "run.started", Level: EventLevelInfo, Message: "x", Timestamp: started}
	if err := store.AppendEvent(ctx, orphan); err == nil {
		t.Error("expected foreign key violation")
	}

	// Deleting the run cascades to its events.
	if err := store.DeleteRun(ctx, "run-1"); err != nil {
		t.Fatalf("failed to delete run: %v", err)
	}
	got, err = store.ListEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected events to be deleted, got %d", len(got))
	}
}

func TestRecorderWithRunner(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	runner := engine.NewRunner(2, NewRecorder(store), nil)
	program := []int64{3, 15, 3, 16, 1002, 16, 10, 16, 1, 16, 15, 15, 4, 15, 99, 0, 0}

	result, err := runner.SearchPhases(ctx, program, engine.DefaultPhases(engine.NetworkSeries), engine.NetworkSeries)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	run, err := store.GetRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("run was not recorded: %v", err)
	}
	if run.Kind != "search" || run.Status != RunStatusSucceeded {
		t.Errorf("got kind=%s status=%s", run.Kind, run.Status)
	}
	if run.Result == nil || *run.Result != 43210 {
		t.Errorf("result = %v, want 43210", run.Result)
	}
	if run.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}

	var detail map[string]interface{}
	if err := json.Unmarshal(run.Detail, &detail); err != nil {
		t.Fatalf("detail is not JSON: %v", err)
	}
	if _, ok := detail["best_phases"]; !ok {
		t.Errorf("detail missing best_phases: %v", detail)
	}

	events, err := store.ListEvents(ctx, result.RunID)
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	types := make(map[string]bool)
	for _, e := range events {
		types[e.Type] = true
	}
	for _, want := range []string{"run.started", "search.new_best", "run.completed"} {
		if !types[want] {
			t.Errorf("missing %s event, got %v", want, types)
		}
	}
}

func TestFromEngineEventDefaultsLevel(t *testing.T) {
	got, err := FromEngineEvent(&engine.Event{ID: "e", RunID: "r", Type: engine.EventTypeRunStarted})
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != EventLevelInfo {
		t.Errorf("level = %s, want info", got.Level)
	}
	if got.Payload != nil {
		t.Errorf("payload = %s, want nil", got.Payload)
	}
}
