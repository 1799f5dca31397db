package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"steward/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "state.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func seedStore(t *testing.T, st *store.Store) {
	t.Helper()
	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	active := store.Goal{
		ID: "g-active", Title: "Expand task throughput", Priority: 0.7,
		Status: store.GoalActive, Progress: 0.4, CreatedAt: base,
	}
	done := store.Goal{
		ID: "g-done", Title: "Document state hygiene", Priority: 0.5,
		Status: store.GoalCompleted, Progress: 1, CreatedAt: base.Add(time.Minute),
	}
	for _, g := range []store.Goal{active, done} {
		if err := st.CreateGoal(g); err != nil {
			t.Fatalf("create goal: %v", err)
		}
	}

	decision := store.Decision{
		ID: "d1", Type: "goal_selection", OptionsJSON: "[]", ChosenJSON: "{}",
		Confidence: 0.8, CreatedAt: base,
	}
	if err := st.InsertDecision(decision); err != nil {
		t.Fatalf("insert decision: %v", err)
	}

	if err := st.RecordMetric("cycle_effectiveness", 0.75, "cycle", base); err != nil {
		t.Fatalf("record metric: %v", err)
	}
	if err := st.SetKV("cycle_count", "7"); err != nil {
		t.Fatalf("set cycle count: %v", err)
	}
	if err := st.SetKV("last_cycle_at", "2026-08-23T12:00:00Z"); err != nil {
		t.Fatalf("set last cycle: %v", err)
	}
}

func TestBuildAggregates(t *testing.T) {
	st := newTestStore(t)
	seedStore(t, st)

	now := time.Date(2026, 8, 23, 13, 0, 0, 0, time.UTC)
	status, err := Build(st, now)
	if err != nil {
		t.Fatalf("build status: %v", err)
	}

	if status.AsOf != "2026-08-23T13:00:00Z" {
		t.Fatalf("unexpected as_of: %q", status.AsOf)
	}
	if status.Cycles != 7 || status.LastCycleAt != "2026-08-23T12:00:00Z" {
		t.Fatalf("unexpected cycle bookkeeping: %+v", status)
	}
	if status.GoalsTotal != 2 || status.GoalCounts["active"] != 1 || status.GoalCounts["completed"] != 1 {
		t.Fatalf("unexpected goal counts: %+v", status)
	}
	if status.ActiveProgress < 0.39 || status.ActiveProgress > 0.41 {
		t.Fatalf("unexpected active progress: %f", status.ActiveProgress)
	}
	if status.Decisions != 1 || status.AvgConfidence < 0.79 || status.AvgConfidence > 0.81 {
		t.Fatalf("unexpected decision aggregates: %+v", status)
	}
	if status.MetricAverages["cycle_effectiveness"] != 0.75 {
		t.Fatalf("unexpected metric averages: %+v", status.MetricAverages)
	}
	if len(status.RecentGoals) != 2 || status.RecentGoals[0].ID != "g-done" {
		t.Fatalf("unexpected recent goals: %+v", status.RecentGoals)
	}
}

func TestBuildEmptyStore(t *testing.T) {
	st := newTestStore(t)

	status, err := Build(st, time.Now())
	if err != nil {
		t.Fatalf("build status: %v", err)
	}
	if status.Cycles != 0 || status.GoalsTotal != 0 || status.Decisions != 0 {
		t.Fatalf("expected zeroed status, got %+v", status)
	}
	if len(status.RecentGoals) != 0 {
		t.Fatalf("expected no recent goals, got %+v", status.RecentGoals)
	}

	if _, err := Build(nil, time.Now()); err == nil {
		t.Fatalf("expected error for nil store")
	}
}

func TestRenderSummary(t *testing.T) {
	st := newTestStore(t)
	seedStore(t, st)

	status, err := Build(st, time.Now())
	if err != nil {
		t.Fatalf("build status: %v", err)
	}

	var buf strings.Builder
	status.Render(&buf)
	out := buf.String()

	for _, want := range []string{
		"Cycles run: 7",
		"Goals: 2 total",
		"active",
		"completed",
		"cycle_effectiveness",
		"Expand task throughput",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered status missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSnapshotRoundTrip(t *testing.T) {
	st := newTestStore(t)
	seedStore(t, st)

	status, err := Build(st, time.Now())
	if err != nil {
		t.Fatalf("build status: %v", err)
	}

	path := filepath.Join(t.TempDir(), "status", "snap.json")
	if err := WriteSnapshot(path, status); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Fatalf("snapshot should end with a newline")
	}

	var decoded Status
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if decoded.SchemaVersion != StatusSchemaVersion {
		t.Fatalf("unexpected schema version: %d", decoded.SchemaVersion)
	}
	if decoded.Cycles != status.Cycles || decoded.GoalsTotal != status.GoalsTotal {
		t.Fatalf("snapshot does not match status: %+v vs %+v", decoded, status)
	}

	if err := WriteSnapshot("", status); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if err := WriteSnapshot(path, nil); err == nil {
		t.Fatalf("expected error for nil status")
	}
}

func TestSnapshotPathFor(t *testing.T) {
	at := time.Date(2026, 8, 23, 12, 30, 45, 0, time.UTC)
	got := SnapshotPathFor("/tmp/status", at)
	want := filepath.Join("/tmp/status", "2026-08-23T12-30-45.json")
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
