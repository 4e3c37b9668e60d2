package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func writeEvents(t *testing.T, log EventLog, events ...Event) {
	t.Helper()
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}
}

func TestEventLog_WriteAndRead(t *testing.T) {
	log, _ := newTestLog(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	writeEvents(t, log,
		Event{
			Time:    now,
			Level:   LevelInfo,
			Type:    "task.pushed",
			Session: "s1",
			Message: "task pushed",
			Data:    map[string]any{"task_id": "TASK-00001", "priority": "High"},
		},
		Event{
			Time:    now.Add(time.Second),
			Level:   LevelInfo,
			Type:    "task.popped",
			Session: "s1",
			Message: "task popped",
			Data:    map[string]any{"task_id": "TASK-00001"},
		},
	)

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}
	if result[0].Type != "task.pushed" {
		t.Errorf("expected type task.pushed, got %s", result[0].Type)
	}
	if result[0].TaskID() != "TASK-00001" {
		t.Errorf("expected task id TASK-00001, got %q", result[0].TaskID())
	}
	if result[1].Session != "s1" {
		t.Errorf("expected session s1, got %q", result[1].Session)
	}
	if !result[0].Time.Equal(now) {
		t.Errorf("time = %v, want %v", result[0].Time, now)
	}
}

func TestEventLog_StampsDefaults(t *testing.T) {
	log, _ := newTestLog(t)

	before := time.Now().UTC().Add(-time.Second)
	writeEvents(t, log, Event{Type: "task.pushed", Message: "pushed"})

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 event, got %d", len(result))
	}
	if result[0].Level != LevelInfo {
		t.Errorf("Level = %q, want INFO", result[0].Level)
	}
	if result[0].Time.Before(before) {
		t.Errorf("Time = %v was not stamped", result[0].Time)
	}
}

func TestEventLog_Filters(t *testing.T) {
	log, _ := newTestLog(t)

	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	writeEvents(t, log,
		Event{Time: base, Level: LevelInfo, Type: "task.pushed", Session: "a"},
		Event{Time: base.Add(time.Hour), Level: LevelWarn, Type: "task.popped", Session: "a"},
		Event{Time: base.Add(2 * time.Hour), Level: LevelInfo, Type: "task.pushed", Session: "b"},
	)

	since := base.Add(30 * time.Minute)
	until := base.Add(90 * time.Minute)

	tests := []struct {
		name   string
		filter EventFilter
		want   int
	}{
		{"all", EventFilter{}, 3},
		{"type", EventFilter{Type: "task.pushed"}, 2},
		{"level", EventFilter{Level: LevelWarn}, 1},
		{"session", EventFilter{Session: "a"}, 2},
		{"since", EventFilter{Since: &since}, 2},
		{"window", EventFilter{Since: &since, Until: &until}, 1},
		{"combined", EventFilter{Type: "task.pushed", Session: "b"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := log.Read(tt.filter)
			if err != nil {
				t.Fatalf("reading events: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	log, path := newTestLog(t)
	writeEvents(t, log, Event{Type: "task.pushed"})

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	_, _ = f.WriteString("{not json\n\n")
	_ = f.Close()

	writeEvents(t, log, Event{Type: "task.popped"})

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d events, want 2", len(got))
	}
}

func TestEventLog_LongLines(t *testing.T) {
	log, _ := newTestLog(t)
	longName := strings.Repeat("x", 70000)
	writeEvents(t, log,
		pushEvent("s1", "TASK-00001", "High"),
		Event{
			Type:    TypeTaskPushed,
			Session: "s1",
			Data:    map[string]any{"task_id": "TASK-00002", "priority": "High", "name": longName},
		},
		pushEvent("s1", "TASK-00003", "Low"),
	)

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if name, _ := got[1].Data["name"].(string); len(name) != len(longName) {
		t.Errorf("name length = %d, want %d", len(name), len(longName))
	}

	metrics, err := NewMetricsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if metrics.TasksPushed != 3 {
		t.Errorf("TasksPushed = %d, want 3", metrics.TasksPushed)
	}

	alerts, err := NewAlertEngine(log, AlertThresholds{MaxQueueSize: 2}, "s1").Evaluate()
	if err != nil {
		t.Fatalf("evaluating alerts: %v", err)
	}
	if findAlert(alerts, "queue_size_exceeded") == nil {
		t.Errorf("expected queue_size_exceeded alert, got %+v", alerts)
	}
}

func TestEventLog_EmptyLog(t *testing.T) {
	log, _ := newTestLog(t)

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no events, got %d", len(got))
	}
}

func TestEventLog_ConcurrentWrites(t *testing.T) {
	log, _ := newTestLog(t)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = log.Write(Event{
				Type: "task.pushed",
				Data: map[string]any{"task_id": fmt.Sprintf("TASK-%05d", i)},
			})
		}(i)
	}
	wg.Wait()

	got, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(got) != n {
		t.Errorf("got %d events, want %d", len(got), n)
	}
}
