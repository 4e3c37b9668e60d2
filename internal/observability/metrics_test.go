package observability

import (
	"testing"
	"time"
)

func TestMetricsCalculator_Calculate(t *testing.T) {
	log, _ := newTestLog(t)

	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	writeEvents(t, log,
		Event{Time: base, Type: TypeTaskPushed, Session: "a", Data: map[string]any{"task_id": "TASK-00001", "priority": "High"}},
		Event{Time: base.Add(time.Minute), Type: TypeTaskPushed, Session: "a", Data: map[string]any{"task_id": "TASK-00002", "priority": "Low"}},
		Event{Time: base.Add(2 * time.Minute), Type: TypeTaskCompleted, Session: "a", Data: map[string]any{"task_id": "TASK-00002", "priority": "Low"}},
		Event{Time: base.Add(3 * time.Minute), Type: TypeTaskPopped, Session: "a", Data: map[string]any{"task_id": "TASK-00001", "priority": "High"}},
		Event{Time: base.Add(4 * time.Minute), Type: TypeTaskPushed, Session: "b", Data: map[string]any{"task_id": "TASK-00001", "priority": "High"}},
	)

	m, err := NewMetricsCalculator(log).Calculate(base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}

	if m.TasksPushed != 3 {
		t.Errorf("TasksPushed = %d, want 3", m.TasksPushed)
	}
	if m.TasksPopped != 1 {
		t.Errorf("TasksPopped = %d, want 1", m.TasksPopped)
	}
	if m.TasksCompleted != 1 {
		t.Errorf("TasksCompleted = %d, want 1", m.TasksCompleted)
	}
	if m.PushedByPriority["High"] != 2 || m.PushedByPriority["Low"] != 1 {
		t.Errorf("PushedByPriority = %v", m.PushedByPriority)
	}
	if m.PoppedByPriority["High"] != 1 {
		t.Errorf("PoppedByPriority = %v", m.PoppedByPriority)
	}
	if m.Sessions != 2 {
		t.Errorf("Sessions = %d, want 2", m.Sessions)
	}
	if m.EventCount != 5 {
		t.Errorf("EventCount = %d, want 5", m.EventCount)
	}
	if m.OldestEvent == nil || !m.OldestEvent.Equal(base) {
		t.Errorf("OldestEvent = %v, want %v", m.OldestEvent, base)
	}
	if m.NewestEvent == nil || !m.NewestEvent.Equal(base.Add(4*time.Minute)) {
		t.Errorf("NewestEvent = %v", m.NewestEvent)
	}
}

func TestMetricsCalculator_SinceExcludesOlderEvents(t *testing.T) {
	log, _ := newTestLog(t)

	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	writeEvents(t, log,
		Event{Time: base, Type: TypeTaskPushed, Data: map[string]any{"task_id": "TASK-00001", "priority": "High"}},
		Event{Time: base.Add(48 * time.Hour), Type: TypeTaskPushed, Data: map[string]any{"task_id": "TASK-00002", "priority": "Medium"}},
	)

	m, err := NewMetricsCalculator(log).Calculate(base.Add(24 * time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.TasksPushed != 1 {
		t.Errorf("TasksPushed = %d, want 1", m.TasksPushed)
	}
	if m.PushedByPriority["Medium"] != 1 {
		t.Errorf("PushedByPriority = %v", m.PushedByPriority)
	}
}

func TestMetricsCalculator_EmptyLog(t *testing.T) {
	log, _ := newTestLog(t)

	m, err := NewMetricsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.EventCount != 0 || m.OldestEvent != nil || m.NewestEvent != nil {
		t.Errorf("expected empty metrics, got %+v", m)
	}
	if m.PushedByPriority == nil {
		t.Error("PushedByPriority must be initialised")
	}
}
