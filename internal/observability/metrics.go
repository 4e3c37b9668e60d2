package observability

import (
	"fmt"
	"time"
)

// Queue event types understood by the metrics calculator and alert engine.
const (
	TypeTaskPushed    = "task.pushed"
	TypeTaskPopped    = "task.popped"
	TypeTaskCompleted = "task.completed"
)

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	TasksPushed      int            `json:"tasks_pushed" yaml:"tasks_pushed"`
	TasksPopped      int            `json:"tasks_popped" yaml:"tasks_popped"`
	TasksCompleted   int            `json:"tasks_completed" yaml:"tasks_completed"`
	PushedByPriority map[string]int `json:"pushed_by_priority" yaml:"pushed_by_priority"`
	PoppedByPriority map[string]int `json:"popped_by_priority" yaml:"popped_by_priority"`
	Sessions         int            `json:"sessions" yaml:"sessions"`
	EventCount       int            `json:"event_count" yaml:"event_count"`
	OldestEvent      *time.Time     `json:"oldest_event,omitempty" yaml:"oldest_event,omitempty"`
	NewestEvent      *time.Time     `json:"newest_event,omitempty" yaml:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator that reads from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates all events at or after since.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		PushedByPriority: make(map[string]int),
		PoppedByPriority: make(map[string]int),
		EventCount:       len(events),
	}
	sessions := make(map[string]struct{})

	for _, event := range events {
		t := event.Time
		if m.OldestEvent == nil || t.Before(*m.OldestEvent) {
			m.OldestEvent = &t
		}
		if m.NewestEvent == nil || t.After(*m.NewestEvent) {
			m.NewestEvent = &t
		}
		if event.Session != "" {
			sessions[event.Session] = struct{}{}
		}

		priority := event.Priority()
		switch event.Type {
		case TypeTaskPushed:
			m.TasksPushed++
			if priority != "" {
				m.PushedByPriority[priority]++
			}
		case TypeTaskPopped:
			m.TasksPopped++
			if priority != "" {
				m.PoppedByPriority[priority]++
			}
		case TypeTaskCompleted:
			m.TasksCompleted++
		}
	}
	m.Sessions = len(sessions)

	return m, nil
}
