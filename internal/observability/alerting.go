package observability

import (
	"fmt"
	"sort"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id" yaml:"id"`
	Condition   string        `json:"condition" yaml:"condition"`
	Severity    AlertSeverity `json:"severity" yaml:"severity"`
	Message     string        `json:"message" yaml:"message"`
	TriggeredAt time.Time     `json:"triggered_at" yaml:"triggered_at"`
}

// AlertThresholds configures when alerts fire. A zero threshold disables
// the corresponding check.
type AlertThresholds struct {
	MaxQueueSize    int `yaml:"max_queue_size" json:"max_queue_size"`
	MaxHighPriority int `yaml:"max_high_priority" json:"max_high_priority"`
}

// DefaultAlertThresholds returns the default thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		MaxQueueSize:    20,
		MaxHighPriority: 5,
	}
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

// alertEngine reconstructs the live queue of one session (pushed minus
// popped) and checks it against the thresholds. An empty session selects
// the session of the most recent queue event.
type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	session    string
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine over eventLog for the given session.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds, session string) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		session:    session,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate returns the triggered alerts, high severity first.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	live, err := ae.liveTasks()
	if err != nil {
		return nil, fmt.Errorf("rebuilding live queue: %w", err)
	}

	now := ae.now()
	var alerts []Alert

	if ae.thresholds.MaxQueueSize > 0 && len(live) > ae.thresholds.MaxQueueSize {
		alerts = append(alerts, Alert{
			ID:          "queue-size",
			Condition:   "queue_size_exceeded",
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("queue holds %d tasks (threshold: %d)", len(live), ae.thresholds.MaxQueueSize),
			TriggeredAt: now,
		})
	}

	high := 0
	for _, priority := range live {
		if priority == "High" {
			high++
		}
	}
	if ae.thresholds.MaxHighPriority > 0 && high > ae.thresholds.MaxHighPriority {
		alerts = append(alerts, Alert{
			ID:          "high-priority-backlog",
			Condition:   "high_priority_backlog",
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("%d High priority tasks are waiting (threshold: %d)", high, ae.thresholds.MaxHighPriority),
			TriggeredAt: now,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return SeverityRank(alerts[i].Severity) < SeverityRank(alerts[j].Severity)
	})
	return alerts, nil
}

// liveTasks maps task ID to priority for tasks pushed and not yet popped.
func (ae *alertEngine) liveTasks() (map[string]string, error) {
	session := ae.session
	if session == "" {
		events, err := ae.eventLog.Read(EventFilter{})
		if err != nil {
			return nil, err
		}
		for i := len(events) - 1; i >= 0; i-- {
			if events[i].Session != "" {
				session = events[i].Session
				break
			}
		}
		if session == "" {
			return map[string]string{}, nil
		}
	}

	events, err := ae.eventLog.Read(EventFilter{Session: session})
	if err != nil {
		return nil, err
	}

	live := make(map[string]string)
	for _, event := range events {
		taskID := event.TaskID()
		if taskID == "" {
			continue
		}
		switch event.Type {
		case TypeTaskPushed:
			live[taskID] = event.Priority()
		case TypeTaskPopped:
			delete(live, taskID)
		}
	}
	return live, nil
}

// SeverityRank orders severities high, medium, low, then anything else.
func SeverityRank(s AlertSeverity) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}
