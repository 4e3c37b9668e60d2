package core

// Event types recorded for queue mutations.
const (
	EventTaskPushed    = "task.pushed"
	EventTaskPopped    = "task.popped"
	EventTaskCompleted = "task.completed"
)

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}
