package models

// TaskIDStrategy selects how task identifiers are minted.
type TaskIDStrategy string

const (
	TaskIDCounter TaskIDStrategy = "counter"
	TaskIDUUID    TaskIDStrategy = "uuid"
)

// AlertConfig holds thresholds for queue alerts.
type AlertConfig struct {
	MaxQueueSize    int
	MaxHighPriority int
}

// GlobalConfig holds settings read from .taskq.yaml via Viper.
type GlobalConfig struct {
	DefaultPriority Priority
	TaskIDPrefix    string
	TaskIDPadWidth  int
	TaskIDStrategy  TaskIDStrategy
	LogLevel        string
	EventsPath      string
	Alerts          AlertConfig
}
