package cli

import (
	"github.com/valter-silva-au/taskq/internal/core"
	"github.com/valter-silva-au/taskq/internal/observability"
)

// Service instances, set during app initialization in app.go.
var (
	// Queue is the process-lifetime task queue shared by every surface.
	Queue core.TaskQueue

	// BasePath is the directory holding .taskq.yaml and the event log.
	BasePath string

	// SessionID tags the events this process writes.
	SessionID string

	EventLog        observability.EventLog
	AlertEngine     observability.AlertEngine
	AlertThresholds observability.AlertThresholds
	MetricsCalc     observability.MetricsCalculator
)
