// Package internal provides the App struct that wires all components of
// taskq together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/valter-silva-au/taskq/internal/cli"
	"github.com/valter-silva-au/taskq/internal/core"
	"github.com/valter-silva-au/taskq/internal/logger"
	"github.com/valter-silva-au/taskq/internal/observability"
	"github.com/valter-silva-au/taskq/pkg/models"
)

// HomeEnvVar overrides base path discovery.
const HomeEnvVar = "TASKQ_HOME"

// App holds all service dependencies for taskq.
type App struct {
	BasePath string
	Config   *models.GlobalConfig

	// SessionID tags every event this process writes, so that processes
	// sharing one event log can be told apart.
	SessionID string

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Core services
	IDGen core.TaskIDGenerator
	Queue core.TaskQueue

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components. basePath is the directory holding
// .taskq.yaml; relative event log paths are resolved against it.
func NewApp(basePath string) (*App, error) {
	app := &App{
		BasePath:  basePath,
		SessionID: uuid.NewString(),
	}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.Config = cfg

	if err := logger.Setup(cfg.LogLevel, false); err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}

	// --- Observability ---
	if cfg.EventsPath != "" {
		eventLogPath := cfg.EventsPath
		if !filepath.IsAbs(eventLogPath) {
			eventLogPath = filepath.Join(basePath, eventLogPath)
		}
		app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: run without metrics and alerts if the log can't be opened.
			logger.L().WithError(err).WithField("path", eventLogPath).Warn("event log disabled")
			app.EventLog = nil
		}
	}
	thresholds := observability.AlertThresholds{
		MaxQueueSize:    cfg.Alerts.MaxQueueSize,
		MaxHighPriority: cfg.Alerts.MaxHighPriority,
	}
	if app.EventLog != nil {
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, thresholds, "")
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	// --- Core services ---
	app.IDGen, err = core.NewTaskIDGenerator(cfg.TaskIDStrategy, cfg.TaskIDPrefix, cfg.TaskIDPadWidth)
	if err != nil {
		return nil, fmt.Errorf("creating task ID generator: %w", err)
	}

	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog, session: app.SessionID}
	}
	app.Queue = core.NewTaskQueue(app.IDGen, evtAdapter, cfg.DefaultPriority)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Queue = app.Queue
	cli.SessionID = app.SessionID
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.AlertThresholds = thresholds
	cli.MetricsCalc = app.MetricsCalc

	logger.L().WithField("base_path", basePath).WithField("session", app.SessionID).Debug("app initialized")
	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the directory holding .taskq.yaml. It checks the
// TASKQ_HOME env var, then walks up from the current directory, then falls
// back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger and
// stamps each event with the process session.
type eventLogAdapter struct {
	log     observability.EventLog
	session string
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Level:   observability.LevelInfo,
		Type:    eventType,
		Session: a.session,
		Message: eventType,
		Data:    data,
	})
}
