package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/taskq/pkg/models"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadConfig_Defaults_WhenNoFile(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())

	cfg, err := cm.LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DefaultPriority != models.PriorityMedium {
		t.Errorf("DefaultPriority = %q, want Medium", cfg.DefaultPriority)
	}
	if cfg.TaskIDPrefix != "TASK" {
		t.Errorf("TaskIDPrefix = %q, want TASK", cfg.TaskIDPrefix)
	}
	if cfg.TaskIDPadWidth != 5 {
		t.Errorf("TaskIDPadWidth = %d, want 5", cfg.TaskIDPadWidth)
	}
	if cfg.TaskIDStrategy != models.TaskIDCounter {
		t.Errorf("TaskIDStrategy = %q, want counter", cfg.TaskIDStrategy)
	}
	if cfg.EventsPath != ".taskq_events.jsonl" {
		t.Errorf("EventsPath = %q", cfg.EventsPath)
	}
	if cfg.Alerts.MaxQueueSize != 20 || cfg.Alerts.MaxHighPriority != 5 {
		t.Errorf("Alerts = %+v", cfg.Alerts)
	}
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".taskq.yaml", `
defaults:
  priority: high
task_id:
  prefix: "OPS"
  pad_width: 3
  strategy: UUID
log:
  level: debug
events:
  path: ""
alerts:
  max_queue_size: 50
  max_high_priority: 2
`)

	cfg, err := NewConfigurationManager(dir).LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DefaultPriority != models.PriorityHigh {
		t.Errorf("DefaultPriority = %q, want High", cfg.DefaultPriority)
	}
	if cfg.TaskIDPrefix != "OPS" {
		t.Errorf("TaskIDPrefix = %q, want OPS", cfg.TaskIDPrefix)
	}
	if cfg.TaskIDPadWidth != 3 {
		t.Errorf("TaskIDPadWidth = %d, want 3", cfg.TaskIDPadWidth)
	}
	if cfg.TaskIDStrategy != models.TaskIDUUID {
		t.Errorf("TaskIDStrategy = %q, want uuid", cfg.TaskIDStrategy)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.EventsPath != "" {
		t.Errorf("EventsPath = %q, want empty", cfg.EventsPath)
	}
	if cfg.Alerts.MaxQueueSize != 50 || cfg.Alerts.MaxHighPriority != 2 {
		t.Errorf("Alerts = %+v", cfg.Alerts)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".taskq.yaml", "task_id:\n  prefix: JOB\n")

	cfg, err := NewConfigurationManager(dir).LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TaskIDPrefix != "JOB" {
		t.Errorf("TaskIDPrefix = %q, want JOB", cfg.TaskIDPrefix)
	}
	if cfg.DefaultPriority != models.PriorityMedium {
		t.Errorf("DefaultPriority = %q, want Medium", cfg.DefaultPriority)
	}
	if cfg.TaskIDPadWidth != 5 {
		t.Errorf("TaskIDPadWidth = %d, want 5", cfg.TaskIDPadWidth)
	}
}

func TestLoadConfig_InvalidFileFailsValidation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".taskq.yaml", `
defaults:
  priority: urgent
task_id:
  prefix: lower
  pad_width: 42
`)

	_, err := NewConfigurationManager(dir).LoadConfig()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"defaults.priority", "task_id.prefix", "task_id.pad_width"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".taskq.yaml", "defaults: [unclosed\n")

	if _, err := NewConfigurationManager(dir).LoadConfig(); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestValidateConfig(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())

	tests := []struct {
		name    string
		mutate  func(*models.GlobalConfig)
		wantErr string
	}{
		{"defaults are valid", func(*models.GlobalConfig) {}, ""},
		{"empty prefix", func(c *models.GlobalConfig) { c.TaskIDPrefix = "" }, "task_id.prefix must not be empty"},
		{"bad strategy", func(c *models.GlobalConfig) { c.TaskIDStrategy = "snowflake" }, "task_id.strategy"},
		{"bad log level", func(c *models.GlobalConfig) { c.LogLevel = "chatty" }, "log.level"},
		{"negative queue size", func(c *models.GlobalConfig) { c.Alerts.MaxQueueSize = -1 }, "alerts.max_queue_size"},
		{"negative high priority", func(c *models.GlobalConfig) { c.Alerts.MaxHighPriority = -1 }, "alerts.max_high_priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cm.ValidateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	if err := cm.ValidateConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}
