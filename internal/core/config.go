// Package core contains the business logic for taskq: the task queue
// service, task ID generation, and configuration loading.
package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/valter-silva-au/taskq/pkg/models"
)

// ConfigFileName is the name of the YAML configuration file, without extension.
const ConfigFileName = ".taskq"

// validPrefixPattern matches uppercase alphanumeric prefixes between 1 and 10 characters.
var validPrefixPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// ConfigurationManager loads and validates the .taskq.yaml configuration.
type ConfigurationManager interface {
	LoadConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper.
type viperConfigManager struct {
	// basePath is the directory where .taskq.yaml resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .taskq.yaml from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns a GlobalConfig populated with defaults.
func DefaultConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		DefaultPriority: models.PriorityMedium,
		TaskIDPrefix:    "TASK",
		TaskIDPadWidth:  5,
		TaskIDStrategy:  models.TaskIDCounter,
		LogLevel:        "info",
		EventsPath:      ".taskq_events.jsonl",
		Alerts: models.AlertConfig{
			MaxQueueSize:    20,
			MaxHighPriority: 5,
		},
	}
}

// LoadConfig reads .taskq.yaml from the base path. A missing file yields the
// defaults. The returned config is validated.
func (cm *viperConfigManager) LoadConfig() (*models.GlobalConfig, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("defaults.priority", string(cfg.DefaultPriority))
	v.SetDefault("task_id.prefix", cfg.TaskIDPrefix)
	v.SetDefault("task_id.pad_width", cfg.TaskIDPadWidth)
	v.SetDefault("task_id.strategy", string(cfg.TaskIDStrategy))
	v.SetDefault("log.level", cfg.LogLevel)
	v.SetDefault("events.path", cfg.EventsPath)
	v.SetDefault("alerts.max_queue_size", cfg.Alerts.MaxQueueSize)
	v.SetDefault("alerts.max_high_priority", cfg.Alerts.MaxHighPriority)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
	}

	// Priority names are accepted in any case.
	rawPriority := v.GetString("defaults.priority")
	if p, err := models.ParsePriority(rawPriority); err == nil {
		cfg.DefaultPriority = p
	} else {
		cfg.DefaultPriority = models.Priority(rawPriority)
	}
	cfg.TaskIDPrefix = v.GetString("task_id.prefix")
	cfg.TaskIDPadWidth = v.GetInt("task_id.pad_width")
	cfg.TaskIDStrategy = models.TaskIDStrategy(strings.ToLower(v.GetString("task_id.strategy")))
	cfg.LogLevel = v.GetString("log.level")
	cfg.EventsPath = v.GetString("events.path")
	cfg.Alerts.MaxQueueSize = v.GetInt("alerts.max_queue_size")
	cfg.Alerts.MaxHighPriority = v.GetInt("alerts.max_high_priority")

	if err := cm.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfig checks cfg and reports every invalid field in one error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !cfg.DefaultPriority.Valid() {
		errs = append(errs, fmt.Sprintf(
			"defaults.priority %q is invalid, must be one of: High, Medium, Low",
			cfg.DefaultPriority,
		))
	}

	if cfg.TaskIDPrefix == "" {
		errs = append(errs, "task_id.prefix must not be empty")
	} else if !validPrefixPattern.MatchString(cfg.TaskIDPrefix) {
		errs = append(errs, fmt.Sprintf(
			"task_id.prefix %q is invalid, must match [A-Z0-9]{1,10}",
			cfg.TaskIDPrefix,
		))
	}

	if cfg.TaskIDPadWidth < 0 || cfg.TaskIDPadWidth > 10 {
		errs = append(errs, fmt.Sprintf(
			"task_id.pad_width %d is invalid, must be between 0 and 10",
			cfg.TaskIDPadWidth,
		))
	}

	switch cfg.TaskIDStrategy {
	case models.TaskIDCounter, models.TaskIDUUID:
	default:
		errs = append(errs, fmt.Sprintf(
			"task_id.strategy %q is invalid, must be one of: counter, uuid",
			cfg.TaskIDStrategy,
		))
	}

	if cfg.LogLevel != "" {
		if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
			errs = append(errs, fmt.Sprintf("log.level %q is invalid", cfg.LogLevel))
		}
	}

	if cfg.Alerts.MaxQueueSize < 0 {
		errs = append(errs, fmt.Sprintf("alerts.max_queue_size must be non-negative, got %d", cfg.Alerts.MaxQueueSize))
	}
	if cfg.Alerts.MaxHighPriority < 0 {
		errs = append(errs, fmt.Sprintf("alerts.max_high_priority must be non-negative, got %d", cfg.Alerts.MaxHighPriority))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
