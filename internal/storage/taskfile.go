// Package storage reads batches of tasks from YAML task files. The queue
// itself is never written back; task files are an input format only.
package storage

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/valter-silva-au/taskq/pkg/models"
	"gopkg.in/yaml.v3"
)

// TaskFileEntry is one task in a task file.
type TaskFileEntry struct {
	Name        string `yaml:"name"`
	Priority    string `yaml:"priority,omitempty"`
	Description string `yaml:"description,omitempty"`
	DueDate     string `yaml:"due_date,omitempty"`
}

// TaskFile is the top-level structure of a task file.
type TaskFile struct {
	Version string          `yaml:"version"`
	Tasks   []TaskFileEntry `yaml:"tasks"`
}

// TaskSpec is a validated task file entry. An empty Priority means the
// queue's configured default applies.
type TaskSpec struct {
	Name        string
	Priority    models.Priority
	Description string
	DueDate     string
}

// LoadTaskFile reads and validates the task file at path.
func LoadTaskFile(path string) ([]TaskSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading task file: %w", err)
	}
	defer func() { _ = f.Close() }()

	specs, err := DecodeTaskFile(f)
	if err != nil {
		return nil, fmt.Errorf("loading task file %s: %w", path, err)
	}
	return specs, nil
}

// DecodeTaskFile parses a task file from r. An empty document yields no tasks.
func DecodeTaskFile(r io.Reader) ([]TaskSpec, error) {
	var tf TaskFile
	if err := yaml.NewDecoder(r).Decode(&tf); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	specs := make([]TaskSpec, 0, len(tf.Tasks))
	for i, e := range tf.Tasks {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("task %d: name must not be empty", i)
		}

		var priority models.Priority
		if e.Priority != "" {
			p, err := models.ParsePriority(e.Priority)
			if err != nil {
				return nil, fmt.Errorf("task %d (%s): %w", i, name, err)
			}
			priority = p
		}

		specs = append(specs, TaskSpec{
			Name:        name,
			Priority:    priority,
			Description: e.Description,
			DueDate:     e.DueDate,
		})
	}
	return specs, nil
}

// EncodeTasks writes tasks as a YAML document, used for snapshot output.
func EncodeTasks(w io.Writer, tasks []models.Task) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(struct {
		Tasks []models.Task `yaml:"tasks"`
	}{Tasks: tasks}); err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	return enc.Close()
}
