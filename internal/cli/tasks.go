package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/valter-silva-au/taskq/internal/core"
	"github.com/valter-silva-au/taskq/internal/logger"
	"github.com/valter-silva-au/taskq/internal/storage"
	"github.com/valter-silva-au/taskq/pkg/models"
)

// Output formats accepted by -o.
const (
	formatText = "text"
	formatYAML = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use text or yaml)", format)
	}
}

// importTaskFile pushes every task in the file at path onto q. The whole file
// is validated before the first push, so a bad entry enqueues nothing.
func importTaskFile(q core.TaskQueue, path string) (int, error) {
	specs, err := storage.LoadTaskFile(path)
	if err != nil {
		return 0, err
	}

	for i, spec := range specs {
		if _, err := q.AddTask(core.AddTaskOpts{
			Name:        spec.Name,
			Priority:    spec.Priority,
			Description: spec.Description,
			DueDate:     spec.DueDate,
		}); err != nil {
			return i, fmt.Errorf("importing task %d (%s): %w", i, spec.Name, err)
		}
	}

	logger.L().WithField("path", path).WithField("count", len(specs)).Info("imported task file")
	return len(specs), nil
}

// formatTaskLine renders a one-line summary: ID, priority, status mark, name
// and due date.
func formatTaskLine(t models.Task) string {
	mark := "[ ]"
	if t.Completed {
		mark = completedStyle.Render("[x]")
	}
	line := fmt.Sprintf("%-12s %s %s %s", t.ID, renderPriority(t.Priority), mark, t.Name)
	if t.DueDate != "" {
		line += fmt.Sprintf("  (due %s)", t.DueDate)
	}
	return line
}

func printTaskDetail(w io.Writer, t models.Task) {
	fmt.Fprintf(w, "ID:          %s\n", t.ID)
	fmt.Fprintf(w, "Name:        %s\n", t.Name)
	fmt.Fprintf(w, "Priority:    %s\n", styleForPriority(t.Priority).Render(string(t.Priority)))
	if t.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", t.Description)
	}
	if t.DueDate != "" {
		fmt.Fprintf(w, "Due:         %s\n", t.DueDate)
	}
	fmt.Fprintf(w, "Completed:   %t\n", t.Completed)
	fmt.Fprintf(w, "Created:     %s\n", t.Created.Format("2006-01-02 15:04:05 UTC"))
}

// printTaskList writes tasks as text lines or as a YAML document.
func printTaskList(w io.Writer, tasks []models.Task, format string) error {
	if format == formatYAML {
		return storage.EncodeTasks(w, tasks)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(w, "Queue is empty.")
		return nil
	}
	for _, t := range tasks {
		fmt.Fprintln(w, formatTaskLine(t))
	}
	return nil
}

func printStats(w io.Writer, stats core.QueueStats) {
	parts := make([]string, 0, len(models.Priorities))
	for _, p := range models.Priorities {
		parts = append(parts, fmt.Sprintf("%s %d", styleForPriority(p).Render(string(p)), stats.ByPriority[p]))
	}
	fmt.Fprintf(w, "%d task(s) queued, %d completed\n", stats.Total, stats.Completed)
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, "  "))
}
