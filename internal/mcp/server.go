// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the task queue as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/taskq/internal/core"
	"github.com/valter-silva-au/taskq/internal/logger"
	"github.com/valter-silva-au/taskq/internal/observability"
	"github.com/valter-silva-au/taskq/pkg/models"
)

// Server wraps a task queue and exposes it as MCP tools. The queue lives as
// long as the server process.
type Server struct {
	server      *gomcp.Server
	queue       core.TaskQueue
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server over queue. metricsCalc and alertEngine
// may be nil if the event log is disabled.
func NewServer(queue core.TaskQueue, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		queue:       queue,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "taskq", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves over stdio, blocking until the client disconnects or the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	logger.L().Debug("mcp server listening on stdio")
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type pushTaskInput struct {
	Name        string `json:"name" jsonschema:"required,short task name"`
	Priority    string `json:"priority,omitempty" jsonschema:"High, Medium or Low. Defaults to the configured default priority."`
	Description string `json:"description,omitempty" jsonschema:"free-form description"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"due date, stored verbatim"`
}

type taskOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Priority    string `json:"priority"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Completed   bool   `json:"completed"`
	Created     string `json:"created"`
}

type popTaskInput struct{}

type popTaskOutput struct {
	Empty bool        `json:"empty"`
	Task  *taskOutput `json:"task,omitempty"`
}

type listTasksInput struct {
	Sorted bool `json:"sorted,omitempty" jsonschema:"order tasks by priority instead of heap order"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier (e.g. TASK-00042)"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	TasksPushed      int            `json:"tasks_pushed"`
	TasksPopped      int            `json:"tasks_popped"`
	TasksCompleted   int            `json:"tasks_completed"`
	PushedByPriority map[string]int `json:"pushed_by_priority"`
	PoppedByPriority map[string]int `json:"popped_by_priority"`
	Sessions         int            `json:"sessions"`
	EventCount       int            `json:"event_count"`
	OldestEvent      string         `json:"oldest_event,omitempty"`
	NewestEvent      string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "push_task",
		Description: "Add a task to the priority queue. Returns the stored task with its assigned ID.",
	}, s.handlePushTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "pop_task",
		Description: "Remove and return the highest-priority task. Reports empty=true when the queue has no tasks.",
	}, s.handlePopTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List queued tasks without removing them, in heap order or sorted by priority.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get a queued task by ID.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "complete_task",
		Description: "Mark a queued task completed. The task keeps its place in the queue.",
	}, s.handleCompleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log: pushes, pops and completions per priority.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (queue size, High priority backlog).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handlePushTask(_ context.Context, _ *gomcp.CallToolRequest, input pushTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.Name == "" {
		return errorResult("name is required"), taskOutput{}, nil
	}

	var priority models.Priority
	if input.Priority != "" {
		p, err := models.ParsePriority(input.Priority)
		if err != nil {
			return errorResult(err.Error()), taskOutput{}, nil
		}
		priority = p
	}

	task, err := s.queue.AddTask(core.AddTaskOpts{
		Name:        input.Name,
		Priority:    priority,
		Description: input.Description,
		DueDate:     input.DueDate,
	})
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}

	return nil, taskToOutput(task), nil
}

func (s *Server) handlePopTask(_ context.Context, _ *gomcp.CallToolRequest, _ popTaskInput) (*gomcp.CallToolResult, popTaskOutput, error) {
	task, ok, err := s.queue.PopTask()
	if err != nil {
		return errorResult(fmt.Sprintf("popping task: %s", err)), popTaskOutput{}, nil
	}
	if !ok {
		return nil, popTaskOutput{Empty: true}, nil
	}

	out := taskToOutput(task)
	return nil, popTaskOutput{Task: &out}, nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	var tasks []models.Task
	if input.Sorted {
		tasks = s.queue.ListTasksSorted()
	} else {
		tasks = s.queue.ListTasks()
	}

	out := listTasksOutput{
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i := range tasks {
		out.Tasks[i] = taskToOutput(&tasks[i])
	}

	return nil, out, nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, err := s.queue.GetTask(input.TaskID)
	if err != nil {
		return errorResult(taskErrorMessage(err)), taskOutput{}, nil
	}

	return nil, taskToOutput(task), nil
}

func (s *Server) handleCompleteTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, err := s.queue.CompleteTask(input.TaskID)
	if err != nil {
		return errorResult(taskErrorMessage(err)), taskOutput{}, nil
	}

	return nil, taskToOutput(task), nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksPushed:      metrics.TasksPushed,
		TasksPopped:      metrics.TasksPopped,
		TasksCompleted:   metrics.TasksCompleted,
		PushedByPriority: metrics.PushedByPriority,
		PoppedByPriority: metrics.PoppedByPriority,
		Sessions:         metrics.Sessions,
		EventCount:       metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (event log may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t *models.Task) taskOutput {
	return taskOutput{
		ID:          t.ID,
		Name:        t.Name,
		Priority:    string(t.Priority),
		Description: t.Description,
		DueDate:     t.DueDate,
		Completed:   t.Completed,
		Created:     t.Created.Format(time.RFC3339),
	}
}

func taskErrorMessage(err error) string {
	if errors.Is(err, core.ErrTaskNotFound) {
		return err.Error()
	}
	return fmt.Sprintf("task operation failed: %s", err)
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		PushedByPriority: make(map[string]int),
		PoppedByPriority: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	return parseSinceAt(s, time.Now().UTC())
}

// parseSinceAt is parseSince relative to now.
func parseSinceAt(s string, now time.Time) (time.Time, error) {
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	num, err := strconv.Atoi(numStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
