package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/valter-silva-au/taskq/internal/logger"
	"github.com/valter-silva-au/taskq/internal/queue"
	"github.com/valter-silva-au/taskq/pkg/models"
)

// ErrTaskNotFound is returned when no queued task has the requested ID.
var ErrTaskNotFound = errors.New("task not found")

// AddTaskOpts describes a task to enqueue. An empty Priority falls back to
// the configured default.
type AddTaskOpts struct {
	Name        string
	Priority    models.Priority
	Description string
	DueDate     string
}

// QueueStats summarises the queue contents.
type QueueStats struct {
	Total      int                     `json:"total" yaml:"total"`
	Completed  int                     `json:"completed" yaml:"completed"`
	ByPriority map[models.Priority]int `json:"by_priority" yaml:"by_priority"`
}

// TaskQueue is the task manager facade over the priority heap. Callers
// address tasks by ID; heap positions are never exposed.
type TaskQueue interface {
	AddTask(opts AddTaskOpts) (*models.Task, error)
	PopTask() (*models.Task, bool, error)
	PeekTask() (*models.Task, bool)
	GetTask(taskID string) (*models.Task, error)
	CompleteTask(taskID string) (*models.Task, error)
	ListTasks() []models.Task
	ListTasksSorted() []models.Task
	Stats() QueueStats
	Len() int
	IsEmpty() bool
}

// taskQueue implements TaskQueue. The mutex serialises callers such as
// concurrent MCP tool handlers; the heap itself is unsynchronised.
type taskQueue struct {
	mu              sync.Mutex
	heap            *queue.PriorityHeap
	idGen           TaskIDGenerator
	events          EventLogger
	defaultPriority models.Priority
	now             func() time.Time
}

// NewTaskQueue creates an empty TaskQueue. events may be nil when the event
// log is disabled.
func NewTaskQueue(idGen TaskIDGenerator, events EventLogger, defaultPriority models.Priority) TaskQueue {
	if !defaultPriority.Valid() {
		defaultPriority = models.PriorityMedium
	}
	return &taskQueue{
		heap:            queue.NewPriorityHeap(),
		idGen:           idGen,
		events:          events,
		defaultPriority: defaultPriority,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// AddTask validates opts, assigns an ID and pushes the task.
func (q *taskQueue) AddTask(opts AddTaskOpts) (*models.Task, error) {
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		return nil, fmt.Errorf("adding task: name must not be empty")
	}

	priority := opts.Priority
	if priority == "" {
		priority = q.defaultPriority
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("adding task: invalid priority %q, must be one of: High, Medium, Low", priority)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	id, err := q.idGen.GenerateTaskID()
	if err != nil {
		return nil, fmt.Errorf("adding task: %w", err)
	}

	task := &models.Task{
		ID:          id,
		Name:        name,
		Priority:    priority,
		Description: opts.Description,
		DueDate:     opts.DueDate,
		Created:     q.now(),
	}
	q.heap.Push(task)

	logger.WithTask(task.ID, string(task.Priority)).WithField("queue_len", q.heap.Len()).Debug("task pushed")
	q.logEvent(EventTaskPushed, task)

	out := *task
	return &out, nil
}

// PopTask removes the highest-priority task. ok is false when the queue is
// empty; that is not an error.
func (q *taskQueue) PopTask() (*models.Task, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.heap.Pop()
	if !ok {
		logger.L().Debug("pop on empty queue")
		return nil, false, nil
	}

	logger.WithTask(task.ID, string(task.Priority)).WithField("queue_len", q.heap.Len()).Debug("task popped")
	q.logEvent(EventTaskPopped, task)
	return task, true, nil
}

// PeekTask returns a copy of the next task without removing it.
func (q *taskQueue) PeekTask() (*models.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.heap.Peek()
	if !ok {
		return nil, false
	}
	out := *task
	return &out, true
}

// GetTask returns a copy of the queued task with the given ID.
func (q *taskQueue) GetTask(taskID string) (*models.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.heap.Find(NormalizeTaskID(taskID))
	if !ok {
		return nil, fmt.Errorf("getting task %s: %w", taskID, ErrTaskNotFound)
	}
	out := *task
	return &out, nil
}

// CompleteTask marks the task completed in place. Completing an already
// completed task is a no-op.
func (q *taskQueue) CompleteTask(taskID string) (*models.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.heap.Find(NormalizeTaskID(taskID))
	if !ok {
		return nil, fmt.Errorf("completing task %s: %w", taskID, ErrTaskNotFound)
	}
	if !task.Completed {
		task.Completed = true
		logger.WithTask(task.ID, string(task.Priority)).Debug("task completed")
		q.logEvent(EventTaskCompleted, task)
	}
	out := *task
	return &out, nil
}

// ListTasks returns the queued tasks in heap backing order.
func (q *taskQueue) ListTasks() []models.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Snapshot()
}

// ListTasksSorted returns the queued tasks ordered by priority. Ties keep
// their backing order, so the result is not necessarily the pop order.
func (q *taskQueue) ListTasksSorted() []models.Task {
	tasks := q.ListTasks()
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority.Rank() < tasks[j].Priority.Rank()
	})
	return tasks
}

// Stats counts queued tasks per priority and how many are completed.
func (q *taskQueue) Stats() QueueStats {
	tasks := q.ListTasks()
	stats := QueueStats{
		Total:      len(tasks),
		ByPriority: make(map[models.Priority]int, len(models.Priorities)),
	}
	for _, p := range models.Priorities {
		stats.ByPriority[p] = 0
	}
	for _, t := range tasks {
		stats.ByPriority[t.Priority]++
		if t.Completed {
			stats.Completed++
		}
	}
	return stats
}

func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

func (q *taskQueue) IsEmpty() bool {
	return q.Len() == 0
}

func (q *taskQueue) logEvent(eventType string, task *models.Task) {
	if q.events == nil {
		return
	}
	err := q.events.LogEvent(eventType, map[string]any{
		"task_id":  task.ID,
		"name":     task.Name,
		"priority": string(task.Priority),
	})
	if err != nil {
		// The event log is an audit trail; a write failure must not undo the mutation.
		logger.L().WithError(err).WithField("event", eventType).Warn("writing event")
	}
}
