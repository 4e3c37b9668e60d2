package core

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/valter-silva-au/taskq/pkg/models"
)

// TaskIDGenerator mints stable task identifiers. IDs never encode a heap
// position, so they stay valid while tasks move inside the queue.
type TaskIDGenerator interface {
	GenerateTaskID() (string, error)
}

// counterTaskIDGenerator hands out sequential IDs for the life of the process.
type counterTaskIDGenerator struct {
	mu       sync.Mutex
	prefix   string
	padWidth int
	counter  int
}

// NewTaskIDGenerator returns a generator for the given strategy. padWidth
// controls zero-padding of the counter; use 0 for none (e.g. TASK-1).
// The uuid strategy ignores padWidth.
func NewTaskIDGenerator(strategy models.TaskIDStrategy, prefix string, padWidth int) (TaskIDGenerator, error) {
	switch strategy {
	case "", models.TaskIDCounter:
		return &counterTaskIDGenerator{prefix: prefix, padWidth: padWidth}, nil
	case models.TaskIDUUID:
		return &uuidTaskIDGenerator{prefix: prefix}, nil
	default:
		return nil, fmt.Errorf("unknown task id strategy %q", strategy)
	}
}

// GenerateTaskID increments the counter and formats it as {prefix}-{counter}.
func (g *counterTaskIDGenerator) GenerateTaskID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counter++
	if g.padWidth > 0 {
		return fmt.Sprintf("%s-%0*d", g.prefix, g.padWidth, g.counter), nil
	}
	return fmt.Sprintf("%s-%d", g.prefix, g.counter), nil
}

type uuidTaskIDGenerator struct {
	prefix string
}

// GenerateTaskID returns {prefix}-{uuid}, or a bare random UUID without a prefix.
func (g *uuidTaskIDGenerator) GenerateTaskID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating uuid: %w", err)
	}
	if g.prefix == "" {
		return id.String(), nil
	}
	return g.prefix + "-" + id.String(), nil
}

// NormalizeTaskID trims whitespace and upper-cases the prefix so that
// "task-00001" resolves to "TASK-00001". UUID suffixes stay lowercase.
func NormalizeTaskID(taskID string) string {
	taskID = strings.TrimSpace(taskID)
	prefix, rest, found := strings.Cut(taskID, "-")
	if !found {
		return taskID
	}
	return strings.ToUpper(prefix) + "-" + rest
}
