package models

import (
	"fmt"
	"strings"
	"time"
)

// Priority represents the urgency bucket of a task. High sorts before
// Medium, which sorts before Low.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Priorities lists every priority in ascending rank order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Rank maps the priority onto its ordering key: High=0, Medium=1, Low=2.
// Unknown values rank after Low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Valid reports whether p is one of the three known buckets.
func (p Priority) Valid() bool {
	return p.Rank() < 3
}

// ParsePriority accepts a priority name in any case ("high", "HIGH", "High").
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q, must be one of: High, Medium, Low", s)
}

// Task is a unit of work held by the queue. Only Priority participates in
// ordering; Completed may be flipped in place while the task is queued.
type Task struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Priority    Priority  `yaml:"priority" json:"priority"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	DueDate     string    `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	Completed   bool      `yaml:"completed" json:"completed"`
	Created     time.Time `yaml:"created" json:"created"`
}

// Less reports whether t must be served before other.
func (t *Task) Less(other *Task) bool {
	return t.Priority.Rank() < other.Priority.Rank()
}
