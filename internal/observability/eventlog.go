package observability

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"
)

// Event levels.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Event is one line of the queue audit trail.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Type    string         `json:"type"`
	Session string         `json:"session,omitempty"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// TaskID returns the task_id carried in Data, if any.
func (e Event) TaskID() string {
	id, _ := e.Data["task_id"].(string)
	return id
}

// Priority returns the priority carried in Data, if any.
func (e Event) Priority() string {
	p, _ := e.Data["priority"].(string)
	return p
}

// EventFilter selects events on Read. Zero fields match everything.
type EventFilter struct {
	Since   *time.Time
	Until   *time.Time
	Type    string
	Level   string
	Session string
}

func (f EventFilter) match(e Event) bool {
	switch {
	case f.Since != nil && e.Time.Before(*f.Since):
		return false
	case f.Until != nil && e.Time.After(*f.Until):
		return false
	case f.Type != "" && e.Type != f.Type:
		return false
	case f.Level != "" && e.Level != f.Level:
		return false
	case f.Session != "" && e.Session != f.Session:
		return false
	}
	return true
}

// EventLog appends and reads queue events.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

type fileEventLog struct {
	mu   sync.Mutex
	path string
	w    *os.File
	enc  *json.Encoder
}

// NewJSONLEventLog opens the append-only JSONL log at path, creating it if needed.
func NewJSONLEventLog(path string) (EventLog, error) {
	w, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log %s: %w", path, err)
	}
	return &fileEventLog{path: path, w: w, enc: json.NewEncoder(w)}, nil
}

// Write stamps a zero Time with the current UTC time and an empty Level with
// INFO, then appends the event as one line.
func (l *fileEventLog) Write(event Event) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	if event.Level == "" {
		event.Level = LevelInfo
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(event); err != nil {
		return fmt.Errorf("writing %s event: %w", event.Type, err)
	}
	return nil
}

// Read returns matching events in file order. A missing file yields no
// events; lines that do not decode are skipped. Lines have no length limit.
func (l *fileEventLog) Read(filter EventFilter) ([]Event, error) {
	r, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening event log %s: %w", l.path, err)
	}
	defer func() { _ = r.Close() }()

	var out []Event
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		var e Event
		if len(bytes.TrimSpace(line)) > 0 && json.Unmarshal(line, &e) == nil && filter.match(e) {
			out = append(out, e)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading event log %s: %w", l.path, err)
		}
	}
	return out, nil
}

func (l *fileEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}
