// Package logger holds the process-wide operational logger. Queue mutations
// are also recorded in the observability event log; this logger is for
// diagnostics only and writes to stderr so it never mixes with command output.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.RWMutex
	log = newLogger(os.Stderr)
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
	return l
}

// Setup applies the configured level and output format. An empty level
// keeps the current one.
func Setup(level string, jsonFormat bool) error {
	mu.Lock()
	defer mu.Unlock()

	if level = strings.TrimSpace(level); level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		log.SetLevel(lvl)
	}
	if jsonFormat {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log.SetOutput(w)
}

// L returns the shared logger.
func L() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// WithTask returns an entry carrying the common task fields.
func WithTask(id, priority string) *logrus.Entry {
	return L().WithFields(logrus.Fields{
		"task_id":  id,
		"priority": priority,
	})
}
