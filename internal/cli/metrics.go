package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskq/internal/observability"
	"github.com/valter-silva-au/taskq/pkg/models"
	"gopkg.in/yaml.v3"
)

var (
	metricsFormat string
	metricsSince  string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display queue metrics from the event log",
	Long: `Display aggregated metrics derived from the event log.

Metrics cover every session that wrote to the log: tasks pushed, popped and
completed, pushes and pops per priority, and the number of sessions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (event log may be disabled)")
		}
		if err := validateFormat(metricsFormat); err != nil {
			return err
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		out := cmd.OutOrStdout()
		if metricsFormat == formatYAML {
			data, err := yaml.Marshal(metrics)
			if err != nil {
				return fmt.Errorf("formatting metrics as YAML: %w", err)
			}
			_, err = out.Write(data)
			return err
		}

		printMetrics(out, metrics, sinceTime)
		return nil
	},
}

func printMetrics(w io.Writer, metrics *observability.Metrics, since time.Time) {
	fmt.Fprintf(w, "Metrics (since %s)\n\n", since.Format("2006-01-02"))
	fmt.Fprintf(w, "  %-24s %d\n", "Events recorded:", metrics.EventCount)
	fmt.Fprintf(w, "  %-24s %d\n", "Sessions:", metrics.Sessions)
	fmt.Fprintf(w, "  %-24s %d\n", "Tasks pushed:", metrics.TasksPushed)
	fmt.Fprintf(w, "  %-24s %d\n", "Tasks popped:", metrics.TasksPopped)
	fmt.Fprintf(w, "  %-24s %d\n", "Tasks completed:", metrics.TasksCompleted)

	printByPriority(w, "Pushed by priority:", metrics.PushedByPriority)
	printByPriority(w, "Popped by priority:", metrics.PoppedByPriority)

	if metrics.OldestEvent != nil {
		fmt.Fprintf(w, "\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
	}
	if metrics.NewestEvent != nil {
		fmt.Fprintf(w, "  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
	}
}

// printByPriority lists known priorities in rank order, then anything else
// found in the log alphabetically.
func printByPriority(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  %s\n", title)

	seen := make(map[string]bool, len(counts))
	for _, p := range models.Priorities {
		seen[string(p)] = true
		if n, ok := counts[string(p)]; ok {
			fmt.Fprintf(w, "    %s %d\n", renderPriority(p), n)
		}
	}

	var other []string
	for k := range counts {
		if !seen[k] {
			other = append(other, k)
		}
	}
	sort.Strings(other)
	for _, k := range other {
		fmt.Fprintf(w, "    %-6s %d\n", k, counts[k])
	}
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	metricsCmd.Flags().StringVarP(&metricsFormat, "output", "o", formatText, "Output format: text or yaml")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
