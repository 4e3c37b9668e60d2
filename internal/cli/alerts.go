package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskq/internal/observability"
	"gopkg.in/yaml.v3"
)

var (
	alertsSession string
	alertsFormat  string
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show active queue alerts",
	Long: `Rebuild the live queue of one session from the event log (tasks pushed
and not yet popped) and report any thresholds it exceeds.

Alerts fire when the live queue is larger than alerts.max_queue_size or holds
more High priority tasks than alerts.max_high_priority. Without --session the
most recently active session is checked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := AlertEngine
		if alertsSession != "" {
			engine = sessionAlertEngine(alertsSession)
		}
		if engine == nil {
			return fmt.Errorf("alert engine not initialized (event log may be disabled)")
		}
		if err := validateFormat(alertsFormat); err != nil {
			return err
		}

		alerts, err := engine.Evaluate()
		if err != nil {
			return fmt.Errorf("evaluating alerts: %w", err)
		}

		out := cmd.OutOrStdout()
		if alertsFormat == formatYAML {
			if alerts == nil {
				alerts = []observability.Alert{}
			}
			data, err := yaml.Marshal(alerts)
			if err != nil {
				return fmt.Errorf("formatting alerts as YAML: %w", err)
			}
			_, err = out.Write(data)
			return err
		}

		if len(alerts) == 0 {
			fmt.Fprintln(out, "No active alerts.")
			return nil
		}

		fmt.Fprintf(out, "%d active alert(s):\n\n", len(alerts))
		for _, alert := range alerts {
			severity := strings.ToUpper(string(alert.Severity))
			fmt.Fprintf(out, "  %s %s\n", styleForSeverity(string(alert.Severity)).Render("["+severity+"]"), alert.Message)
			fmt.Fprintf(out, "         triggered at %s\n\n", alert.TriggeredAt.Format("2006-01-02 15:04 UTC"))
		}

		return nil
	},
}

// sessionAlertEngine returns an engine over the given session, or over this
// process's own session when session is empty. It returns nil when the event
// log is disabled.
func sessionAlertEngine(session string) observability.AlertEngine {
	if EventLog == nil {
		return nil
	}
	if session == "" {
		session = SessionID
	}
	return observability.NewAlertEngine(EventLog, AlertThresholds, session)
}

func init() {
	alertsCmd.Flags().StringVar(&alertsSession, "session", "", "Session ID to check (default: most recent)")
	alertsCmd.Flags().StringVarP(&alertsFormat, "output", "o", formatText, "Output format: text or yaml")
	rootCmd.AddCommand(alertsCmd)
}
