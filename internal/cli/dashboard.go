package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskq/internal/core"
	"github.com/valter-silva-au/taskq/internal/observability"
	"github.com/valter-silva-au/taskq/pkg/models"
)

// Dashboard panel indices.
const (
	panelQueue = iota
	panelMetrics
	panelAlerts
	panelCount
)

// dashboardNextLimit caps how many upcoming tasks the queue panel lists.
const dashboardNextLimit = 5

type dashboardModel struct {
	queue       core.TaskQueue
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine

	activePanel int
	width       int
	height      int

	// Data.
	stats       core.QueueStats
	next        []models.Task
	metricsData *metricsSnapshot
	alerts      []alertSnapshot

	// State.
	status  string
	loading bool
	err     error
}

type metricsSnapshot struct {
	tasksPushed    int
	tasksPopped    int
	tasksCompleted int
	sessions       int
	eventCount     int
}

type alertSnapshot struct {
	severity string
	message  string
	time     string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	stats   core.QueueStats
	next    []models.Task
	metrics *metricsSnapshot
	alerts  []alertSnapshot
	err     error
}

// taskPoppedMsg reports the outcome of the p key. task is nil when the queue
// was empty.
type taskPoppedMsg struct {
	task *models.Task
	err  error
}

var dash = struct {
	title, header, help, status lipgloss.Style
	box, focused                lipgloss.Style
	severity                    map[string]lipgloss.Style
}{
	title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("24")).Padding(0, 1),
	header:  lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("39")),
	help:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	status:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Italic(true),
	box:     lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1),
	focused: lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(lipgloss.Color("39")).Padding(0, 1),
	severity: map[string]lipgloss.Style{
		"high":   lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		"medium": lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"low":    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	},
}

func newDashboardModel(q core.TaskQueue, mc observability.MetricsCalculator, ae observability.AlertEngine) dashboardModel {
	return dashboardModel{
		queue:       q,
		metricsCalc: mc,
		alertEngine: ae,
		activePanel: panelQueue,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, m.loadData
		case "p":
			if m.queue == nil {
				return m, nil
			}
			return m, m.popTop
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case taskPoppedMsg:
		switch {
		case msg.err != nil:
			m.err = msg.err
			return m, nil
		case msg.task == nil:
			m.status = "Queue is empty."
		default:
			m.status = fmt.Sprintf("Popped %s %s (%s)", msg.task.ID, msg.task.Name, msg.task.Priority)
		}
		m.loading = true
		return m, m.loadData

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.stats = msg.stats
		m.next = msg.next
		m.metricsData = msg.metrics
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	footer := dash.help.Render("tab: switch panel | p: pop top task | r: refresh | q: quit")
	if m.status != "" {
		footer = dash.status.Render(m.status) + "\n" + footer
	}

	var body string
	switch {
	case m.loading:
		body = "  Loading data..."
	case m.err != nil:
		body = "  Error: " + m.err.Error()
	default:
		body = m.renderPanels()
	}
	return dash.title.Render(" taskq Dashboard ") + "\n\n" + body + "\n\n" + footer
}

// renderPanels lays the panels out side by side on wide terminals and
// stacked otherwise.
func (m dashboardModel) renderPanels() string {
	contents := [panelCount]string{
		panelQueue:   m.renderQueuePanel(),
		panelMetrics: m.renderMetricsPanel(),
		panelAlerts:  m.renderAlertsPanel(),
	}

	wide := m.width > 122
	width := max(m.width-6, 20)
	if wide {
		width = (m.width-2)/panelCount - 4
	}

	boxes := make([]string, 0, panelCount)
	for i, c := range contents {
		style := dash.box
		if i == m.activePanel {
			style = dash.focused
		}
		boxes = append(boxes, style.Width(width).Render(c))
	}
	if wide {
		return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}

func (m dashboardModel) renderQueuePanel() string {
	lines := []string{dash.header.Render("Queue"), ""}
	if m.stats.Total == 0 {
		return strings.Join(append(lines, "Queue is empty."), "\n")
	}

	for _, p := range models.Priorities {
		lines = append(lines, styleForPriority(p).Render(fmt.Sprintf("%-8s %3d", p, m.stats.ByPriority[p])))
	}
	lines = append(lines,
		fmt.Sprintf("%-8s %3d (%d completed)", "Total", m.stats.Total, m.stats.Completed),
		"",
		"Next up:",
	)
	for i, t := range m.next {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, formatTaskLine(t)))
	}
	return strings.Join(lines, "\n")
}

func (m dashboardModel) renderMetricsPanel() string {
	lines := []string{dash.header.Render("Last 7 days"), ""}
	md := m.metricsData
	if md == nil {
		return strings.Join(append(lines, "Event log disabled."), "\n")
	}

	for _, row := range []struct {
		name string
		n    int
	}{
		{"Pushed", md.tasksPushed},
		{"Popped", md.tasksPopped},
		{"Completed", md.tasksCompleted},
		{"Events", md.eventCount},
		{"Sessions", md.sessions},
	} {
		lines = append(lines, fmt.Sprintf("%-10s %4d", row.name, row.n))
	}
	return strings.Join(lines, "\n")
}

func (m dashboardModel) renderAlertsPanel() string {
	lines := []string{dash.header.Render("Alerts"), ""}
	if len(m.alerts) == 0 {
		return strings.Join(append(lines, "No active alerts."), "\n")
	}

	for _, a := range m.alerts {
		tag := styleForSeverity(a.severity).Render(strings.ToUpper(a.severity))
		lines = append(lines, fmt.Sprintf("%s %s", tag, a.message))
	}
	return strings.Join(lines, "\n")
}

func styleForSeverity(severity string) lipgloss.Style {
	if st, ok := dash.severity[strings.ToLower(severity)]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

func (m dashboardModel) popTop() tea.Msg {
	task, ok, err := m.queue.PopTask()
	if err != nil {
		return taskPoppedMsg{err: fmt.Errorf("popping task: %w", err)}
	}
	if !ok {
		return taskPoppedMsg{}
	}
	return taskPoppedMsg{task: task}
}

func (m dashboardModel) loadData() tea.Msg {
	var result dataLoadedMsg

	if m.queue != nil {
		result.stats = m.queue.Stats()
		next := m.queue.ListTasksSorted()
		if len(next) > dashboardNextLimit {
			next = next[:dashboardNextLimit]
		}
		result.next = next
	}

	if m.metricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := m.metricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = &metricsSnapshot{
			tasksPushed:    metrics.TasksPushed,
			tasksPopped:    metrics.TasksPopped,
			tasksCompleted: metrics.TasksCompleted,
			sessions:       metrics.Sessions,
			eventCount:     metrics.EventCount,
		}
	}

	if m.alertEngine != nil {
		alerts, err := m.alertEngine.Evaluate()
		if err != nil {
			result.err = fmt.Errorf("loading alerts: %w", err)
			return result
		}
		result.alerts = make([]alertSnapshot, 0, len(alerts))
		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
				time:     a.TriggeredAt.Format("2006-01-02 15:04 UTC"),
			})
		}
	}

	return result
}

var dashboardFile string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI over an in-memory task queue",
	Long: `Launch an interactive terminal dashboard showing queue counts per
priority, the next tasks in priority order, event-log metrics and alerts.

The queue lives until the dashboard exits. Use --file to seed it.
Navigate between panels with Tab, pop the top task with p, refresh with r,
quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Queue == nil {
			return fmt.Errorf("task queue not initialized")
		}
		if dashboardFile != "" {
			if _, err := importTaskFile(Queue, dashboardFile); err != nil {
				return err
			}
		}

		p := tea.NewProgram(newDashboardModel(Queue, MetricsCalc, sessionAlertEngine("")), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	dashboardCmd.Flags().StringVarP(&dashboardFile, "file", "f", "", "Seed the queue from a task file")
	rootCmd.AddCommand(dashboardCmd)
}
