package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vexhq/vexobs/internal/aggregate"
	"github.com/vexhq/vexobs/internal/health"
	"github.com/vexhq/vexobs/pkg/models"
)

// Dashboard panel indices.
const (
	panelHealth = iota
	panelTokens
	panelErrors
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	snapshot *health.Snapshot
	spend    *spendSnapshot

	// State.
	loading bool
	err     error
}

type spendSnapshot struct {
	operations  int
	totalTokens int64
	totalCost   float64
	byType      []aggregate.GroupStat
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	snapshot *health.Snapshot
	spend    *spendSnapshot
	err      error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	severityError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelHealth,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadDashboardData
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
			return m, loadDashboardData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.snapshot = msg.snapshot
		m.spend = msg.spend
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" vexobs Dashboard (24h) ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	healthPanel := m.renderHealthPanel()
	tokensPanel := m.renderTokensPanel()
	errorsPanel := m.renderErrorsPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		healthPanel = m.applyPanelStyle(panelHealth, healthPanel, colWidth-4)
		tokensPanel = m.applyPanelStyle(panelTokens, tokensPanel, colWidth-4)
		errorsPanel = m.applyPanelStyle(panelErrors, errorsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, healthPanel, tokensPanel, errorsPanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		healthPanel = m.applyPanelStyle(panelHealth, healthPanel, panelWidth)
		tokensPanel = m.applyPanelStyle(panelTokens, tokensPanel, panelWidth)
		errorsPanel = m.applyPanelStyle(panelErrors, errorsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, healthPanel, tokensPanel, errorsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderHealthPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Health"))
	b.WriteString("\n")

	if m.snapshot == nil {
		b.WriteString("  No health data.")
		return b.String()
	}

	snap := m.snapshot
	gradeStyle, ok := gradeStyles[snap.Grade]
	if !ok {
		gradeStyle = lipgloss.NewStyle()
	}
	b.WriteString("  Grade:      " + gradeStyle.Render(fmt.Sprintf("%s (%s)", snap.Grade, snap.GradeLabel)) + "\n")
	fmt.Fprintf(&b, "  Error rate: %.2f%%\n", snap.ErrorRate)
	fmt.Fprintf(&b, "  Errors:     %d\n", snap.ErrorCount)
	fmt.Fprintf(&b, "  Warnings:   %d\n", snap.WarningCount)
	fmt.Fprintf(&b, "  Info:       %d\n", snap.InfoCount)

	return b.String()
}

func (m dashboardModel) renderTokensPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Token Spend"))
	b.WriteString("\n")

	if m.spend == nil || m.spend.operations == 0 {
		b.WriteString("  No token usage recorded.")
		return b.String()
	}

	fmt.Fprintf(&b, "  Operations: %d\n", m.spend.operations)
	fmt.Fprintf(&b, "  Tokens:     %d\n", m.spend.totalTokens)
	fmt.Fprintf(&b, "  Cost:       $%.6f\n", m.spend.totalCost)

	if len(m.spend.byType) > 0 {
		b.WriteString("\n")
		for i, grp := range m.spend.byType {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "  %-16s %d\n", grp.Key, int64(grp.Sum))
		}
	}

	return b.String()
}

func (m dashboardModel) renderErrorsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Recent Errors"))
	b.WriteString("\n")

	if m.snapshot == nil || len(m.snapshot.RecentErrors) == 0 {
		b.WriteString("  No recent errors.")
		return b.String()
	}

	for _, rec := range m.snapshot.RecentErrors {
		sev := styleForSeverity(rec.Severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(string(rec.Severity))))
		fmt.Fprintf(&b, "  %s %s: %s\n", sev, rec.Source, rec.Message)
	}

	return b.String()
}

func styleForSeverity(severity models.Severity) lipgloss.Style {
	switch severity {
	case models.SeverityError:
		return severityError
	case models.SeverityWarning:
		return severityWarning
	case models.SeverityInfo:
		return severityInfo
	default:
		return lipgloss.NewStyle()
	}
}

func loadDashboardData() tea.Msg {
	var result dataLoadedMsg

	if HealthEval != nil {
		snap, err := HealthEval.Evaluate(health.Period24h)
		if err != nil {
			result.err = fmt.Errorf("evaluating health: %w", err)
			return result
		}
		result.snapshot = snap
	}

	if TokenLog != nil {
		end := time.Now().UTC()
		recs, _, err := TokenLog.Scan(end.Add(-24*time.Hour), end)
		if err != nil {
			result.err = fmt.Errorf("scanning token usage log: %w", err)
			return result
		}
		spend := &spendSnapshot{operations: len(recs)}
		rows := make([]aggregate.Row, len(recs))
		for i, rec := range recs {
			spend.totalTokens += rec.TotalTokens
			spend.totalCost += rec.Cost
			rows[i] = aggregate.Row{Key: rec.OperationType, Value: float64(rec.TotalTokens), Time: rec.Timestamp, Ref: i}
		}
		spend.byType = aggregate.Aggregate(rows, aggregate.Options{}).Groups
		result.spend = spend
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for health, spend, and errors",
	Long: `Launch an interactive terminal dashboard showing the 24-hour health
snapshot, token spend, and recent errors in a live view.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if HealthEval == nil {
			return fmt.Errorf("health evaluator not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
