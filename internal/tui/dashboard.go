// Package tui renders the live dashboard. It ticks once a second and
// re-reads the tracker's collection snapshots, so change-feed events
// applied in the background show up without user input.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/stats"
	"github.com/Veraticus/pennywise/internal/sync"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type tickMsg time.Time

// Model holds the dashboard TUI state.
type Model struct {
	tracker  *sync.Tracker
	spinner  spinner.Model
	stats    stats.DashboardStats
	renewals []model.Subscription
	width    int
	height   int
	quitting bool
}

// NewModel creates a dashboard model over the given tracker. The
// tracker's engines are expected to be running already.
func NewModel(tracker *sync.Tracker) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cli.PrimaryColor)
	return Model{
		tracker: tracker,
		spinner: sp,
	}
}

// Init starts the spinner and the refresh tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m.refresh(), nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m.refresh(), tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) refresh() Model {
	now := time.Now()
	subs := m.tracker.Subscriptions.Snapshot()
	m.stats = stats.Compute(
		subs,
		m.tracker.Documents.Snapshot(),
		m.tracker.Budgets.Snapshot(),
		m.tracker.Goals.Snapshot(),
		now,
	)
	m.renewals = stats.UpcomingRenewals(subs, now)
	return m
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.loading() {
		return fmt.Sprintf("\n  %s Loading your finances...\n", m.spinner.View())
	}

	var b strings.Builder
	b.WriteString(cli.FormatTitle("Pennywise"))
	b.WriteString("\n\n")
	b.WriteString(m.statsView())
	b.WriteString("\n")
	b.WriteString(m.renewalsView())
	b.WriteString("\n")
	b.WriteString(cli.SubtleStyle.Render("r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) loading() bool {
	return m.tracker.Subscriptions.Loading() ||
		m.tracker.Budgets.Loading() ||
		m.tracker.Goals.Loading()
}

func (m Model) statsView() string {
	s := m.stats
	rows := []string{
		statLine("Monthly spend", "$"+s.TotalMonthlySpend.StringFixed(2)),
		statLine("Yearly spend", "$"+s.TotalYearlySpend.StringFixed(2)),
		statLine("Active subscriptions", fmt.Sprintf("%d", s.ActiveSubscriptions)),
		statLine("Renewing this week", fmt.Sprintf("%d", s.UpcomingRenewals)),
		statLine("Budget used", fmt.Sprintf("$%s of $%s", s.TotalBudgetSpent.StringFixed(2), s.TotalBudgetLimit.StringFixed(2))),
		statLine("Goal progress", fmt.Sprintf("%.1f%%", s.TotalGoalProgress)),
		statLine("Documents", fmt.Sprintf("%d", s.DocumentsCount)),
	}
	return cli.RenderBox("Overview", strings.Join(rows, "\n"))
}

func (m Model) renewalsView() string {
	if len(m.renewals) == 0 {
		return cli.RenderBox("Upcoming renewals", cli.SubtleStyle.Render("Nothing renews in the next 7 days."))
	}

	lines := make([]string, 0, len(m.renewals))
	for _, sub := range m.renewals {
		lines = append(lines, fmt.Sprintf("%s %s — $%s on %s",
			cli.WarningIcon,
			sub.ServiceName,
			sub.Cost.StringFixed(2),
			sub.RenewalDate.Format("Mon Jan 2")))
	}
	return cli.RenderBox("Upcoming renewals", strings.Join(lines, "\n"))
}

func statLine(label, value string) string {
	return fmt.Sprintf("%s %s",
		cli.SubtleStyle.Width(24).Render(label),
		cli.BoldStyle.Render(value))
}
