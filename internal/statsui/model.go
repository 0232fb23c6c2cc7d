// Package statsui provides the Bubble Tea progress dashboard.
package statsui

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/clock"
	"github.com/verte-zerg/lingoquest/internal/model"
	"github.com/verte-zerg/lingoquest/internal/stats"
)

const (
	tabOverview = iota
	tabWeek
	tabAchievements
)

const (
	plotHeight = 6
	trendDays  = 30
	trendAvg   = 7
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Source provides the progress data shown on the dashboard.
type Source interface {
	Snapshot() model.ProgressState
	Series() []achievement.Series
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	src       Source
	clock     clock.Clock
	dailyGoal int

	state      model.ProgressState
	series     []achievement.Series
	weekOffset int

	tabs      []string
	activeTab int
	viewports []viewport.Model

	width  int
	height int
}

// NewModel constructs a dashboard model.
func NewModel(src Source, c clock.Clock, dailyGoal int) *Model {
	m := &Model{
		src:       src,
		clock:     c,
		dailyGoal: dailyGoal,
		tabs:      []string{"Overview", "Week", "Achievements"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "left", "h", "shift+tab":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "[":
			if m.activeTab == tabWeek {
				m.weekOffset++
				m.renderTabContents()
			}
			return m, nil
		case "]":
			if m.activeTab == tabWeek && m.weekOffset > 0 {
				m.weekOffset--
				m.renderTabContents()
			}
			return m, nil
		case "r":
			m.refresh()
			return m, nil
		case "g", "home":
			m.viewports[m.activeTab].GotoTop()
			return m, nil
		case "G", "end":
			m.viewports[m.activeTab].GotoBottom()
			return m, nil
		}
		vp, cmd := m.viewports[m.activeTab].Update(msg)
		m.viewports[m.activeTab] = vp
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderTabs(), m.width, headerHeight)
	body := fitLines(m.viewports[m.activeTab].View(), m.width, bodyHeight)
	footer := fitLines(m.renderHelp(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	footerHeight = 1
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
}

func (m *Model) refresh() {
	m.state = m.src.Snapshot()
	m.series = m.src.Series()
	m.renderTabContents()
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Refresh: r  Quit: q"
	if m.activeTab == tabWeek {
		help = "Nav: left/right  Week: [ older  ] newer  Scroll: up/down  Refresh: r  Quit: q"
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	now := m.clock.Now()
	m.viewports[tabOverview].SetContent(renderOverview(m.state, now, m.dailyGoal, width))
	m.viewports[tabWeek].SetContent(renderWeek(m.state.ActivityLog, now, m.weekOffset, width))
	m.viewports[tabAchievements].SetContent(renderAchievements(m.series, m.state.UnlockedAchievements))
}

func renderOverview(state model.ProgressState, now time.Time, dailyGoal, width int) string {
	s := stats.Summarize(state, now, dailyGoal)
	cards := []string{
		metricCard("Words", fmt.Sprintf("%d", s.TotalVocab)),
		metricCard("Mastered", fmt.Sprintf("%d", s.MasteredVocab)),
		metricCard("Streak", fmt.Sprintf("%d / best %d", s.CurrentStreak, s.LongestStreak)),
		metricCard("Points", fmt.Sprintf("%d", s.Points)),
		metricCard("Achievements", fmt.Sprintf("%d/%d", s.Unlocked, s.TotalAchievements)),
	}
	if s.DailyGoal > 0 {
		cards = append(cards, metricCard("Today", fmt.Sprintf("%d/%d (%.0f%%)", s.Today.Total(), s.DailyGoal, s.GoalPercent())))
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		half := (len(cards) + 1) / 2
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:half]...)
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[half:]...)
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}

	var buf bytes.Buffer
	daily := stats.Trend(state.ActivityLog, now, trendDays)
	err := stats.PlotSeries(&buf, fmt.Sprintf("Activity, last %d days", trendDays), []stats.Series{
		{Name: "daily", Values: daily},
		{Name: fmt.Sprintf("%d-day avg", trendAvg), Values: stats.MovingAverage(daily, trendAvg)},
	}, stats.PlotWidthFor(width, 4), plotHeight, true)
	if err != nil {
		buf.Reset()
		fmt.Fprintf(&buf, "Failed to render activity: %v\n", err)
	}
	if err := stats.RenderCalendar(&buf, stats.Calendar(state.ActivityLog, now, now)); err != nil {
		fmt.Fprintf(&buf, "Failed to render calendar: %v\n", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func renderWeek(log map[string]model.DayRecord, now time.Time, offset, width int) string {
	days := stats.Week(log, now, offset)
	title := "This week"
	if offset > 0 {
		title = fmt.Sprintf("%d week(s) ago", offset)
	}
	var buf bytes.Buffer
	buf.WriteString(headerStyle.Render(title) + "\n")
	if err := stats.RenderWeekChart(&buf, days, width); err != nil {
		return fmt.Sprintf("Failed to render week: %v", err)
	}
	if err := stats.RenderWeekTable(&buf, days); err != nil {
		return fmt.Sprintf("Failed to render week: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderAchievements(series []achievement.Series, unlocked []string) string {
	var buf bytes.Buffer
	if err := stats.RenderSeries(&buf, series); err != nil {
		return fmt.Sprintf("Failed to render series: %v", err)
	}
	if err := stats.RenderAchievements(&buf, achievement.Rules(), unlocked, false); err != nil {
		return fmt.Sprintf("Failed to render achievements: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
