package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lingoquest/internal/clock"
	"github.com/verte-zerg/lingoquest/internal/model"
)

// WordList is what the word list UI needs from a session.
type WordList interface {
	Entries() []model.VocabEntry
	DeleteWord(ctx context.Context, id string) bool
	UndoDelete(ctx context.Context) bool
	PendingUndo() (model.UndoToken, bool)
	DismissUndo()
}

// WordsModel lists the vocabulary and deletes entries with an undo window.
type WordsModel struct {
	ctx   context.Context
	list  WordList
	clock clock.Clock

	entries []model.VocabEntry
	table   table.Model
	status  string

	width  int
	height int
}

// NewWordsModel constructs the word list UI.
func NewWordsModel(ctx context.Context, list WordList, c clock.Clock) *WordsModel {
	m := &WordsModel{ctx: ctx, list: list, clock: c}
	m.table = table.New(
		table.WithColumns(wordColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	m.table.SetStyles(wordTableStyles())
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *WordsModel) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m *WordsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(wordColumns(msg.Width))
		m.table.SetHeight(max(msg.Height-4, 3))
		return m, nil
	case tickMsg:
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if _, ok := m.list.PendingUndo(); ok {
				m.list.DismissUndo()
				m.status = ""
				return m, nil
			}
			return m, tea.Quit
		case "d", "delete", "x":
			m.deleteSelected()
			return m, nil
		case "u", "ctrl+z":
			if m.list.UndoDelete(m.ctx) {
				m.status = "Restored."
			} else {
				m.status = "Nothing to undo."
			}
			m.refresh()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *WordsModel) deleteSelected() {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.entries) {
		return
	}
	entry := m.entries[idx]
	if m.list.DeleteWord(m.ctx, entry.ID) {
		m.status = ""
	}
	m.refresh()
	if idx >= len(m.entries) && len(m.entries) > 0 {
		m.table.SetCursor(len(m.entries) - 1)
	}
}

func (m *WordsModel) refresh() {
	m.entries = m.list.Entries()
	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		rows = append(rows, table.Row{
			e.Word,
			strings.Join(model.SplitMeanings(e.Meaning), ", "),
			string(e.Level),
			string(e.Status),
			fmt.Sprintf("%d", e.PracticeCount),
		})
	}
	m.table.SetRows(rows)
}

// View implements tea.Model.
func (m *WordsModel) View() string {
	lines := []string{wordStyle.Render(fmt.Sprintf("Words (%d)", len(m.entries)))}
	if len(m.entries) == 0 {
		lines = append(lines, mutedStyle.Render("No words yet. Add one with `lingoquest add`."))
	} else {
		lines = append(lines, m.table.View())
	}
	if toast := m.renderUndo(); toast != "" {
		lines = append(lines, toast)
	} else if m.status != "" {
		lines = append(lines, mutedStyle.Render(m.status))
	}
	lines = append(lines, footerStyle.Render("↑/↓ move  d delete  u undo  esc dismiss  q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *WordsModel) renderUndo() string {
	tok, ok := m.list.PendingUndo()
	if !ok {
		return ""
	}
	left := tok.Deadline.Sub(m.clock.Now()).Seconds()
	secs := max(int(math.Ceil(left)), 0)
	return toastStyle.Render(fmt.Sprintf("Deleted %q  u to undo (%ds)", tok.Entry.Word, secs))
}

func wordColumns(width int) []table.Column {
	fixed := 4 + 10 + 9
	flex := max(width-fixed-8, 20)
	wordWidth := flex / 3
	return []table.Column{
		{Title: "Word", Width: wordWidth},
		{Title: "Meaning", Width: flex - wordWidth},
		{Title: "Lvl", Width: 4},
		{Title: "Status", Width: 10},
		{Title: "Practice", Width: 9},
	}
}

func wordTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#3A3A3A")).
		Bold(true)
	return styles
}
