package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/clock"
	"github.com/verte-zerg/lingoquest/internal/model"
	"github.com/verte-zerg/lingoquest/internal/queue"
)

// QuizOptions is the number of choices per definition question.
const QuizOptions = 4

// QuizModel is the definition quiz: pick the word matching a meaning.
type QuizModel struct {
	round

	target  model.VocabEntry
	options []model.VocabEntry
	cursor  int
	last    string
	lastOK  bool
}

// NewQuizModel starts a definition quiz round over entries.
func NewQuizModel(ctx context.Context, arcade Arcade, clk clock.Clock, b *queue.Builder, entries []model.VocabEntry) (*QuizModel, error) {
	r, err := newRound(ctx, arcade, clk, b, entries, achievement.GameDefinition, QuizOptions)
	if err != nil {
		return nil, err
	}
	m := &QuizModel{round: r}
	m.nextQuestion()
	return m, nil
}

// Target returns the entry whose meaning is being asked.
func (m *QuizModel) Target() model.VocabEntry {
	return m.target
}

// Options returns the choices in display order.
func (m *QuizModel) Options() []model.VocabEntry {
	return m.options
}

// Summary returns the round outcome and whether the round has ended.
func (m *QuizModel) Summary() (GameSummary, bool) {
	return m.summary, m.finished
}

// Init implements tea.Model.
func (m *QuizModel) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m *QuizModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil
	case tickMsg:
		m.expired()
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		if m.finished {
			return m, tea.Quit
		}
		if m.expired() {
			return m, nil
		}
		switch key := msg.String(); key {
		case "up", "k":
			m.cursor = (m.cursor + len(m.options) - 1) % len(m.options)
		case "down", "j":
			m.cursor = (m.cursor + 1) % len(m.options)
		case "enter", " ":
			m.choose(m.cursor)
		case "1", "2", "3", "4":
			m.choose(int(key[0] - '1'))
		}
		return m, nil
	}
	return m, nil
}

func (m *QuizModel) choose(i int) {
	if i < 0 || i >= len(m.options) {
		return
	}
	m.lastOK = m.options[i].ID == m.target.ID
	if m.lastOK {
		m.score++
		m.last = fmt.Sprintf("Correct: %s", m.target.Word)
	} else {
		m.last = fmt.Sprintf("It was %s", m.target.Word)
	}
	m.nextQuestion()
}

// nextQuestion draws a target and distinct distractors, then shuffles
// them into the option list.
func (m *QuizModel) nextQuestion() {
	drawn := m.queue.Build(m.entries, len(m.entries))
	m.target = drawn[0]
	m.options = m.queue.Build(drawn[:QuizOptions], QuizOptions)
	m.cursor = 0
}

// View implements tea.Model.
func (m *QuizModel) View() string {
	if m.finished {
		return m.layout(m.renderSummary("Time's up"), "", "any key exit")
	}
	lines := []string{
		mutedStyle.Render("Which word means"),
		meaningStyle.Render(strings.Join(model.SplitMeanings(m.target.Meaning), ", ")),
		"",
	}
	for i, opt := range m.options {
		line := fmt.Sprintf("%d. %s", i+1, opt.Word)
		if i == m.cursor {
			lines = append(lines, wordStyle.Render("> "+line))
			continue
		}
		lines = append(lines, "  "+line)
	}
	card := cardStyle.Width(m.contentWidth()).Render(strings.Join(lines, "\n"))
	note := ""
	if m.last != "" {
		note = errorStyle.Render(m.last)
		if m.lastOK {
			note = meaningStyle.Render(m.last)
		}
	}
	return m.layout(card, note, "1-4 answer  ↑↓ move  enter pick  q quit")
}
