package tui

import (
	"context"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/clock"
	"github.com/verte-zerg/lingoquest/internal/model"
	"github.com/verte-zerg/lingoquest/internal/queue"
)

// MinSpeedWords is the smallest vocabulary speed typing runs on.
const MinSpeedWords = 5

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cursorStyle    = pendingStyle.Underline(true)
)

// SpeedModel is the speed typing game: the meaning is shown and the word
// must be typed before the round runs out.
type SpeedModel struct {
	round

	words []model.VocabEntry
	next  int

	targetRunes []rune
	inputRunes  []rune
}

// NewSpeedModel starts a speed typing round over entries.
func NewSpeedModel(ctx context.Context, arcade Arcade, clk clock.Clock, b *queue.Builder, entries []model.VocabEntry) (*SpeedModel, error) {
	r, err := newRound(ctx, arcade, clk, b, entries, achievement.GameSpeedTyping, MinSpeedWords)
	if err != nil {
		return nil, err
	}
	m := &SpeedModel{round: r}
	m.nextWord()
	return m, nil
}

// Target returns the entry currently being typed.
func (m *SpeedModel) Target() model.VocabEntry {
	return m.words[m.next-1]
}

// Summary returns the round outcome and whether the round has ended.
func (m *SpeedModel) Summary() (GameSummary, bool) {
	return m.summary, m.finished
}

// Init implements tea.Model.
func (m *SpeedModel) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m *SpeedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil
	case tickMsg:
		m.expired()
		return m, tick()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if m.finished {
			return m, tea.Quit
		}
		if m.expired() {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyBackspace, tea.KeyDelete:
			m.handleBackspace()
		case tea.KeyTab:
			m.nextWord()
		case tea.KeyEnter:
			m.check()
		case tea.KeySpace:
			m.handleRunes([]rune{' '})
		case tea.KeyRunes:
			m.handleRunes(msg.Runes)
		}
		return m, nil
	}
	return m, nil
}

func (m *SpeedModel) handleBackspace() {
	if len(m.inputRunes) == 0 {
		return
	}
	m.inputRunes = m.inputRunes[:len(m.inputRunes)-1]
}

func (m *SpeedModel) handleRunes(runes []rune) {
	m.inputRunes = append(m.inputRunes, runes...)
	m.check()
}

// check advances to the next word once the input matches the target,
// ignoring case and surrounding spaces.
func (m *SpeedModel) check() {
	typed := strings.TrimSpace(string(m.inputRunes))
	if !strings.EqualFold(typed, strings.TrimSpace(string(m.targetRunes))) {
		return
	}
	m.score++
	m.nextWord()
}

func (m *SpeedModel) nextWord() {
	if m.next >= len(m.words) {
		m.words = m.queue.Build(m.entries, len(m.entries))
		m.next = 0
	}
	m.targetRunes = []rune(m.words[m.next].Word)
	m.inputRunes = nil
	m.next++
}

// View implements tea.Model.
func (m *SpeedModel) View() string {
	if m.finished {
		return m.layout(m.renderSummary("Time's up"), "", "any key exit")
	}
	target := m.Target()
	width := m.contentWidth()
	lines := []string{meaningStyle.Render(strings.Join(model.SplitMeanings(target.Meaning), ", "))}
	if target.Level != "" {
		lines[0] += "  " + mutedStyle.Render(string(target.Level))
	}
	lines = append(lines, "", renderTyped(m.targetRunes, m.inputRunes))
	card := cardStyle.Width(width).Render(strings.Join(lines, "\n"))
	return m.layout(card, "", "enter check  tab skip  esc quit")
}

// renderTyped colors typed runes against the target and shows one
// placeholder per rune still to type.
func renderTyped(target, input []rune) string {
	var b strings.Builder
	for i, r := range input {
		if i < len(target) && unicode.ToLower(r) == unicode.ToLower(target[i]) {
			b.WriteString(correctStyle.Render(string(r)))
			continue
		}
		if r == ' ' {
			r = '·'
		}
		b.WriteString(incorrectStyle.Render(string(r)))
	}
	for i := len(input); i < len(target); i++ {
		ch := "_"
		if target[i] == ' ' {
			ch = " "
		}
		if i == len(input) {
			b.WriteString(cursorStyle.Render(ch))
			continue
		}
		b.WriteString(pendingStyle.Render(ch))
	}
	return b.String()
}
