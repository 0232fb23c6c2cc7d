// Package tui provides the Bubble Tea flashcard and word list interfaces.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/app"
	"github.com/verte-zerg/lingoquest/internal/model"
)

var (
	wordStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	meaningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	exampleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Underline(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	toastStyle     = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Background(lipgloss.Color("#3A6E3A")).
			Padding(0, 1)
	cardStyle = lipgloss.NewStyle().
			Padding(1, 3).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Deck is what the learn UI needs from a session.
type Deck interface {
	AnswerCard(ctx context.Context, id string, known bool) (app.Answer, bool, error)
	Streak() int
	Toast() (achievement.Rule, bool)
}

// LearnResult summarizes a finished learn session.
type LearnResult struct {
	Known    int
	Unknown  int
	Promoted []string
	Unlocked []achievement.Rule
}

// LearnModel implements the flashcard UI.
type LearnModel struct {
	ctx   context.Context
	deck  Deck
	cards []model.VocabEntry

	index   int
	flipped bool
	result  LearnResult
	errMsg  string

	width  int
	height int
}

// NewLearnModel constructs a flashcard UI over cards.
func NewLearnModel(ctx context.Context, deck Deck, cards []model.VocabEntry) *LearnModel {
	return &LearnModel{ctx: ctx, deck: deck, cards: cards}
}

// Result returns the answers given so far.
func (m *LearnModel) Result() LearnResult {
	return m.result
}

// Done reports whether every card has been answered.
func (m *LearnModel) Done() bool {
	return m.index >= len(m.cards)
}

// Init implements tea.Model.
func (m *LearnModel) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m *LearnModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		if m.Done() {
			return m, tea.Quit
		}
		switch msg.String() {
		case " ", "enter":
			m.flipped = !m.flipped
		case "right", "l", "y":
			m.answer(true)
		case "left", "h", "n":
			m.answer(false)
		}
		return m, nil
	}
	return m, nil
}

func (m *LearnModel) answer(known bool) {
	card := m.cards[m.index]
	m.index++
	m.flipped = false
	ans, ok, err := m.deck.AnswerCard(m.ctx, card.ID, known)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to record answer: %v", err)
		return
	}
	if !ok {
		m.errMsg = fmt.Sprintf("%q is no longer in your list", card.Word)
		return
	}
	m.errMsg = ""
	if known {
		m.result.Known++
	} else {
		m.result.Unknown++
	}
	if ans.Promoted {
		m.result.Promoted = append(m.result.Promoted, ans.Entry.Word)
	}
	m.result.Unlocked = append(m.result.Unlocked, ans.Unlocked...)
}

// View implements tea.Model.
func (m *LearnModel) View() string {
	var body string
	if m.Done() {
		body = m.renderSummary()
	} else {
		body = m.renderCard()
	}
	lines := []string{body}
	if toast := m.renderToast(); toast != "" {
		lines = append(lines, toast)
	}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	if m.width == 0 || m.height < 3 {
		return content + "\n" + m.renderFooter()
	}
	main := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footer := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.renderFooter())
	return main + "\n" + footer
}

func (m *LearnModel) contentWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(int(float64(m.width)*0.6), 20)
}

func (m *LearnModel) renderCard() string {
	card := m.cards[m.index]
	width := m.contentWidth()
	lines := []string{wordStyle.Render(card.Word)}
	if card.Level != "" {
		lines[0] += "  " + mutedStyle.Render(string(card.Level))
	}
	if !m.flipped {
		lines = append(lines, "", mutedStyle.Render("space: show meaning"))
		return cardStyle.Width(width).Render(strings.Join(lines, "\n"))
	}
	lines = append(lines, "", meaningStyle.Render(strings.Join(model.SplitMeanings(card.Meaning), ", ")))
	for _, ex := range model.SplitExamples(card.Example) {
		text := ex.Text
		if ex.Translation != "" {
			text += " (" + ex.Translation + ")"
		}
		lines = append(lines, "", wrapText(text, card.Word, width-6))
	}
	if syn := model.SplitMeanings(card.Synonyms); len(syn) > 0 {
		lines = append(lines, "", mutedStyle.Render("Synonyms: "+strings.Join(syn, ", ")))
	}
	return cardStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *LearnModel) renderSummary() string {
	lines := []string{
		wordStyle.Render("Session complete"),
		"",
		fmt.Sprintf("Known: %d  Still learning: %d", m.result.Known, m.result.Unknown),
	}
	if len(m.result.Promoted) > 0 {
		lines = append(lines, "Mastered: "+strings.Join(m.result.Promoted, ", "))
	}
	lines = append(lines, "", mutedStyle.Render("press any key to exit"))
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m *LearnModel) renderToast() string {
	rule, ok := m.deck.Toast()
	if !ok {
		return ""
	}
	return toastStyle.Render("Achievement unlocked: " + rule.Title)
}

func (m *LearnModel) renderFooter() string {
	total := len(m.cards)
	current := min(m.index+1, total)
	segments := []string{
		fmt.Sprintf("Card %d/%d", current, total),
		fmt.Sprintf("Known %d", m.result.Known),
		fmt.Sprintf("Learning %d", m.result.Unknown),
		fmt.Sprintf("Streak %d", m.deck.Streak()),
		"space flip  ← learning  → known  q quit",
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
