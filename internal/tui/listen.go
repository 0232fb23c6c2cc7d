package tui

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/clock"
	"github.com/verte-zerg/lingoquest/internal/model"
)

// DefaultListenInterval is how long each word stays up while playing.
const DefaultListenInterval = 4 * time.Second

// Listener is what the listen UI needs from a session.
type Listener interface {
	Listen(ctx context.Context, count int) ([]achievement.Rule, error)
	Toast() (achievement.Rule, bool)
}

// ListenModel plays through the vocabulary one word at a time. Every
// start of playback counts as one listening activity.
type ListenModel struct {
	ctx      context.Context
	listener Listener
	clock    clock.Clock
	words    []model.VocabEntry
	interval time.Duration

	index   int
	playing bool
	shuffle bool
	repeat  bool
	nextAt  time.Time

	plays    int
	unlocked []achievement.Rule
	errMsg   string

	width  int
	height int
}

// NewListenModel constructs a player over words.
func NewListenModel(ctx context.Context, listener Listener, clk clock.Clock, words []model.VocabEntry, interval time.Duration) *ListenModel {
	if interval <= 0 {
		interval = DefaultListenInterval
	}
	return &ListenModel{ctx: ctx, listener: listener, clock: clk, words: words, interval: interval}
}

// Plays returns how many times playback was started.
func (m *ListenModel) Plays() int {
	return m.plays
}

// Unlocked returns the achievements unlocked while listening.
func (m *ListenModel) Unlocked() []achievement.Rule {
	return m.unlocked
}

// Current returns the word on screen.
func (m *ListenModel) Current() model.VocabEntry {
	return m.words[m.index]
}

// Init implements tea.Model.
func (m *ListenModel) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m *ListenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.playing && !m.clock.Now().Before(m.nextAt) {
			m.advance()
		}
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case " ", "enter":
			m.togglePlay()
		case "right", "l", "n":
			m.next()
			m.rearm()
		case "left", "h", "p":
			m.prev()
			m.rearm()
		case "s":
			m.shuffle = !m.shuffle
		case "r":
			m.repeat = !m.repeat
		}
		return m, nil
	}
	return m, nil
}

func (m *ListenModel) togglePlay() {
	if len(m.words) == 0 {
		return
	}
	m.playing = !m.playing
	if !m.playing {
		return
	}
	m.plays++
	m.rearm()
	unlocked, err := m.listener.Listen(m.ctx, 1)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to log listening: %v", err)
		return
	}
	m.errMsg = ""
	m.unlocked = append(m.unlocked, unlocked...)
}

func (m *ListenModel) rearm() {
	m.nextAt = m.clock.Now().Add(m.interval)
}

// advance moves on while playing and stops at the end of a
// non-repeating list.
func (m *ListenModel) advance() {
	if !m.next() {
		m.playing = false
		return
	}
	m.rearm()
}

func (m *ListenModel) next() bool {
	switch {
	case len(m.words) < 2:
		return m.repeat
	case m.shuffle:
		i := rand.Intn(len(m.words) - 1)
		if i >= m.index {
			i++
		}
		m.index = i
	case m.index < len(m.words)-1:
		m.index++
	case m.repeat:
		m.index = 0
	default:
		return false
	}
	return true
}

func (m *ListenModel) prev() {
	switch {
	case m.index > 0:
		m.index--
	case m.repeat && len(m.words) > 0:
		m.index = len(m.words) - 1
	}
}

// View implements tea.Model.
func (m *ListenModel) View() string {
	if len(m.words) == 0 {
		return mutedStyle.Render("Add some words first to start listening.") + "\n"
	}
	word := m.Current()
	width := 60
	if m.width > 0 {
		width = max(int(float64(m.width)*0.6), 20)
	}
	lines := []string{wordStyle.Render(word.Word)}
	if word.Level != "" {
		lines[0] += "  " + mutedStyle.Render(string(word.Level))
	}
	lines = append(lines, "", meaningStyle.Render(strings.Join(model.SplitMeanings(word.Meaning), ", ")))
	if examples := model.SplitExamples(word.Example); len(examples) > 0 {
		lines = append(lines, "", wrapText(examples[0].Text, word.Word, width-6))
	}
	body := []string{cardStyle.Width(width).Render(strings.Join(lines, "\n"))}
	if rule, ok := m.listener.Toast(); ok {
		body = append(body, toastStyle.Render("Achievement unlocked: "+rule.Title))
	}
	if m.errMsg != "" {
		body = append(body, errorStyle.Render(m.errMsg))
	}
	content := lipgloss.JoinVertical(lipgloss.Center, body...)
	footer := m.renderFooter()
	if m.width == 0 || m.height < 3 {
		return content + "\n" + footer
	}
	main := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	return main + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *ListenModel) renderFooter() string {
	state := "Paused"
	if m.playing {
		state = "Playing"
	}
	segments := []string{
		state,
		fmt.Sprintf("Word %d/%d", m.index+1, len(m.words)),
	}
	if m.shuffle {
		segments = append(segments, "Shuffle")
	}
	if m.repeat {
		segments = append(segments, "Repeat")
	}
	segments = append(segments, "space play  ←→ skip  s shuffle  r repeat  q quit")
	return footerStyle.Render(strings.Join(segments, "  "))
}
