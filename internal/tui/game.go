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
	"github.com/verte-zerg/lingoquest/internal/clock"
	"github.com/verte-zerg/lingoquest/internal/model"
	"github.com/verte-zerg/lingoquest/internal/queue"
)

// RoundLength is how long a timed game round lasts.
const RoundLength = 60 * time.Second

// Arcade is what the game UIs need from a session.
type Arcade interface {
	FinishGame(ctx context.Context, game string, score int) (app.GameResult, error)
	Toast() (achievement.Rule, bool)
}

// GameSummary is the outcome of a finished round.
type GameSummary struct {
	Game      string
	Score     int
	NewRecord bool
	Unlocked  []achievement.Rule
	Err       error
}

// round holds the timer and scoring shared by the timed games.
type round struct {
	ctx     context.Context
	arcade  Arcade
	clock   clock.Clock
	queue   *queue.Builder
	entries []model.VocabEntry
	game    string

	deadline time.Time
	score    int
	finished bool
	summary  GameSummary

	width  int
	height int
}

func newRound(ctx context.Context, arcade Arcade, clk clock.Clock, b *queue.Builder, entries []model.VocabEntry, game string, need int) (round, error) {
	if len(entries) < need {
		return round{}, fmt.Errorf("need at least %d words to play, have %d", need, len(entries))
	}
	return round{
		ctx:      ctx,
		arcade:   arcade,
		clock:    clk,
		queue:    b,
		entries:  entries,
		game:     game,
		deadline: clk.Now().Add(RoundLength),
	}, nil
}

func (r *round) remaining() time.Duration {
	left := r.deadline.Sub(r.clock.Now())
	if left < 0 {
		return 0
	}
	return left.Round(time.Second)
}

// expired finishes the round once the deadline has passed.
func (r *round) expired() bool {
	if !r.finished && !r.clock.Now().Before(r.deadline) {
		r.finish()
	}
	return r.finished
}

// finish reports the score exactly once.
func (r *round) finish() {
	if r.finished {
		return
	}
	r.finished = true
	r.summary = GameSummary{Game: r.game, Score: r.score}
	res, err := r.arcade.FinishGame(r.ctx, r.game, r.score)
	if err != nil {
		r.summary.Err = err
		return
	}
	r.summary.NewRecord = res.NewRecord
	r.summary.Unlocked = res.Unlocked
}

func (r *round) resize(msg tea.WindowSizeMsg) {
	r.width = msg.Width
	r.height = msg.Height
}

func (r *round) contentWidth() int {
	if r.width == 0 {
		return 60
	}
	return max(int(float64(r.width)*0.6), 20)
}

func (r *round) renderSummary(title string) string {
	lines := []string{
		wordStyle.Render(title),
		"",
		fmt.Sprintf("Score: %d", r.summary.Score),
	}
	if r.summary.NewRecord {
		lines = append(lines, meaningStyle.Render("New best!"))
	}
	if r.summary.Err != nil {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("failed to save score: %v", r.summary.Err)))
	}
	lines = append(lines, "", mutedStyle.Render("press any key to exit"))
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (r *round) renderToast() string {
	rule, ok := r.arcade.Toast()
	if !ok {
		return ""
	}
	return toastStyle.Render("Achievement unlocked: " + rule.Title)
}

func (r *round) layout(body, note, help string) string {
	lines := []string{body}
	if toast := r.renderToast(); toast != "" {
		lines = append(lines, toast)
	}
	if note != "" {
		lines = append(lines, note)
	}
	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	footer := footerStyle.Render(strings.Join([]string{
		fmt.Sprintf("Time %ds", int(r.remaining().Seconds())),
		fmt.Sprintf("Score %d", r.score),
		help,
	}, "  "))
	if r.width == 0 || r.height < 3 {
		return content + "\n" + footer
	}
	main := lipgloss.Place(r.width, r.height-1, lipgloss.Center, lipgloss.Center, content)
	return main + "\n" + lipgloss.Place(r.width, 1, lipgloss.Center, lipgloss.Center, footer)
}
