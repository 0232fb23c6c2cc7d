package statsui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/clock"
	"github.com/verte-zerg/lingoquest/internal/model"
)

type fakeSource struct {
	state model.ProgressState
	calls int
}

func (f *fakeSource) Snapshot() model.ProgressState {
	f.calls++
	return f.state.Clone()
}

func (f *fakeSource) Series() []achievement.Series {
	return achievement.SeriesProgress(achievement.Rules(), f.state.UnlockedAchievements, achievement.BuildStats(f.state))
}

func newTestModel(t *testing.T) (*Model, *fakeSource) {
	t.Helper()
	state := model.DefaultProgress()
	state.TotalVocab = 12
	state.MasteredVocab = 2
	state.CurrentStreak = 3
	state.LongestStreak = 5
	state.ActivityLog["2026-10-19"] = model.DayRecord{"learn": 4, "vocab": 1}
	state.ActivityLog["2026-10-12"] = model.DayRecord{"game": 2}
	state.UnlockedAchievements = []string{"vocab_1"}
	src := &fakeSource{state: state}
	fake := clock.NewFake(time.Date(2026, time.October, 19, 9, 0, 0, 0, time.Local))
	m := NewModel(src, fake, 10)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	return m, src
}

func TestOverviewShowsSummary(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	for _, want := range []string{"Overview", "Words", "12", "3 / best 5", "5/10", "Activity, last 30 days", "October 2026"} {
		if !strings.Contains(view, want) {
			t.Fatalf("overview missing %q:\n%s", want, view)
		}
	}
}

func TestWeekTabNavigation(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabWeek {
		t.Fatalf("expected week tab, got %d", m.activeTab)
	}
	view := m.View()
	if !strings.Contains(view, "This week") || !strings.Contains(view, "Mon 10-19") {
		t.Fatalf("unexpected week view:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("[")})
	if m.weekOffset != 1 || !strings.Contains(m.View(), "Mon 10-12") {
		t.Fatalf("expected previous week:\n%s", m.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("]")})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("]")})
	if m.weekOffset != 0 {
		t.Fatalf("offset should not go below zero, got %d", m.weekOffset)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabAchievements {
		t.Fatalf("expected tabs to wrap, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "Series") {
		t.Fatalf("expected achievement table:\n%s", m.View())
	}
}

func TestRefreshReloadsSource(t *testing.T) {
	m, src := newTestModel(t)
	before := src.calls
	src.state.TotalVocab = 99
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if src.calls != before+1 || m.state.TotalVocab != 99 {
		t.Fatalf("expected refresh to reload, calls=%d state=%d", src.calls, m.state.TotalVocab)
	}
}

func TestFitLines(t *testing.T) {
	out := fitLines("a\nbb\nccc", 4, 2)
	if out != "a   \nbb  " {
		t.Fatalf("unexpected fit %q", out)
	}
	if got := truncateLine("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncate %q", got)
	}
}
