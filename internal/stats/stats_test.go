package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 30, 0, 0, time.Local)
}

func TestWeekStartsOnSunday(t *testing.T) {
	// 2026-10-21 is a Wednesday.
	now := day(2026, time.October, 21)
	log := map[string]model.DayRecord{
		"2026-10-18": {"learn": 3},
		"2026-10-21": {"vocab": 1, "game": 2},
		"2026-10-11": {"learn": 9},
	}
	days := Week(log, now, 0)
	if len(days) != 7 {
		t.Fatalf("len = %d", len(days))
	}
	if days[0].Key != "2026-10-18" || days[6].Key != "2026-10-24" {
		t.Fatalf("unexpected range %s..%s", days[0].Key, days[6].Key)
	}
	if days[0].Total != 3 || days[3].Total != 3 || !days[3].Today {
		t.Fatalf("unexpected totals %+v", days)
	}
	if days[3].Counts["listening"] != 0 {
		t.Fatalf("expected zero-filled counters")
	}

	prev := Week(log, now, 1)
	if prev[0].Key != "2026-10-11" || prev[0].Total != 9 {
		t.Fatalf("unexpected previous week %+v", prev[0])
	}
}

func TestCalendarGrid(t *testing.T) {
	now := day(2026, time.February, 10)
	rows := Calendar(map[string]model.DayRecord{"2026-02-03": {"learn": 1}}, now, now)
	// February 2026 starts on a Sunday and has 28 days.
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if !rows[0][0].InMonth || rows[0][0].Date.Day() != 1 {
		t.Fatalf("unexpected first cell %+v", rows[0][0])
	}
	if !rows[0][2].Active() {
		t.Fatalf("expected Feb 3 to be active")
	}

	oct := Calendar(nil, day(2026, time.October, 1), now)
	if oct[0][0].InMonth || !oct[0][4].InMonth {
		t.Fatalf("October 2026 should start on Thursday")
	}
	var buf bytes.Buffer
	if err := RenderCalendar(&buf, rows); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "February 2026") || !strings.Contains(buf.String(), "  3*") {
		t.Fatalf("unexpected calendar:\n%s", buf.String())
	}
}

func TestTrend(t *testing.T) {
	now := day(2026, time.October, 21)
	log := map[string]model.DayRecord{"2026-10-19": {"learn": 2}, "2026-10-21": {"game": 1}}
	got := Trend(log, now, 3)
	if len(got) != 3 || got[0] != 2 || got[1] != 0 || got[2] != 1 {
		t.Fatalf("unexpected trend %v", got)
	}
}

func TestSummarize(t *testing.T) {
	now := day(2026, time.October, 21)
	state := model.DefaultProgress()
	state.CurrentStreak = 4
	state.ActivityLog["2026-10-21"] = model.DayRecord{"learn": 5}
	state.ActivityLog["2026-10-20"] = model.DayRecord{"learn": 1}
	state.UnlockedAchievements = []string{"streak_1"}
	s := Summarize(state, now, 10)
	if s.Today.Total() != 5 || s.GoalPercent() != 50 {
		t.Fatalf("unexpected today %v / %v", s.Today, s.GoalPercent())
	}
	if s.DaysActive != 2 || s.Unlocked != 1 || s.TotalAchievements != len(achievement.Rules()) {
		t.Fatalf("unexpected summary %+v", s)
	}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, s); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "Today: 5/10 [##########----------]") {
		t.Fatalf("unexpected summary output:\n%s", buf.String())
	}
}

func TestRenderWeekChart(t *testing.T) {
	days := Week(map[string]model.DayRecord{"2026-10-19": {"learn": 4}, "2026-10-20": {"learn": 1}}, day(2026, time.October, 21), 0)
	var buf bytes.Buffer
	if err := RenderWeekChart(&buf, days, 40); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 7 {
		t.Fatalf("lines = %d", len(lines))
	}
	if strings.Count(lines[1], barFull) != 20 || strings.Count(lines[2], barFull) != 5 {
		t.Fatalf("unexpected bars:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[3], ">Wed") {
		t.Fatalf("expected today marker: %q", lines[3])
	}
}

func TestRenderSeriesAndAchievements(t *testing.T) {
	state := model.DefaultProgress()
	state.TotalVocab = 3
	stats := achievement.BuildStats(state)
	unlocked := achievement.Merge(nil, achievement.Evaluate(achievement.Rules(), nil, stats))
	series := achievement.SeriesProgress(achievement.Rules(), unlocked, stats)

	var buf bytes.Buffer
	if err := RenderSeries(&buf, series); err != nil {
		t.Fatalf("render series: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Series") {
		t.Fatalf("expected table header:\n%s", buf.String())
	}

	buf.Reset()
	if err := RenderAchievements(&buf, achievement.Rules(), nil, false); err != nil {
		t.Fatalf("render achievements: %v", err)
	}
	if !strings.Contains(buf.String(), "No achievements unlocked yet.") {
		t.Fatalf("unexpected empty output: %q", buf.String())
	}

	buf.Reset()
	if err := RenderAchievements(&buf, achievement.Rules(), unlocked, false); err != nil {
		t.Fatalf("render achievements: %v", err)
	}
	if got := strings.Count(buf.String(), "✓"); got != len(unlocked) {
		t.Fatalf("expected %d unlocked rows, got %d", len(unlocked), got)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{2, 2, 2}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}
