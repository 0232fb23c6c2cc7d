// Package stats contains dashboard aggregations and text rendering.
package stats

import (
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/model"
	"github.com/verte-zerg/lingoquest/internal/streak"
)

const sparkChars = " .:-=+*#%@"

// Day is one calendar day of activity.
type Day struct {
	Key    string
	Date   time.Time
	Counts model.DayRecord
	Total  int
	Today  bool
	// InMonth is false for padding cells of a calendar grid.
	InMonth bool
}

// Active reports whether anything was logged on the day.
func (d Day) Active() bool {
	return d.Total > 0
}

func dayFor(log map[string]model.DayRecord, date, now time.Time) Day {
	key := streak.DayKey(date)
	rec := log[key]
	d := Day{
		Key:     key,
		Date:    date,
		Counts:  model.NewDayRecord(),
		Today:   key == streak.DayKey(now),
		InMonth: true,
	}
	for k, v := range rec {
		d.Counts[k] = v
	}
	d.Total = d.Counts.Total()
	return d
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Week returns the seven days Sunday to Saturday of the week containing now,
// shifted back by offset weeks.
func Week(log map[string]model.DayRecord, now time.Time, offset int) []Day {
	if offset < 0 {
		offset = 0
	}
	start := midnight(now).AddDate(0, 0, -int(now.Weekday())-7*offset)
	days := make([]Day, 7)
	for i := range days {
		days[i] = dayFor(log, start.AddDate(0, 0, i), now)
	}
	return days
}

// Calendar returns the month containing month as rows of seven days
// starting on Sunday. Cells outside the month have InMonth false.
func Calendar(log map[string]model.DayRecord, month, now time.Time) [][]Day {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	start := first.AddDate(0, 0, -int(first.Weekday()))
	var rows [][]Day
	for cur := start; ; {
		row := make([]Day, 7)
		for i := range row {
			row[i] = dayFor(log, cur, now)
			row[i].InMonth = cur.Month() == first.Month()
			cur = cur.AddDate(0, 0, 1)
		}
		rows = append(rows, row)
		if cur.Month() != first.Month() {
			break
		}
	}
	return rows
}

// Trend returns daily activity totals for the last days days, oldest first.
func Trend(log map[string]model.DayRecord, now time.Time, days int) []float64 {
	if days <= 0 {
		return nil
	}
	out := make([]float64, days)
	today := midnight(now)
	for i := 0; i < days; i++ {
		rec := log[streak.DayKey(today.AddDate(0, 0, i-days+1))]
		out[i] = float64(rec.Total())
	}
	return out
}

// Summary is the headline of the dashboard.
type Summary struct {
	Name              string
	Level             int
	Points            int
	TotalVocab        int
	MasteredVocab     int
	CurrentStreak     int
	LongestStreak     int
	DaysActive        int
	Unlocked          int
	TotalAchievements int
	Today             model.DayRecord
	DailyGoal         int
}

// GoalPercent is today's activity relative to the daily goal, capped at 100.
func (s Summary) GoalPercent() float64 {
	if s.DailyGoal <= 0 {
		return 0
	}
	pct := float64(s.Today.Total()*100) / float64(s.DailyGoal)
	return math.Min(pct, 100)
}

// Summarize builds the dashboard headline from a progress snapshot.
func Summarize(state model.ProgressState, now time.Time, dailyGoal int) Summary {
	stats := achievement.BuildStats(state)
	today := model.NewDayRecord()
	for k, v := range state.ActivityLog[streak.DayKey(now)] {
		today[k] = v
	}
	return Summary{
		Name:              state.Name,
		Level:             state.Level,
		Points:            state.Points,
		TotalVocab:        state.TotalVocab,
		MasteredVocab:     state.MasteredVocab,
		CurrentStreak:     state.CurrentStreak,
		LongestStreak:     state.LongestStreak,
		DaysActive:        stats.TotalDaysActive,
		Unlocked:          len(state.UnlockedAchievements),
		TotalAchievements: len(achievement.Rules()),
		Today:             today,
		DailyGoal:         dailyGoal,
	}
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func minMax(values []float64) (float64, float64) {
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for _, v := range values {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.IsInf(minVal, 1) {
		return 0, 0
	}
	return minVal, maxVal
}
