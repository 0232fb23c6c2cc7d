package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/model"
)

const (
	barFull  = "█"
	barEmpty = "·"
)

// RenderSummary prints the dashboard headline.
func RenderSummary(w io.Writer, s Summary) error {
	lines := []string{
		fmt.Sprintf("%s  (level %d, %d points)", s.Name, s.Level, s.Points),
		fmt.Sprintf("Words: %d total, %d mastered", s.TotalVocab, s.MasteredVocab),
		fmt.Sprintf("Streak: %d days (best %d), %d active days", s.CurrentStreak, s.LongestStreak, s.DaysActive),
		fmt.Sprintf("Achievements: %d/%d", s.Unlocked, s.TotalAchievements),
	}
	if s.DailyGoal > 0 {
		lines = append(lines, fmt.Sprintf("Today: %d/%d %s", s.Today.Total(), s.DailyGoal, progressBar(s.GoalPercent(), 20)))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderWeekChart prints one horizontal bar per day scaled to width.
func RenderWeekChart(w io.Writer, days []Day, width int) error {
	if width <= 0 {
		width = TerminalWidth()
	}
	maxTotal := 0
	for _, d := range days {
		maxTotal = max(maxTotal, d.Total)
	}
	barWidth := max(width-20, 10)
	for _, d := range days {
		filled := 0
		if maxTotal > 0 {
			filled = d.Total * barWidth / maxTotal
		}
		if d.Total > 0 && filled == 0 {
			filled = 1
		}
		marker := " "
		if d.Today {
			marker = ">"
		}
		line := fmt.Sprintf("%s%s %s %s %d", marker, d.Date.Format("Mon"), d.Date.Format("01-02"),
			strings.Repeat(barFull, filled)+strings.Repeat(barEmpty, barWidth-filled), d.Total)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderWeekTable prints per-activity counts for each day of a week.
func RenderWeekTable(w io.Writer, days []Day) error {
	headers := []string{"Day"}
	for _, t := range model.ActivityTypes {
		headers = append(headers, string(t))
	}
	headers = append(headers, "total")
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		row := []string{d.Date.Format("Mon 01-02")}
		for _, t := range model.ActivityTypes {
			row = append(row, fmt.Sprintf("%d", d.Counts[string(t)]))
		}
		row = append(row, fmt.Sprintf("%d", d.Total))
		rows = append(rows, row)
	}
	right := map[int]bool{}
	for i := 1; i < len(headers); i++ {
		right[i] = true
	}
	for _, line := range formatTable(headers, rows, right) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCalendar prints a month grid where active days are marked with '*'.
func RenderCalendar(w io.Writer, rows [][]Day) error {
	if len(rows) == 0 {
		return nil
	}
	var title string
	for _, d := range rows[0] {
		if d.InMonth {
			title = d.Date.Format("January 2006")
			break
		}
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, " Su  Mo  Tu  We  Th  Fr  Sa"); err != nil {
		return err
	}
	for _, row := range rows {
		var b strings.Builder
		for _, d := range row {
			if !d.InMonth {
				b.WriteString("    ")
				continue
			}
			mark := " "
			if d.Active() {
				mark = "*"
			}
			fmt.Fprintf(&b, "%3d%s", d.Date.Day(), mark)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderSeries prints progress toward the next tier of every series.
func RenderSeries(w io.Writer, series []achievement.Series) error {
	if len(series) == 0 {
		_, err := fmt.Fprintln(w, "No achievement series.")
		return err
	}
	headers := []string{"Series", "Unlocked", "Current", "Next", "Progress"}
	rows := make([][]string, 0, len(series))
	for _, s := range series {
		next := "done"
		if s.Next != nil {
			next = fmt.Sprintf("%d (%s)", s.Next.Threshold, s.Next.Title)
		}
		rows = append(rows, []string{
			s.Title,
			fmt.Sprintf("%d/%d", s.Unlocked, s.Total),
			fmt.Sprintf("%d", s.Current),
			next,
			fmt.Sprintf("%s %5.1f%%", progressBar(s.Percent, 10), s.Percent),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderAchievements lists achievements. Locked ones are only shown when all is set.
func RenderAchievements(w io.Writer, rules []achievement.Rule, unlocked []string, all bool) error {
	have := make(map[string]bool, len(unlocked))
	for _, id := range unlocked {
		have[id] = true
	}
	headers := []string{"", "Title", "Description"}
	var rows [][]string
	for _, r := range rules {
		mark := "✓"
		if !have[r.ID] {
			if !all {
				continue
			}
			mark = " "
		}
		rows = append(rows, []string{mark, r.Title, r.Description})
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No achievements unlocked yet.")
		return err
	}
	for _, line := range formatTable(headers, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func progressBar(percent float64, width int) string {
	filled := int(percent * float64(width) / 100)
	filled = min(max(filled, 0), width)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
