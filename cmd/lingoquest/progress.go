package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/settings"
	"github.com/verte-zerg/lingoquest/internal/stats"
)

const (
	defaultTrendDays   = 30
	defaultTrendWindow = 7
	trendPlotHeight    = 6
)

var (
	statsWeek       int
	statsMonth      string
	statsTrendDays  int
	statsTrendAvg   int
	statsColor      bool
	achievementsAll bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print progress, weekly activity and the calendar",
		Args:  cobra.NoArgs,
		RunE:  withEnv(runStatsCmd),
	}
	cmd.Flags().IntVar(&statsWeek, "week", 0, "weeks back from the current one")
	cmd.Flags().StringVar(&statsMonth, "month", "", "calendar month (YYYY-MM, default: current)")
	cmd.Flags().IntVar(&statsTrendDays, "trend", defaultTrendDays, "days in the activity trend plot (0 hides it)")
	cmd.Flags().IntVar(&statsTrendAvg, "trend-window", defaultTrendWindow, "moving average window for the trend")
	cmd.Flags().BoolVar(&statsColor, "color", false, "force colored output")
	return cmd
}

func runStatsCmd(_ context.Context, cmd *cobra.Command, e *env, _ []string) error {
	if statsWeek < 0 {
		return fmt.Errorf("--week must be >= 0")
	}
	now := e.sess.Clock().Now()
	month := now
	if statsMonth != "" {
		parsed, err := time.ParseInLocation("2006-01", statsMonth, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --month value: %w", err)
		}
		month = parsed
	}

	state := e.sess.Progress.Snapshot()
	out := cmd.OutOrStdout()
	width := stats.TerminalWidth()

	if err := stats.RenderSummary(out, stats.Summarize(state, now, e.sess.Settings.Get().DailyGoal)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	week := stats.Week(state.ActivityLog, now, statsWeek)
	if err := stats.RenderWeekChart(out, week, width); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderWeekTable(out, week); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderCalendar(out, stats.Calendar(state.ActivityLog, month, now)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if statsTrendDays > 0 {
		trend := stats.Trend(state.ActivityLog, now, statsTrendDays)
		series := []stats.Series{
			{Name: "daily", Values: trend},
			{Name: fmt.Sprintf("%d-day avg", statsTrendAvg), Values: stats.MovingAverage(trend, statsTrendAvg)},
		}
		title := fmt.Sprintf("Activity, last %d days", statsTrendDays)
		if err := stats.PlotSeries(out, title, series, stats.PlotWidthFor(width, 4), trendPlotHeight, statsColor); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newAchievementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "List achievements and series progress",
		Args:  cobra.NoArgs,
		RunE:  withEnv(runAchievementsCmd),
	}
	cmd.Flags().BoolVar(&achievementsAll, "all", false, "include locked achievements")
	return cmd
}

func runAchievementsCmd(_ context.Context, cmd *cobra.Command, e *env, _ []string) error {
	out := cmd.OutOrStdout()
	if err := stats.RenderSeries(out, e.sess.Progress.Series()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	state := e.sess.Progress.Snapshot()
	if err := stats.RenderAchievements(out, achievement.Rules(), state.UnlockedAchievements, achievementsAll); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show settings",
		Args:  cobra.NoArgs,
		RunE:  withEnv(runSettingsShowCmd),
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE:  withEnv(runSettingsGetCmd),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting (keys: " + strings.Join(settings.Keys(), ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE:  withEnv(runSettingsSetCmd),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle-theme",
		Short: "Switch between light and dark",
		Args:  cobra.NoArgs,
		RunE:  withEnv(runToggleThemeCmd),
	})
	return cmd
}

func runSettingsShowCmd(_ context.Context, cmd *cobra.Command, e *env, _ []string) error {
	st := e.sess.Settings.Get()
	for _, key := range settings.Keys() {
		value, err := settings.Lookup(st, key)
		if err != nil {
			return err
		}
		if key == settings.KeyAPIKey {
			value = maskSecret(value)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", key, value); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runSettingsGetCmd(_ context.Context, cmd *cobra.Command, e *env, args []string) error {
	value, err := settings.Lookup(e.sess.Settings.Get(), args[0])
	if err != nil {
		return err
	}
	if args[0] == settings.KeyAPIKey {
		value = maskSecret(value)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), value); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runSettingsSetCmd(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	if _, err := e.sess.Settings.Set(ctx, args[0], args[1]); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0]); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runToggleThemeCmd(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
	st := e.sess.Settings.ToggleTheme(ctx)
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "theme is now %s\n", st.Theme); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func maskSecret(v string) string {
	if len(v) <= 8 {
		return strings.Repeat("*", len(v))
	}
	return v[:4] + strings.Repeat("*", len(v)-8) + v[len(v)-4:]
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the learner profile",
		Args:  cobra.NoArgs,
		RunE:  withEnv(runProfileCmd),
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "name <name>",
		Short: "Change the profile name",
		Args:  cobra.MinimumNArgs(1),
		RunE:  withEnv(runProfileNameCmd),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "points <delta>",
		Short: "Adjust the point balance (never below zero)",
		Args:  cobra.ExactArgs(1),
		RunE:  withEnv(runProfilePointsCmd),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset-achievements",
		Short: "Lock every achievement again",
		Args:  cobra.NoArgs,
		RunE:  withEnv(runResetAchievementsCmd),
	})
	return cmd
}

func runProfileCmd(_ context.Context, cmd *cobra.Command, e *env, _ []string) error {
	state := e.sess.Progress.Snapshot()
	summary := stats.Summarize(state, e.sess.Clock().Now(), 0)
	if err := stats.RenderSummary(cmd.OutOrStdout(), summary); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runProfileNameCmd(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	name := strings.Join(args, " ")
	if err := e.sess.Progress.SetName(ctx, name); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Hello, %s!\n", strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runProfilePointsCmd(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	delta, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("points must be a whole number: %w", err)
	}
	balance := e.sess.Progress.AddPoints(ctx, delta)
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Points: %d\n", balance); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runResetAchievementsCmd(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
	e.sess.Progress.ResetAchievements(ctx)
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), "Achievements reset."); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func parsePositive(raw, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number: %w", name, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return n, nil
}
