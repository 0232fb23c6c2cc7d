package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/model"
	"github.com/verte-zerg/lingoquest/internal/queue"
	"github.com/verte-zerg/lingoquest/internal/tui"
)

const defaultWeakFactor = 0.5

var (
	learnCards      int
	learnFocusWeak  bool
	learnWeakFactor float64
	learnStatus     string
)

func newLearnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Practice words with flashcards",
		Args:  cobra.NoArgs,
		RunE:  runLearnCmd,
	}
	cmd.Flags().IntVarP(&learnCards, "cards", "n", queue.DefaultCount, "cards per session")
	cmd.Flags().BoolVar(&learnFocusWeak, "focus-weak", false, "bias the session toward words with few practices")
	cmd.Flags().Float64Var(&learnWeakFactor, "weak-factor", defaultWeakFactor, "weight added per missing practice")
	cmd.Flags().StringVar(&learnStatus, "status", "", "only practice words with this status")
	return cmd
}

func runLearnCmd(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	applyIntConfig(cmd, "cards", &learnCards, e.cfg.Learn.Cards)
	applyBoolConfig(cmd, "focus-weak", &learnFocusWeak, e.cfg.Learn.FocusWeak)
	applyFloatConfig(cmd, "weak-factor", &learnWeakFactor, e.cfg.Learn.WeakFactor)
	if err := validateLearnConfig(learnCards, learnWeakFactor); err != nil {
		return err
	}

	entries := e.sess.Entries()
	if learnStatus != "" {
		status, ok := model.ParseStatus(learnStatus)
		if !ok {
			return fmt.Errorf("--status must be one of new, learning, mastered")
		}
		filtered := entries[:0:0]
		for _, entry := range entries {
			if entry.Status == status {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}
	if len(entries) == 0 {
		logErrln("No words to practice. Add one with: lingoquest add <word> <meaning>")
		return nil
	}

	builder := queue.New()
	var cards []model.VocabEntry
	if learnFocusWeak {
		cards = builder.BuildWeighted(entries, learnCards, learnWeakFactor)
	} else {
		cards = builder.Build(entries, learnCards)
	}

	m := tui.NewLearnModel(cmd.Context(), e.sess, cards)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	res := m.Result()
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Known %d, learning %d. Streak: %d days\n", res.Known, res.Unknown, e.sess.Streak()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, word := range res.Promoted {
		if _, err := fmt.Fprintf(out, "Mastered %q\n", word); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	printUnlocked(out, res.Unlocked)
	return nil
}

func validateLearnConfig(cards int, weakFactor float64) error {
	if cards <= 0 {
		return fmt.Errorf("--cards must be > 0")
	}
	if weakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	return nil
}

var listenInterval time.Duration

func newListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Play through your words one at a time",
		Long: "Play through your words one at a time. Each start of playback counts as\n" +
			"one listening activity.",
		Args: cobra.NoArgs,
		RunE: withEnv(runListenCmd),
	}
	cmd.Flags().DurationVar(&listenInterval, "interval", tui.DefaultListenInterval, "time each word stays on screen")
	cmd.AddCommand(newListenLogCmd())
	return cmd
}

func runListenCmd(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
	if listenInterval <= 0 {
		return fmt.Errorf("--interval must be > 0")
	}
	entries := e.sess.Entries()
	if len(entries) == 0 {
		logErrln("No words to listen to. Add one with: lingoquest add <word> <meaning>")
		return nil
	}
	m := tui.NewListenModel(ctx, e.sess, e.sess.Clock(), entries, listenInterval)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Played %d times\n", m.Plays()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	printUnlocked(out, m.Unlocked())
	return nil
}

func newListenLogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log <count>",
		Short: "Log listening done outside the player",
		Args:  cobra.ExactArgs(1),
		RunE:  withEnv(runListenLogCmd),
	}
}

func runListenLogCmd(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	count, err := parsePositive(args[0], "count")
	if err != nil {
		return err
	}
	unlocked, err := e.sess.Listen(ctx, count)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Logged %d listening sessions\n", count); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	printUnlocked(out, unlocked)
	return nil
}

// arcadeModel is a timed game UI.
type arcadeModel interface {
	tea.Model
	Summary() (tui.GameSummary, bool)
}

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Play a timed vocabulary game",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(
		newArcadeCmd("speed", "Type the word for each meaning against the clock",
			func(ctx context.Context, e *env, entries []model.VocabEntry) (arcadeModel, error) {
				return tui.NewSpeedModel(ctx, e.sess, e.sess.Clock(), queue.New(), entries)
			}),
		newArcadeCmd("quiz", "Pick the word that matches each definition",
			func(ctx context.Context, e *env, entries []model.VocabEntry) (arcadeModel, error) {
				return tui.NewQuizModel(ctx, e.sess, e.sess.Clock(), queue.New(), entries)
			}),
		newGameRecordCmd(),
	)
	return cmd
}

func newArcadeCmd(use, short string, build func(context.Context, *env, []model.VocabEntry) (arcadeModel, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
			m, err := build(ctx, e, e.sess.Entries())
			if err != nil {
				return err
			}
			program := tea.NewProgram(m, tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("failed to run TUI: %w", err)
			}
			sum, done := m.Summary()
			if !done {
				logErrln("Round abandoned, score not recorded.")
				return nil
			}
			return printGameSummary(cmd.OutOrStdout(), sum)
		}),
	}
}

func printGameSummary(out io.Writer, sum tui.GameSummary) error {
	if sum.Err != nil {
		return sum.Err
	}
	if _, err := fmt.Fprintf(out, "%s score: %d\n", sum.Game, sum.Score); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if sum.NewRecord {
		if _, err := fmt.Fprintf(out, "New best for %s: %d\n", sum.Game, sum.Score); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	printUnlocked(out, sum.Unlocked)
	return nil
}

func newGameRecordCmd() *cobra.Command {
	games := append([]string{}, achievement.ScoredGames...)
	games = append(games, achievement.GameHangman)
	return &cobra.Command{
		Use:   "record <name> [score]",
		Short: "Record a round played elsewhere",
		Long: "Record a round played outside the built-in games. Known games: " + strings.Join(games, ", ") +
			".\nFor " + achievement.GameHangman + " the score is the solve time in seconds.",
		Args: cobra.RangeArgs(1, 2),
		RunE: withEnv(runGameRecordCmd),
	}
}

func runGameRecordCmd(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	game, err := resolveGame(args[0])
	if err != nil {
		return err
	}
	score := 0
	if len(args) == 2 {
		score, err = parsePositive(args[1], "score")
		if err != nil {
			return err
		}
	}
	res, err := e.sess.FinishGame(ctx, game, score)
	if err != nil {
		return err
	}
	return printGameSummary(cmd.OutOrStdout(), tui.GameSummary{
		Game:      game,
		Score:     score,
		NewRecord: res.NewRecord,
		Unlocked:  res.Unlocked,
	})
}

func resolveGame(name string) (string, error) {
	known := append([]string{}, achievement.ScoredGames...)
	known = append(known, achievement.GameHangman)
	for _, g := range known {
		if strings.EqualFold(g, name) {
			return g, nil
		}
	}
	sort.Strings(known)
	return "", fmt.Errorf("unknown game %q (known: %s)", name, strings.Join(known, ", "))
}
