// Package main provides the CLI entrypoint for lingoquest.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/app"
	"github.com/verte-zerg/lingoquest/internal/config"
	"github.com/verte-zerg/lingoquest/internal/logging"
	"github.com/verte-zerg/lingoquest/internal/mentor"
	"github.com/verte-zerg/lingoquest/internal/queue"
	"github.com/verte-zerg/lingoquest/internal/statsui"
)

const (
	defaultLogLevel = "warn"
)

var (
	rootDBPath   string
	rootLegacy   string
	rootLogLevel string
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			logErrf("lingoquest hit an unexpected error: %v\n", r)
			logErrln("Your data is saved. Run again or open `lingoquest dashboard`.")
			code = 2
		}
	}()
	if err := config.LoadEnv(config.DefaultEnvPath()); err != nil {
		logErrf("failed to load env file: %v\n", err)
	}
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lingoquest",
		Short:         "Vocabulary trainer with streaks and achievements",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	rootCmd.PersistentFlags().StringVar(&rootDBPath, "db", config.DefaultDBPath(), "path to the database file")
	rootCmd.PersistentFlags().StringVar(&rootLegacy, "legacy", config.DefaultLegacyPath(), "legacy storage dump to migrate on first start")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the progress dashboard",
		Args:  cobra.NoArgs,
		RunE:  runDashboardCmd,
	}

	rootCmd.AddCommand(dashboard)
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRmCmd())
	rootCmd.AddCommand(newTrashCmd())
	rootCmd.AddCommand(newWordsCmd())
	rootCmd.AddCommand(newLearnCmd())
	rootCmd.AddCommand(newListenCmd())
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newAchievementsCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newMentorCmd())
	rootCmd.AddCommand(newRemindCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// env bundles what every command needs: the file config, a logger and an
// open session.
type env struct {
	cfg  config.FileConfig
	log  *zap.Logger
	sess *app.Session
}

func openEnv(cmd *cobra.Command) (*env, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &rootDBPath, fileCfg.Storage.DBPath)
	applyStringConfig(cmd, "legacy", &rootLegacy, fileCfg.Storage.LegacyPath)
	applyStringConfig(cmd, "log-level", &rootLogLevel, fileCfg.Log.Level)

	log, err := logging.New(rootLogLevel, config.StringOr(fileCfg.Log.File, config.DefaultLogPath()))
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	sess, err := app.Open(cmd.Context(), app.Options{
		DBPath:     rootDBPath,
		LegacyPath: rootLegacy,
		Logger:     log,
	})
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if sess.Migration.Done() && len(sess.Migration.Copied) > 0 {
		logErrf("Imported %d records from legacy storage.\n", len(sess.Migration.Copied))
	}
	return &env{cfg: fileCfg, log: log, sess: sess}, nil
}

func (e *env) close() {
	if cerr := e.sess.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
	if err := e.log.Sync(); err != nil {
		// Best-effort flush.
		_ = err
	}
}

// withEnv adapts a handler that needs an open session into a cobra RunE.
func withEnv(fn func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		return fn(cmd.Context(), cmd, e, args)
	}
}

func (e *env) mentorClient() *mentor.Client {
	keyEnv := config.StringOr(e.cfg.Mentor.APIKeyEnv, mentor.DefaultAPIKeyEnv)
	return mentor.New(mentor.Config{
		BaseURL: config.StringOr(e.cfg.Mentor.BaseURL, mentor.DefaultBaseURL),
		Model:   config.StringOr(e.cfg.Mentor.Model, mentor.DefaultModel),
		APIKey:  mentor.ResolveKey(os.Getenv(keyEnv), e.sess.Settings.Get().APIKey),
	}, e.log)
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	m := statsui.NewModel(e.sess.Progress, e.sess.Clock(), e.sess.Settings.Get().DailyGoal)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# lingoquest configuration
# Uncomment a value to enable it. CLI flags override config values.

[storage]
# db-path = %q
# legacy-path = %q

[log]
# level = %q              # debug, info, warn, error
# file = %q

[learn]
# cards = %d                # Cards per session
# focus-weak = false        # Bias sessions toward words with few practices
# weak-factor = %.1f        # Weight added per missing practice

[mentor]
# base-url = %q
# model = %q
# api-key-env = %q   # Put the key in %s

[remind]
# at = "09:00"              # Overrides the reminderTime setting
`,
		config.DefaultDBPath(),
		config.DefaultLegacyPath(),
		defaultLogLevel,
		config.DefaultLogPath(),
		queue.DefaultCount,
		defaultWeakFactor,
		mentor.DefaultBaseURL,
		mentor.DefaultModel,
		mentor.DefaultAPIKeyEnv,
		config.DefaultEnvPath(),
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func printUnlocked(w io.Writer, rules []achievement.Rule) {
	for _, r := range rules {
		if _, err := fmt.Fprintf(w, "Achievement unlocked: %s (%s)\n", r.Title, r.Description); err != nil {
			// Best-effort output.
			_ = err
		}
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
