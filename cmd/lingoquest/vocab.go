package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/lingoquest/internal/mentor"
	"github.com/verte-zerg/lingoquest/internal/model"
	"github.com/verte-zerg/lingoquest/internal/tui"
	"github.com/verte-zerg/lingoquest/internal/vocab"
	"github.com/verte-zerg/lingoquest/internal/wordimport"
)

const aiLookupTimeout = 30 * time.Second

var (
	addMeaning  string
	addExample  string
	addSynonyms string
	addLevel    string
	addAI       bool

	editMeaning  string
	editExample  string
	editSynonyms string
	editLevel    string
	editWord     string

	listStatus string
	listLevel  string
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <word> [meaning]",
		Short: "Add a word",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  withEnv(runAddCmd),
	}
	cmd.Flags().StringVarP(&addMeaning, "meaning", "m", "", "comma-separated meanings")
	cmd.Flags().StringVarP(&addExample, "example", "e", "", "example sentence(s), separated by |||")
	cmd.Flags().StringVarP(&addSynonyms, "synonyms", "s", "", "comma-separated synonyms")
	cmd.Flags().StringVarP(&addLevel, "level", "l", "", "CEFR level (A1-C2); guessed when omitted")
	cmd.Flags().BoolVar(&addAI, "ai", false, "fill missing meaning, examples and level from the AI dictionary")
	return cmd
}

func runAddCmd(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	draft := vocab.Draft{
		Word:     args[0],
		Meaning:  addMeaning,
		Example:  addExample,
		Synonyms: addSynonyms,
	}
	if len(args) == 2 && draft.Meaning == "" {
		draft.Meaning = args[1]
	}
	if addLevel != "" {
		lvl, ok := model.ParseLevel(addLevel)
		if !ok {
			return fmt.Errorf("--level must be one of A1, A2, B1, B2, C1, C2")
		}
		draft.Level = lvl
	}
	if addAI {
		fillFromDictionary(ctx, e, &draft)
	}

	entry, unlocked, err := e.sess.AddWord(ctx, draft)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Added %q [%s] (id %s)\n", entry.Word, entry.Level, entry.ID); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	printUnlocked(out, unlocked)
	return nil
}

func fillFromDictionary(ctx context.Context, e *env, draft *vocab.Draft) {
	client := e.mentorClient()
	if !client.Configured() {
		logErrln(mentor.UserMessage(mentor.ErrNotConfigured))
		return
	}
	ctx, cancel := context.WithTimeout(ctx, aiLookupTimeout)
	defer cancel()
	logErrf("Looking up %q...\n", draft.Word)
	details, ok := client.WordDetails(ctx, draft.Word)
	if !ok {
		logErrln("AI lookup failed; fill in the details manually.")
		return
	}
	if draft.Meaning == "" {
		draft.Meaning = details.Meaning()
	}
	if draft.Example == "" {
		draft.Example = details.Example()
	}
	if draft.Level == "" {
		if lvl, ok := details.Level(); ok {
			draft.Level = lvl
		}
	}
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List words",
		Args:  cobra.NoArgs,
		RunE:  withEnv(runListCmd),
	}
	cmd.Flags().StringVar(&listStatus, "status", "", "filter by status (new, learning, mastered)")
	cmd.Flags().StringVar(&listLevel, "level", "", "filter by level (A1-C2)")
	return cmd
}

func runListCmd(_ context.Context, cmd *cobra.Command, e *env, _ []string) error {
	var status model.Status
	if listStatus != "" {
		st, ok := model.ParseStatus(listStatus)
		if !ok {
			return fmt.Errorf("--status must be one of new, learning, mastered")
		}
		status = st
	}
	var level model.Level
	if listLevel != "" {
		lvl, ok := model.ParseLevel(listLevel)
		if !ok {
			return fmt.Errorf("--level must be one of A1, A2, B1, B2, C1, C2")
		}
		level = lvl
	}
	var entries []model.VocabEntry
	for _, entry := range e.sess.Entries() {
		if status != "" && entry.Status != status {
			continue
		}
		if level != "" && entry.Level != level {
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		logErrln("No words yet. Add one with: lingoquest add <word> <meaning>")
		return nil
	}
	return writeEntries(cmd.OutOrStdout(), entries)
}

func writeEntries(w io.Writer, entries []model.VocabEntry) error {
	for _, entry := range entries {
		if _, err := fmt.Fprintf(w, "%-14s %-3s %-9s %2d/%d  %s  %s\n",
			entry.ID, entry.Level, entry.Status, entry.PracticeCount, model.MasteryThreshold,
			entry.Word, entry.Meaning); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|word>",
		Short: "Show a word with its examples",
		Args:  cobra.ExactArgs(1),
		RunE:  withEnv(runShowCmd),
	}
}

func runShowCmd(_ context.Context, cmd *cobra.Command, e *env, args []string) error {
	entry, ok := e.sess.Vocab.Find(args[0])
	if !ok {
		return fmt.Errorf("word %q not found", args[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s  [%s, %s]\n", entry.Word, entry.Level, entry.Status)
	fmt.Fprintf(&b, "Meaning:   %s\n", entry.Meaning)
	if entry.Synonyms != "" {
		fmt.Fprintf(&b, "Synonyms:  %s\n", entry.Synonyms)
	}
	fmt.Fprintf(&b, "Practice:  %d/%d\n", entry.PracticeCount, model.MasteryThreshold)
	fmt.Fprintf(&b, "Added:     %s\n", entry.CreatedDate.Local().Format("2006-01-02"))
	for i, ex := range model.SplitExamples(entry.Example) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, ex.Text)
		if ex.Translation != "" {
			fmt.Fprintf(&b, "   %s\n", ex.Translation)
		}
	}
	if _, err := io.WriteString(cmd.OutOrStdout(), b.String()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id|word>",
		Short: "Edit a word's details",
		Args:  cobra.ExactArgs(1),
		RunE:  withEnv(runEditCmd),
	}
	cmd.Flags().StringVar(&editWord, "word", "", "new spelling")
	cmd.Flags().StringVarP(&editMeaning, "meaning", "m", "", "comma-separated meanings")
	cmd.Flags().StringVarP(&editExample, "example", "e", "", "example sentence(s), separated by |||")
	cmd.Flags().StringVarP(&editSynonyms, "synonyms", "s", "", "comma-separated synonyms")
	cmd.Flags().StringVarP(&editLevel, "level", "l", "", "CEFR level (A1-C2)")
	return cmd
}

func runEditCmd(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	entry, ok := e.sess.Vocab.Find(args[0])
	if !ok {
		return fmt.Errorf("word %q not found", args[0])
	}
	draft := vocab.Draft{
		Word:     entry.Word,
		Meaning:  entry.Meaning,
		Example:  entry.Example,
		Synonyms: entry.Synonyms,
		Level:    entry.Level,
	}
	flags := cmd.Flags()
	if flags.Changed("word") {
		draft.Word = editWord
	}
	if flags.Changed("meaning") {
		draft.Meaning = editMeaning
	}
	if flags.Changed("example") {
		draft.Example = editExample
	}
	if flags.Changed("synonyms") {
		draft.Synonyms = editSynonyms
	}
	if flags.Changed("level") {
		lvl, ok := model.ParseLevel(editLevel)
		if !ok {
			return fmt.Errorf("--level must be one of A1, A2, B1, B2, C1, C2")
		}
		draft.Level = lvl
	}
	if _, err := e.sess.EditWord(ctx, entry.ID, draft); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Updated %q\n", draft.Word); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id|word> <new|learning|mastered>",
		Short: "Set a word's learning status",
		Args:  cobra.ExactArgs(2),
		RunE:  withEnv(runStatusCmd),
	}
}

func runStatusCmd(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	entry, ok := e.sess.Vocab.Find(args[0])
	if !ok {
		return fmt.Errorf("word %q not found", args[0])
	}
	status, ok := model.ParseStatus(args[1])
	if !ok {
		return fmt.Errorf("status must be one of new, learning, mastered")
	}
	if _, err := e.sess.SetStatus(ctx, entry.ID, status); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%q is now %s\n", entry.Word, status); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id|word>",
		Short: "Move a word to the trash",
		Args:  cobra.ExactArgs(1),
		RunE:  withEnv(runRmCmd),
	}
}

func runRmCmd(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	entry, ok := e.sess.Vocab.Find(args[0])
	if !ok {
		return fmt.Errorf("word %q not found", args[0])
	}
	e.sess.DeleteWord(ctx, entry.ID)
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Moved %q to the trash. Restore with: lingoquest trash restore %s\n", entry.Word, entry.ID); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newTrashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "List trashed words",
		Args:  cobra.NoArgs,
		RunE:  withEnv(runTrashListCmd),
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List trashed words",
		Args:  cobra.NoArgs,
		RunE:  withEnv(runTrashListCmd),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "restore <id|word>",
		Short: "Restore a trashed word",
		Args:  cobra.ExactArgs(1),
		RunE:  withEnv(runTrashRestoreCmd),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "purge <id|word>",
		Short: "Delete a trashed word permanently",
		Args:  cobra.ExactArgs(1),
		RunE:  withEnv(runTrashPurgeCmd),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "empty",
		Short: "Delete every trashed word permanently",
		Args:  cobra.NoArgs,
		RunE:  withEnv(runTrashEmptyCmd),
	})
	return cmd
}

func runTrashListCmd(_ context.Context, cmd *cobra.Command, e *env, _ []string) error {
	trash := e.sess.Vocab.Trash()
	if len(trash) == 0 {
		logErrln("Trash is empty.")
		return nil
	}
	return writeEntries(cmd.OutOrStdout(), trash)
}

func runTrashRestoreCmd(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	entry, ok := e.sess.Vocab.FindTrashed(args[0])
	if !ok {
		return fmt.Errorf("word %q is not in the trash", args[0])
	}
	e.sess.RestoreWord(ctx, entry.ID)
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Restored %q\n", entry.Word); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runTrashPurgeCmd(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	entry, ok := e.sess.Vocab.FindTrashed(args[0])
	if !ok {
		return fmt.Errorf("word %q is not in the trash", args[0])
	}
	e.sess.PurgeWord(ctx, entry.ID)
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q permanently\n", entry.Word); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runTrashEmptyCmd(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
	n := e.sess.EmptyTrash(ctx)
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed %d words\n", n); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newWordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words",
		Short: "Browse words (d deletes, u undoes)",
		Args:  cobra.NoArgs,
		RunE:  withEnv(runWordsCmd),
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.xlsx|file.csv|file.txt>",
		Short: "Add words from a spreadsheet or text file",
		Args:  cobra.ExactArgs(1),
		RunE:  withEnv(runWordsImportCmd),
	})
	return cmd
}

func runWordsCmd(ctx context.Context, _ *cobra.Command, e *env, _ []string) error {
	m := tui.NewWordsModel(ctx, e.sess, e.sess.Clock())
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func runWordsImportCmd(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	res, err := wordimport.Load(args[0])
	if err != nil {
		return err
	}
	added, rejected := 0, 0
	out := cmd.OutOrStdout()
	for _, row := range res.Rows {
		draft := vocab.Draft{
			Word:     row.Word,
			Meaning:  row.Meaning,
			Example:  row.Example,
			Synonyms: row.Synonyms,
		}
		if lvl, ok := model.ParseLevel(row.Level); ok {
			draft.Level = lvl
		}
		_, unlocked, err := e.sess.AddWord(ctx, draft)
		if err != nil {
			if errors.Is(err, vocab.ErrEmptyWord) || errors.Is(err, vocab.ErrEmptyMeaning) {
				rejected++
				continue
			}
			return err
		}
		added++
		printUnlocked(out, unlocked)
	}
	e.log.Info("words imported",
		zap.String("file", args[0]),
		zap.Int("added", added),
		zap.Int("skipped", res.Skipped+rejected))
	if _, err := fmt.Fprintf(out, "Imported %d words, skipped %d rows\n", added, res.Skipped+rejected); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
