package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/lingoquest/internal/backup"
	"github.com/verte-zerg/lingoquest/internal/kvs"
)

var resetYes bool

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file|-]",
		Short: "Write a JSON backup (API key excluded)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  withEnv(runExportCmd),
	}
}

func runExportCmd(_ context.Context, cmd *cobra.Command, e *env, args []string) error {
	doc := e.sess.Export()
	if len(args) == 1 && args[0] == "-" {
		return backup.Encode(cmd.OutOrStdout(), doc)
	}
	path := backup.Filename(doc.ExportedAt)
	if len(args) == 1 {
		path = args[0]
	}
	if err := writeBackup(path, doc); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Exported %d words to %s\n", len(doc.Vocab), path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeBackup(path string, doc backup.Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "backup-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp backup: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := backup.Encode(writer, doc); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush backup: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close backup: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Restore a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE:  withEnv(runImportCmd),
	}
}

func runImportCmd(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open backup: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				// Best-effort close for read-only file.
				_ = cerr
			}
		}()
		r = f
	}
	doc, err := backup.Decode(r)
	if err != nil {
		return err
	}
	if err := e.sess.Import(ctx, doc); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Imported %d words\n", len(e.sess.Entries())); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [legacy.json]",
		Short: "Copy data from a legacy storage dump (runs once)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMigrateCmd,
	}
}

func runMigrateCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		rootLegacy = args[0]
		if err := cmd.Flags().Set("legacy", args[0]); err != nil {
			return fmt.Errorf("failed to set legacy path: %w", err)
		}
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	res := e.sess.Migration
	out := cmd.OutOrStdout()
	lines := []string{}
	switch {
	case res.Skipped:
		lines = append(lines, "Migration already ran; nothing to do.")
	default:
		lines = append(lines, fmt.Sprintf("Migration from %s finished.", rootLegacy))
		lines = append(lines, "  copied: "+joinNamespaces(res.Copied))
		if len(res.Kept) > 0 {
			lines = append(lines, "  kept existing: "+joinNamespaces(res.Kept))
		}
		if len(res.Invalid) > 0 {
			lines = append(lines, "  invalid: "+strings.Join(res.Invalid, ", "))
		}
		if len(res.Failed) > 0 {
			lines = append(lines, "  failed (will retry next start): "+joinNamespaces(res.Failed))
		}
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func joinNamespaces(ns []kvs.Namespace) string {
	if len(ns) == 0 {
		return "none"
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all words, progress, settings and chats",
		Args:  cobra.NoArgs,
		RunE:  withEnv(runResetCmd),
	}
	cmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runResetCmd(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
	if !resetYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "This deletes everything. Type 'yes' to continue: ")
		if err != nil {
			return err
		}
		if !ok {
			logErrln("Reset cancelled.")
			return nil
		}
	}
	e.sess.Reset(ctx)
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), "All data reset."); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := io.WriteString(out, prompt); err != nil {
		return false, fmt.Errorf("failed to write output: %w", err)
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes"), nil
}
