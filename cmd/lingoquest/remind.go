package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/lingoquest/internal/remind"
)

var (
	remindAt   string
	remindOnce bool
)

func newRemindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run the daily practice reminder until interrupted",
		Args:  cobra.NoArgs,
		RunE:  withEnv(runRemindCmd),
	}
	cmd.Flags().StringVar(&remindAt, "at", "", "time of day (HH:MM, default: reminderTime setting)")
	cmd.Flags().BoolVar(&remindOnce, "once", false, "check right now and exit")
	return cmd
}

func runRemindCmd(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
	applyStringConfig(cmd, "at", &remindAt, e.cfg.Remind.At)
	sched := remind.New(e.sess.Progress, e.sess.Settings, remind.WriterNotifier{W: cmd.OutOrStdout()}, e.sess.Clock(), e.log)
	if remindOnce {
		if !sched.Check() {
			logErrln("No reminder needed right now.")
		}
		return nil
	}

	if err := sched.Start(remindAt); err != nil {
		return err
	}
	defer sched.Stop()
	logErrf("Next reminder at %s. Press Ctrl+C to stop.\n", sched.NextRun().Format("2006-01-02 15:04"))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	if _, err := fmt.Fprintln(cmd.ErrOrStderr(), "Reminder stopped."); err != nil {
		// Best-effort output.
		_ = err
	}
	return nil
}
