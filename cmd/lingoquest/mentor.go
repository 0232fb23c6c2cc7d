package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/lingoquest/internal/app"
	"github.com/verte-zerg/lingoquest/internal/mentor"
)

const mentorReplyTimeout = 60 * time.Second

var (
	mentorMode  string
	mentorNew   bool
	mentorClear bool
)

func newMentorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mentor",
		Short: "Chat with the AI mentor and use today's mission words",
		Long: "Chat with the AI mentor. Modes: " + strings.Join(mentor.Modes(), ", ") +
			".\nCommands inside the chat: /new starts over, /words lists mission words, /quit leaves.",
		Args: cobra.NoArgs,
		RunE: withEnv(runMentorCmd),
	}
	cmd.Flags().StringVar(&mentorMode, "mode", mentor.DefaultMode, "conversation scenario")
	cmd.Flags().BoolVar(&mentorNew, "new", false, "start a fresh conversation with new mission words")
	cmd.Flags().BoolVar(&mentorClear, "clear", false, "delete the saved conversation and exit")
	return cmd
}

func runMentorCmd(ctx context.Context, cmd *cobra.Command, e *env, _ []string) error {
	if _, ok := mentor.Roles[mentorMode]; !ok {
		return fmt.Errorf("unknown mode %q (known: %s)", mentorMode, strings.Join(mentor.Modes(), ", "))
	}
	chat := mentor.NewChat(e.sess.KV(), e.mentorClient(), e.log)
	out := cmd.OutOrStdout()
	if mentorClear {
		chat.ClearHistory(ctx, mentorMode)
		if _, err := fmt.Fprintf(out, "Cleared the %s conversation.\n", mentor.Roles[mentorMode].Name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	var (
		conv mentor.Conversation
		err  error
	)
	if mentorNew {
		conv, err = chat.Start(ctx, mentorMode, e.sess.Entries(), rnd)
	} else {
		conv, err = chat.Load(ctx, mentorMode, e.sess.Entries(), rnd)
	}
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(out, "== %s ==\n", mentor.Roles[mentorMode].Name); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, msg := range conv.Messages {
		if err := writeChatMessage(out, msg); err != nil {
			return err
		}
	}
	return mentorLoop(ctx, cmd.InOrStdin(), out, e, chat, &conv, rnd)
}

func mentorLoop(ctx context.Context, in io.Reader, out io.Writer, e *env, chat *mentor.Chat, conv *mentor.Conversation, rnd *rand.Rand) error {
	scanner := bufio.NewScanner(in)
	for {
		if _, err := io.WriteString(out, "you> "); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/words":
			if err := writeMissionWords(out, *conv); err != nil {
				return err
			}
			continue
		case "/new":
			fresh, err := chat.Start(ctx, conv.Mode, e.sess.Entries(), rnd)
			if err != nil {
				return err
			}
			*conv = fresh
			if err := writeChatMessage(out, conv.Messages[0]); err != nil {
				return err
			}
			continue
		}

		turnCtx, cancel := context.WithTimeout(ctx, mentorReplyTimeout)
		turn := chat.Send(turnCtx, conv, line)
		cancel()

		if turn.Grammar != nil {
			if _, err := fmt.Fprintf(out, "  ✎ %s\n    %s\n", turn.Grammar.Correction, turn.Grammar.Explanation); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		if err := writeChatMessage(out, mentor.Message{Role: mentor.RoleAssistant, Content: turn.Reply}); err != nil {
			return err
		}
		if len(turn.Used) > 0 {
			unlocked, err := e.sess.RewardMentorWords(ctx, len(turn.Used))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, "  +%d points for using: %s\n",
				len(turn.Used)*app.MentorWordPoints, strings.Join(turn.Used, ", ")); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			printUnlocked(out, unlocked)
			if len(conv.Remaining()) == 0 {
				if _, err := fmt.Fprintln(out, "  Mission complete! Type /new for fresh words."); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func writeChatMessage(w io.Writer, msg mentor.Message) error {
	prefix := "mentor> "
	if msg.Role == mentor.RoleUser {
		prefix = "you> "
	}
	if _, err := fmt.Fprintf(w, "%s%s\n\n", prefix, msg.Content); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeMissionWords(w io.Writer, conv mentor.Conversation) error {
	done := make(map[string]bool, len(conv.Completed))
	for _, word := range conv.Completed {
		done[strings.ToLower(word)] = true
	}
	for _, t := range conv.Targets {
		mark := "[ ]"
		if done[strings.ToLower(t.Word)] {
			mark = "[x]"
		}
		if _, err := fmt.Fprintf(w, "  %s %s (%s)\n", mark, t.Word, t.Meaning); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
