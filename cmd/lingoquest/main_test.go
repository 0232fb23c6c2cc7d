package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/tui"
)

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	var cards int
	var at string
	cmd.Flags().IntVar(&cards, "cards", 5, "")
	cmd.Flags().StringVar(&at, "at", "", "")
	if err := cmd.Flags().Set("cards", "3"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	fileCards := 12
	fileAt := "08:30"
	applyIntConfig(cmd, "cards", &cards, &fileCards)
	applyStringConfig(cmd, "at", &at, &fileAt)
	applyStringConfig(cmd, "at", &at, nil)

	if cards != 3 {
		t.Fatalf("expected flag value 3 to win, got %d", cards)
	}
	if at != "08:30" {
		t.Fatalf("expected config value for unset flag, got %q", at)
	}
}

func TestValidateLearnConfig(t *testing.T) {
	if err := validateLearnConfig(5, 0.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validateLearnConfig(0, 0.5); err == nil {
		t.Fatalf("expected error for zero cards")
	}
	if err := validateLearnConfig(5, -1); err == nil {
		t.Fatalf("expected error for negative weak factor")
	}
}

func TestResolveGame(t *testing.T) {
	got, err := resolveGame("speedtyping")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != achievement.GameSpeedTyping {
		t.Fatalf("expected %q, got %q", achievement.GameSpeedTyping, got)
	}
	if _, err := resolveGame("chess"); err == nil || !strings.Contains(err.Error(), "known:") {
		t.Fatalf("expected unknown game error, got %v", err)
	}
}

func TestParsePositive(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"15", 15, false},
		{" 3 ", 3, false},
		{"0", 0, true},
		{"-2", 0, true},
		{"ten", 0, true},
	}
	for _, tc := range cases {
		got, err := parsePositive(tc.in, "minutes")
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parsePositive(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("parsePositive(%q) = %d, %v", tc.in, got, err)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := maskSecret("gsk_abcdefgh1234"); got != "gsk_********1234" {
		t.Fatalf("unexpected mask %q", got)
	}
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	ok, err := confirm(strings.NewReader("YES\n"), &out, "sure? ")
	if err != nil || !ok {
		t.Fatalf("expected confirmation, got %v, %v", ok, err)
	}
	if out.String() != "sure? " {
		t.Fatalf("unexpected prompt %q", out.String())
	}
	ok, err = confirm(strings.NewReader("no"), &out, "")
	if err != nil || ok {
		t.Fatalf("expected refusal, got %v, %v", ok, err)
	}
}

func TestDefaultConfigTemplateMentionsSections(t *testing.T) {
	tmpl := defaultConfigTemplate()
	for _, section := range []string{"[storage]", "[log]", "[learn]", "[mentor]", "[remind]"} {
		if !strings.Contains(tmpl, section) {
			t.Fatalf("template missing %s", section)
		}
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"add", "learn", "words", "trash", "mentor", "remind", "export", "import", "migrate"} {
		if _, _, err := root.Find([]string{name}); err != nil {
			t.Fatalf("missing subcommand %s: %v", name, err)
		}
	}
	for _, path := range [][]string{{"game", "speed"}, {"game", "quiz"}, {"game", "record"}, {"listen", "log"}} {
		found, _, err := root.Find(path)
		if err != nil || found.Name() != path[1] {
			t.Fatalf("missing subcommand %v: %v", path, err)
		}
	}
}

func TestPrintGameSummary(t *testing.T) {
	var out bytes.Buffer
	err := printGameSummary(&out, tui.GameSummary{
		Game:      achievement.GameSpeedTyping,
		Score:     7,
		NewRecord: true,
		Unlocked:  []achievement.Rule{{Title: "Speed Demon", Description: "Type fast."}},
	})
	if err != nil {
		t.Fatalf("print summary: %v", err)
	}
	for _, want := range []string{"speedTyping score: 7", "New best for speedTyping: 7", "Achievement unlocked: Speed Demon"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}

	if err := printGameSummary(&out, tui.GameSummary{Err: errors.New("disk full")}); err == nil {
		t.Fatalf("expected save error to surface")
	}
}
