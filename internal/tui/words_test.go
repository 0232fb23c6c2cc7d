package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/verte-zerg/lingoquest/internal/app"
	"github.com/verte-zerg/lingoquest/internal/clock"
	"github.com/verte-zerg/lingoquest/internal/vocab"
)

func openSession(t *testing.T, fake *clock.Fake) *app.Session {
	t.Helper()
	s, err := app.Open(context.Background(), app.Options{
		DBPath: filepath.Join(t.TempDir(), "lq.db"),
		Clock:  fake,
		Logger: zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() {
		if cerr := s.Close(); cerr != nil {
			_ = cerr
		}
	})
	return s
}

func TestWordsModelDeleteAndUndo(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, time.March, 4, 10, 0, 0, 0, time.Local))
	s := openSession(t, fake)
	ctx := context.Background()
	for _, w := range []string{"alpha", "beta", "gamma"} {
		if _, _, err := s.AddWord(ctx, vocab.Draft{Word: w, Meaning: w + " meaning"}); err != nil {
			t.Fatalf("add %s: %v", w, err)
		}
	}

	m := NewWordsModel(ctx, s, fake)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	if len(m.entries) != 3 || m.entries[0].Word != "gamma" {
		t.Fatalf("unexpected entries %+v", m.entries)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(key("d"))
	if len(m.entries) != 2 {
		t.Fatalf("expected 2 entries after delete, got %d", len(m.entries))
	}
	view := m.View()
	if !strings.Contains(view, `Deleted "beta"`) || !strings.Contains(view, "(10s)") {
		t.Fatalf("expected undo toast with countdown:\n%s", view)
	}

	fake.Advance(3500 * time.Millisecond)
	if !strings.Contains(m.View(), "(7s)") {
		t.Fatalf("expected countdown to tick:\n%s", m.View())
	}

	m.Update(key("u"))
	if len(m.entries) != 3 || m.entries[1].Word != "beta" {
		t.Fatalf("undo should restore the entry in place: %+v", m.entries)
	}
	if strings.Contains(m.View(), "Deleted") {
		t.Fatalf("toast should be gone after undo")
	}
}

func TestWordsModelUndoExpires(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, time.March, 4, 10, 0, 0, 0, time.Local))
	s := openSession(t, fake)
	ctx := context.Background()
	if _, _, err := s.AddWord(ctx, vocab.Draft{Word: "alpha", Meaning: "first"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	m := NewWordsModel(ctx, s, fake)
	m.Update(key("d"))
	fake.Advance(vocab.UndoWindow)
	if strings.Contains(m.View(), "Deleted") {
		t.Fatalf("toast should expire with the undo window")
	}
	m.Update(key("u"))
	if len(m.entries) != 0 || m.status != "Nothing to undo." {
		t.Fatalf("undo after expiry must be a no-op: %+v %q", m.entries, m.status)
	}
	if len(s.Vocab.Trash()) != 1 {
		t.Fatalf("entry should stay in trash")
	}
}

func TestWordsModelEscDismissesThenQuits(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, time.March, 4, 10, 0, 0, 0, time.Local))
	s := openSession(t, fake)
	ctx := context.Background()
	if _, _, err := s.AddWord(ctx, vocab.Draft{Word: "alpha", Meaning: "first"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	m := NewWordsModel(ctx, s, fake)
	m.Update(key("d"))
	if _, cmd := m.Update(key("esc")); cmd != nil {
		t.Fatalf("first esc should only dismiss the toast")
	}
	if _, ok := s.PendingUndo(); ok {
		t.Fatalf("undo token should be dismissed")
	}
	if _, cmd := m.Update(key("esc")); cmd == nil {
		t.Fatalf("second esc should quit")
	}
}
