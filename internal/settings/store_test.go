package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/verte-zerg/lingoquest/internal/kvs"
	"github.com/verte-zerg/lingoquest/internal/model"
)

func newTestStore(t *testing.T) (*Store, *kvs.Store) {
	t.Helper()
	kv, err := kvs.Open(filepath.Join(t.TempDir(), "lq.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open kvs: %v", err)
	}
	t.Cleanup(func() {
		if cerr := kv.Close(); cerr != nil {
			_ = cerr
		}
	})
	s := New(kv, zap.NewNop())
	s.Load(context.Background())
	return s, kv
}

func TestDefaultsOnFreshInstall(t *testing.T) {
	s, _ := newTestStore(t)
	if got := s.Get(); got != model.DefaultSettings() {
		t.Fatalf("fresh settings = %+v", got)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	kv.Set(ctx, kvs.Settings, kvs.DataKey, []byte(`{"theme":"dark","dailyGoal":25}`))
	got := s.Load(ctx)
	if got.Theme != "dark" || got.DailyGoal != 25 {
		t.Fatalf("saved values lost: %+v", got)
	}
	if got.ReminderTime != "09:00" || !got.Notifications || got.FontSize != "M" {
		t.Fatalf("defaults not backfilled: %+v", got)
	}
}

func TestLoadRejectsInvalidRecord(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	kv.Set(ctx, kvs.Settings, kvs.DataKey, []byte(`{"theme":"neon"}`))
	if got := s.Load(ctx); got.Theme != "light" {
		t.Fatalf("invalid theme kept: %+v", got)
	}
}

func TestLoadDropsOnlyInvalidFields(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	kv.Set(ctx, kvs.Settings, kvs.DataKey, []byte(`{"theme":"dark","voiceType":"robot","dailyGoal":25,"fontSize":"XL","geminiApiKey":"gsk_abc"}`))
	got := s.Load(ctx)
	if got.Theme != "dark" || got.DailyGoal != 25 || got.APIKey != "gsk_abc" {
		t.Fatalf("valid fields lost: %+v", got)
	}
	if got.VoiceType != "female" || got.FontSize != "M" {
		t.Fatalf("invalid fields kept: %+v", got)
	}
}

func TestLoadSkipsMistypedField(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	kv.Set(ctx, kvs.Settings, kvs.DataKey, []byte(`{"dailyGoal":"lots","theme":"dark","voiceType":"mixed"}`))
	got := s.Load(ctx)
	if got.DailyGoal != 10 {
		t.Fatalf("dailyGoal = %d, want default", got.DailyGoal)
	}
	if got.Theme != "dark" || got.VoiceType != "mixed" {
		t.Fatalf("valid fields lost: %+v", got)
	}
}

func TestLoadCorruptRecordUsesDefaults(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	kv.Set(ctx, kvs.Settings, kvs.DataKey, []byte(`{"theme":`))
	if got := s.Load(ctx); got != model.DefaultSettings() {
		t.Fatalf("corrupt record = %+v", got)
	}
}

func TestSetMixedVoice(t *testing.T) {
	s, _ := newTestStore(t)
	got, err := s.Set(context.Background(), KeyVoiceType, "Mixed")
	if err != nil {
		t.Fatalf("set voiceType: %v", err)
	}
	if got.VoiceType != "mixed" {
		t.Fatalf("voiceType = %q", got.VoiceType)
	}
}

func TestSetParsesAndPersists(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	cases := []struct {
		key, value string
		check      func(model.Settings) bool
	}{
		{KeyTheme, "Dark", func(st model.Settings) bool { return st.Theme == "dark" }},
		{KeyDailyGoal, "20", func(st model.Settings) bool { return st.DailyGoal == 20 }},
		{KeyNotifications, "off", func(st model.Settings) bool { return !st.Notifications }},
		{KeyFontSize, "l", func(st model.Settings) bool { return st.FontSize == "L" }},
		{KeyReminderTime, "07:45", func(st model.Settings) bool { return st.ReminderTime == "07:45" }},
		{KeyAutoPlayAudio, "true", func(st model.Settings) bool { return st.AutoPlayAudio }},
	}
	for _, tc := range cases {
		got, err := s.Set(ctx, tc.key, tc.value)
		if err != nil {
			t.Fatalf("set %s=%s: %v", tc.key, tc.value, err)
		}
		if !tc.check(got) {
			t.Fatalf("set %s=%s gave %+v", tc.key, tc.value, got)
		}
	}
	reloaded := New(kv, zap.NewNop())
	if got := reloaded.Load(ctx); got != s.Get() {
		t.Fatalf("reloaded %+v, want %+v", got, s.Get())
	}
}

func TestSetRejectsBadValues(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Set(ctx, "volume", "3"); !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
	for _, bad := range [][2]string{
		{KeyTheme, "neon"},
		{KeyDailyGoal, "-1"},
		{KeyDailyGoal, "many"},
		{KeyReminderTime, "25:00"},
		{KeyNotifications, "maybe"},
		{KeyFontSize, "XL"},
	} {
		if _, err := s.Set(ctx, bad[0], bad[1]); err == nil {
			t.Fatalf("set %s=%s should fail", bad[0], bad[1])
		}
	}
	if got := s.Get(); got != model.DefaultSettings() {
		t.Fatalf("rejected values changed state: %+v", got)
	}
}

func TestToggleThemeAndReset(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()
	if got := s.ToggleTheme(ctx); got.Theme != "dark" {
		t.Fatalf("theme = %s", got.Theme)
	}
	if got := s.ToggleTheme(ctx); got.Theme != "light" {
		t.Fatalf("theme = %s", got.Theme)
	}
	s.Set(ctx, KeyDailyGoal, "50")
	s.Reset(ctx)
	if got := s.Get(); got != model.DefaultSettings() {
		t.Fatalf("reset = %+v", got)
	}
	if _, ok := kv.Get(ctx, kvs.Settings, kvs.DataKey); ok {
		t.Fatalf("reset should remove the record")
	}
}

func TestLookup(t *testing.T) {
	st := model.DefaultSettings()
	if v, err := Lookup(st, KeyDailyGoal); err != nil || v != "10" {
		t.Fatalf("lookup = %q %v", v, err)
	}
	if _, err := Lookup(st, "nope"); !errors.Is(err, ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
	if len(Keys()) != 8 {
		t.Fatalf("keys = %v", Keys())
	}
}
