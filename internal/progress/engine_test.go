package progress

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/clock"
	"github.com/verte-zerg/lingoquest/internal/kvs"
	"github.com/verte-zerg/lingoquest/internal/model"
)

// Monday, mid-morning: no time flags apply.
var monday = time.Date(2024, time.March, 4, 10, 0, 0, 0, time.Local)

func newTestEngine(t *testing.T) (*Engine, *kvs.Store, *clock.Fake) {
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
	fake := clock.NewFake(monday)
	e := New(kv, fake, zap.NewNop())
	e.Load(context.Background())
	return e, kv, fake
}

func logLearn(t *testing.T, e *Engine) []achievement.Rule {
	t.Helper()
	unlocked, err := e.LogActivity(context.Background(), model.ActivityLearn, 1)
	if err != nil {
		t.Fatalf("log activity: %v", err)
	}
	return unlocked
}

func TestFirstActivityStartsStreak(t *testing.T) {
	e, _, _ := newTestEngine(t)
	logLearn(t, e)
	s := e.Snapshot()
	if s.CurrentStreak != 1 || s.LongestStreak != 1 {
		t.Fatalf("streak = %d/%d, want 1/1", s.CurrentStreak, s.LongestStreak)
	}
	if s.LastPracticeDate == nil || !s.LastPracticeDate.Equal(monday) {
		t.Fatalf("last practice = %v", s.LastPracticeDate)
	}
	day := s.ActivityLog["2024-03-04"]
	if day["learn"] != 1 || day["vocab"] != 0 {
		t.Fatalf("unexpected day record %v", day)
	}
}

func TestSameDayDoesNotIncrementStreak(t *testing.T) {
	e, _, fake := newTestEngine(t)
	ctx := context.Background()
	logLearn(t, e)
	fake.Advance(3 * time.Hour)
	if _, err := e.LogActivity(ctx, model.ActivityGame, 2); err != nil {
		t.Fatalf("log: %v", err)
	}
	logLearn(t, e)
	s := e.Snapshot()
	if s.CurrentStreak != 1 {
		t.Fatalf("streak = %d, want 1", s.CurrentStreak)
	}
	if s.TotalActivityCounts["learn"] != 2 || s.TotalActivityCounts["game"] != 2 {
		t.Fatalf("totals = %v", s.TotalActivityCounts)
	}
	if day := s.ActivityLog["2024-03-04"]; day["learn"] != 2 || day["game"] != 2 {
		t.Fatalf("day = %v", day)
	}
}

func TestGraceWindow(t *testing.T) {
	e, _, fake := newTestEngine(t)
	logLearn(t, e)
	fake.Set(monday.AddDate(0, 0, 2)) // Wednesday
	logLearn(t, e)
	if got := e.Snapshot().CurrentStreak; got != 2 {
		t.Fatalf("after two-day gap streak = %d, want 2", got)
	}
	fake.Set(monday.AddDate(0, 0, 5)) // Saturday, three days later
	logLearn(t, e)
	s := e.Snapshot()
	if s.CurrentStreak != 1 || s.LongestStreak != 2 {
		t.Fatalf("after three-day gap streak = %d/%d, want 1/2", s.CurrentStreak, s.LongestStreak)
	}
}

func TestLongestIsRunningMaximum(t *testing.T) {
	e, _, fake := newTestEngine(t)
	rng := rand.New(rand.NewSource(7))
	day := monday
	maxSeen := 0
	for i := 0; i < 60; i++ {
		day = day.AddDate(0, 0, rng.Intn(5))
		fake.Set(day)
		logLearn(t, e)
		s := e.Snapshot()
		if s.CurrentStreak > maxSeen {
			maxSeen = s.CurrentStreak
		}
		if s.LongestStreak != maxSeen {
			t.Fatalf("step %d: longest = %d, max observed = %d", i, s.LongestStreak, maxSeen)
		}
	}
}

func TestLoadBreaksLapsedStreak(t *testing.T) {
	e, kv, fake := newTestEngine(t)
	logLearn(t, e)
	fake.Set(monday.AddDate(0, 0, 1))
	logLearn(t, e)

	fake.Set(monday.AddDate(0, 0, 3))
	kept := New(kv, fake, zap.NewNop())
	kept.Load(context.Background())
	if got := kept.Snapshot().CurrentStreak; got != 2 {
		t.Fatalf("two-day gap on load: streak = %d, want 2", got)
	}

	fake.Set(monday.AddDate(0, 0, 4))
	broken := New(kv, fake, zap.NewNop())
	broken.Load(context.Background())
	s := broken.Snapshot()
	if s.CurrentStreak != 0 || s.LongestStreak != 2 {
		t.Fatalf("lapsed streak on load = %d/%d, want 0/2", s.CurrentStreak, s.LongestStreak)
	}
}

func TestLoadMergesOverDefaultsAndUnlocksRetroactively(t *testing.T) {
	_, kv, fake := newTestEngine(t)
	ctx := context.Background()
	legacy := `{"name":"Ana","totalVocab":6,"currentStreak":0,"longestStreak":3,
		"activityLog":{"2024-03-01":["learn","game"],"2024-03-02":{"learn":1,"quiz":4}},
		"unlockedAchievements":["vocab_collector_1"]}`
	kv.Set(ctx, kvs.Progress, kvs.DataKey, []byte(legacy))

	e := New(kv, fake, zap.NewNop())
	unlocked := e.Load(ctx)
	s := e.Snapshot()
	if s.Name != "Ana" || s.Level != 1 || s.BestRecords == nil {
		t.Fatalf("defaults not merged: %+v", s)
	}
	if s.ActivityLog["2024-03-02"]["quiz"] != 4 {
		t.Fatalf("unknown counter lost: %v", s.ActivityLog["2024-03-02"])
	}
	ids := map[string]bool{}
	for _, r := range unlocked {
		ids[r.ID] = true
	}
	if !ids["vocab_collector_5"] || !ids["streak_master_3"] || ids["vocab_collector_1"] {
		t.Fatalf("unexpected retroactive unlocks %v", ids)
	}
	toast, ok := e.Toast()
	if !ok || toast.ID != unlocked[0].ID {
		t.Fatalf("toast = %+v, want first unlocked", toast)
	}
}

func TestReplaceBreaksLapsedStreakAndUnlocks(t *testing.T) {
	e, kv, fake := newTestEngine(t)
	ctx := context.Background()
	last := monday.AddDate(0, 0, -5)
	imported := model.DefaultProgress()
	imported.TotalVocab = 6
	imported.CurrentStreak = 5
	imported.LongestStreak = 5
	imported.LastPracticeDate = &last

	unlocked := e.Replace(ctx, imported)
	s := e.Snapshot()
	if s.CurrentStreak != 0 || s.LongestStreak != 5 {
		t.Fatalf("imported lapsed streak = %d/%d, want 0/5", s.CurrentStreak, s.LongestStreak)
	}
	ids := map[string]bool{}
	for _, r := range unlocked {
		ids[r.ID] = true
	}
	if !ids["vocab_collector_5"] || !ids["streak_master_5"] {
		t.Fatalf("qualifying achievements not unlocked: %v", ids)
	}
	if _, ok := e.Toast(); !ok {
		t.Fatalf("no toast after import unlocks")
	}

	reloaded := New(kv, fake, zap.NewNop())
	reloaded.Load(ctx)
	if got := reloaded.Snapshot(); got.CurrentStreak != 0 || len(got.UnlockedAchievements) != len(s.UnlockedAchievements) {
		t.Fatalf("replaced state not persisted: %+v", got)
	}
}

func TestToastFirstWinsAndExpires(t *testing.T) {
	e, _, fake := newTestEngine(t)
	var notified []string
	e.OnUnlock(func(r achievement.Rule) { notified = append(notified, r.ID) })

	e.SyncVocabCounts(context.Background(), 5, 0)
	toast, ok := e.Toast()
	if !ok || toast.ID != "vocab_collector_1" {
		t.Fatalf("toast = %+v ok=%v", toast, ok)
	}
	if len(notified) != 1 || notified[0] != "vocab_collector_1" {
		t.Fatalf("notified = %v", notified)
	}
	fake.Advance(ToastDuration - time.Millisecond)
	if _, ok := e.Toast(); !ok {
		t.Fatalf("toast cleared early")
	}
	fake.Advance(time.Millisecond)
	if _, ok := e.Toast(); ok {
		t.Fatalf("toast should clear after %s", ToastDuration)
	}
}

func TestAchievementsAreMonotonic(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	e.SyncVocabCounts(ctx, 10, 1)
	before := e.Snapshot().UnlockedAchievements
	e.SyncVocabCounts(ctx, 0, 0)
	logLearn(t, e)
	after := e.Snapshot().UnlockedAchievements
	have := map[string]int{}
	for _, id := range after {
		have[id]++
	}
	for _, id := range before {
		if have[id] != 1 {
			t.Fatalf("achievement %s lost or duplicated: %v", id, after)
		}
	}
	for id, n := range have {
		if n > 1 {
			t.Fatalf("duplicate id %s", id)
		}
	}
}

func TestLogActivityValidation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	if _, err := e.LogActivity(ctx, "quiz", 1); !errors.Is(err, ErrUnknownActivity) {
		t.Fatalf("expected ErrUnknownActivity, got %v", err)
	}
	if _, err := e.LogActivity(ctx, model.ActivityGame, 0); !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}
	if s := e.Snapshot(); len(s.ActivityLog) != 0 || s.CurrentStreak != 0 {
		t.Fatalf("rejected calls changed state: %+v", s)
	}
}

func TestTimeFlags(t *testing.T) {
	e, _, fake := newTestEngine(t)
	fake.Set(time.Date(2024, time.March, 9, 6, 30, 0, 0, time.Local)) // Saturday morning
	unlocked := logLearn(t, e)
	s := e.Snapshot()
	if !s.TimeFlags[model.FlagEarlyBird] || !s.TimeFlags[model.FlagWeekendWarrior] || s.TimeFlags[model.FlagNightOwl] {
		t.Fatalf("flags = %v", s.TimeFlags)
	}
	ids := map[string]bool{}
	for _, r := range unlocked {
		ids[r.ID] = true
	}
	if !ids["early_bird"] || !ids["weekend_warrior"] {
		t.Fatalf("flag achievements not unlocked: %v", ids)
	}
	fake.Set(time.Date(2024, time.March, 11, 12, 0, 0, 0, time.Local))
	logLearn(t, e)
	if !e.Snapshot().TimeFlags[model.FlagEarlyBird] {
		t.Fatalf("flags must never clear")
	}
}

func TestRecordBestScore(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	if ok, _ := e.RecordBestScore(ctx, achievement.GameWordMatch, 12); !ok {
		t.Fatalf("first score should be a record")
	}
	if ok, _ := e.RecordBestScore(ctx, achievement.GameWordMatch, 10); ok {
		t.Fatalf("lower score should not replace")
	}
	if ok, _ := e.RecordBestScore(ctx, achievement.GameHangman, 60); !ok {
		t.Fatalf("first hangman time should be a record")
	}
	if ok, _ := e.RecordBestScore(ctx, achievement.GameHangman, 70); ok {
		t.Fatalf("slower hangman time should not replace")
	}
	ok, unlocked := e.RecordBestScore(ctx, achievement.GameHangman, 40)
	if !ok {
		t.Fatalf("faster hangman time should replace")
	}
	found := false
	for _, r := range unlocked {
		found = found || r.ID == "quick_saver"
	}
	if !found {
		t.Fatalf("quick_saver not unlocked: %v", unlocked)
	}
	if s := e.Snapshot(); s.BestRecords[achievement.GameWordMatch] != 12 || s.BestRecords[achievement.GameHangman] != 40 {
		t.Fatalf("records = %v", s.BestRecords)
	}
}

func TestResetAchievementsKeepsProfile(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	if err := e.SetName(ctx, "Budi"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	e.AddPoints(ctx, 30)
	e.SyncVocabCounts(ctx, 3, 0)
	logLearn(t, e)
	e.RecordBestScore(ctx, achievement.GameDefinition, 5)

	e.ResetAchievements(ctx)
	s := e.Snapshot()
	if len(s.UnlockedAchievements) != 0 || s.CurrentStreak != 0 || s.LongestStreak != 0 ||
		len(s.ActivityLog) != 0 || len(s.BestRecords) != 0 || s.LastPracticeDate != nil || len(s.TimeFlags) != 0 {
		t.Fatalf("reset left history: %+v", s)
	}
	if s.Name != "Budi" || s.Points != 30 || s.TotalVocab != 3 {
		t.Fatalf("reset dropped profile: %+v", s)
	}
	if _, ok := e.Toast(); ok {
		t.Fatalf("reset should clear the toast")
	}
}

func TestResetAndPersistence(t *testing.T) {
	e, kv, fake := newTestEngine(t)
	ctx := context.Background()
	logLearn(t, e)
	if got := e.AddPoints(ctx, -5); got != 0 {
		t.Fatalf("points = %d, want 0", got)
	}

	reloaded := New(kv, fake, zap.NewNop())
	reloaded.Load(ctx)
	if reloaded.Snapshot().TotalActivityCounts["learn"] != 1 {
		t.Fatalf("activity not persisted")
	}

	e.Reset(ctx)
	if _, ok := kv.Get(ctx, kvs.Progress, kvs.DataKey); ok {
		t.Fatalf("reset should remove the record")
	}
	if s := e.Snapshot(); s.Name != "Learner" || len(s.ActivityLog) != 0 {
		t.Fatalf("reset state = %+v", s)
	}
}

func TestCloseCancelsToastTimer(t *testing.T) {
	e, _, fake := newTestEngine(t)
	e.SyncVocabCounts(context.Background(), 1, 0)
	e.Close()
	if fake.Pending() != 0 {
		t.Fatalf("toast timer still pending")
	}
}
