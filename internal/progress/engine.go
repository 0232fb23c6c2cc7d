// Package progress owns the progress record: activity log, streaks, best
// scores and unlocked achievements.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/clock"
	"github.com/verte-zerg/lingoquest/internal/kvs"
	"github.com/verte-zerg/lingoquest/internal/model"
	"github.com/verte-zerg/lingoquest/internal/streak"
)

// ToastDuration is how long a newly unlocked achievement stays visible.
const ToastDuration = 5 * time.Second

// Boundary validation errors.
var (
	ErrUnknownActivity = errors.New("unknown activity type")
	ErrInvalidCount    = errors.New("count must be positive")
	ErrEmptyName       = errors.New("name is required")
)

// Engine serialises every progress mutation and persists the whole record
// after each one.
type Engine struct {
	kv    *kvs.Store
	clock clock.Clock
	log   *zap.Logger
	rules []achievement.Rule

	mu        sync.Mutex
	state     model.ProgressState
	toast     *achievement.Rule
	toastTask *clock.Task
	onUnlock  func(achievement.Rule)
}

// New returns an engine holding default progress. Call Load to read the
// persisted record.
func New(kv *kvs.Store, c clock.Clock, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		kv:        kv,
		clock:     c,
		log:       log.Named("progress"),
		rules:     achievement.Rules(),
		state:     model.DefaultProgress(),
		toastTask: clock.NewTask(c),
	}
}

// OnUnlock registers fn to receive the toast achievement of each batch.
func (e *Engine) OnUnlock(fn func(achievement.Rule)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onUnlock = fn
}

// Load reads the saved record merged over defaults, zeroes a lapsed streak,
// unlocks achievements the saved data already qualifies for, and persists.
func (e *Engine) Load(ctx context.Context) []achievement.Rule {
	state := model.DefaultProgress()
	if raw, ok := e.kv.Get(ctx, kvs.Progress, kvs.DataKey); ok {
		if err := json.Unmarshal(raw, &state); err != nil {
			e.log.Error("progress record is corrupt, starting fresh", zap.Error(err))
			state = model.DefaultProgress()
		}
	}
	state.Normalize()

	e.mu.Lock()
	e.state = state
	if streak.Broken(e.state.LastPracticeDate, e.clock.Now()) && e.state.CurrentStreak != 0 {
		e.log.Info("streak lapsed", zap.Int("streak", e.state.CurrentStreak))
		e.state.CurrentStreak = 0
	}
	unlocked := e.evaluateLocked()
	e.persistLocked(ctx)
	notify := e.notifyLocked(unlocked)
	e.mu.Unlock()
	notify()
	return unlocked
}

// LogActivity records count units of activity typ for today, advances the
// streak, and returns the achievements this unlocked.
func (e *Engine) LogActivity(ctx context.Context, typ model.ActivityType, count int) ([]achievement.Rule, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivity, typ)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	now := e.clock.Now()

	e.mu.Lock()
	s := &e.state
	day := streak.DayKey(now)
	rec, ok := s.ActivityLog[day]
	if !ok || rec == nil {
		rec = model.NewDayRecord()
		s.ActivityLog[day] = rec
	}
	rec[string(typ)] += count

	s.CurrentStreak = streak.Next(s.CurrentStreak, s.LastPracticeDate, now)
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	for _, f := range streak.Flags(now) {
		s.TimeFlags[f] = true
	}
	s.TotalActivityCounts[string(typ)] += count
	s.LastPracticeDate = &now
	e.persistLocked(ctx)

	unlocked := e.evaluateLocked()
	if len(unlocked) > 0 {
		e.persistLocked(ctx)
	}
	notify := e.notifyLocked(unlocked)
	e.mu.Unlock()
	notify()
	return unlocked, nil
}

// RecordPractice logs one learn activity.
func (e *Engine) RecordPractice(ctx context.Context) ([]achievement.Rule, error) {
	return e.LogActivity(ctx, model.ActivityLearn, 1)
}

// RecordBestScore stores score for game when it beats the previous record.
// Hangman records a time, so lower is better there.
func (e *Engine) RecordBestScore(ctx context.Context, game string, score int) (bool, []achievement.Rule) {
	game = strings.TrimSpace(game)
	if game == "" || score < 0 {
		return false, nil
	}
	e.mu.Lock()
	prev, ok := e.state.BestRecords[game]
	better := !ok
	if ok {
		if achievement.LowerIsBetter(game) {
			better = score < prev
		} else {
			better = score > prev
		}
	}
	if !better {
		e.mu.Unlock()
		return false, nil
	}
	e.state.BestRecords[game] = score
	unlocked := e.evaluateLocked()
	e.persistLocked(ctx)
	notify := e.notifyLocked(unlocked)
	e.mu.Unlock()
	notify()
	return true, unlocked
}

// SyncVocabCounts mirrors the vocabulary totals into the progress record.
func (e *Engine) SyncVocabCounts(ctx context.Context, total, mastered int) []achievement.Rule {
	e.mu.Lock()
	if e.state.TotalVocab == total && e.state.MasteredVocab == mastered {
		e.mu.Unlock()
		return nil
	}
	e.state.TotalVocab = total
	e.state.MasteredVocab = mastered
	unlocked := e.evaluateLocked()
	e.persistLocked(ctx)
	notify := e.notifyLocked(unlocked)
	e.mu.Unlock()
	notify()
	return unlocked
}

// AddPoints adjusts the point balance, never below zero, and returns it.
func (e *Engine) AddPoints(ctx context.Context, amount int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Points += amount
	if e.state.Points < 0 {
		e.state.Points = 0
	}
	e.persistLocked(ctx)
	return e.state.Points
}

// SetName changes the profile name.
func (e *Engine) SetName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Name = name
	e.persistLocked(ctx)
	return nil
}

// Snapshot returns a deep copy of the current record.
func (e *Engine) Snapshot() model.ProgressState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Stats returns the achievement statistics for the current record.
func (e *Engine) Stats() achievement.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return achievement.BuildStats(e.state.Clone())
}

// Series returns progress through each tiered achievement series.
func (e *Engine) Series() []achievement.Series {
	e.mu.Lock()
	defer e.mu.Unlock()
	state := e.state.Clone()
	return achievement.SeriesProgress(e.rules, state.UnlockedAchievements, achievement.BuildStats(state))
}

// Toast returns the achievement currently on display.
func (e *Engine) Toast() (achievement.Rule, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.toast == nil {
		return achievement.Rule{}, false
	}
	return *e.toast, true
}

// DismissToast hides the current toast.
func (e *Engine) DismissToast() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearToastLocked()
}

// ResetAchievements clears achievements together with the history that
// would immediately unlock them again. Profile fields and vocabulary
// counts are kept.
func (e *Engine) ResetAchievements(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearToastLocked()
	s := &e.state
	s.UnlockedAchievements = []string{}
	s.CurrentStreak = 0
	s.LongestStreak = 0
	s.TotalActivityCounts = map[string]int{}
	s.LastPracticeDate = nil
	s.ActivityLog = map[string]model.DayRecord{}
	s.TimeFlags = map[string]bool{}
	s.BestRecords = map[string]int{}
	e.persistLocked(ctx)
}

// Reset returns to a fresh install and removes the saved record.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearToastLocked()
	e.state = model.DefaultProgress()
	e.kv.Clear(ctx, kvs.Progress)
}

// Replace installs state wholesale, as imported from a backup. A lapsed
// streak is reset and achievements are re-evaluated, as on Load.
func (e *Engine) Replace(ctx context.Context, state model.ProgressState) []achievement.Rule {
	state = state.Clone()
	state.Normalize()
	e.mu.Lock()
	e.clearToastLocked()
	e.state = state
	if streak.Broken(e.state.LastPracticeDate, e.clock.Now()) && e.state.CurrentStreak != 0 {
		e.log.Info("imported streak lapsed", zap.Int("streak", e.state.CurrentStreak))
		e.state.CurrentStreak = 0
	}
	unlocked := e.evaluateLocked()
	e.persistLocked(ctx)
	notify := e.notifyLocked(unlocked)
	e.mu.Unlock()
	notify()
	return unlocked
}

// Close cancels the toast timer.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearToastLocked()
}

func (e *Engine) evaluateLocked() []achievement.Rule {
	unlocked := achievement.Evaluate(e.rules, e.state.UnlockedAchievements, achievement.BuildStats(e.state))
	if len(unlocked) == 0 {
		return nil
	}
	e.state.UnlockedAchievements = achievement.Merge(e.state.UnlockedAchievements, unlocked)
	for _, r := range unlocked {
		e.log.Info("achievement unlocked", zap.String("id", r.ID), zap.String("title", r.Title))
	}

	first := unlocked[0]
	e.toast = &first
	e.toastTask.Arm(ToastDuration, func() { e.expireToast(&first) })
	return unlocked
}

func (e *Engine) expireToast(r *achievement.Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.toast == r {
		e.toast = nil
	}
}

func (e *Engine) clearToastLocked() {
	e.toastTask.Cancel()
	e.toast = nil
}

func (e *Engine) notifyLocked(unlocked []achievement.Rule) func() {
	fn := e.onUnlock
	if fn == nil || len(unlocked) == 0 {
		return func() {}
	}
	first := unlocked[0]
	return func() { fn(first) }
}

func (e *Engine) persistLocked(ctx context.Context) {
	if !e.kv.SetJSON(ctx, kvs.Progress, kvs.DataKey, e.state) {
		e.log.Warn("progress not saved, keeping in-memory state")
	}
}
