// Package remind schedules the daily practice reminder.
package remind

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/verte-zerg/lingoquest/internal/clock"
	"github.com/verte-zerg/lingoquest/internal/model"
	"github.com/verte-zerg/lingoquest/internal/streak"
)

// Notifier delivers a reminder.
type Notifier interface {
	Notify(msg string) error
}

// WriterNotifier prints reminders to a writer with a terminal bell.
type WriterNotifier struct {
	W io.Writer
}

// Notify implements Notifier.
func (n WriterNotifier) Notify(msg string) error {
	_, err := fmt.Fprintf(n.W, "\a%s\n", msg)
	return err
}

// ProgressSource provides the progress snapshot.
type ProgressSource interface {
	Snapshot() model.ProgressState
}

// SettingsSource provides the current settings.
type SettingsSource interface {
	Get() model.Settings
}

// Message returns the reminder text for state at now. It reports false when
// there is activity today already.
func Message(state model.ProgressState, now time.Time, dailyGoal int) (string, bool) {
	if state.ActivityLog[streak.DayKey(now)].Active() {
		return "", false
	}
	var msg string
	if state.CurrentStreak > 0 && !streak.Broken(state.LastPracticeDate, now) {
		msg = fmt.Sprintf("Keep your %d-day streak alive! Practice a few words today.", state.CurrentStreak)
	} else {
		msg = "Time for today's vocabulary practice!"
	}
	if dailyGoal > 0 {
		msg += fmt.Sprintf(" Daily goal: %d.", dailyGoal)
	}
	return msg, true
}

// Scheduler runs the reminder once a day at the configured time.
type Scheduler struct {
	sched    *gocron.Scheduler
	progress ProgressSource
	settings SettingsSource
	notifier Notifier
	clock    clock.Clock
	log      *zap.Logger

	mu  sync.Mutex
	job *gocron.Job
	at  string
}

// New returns a Scheduler in the local time zone.
func New(progress ProgressSource, settings SettingsSource, n Notifier, c clock.Clock, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		sched:    gocron.NewScheduler(time.Local),
		progress: progress,
		settings: settings,
		notifier: n,
		clock:    c,
		log:      log,
	}
}

// Start schedules the daily job and starts the scheduler without blocking.
// An explicit at overrides the reminder time from settings.
func (s *Scheduler) Start(at string) error {
	if err := s.Reschedule(at); err != nil {
		return err
	}
	s.sched.StartAsync()
	return nil
}

// Reschedule replaces the daily job.
func (s *Scheduler) Reschedule(at string) error {
	if at == "" {
		at = s.settings.Get().ReminderTime
	}
	if _, err := time.Parse("15:04", at); err != nil {
		return fmt.Errorf("invalid reminder time %q: %w", at, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job != nil {
		s.sched.RemoveByReference(s.job)
	}
	job, err := s.sched.Every(1).Day().At(at).Do(func() { s.Check() })
	if err != nil {
		return fmt.Errorf("failed to schedule reminder: %w", err)
	}
	s.job = job
	s.at = at
	s.log.Info("reminder scheduled", zap.String("at", at))
	return nil
}

// NextRun returns when the reminder fires next.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

// Stop terminates the scheduler.
func (s *Scheduler) Stop() {
	s.sched.Stop()
}

// Check sends the reminder unless notifications are off or the learner has
// practiced today. It reports whether a reminder was sent.
func (s *Scheduler) Check() bool {
	st := s.settings.Get()
	if !st.Notifications {
		s.log.Debug("reminder skipped, notifications off")
		return false
	}
	msg, ok := Message(s.progress.Snapshot(), s.clock.Now(), st.DailyGoal)
	if !ok {
		s.log.Debug("reminder skipped, already practiced today")
		return false
	}
	if err := s.notifier.Notify(msg); err != nil {
		s.log.Warn("failed to deliver reminder", zap.Error(err))
		return false
	}
	return true
}
