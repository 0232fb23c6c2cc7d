// Package app wires the stores into one session and exposes the user
// actions that touch more than one of them.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/verte-zerg/lingoquest/internal/achievement"
	"github.com/verte-zerg/lingoquest/internal/backup"
	"github.com/verte-zerg/lingoquest/internal/clock"
	"github.com/verte-zerg/lingoquest/internal/kvs"
	"github.com/verte-zerg/lingoquest/internal/migrate"
	"github.com/verte-zerg/lingoquest/internal/model"
	"github.com/verte-zerg/lingoquest/internal/progress"
	"github.com/verte-zerg/lingoquest/internal/settings"
	"github.com/verte-zerg/lingoquest/internal/vocab"
)

// Options configures Open.
type Options struct {
	DBPath     string
	LegacyPath string
	Clock      clock.Clock
	Logger     *zap.Logger
}

// Session owns the vocabulary, progress and settings state for one run.
type Session struct {
	kv    *kvs.Store
	clock clock.Clock
	log   *zap.Logger

	Vocab     *vocab.Store
	Progress  *progress.Engine
	Settings  *settings.Store
	Migration migrate.Result
}

// Open opens storage, runs the legacy migration, and loads every store.
func Open(ctx context.Context, opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	c := opts.Clock
	if c == nil {
		c = clock.Real{}
	}
	kv, err := kvs.Open(opts.DBPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	s := &Session{
		kv:       kv,
		clock:    c,
		log:      log,
		Vocab:    vocab.New(kv, c, log),
		Progress: progress.New(kv, c, log),
		Settings: settings.New(kv, log),
	}

	src := migrate.MapSource{}
	if opts.LegacyPath != "" {
		loaded, err := migrate.FileSource(opts.LegacyPath)
		if err != nil {
			log.Warn("legacy storage unreadable, skipping migration", zap.Error(err))
		} else {
			src = loaded
		}
	}
	s.Migration = migrate.Run(ctx, kv, src, log)

	s.Settings.Load(ctx)
	s.Vocab.Load(ctx)
	s.Progress.Load(ctx)
	s.syncCounts(ctx)
	return s, nil
}

// KV exposes the underlying store to collaborators with their own namespace.
func (s *Session) KV() *kvs.Store {
	return s.kv
}

// Clock returns the session clock.
func (s *Session) Clock() clock.Clock {
	return s.clock
}

// Close cancels pending timers and closes storage.
func (s *Session) Close() error {
	s.Vocab.Close()
	s.Progress.Close()
	if err := s.kv.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}

func (s *Session) syncCounts(ctx context.Context) []achievement.Rule {
	total, mastered := s.Vocab.Counts()
	return s.Progress.SyncVocabCounts(ctx, total, mastered)
}

// AddWord adds an entry and logs a vocab activity.
func (s *Session) AddWord(ctx context.Context, d vocab.Draft) (model.VocabEntry, []achievement.Rule, error) {
	entry, err := s.Vocab.Add(ctx, d)
	if err != nil {
		return model.VocabEntry{}, nil, err
	}
	unlocked := s.syncCounts(ctx)
	more, err := s.Progress.LogActivity(ctx, model.ActivityVocab, 1)
	if err != nil {
		return entry, unlocked, err
	}
	return entry, append(unlocked, more...), nil
}

// EditWord replaces an entry's editable fields.
func (s *Session) EditWord(ctx context.Context, id string, d vocab.Draft) (bool, error) {
	ok, err := s.Vocab.UpdateDetails(ctx, id, d)
	if ok {
		s.syncCounts(ctx)
	}
	return ok, err
}

// SetStatus changes an entry's status.
func (s *Session) SetStatus(ctx context.Context, id string, status model.Status) (bool, error) {
	ok, err := s.Vocab.UpdateStatus(ctx, id, status)
	if ok {
		s.syncCounts(ctx)
	}
	return ok, err
}

// DeleteWord moves an entry to the trash with an undo window.
func (s *Session) DeleteWord(ctx context.Context, id string) bool {
	ok := s.Vocab.Delete(ctx, id)
	if ok {
		s.syncCounts(ctx)
	}
	return ok
}

// UndoDelete reverses the most recent delete while its window is open.
func (s *Session) UndoDelete(ctx context.Context) bool {
	ok := s.Vocab.Undo(ctx)
	if ok {
		s.syncCounts(ctx)
	}
	return ok
}

// RestoreWord moves an entry out of the trash.
func (s *Session) RestoreWord(ctx context.Context, id string) bool {
	ok := s.Vocab.Restore(ctx, id)
	if ok {
		s.syncCounts(ctx)
	}
	return ok
}

// PurgeWord permanently removes a trashed entry.
func (s *Session) PurgeWord(ctx context.Context, id string) bool {
	return s.Vocab.PermanentDelete(ctx, id)
}

// EmptyTrash discards the trash.
func (s *Session) EmptyTrash(ctx context.Context) int {
	return s.Vocab.EmptyTrash(ctx)
}

// Answer is the outcome of one flashcard response.
type Answer struct {
	Entry    model.VocabEntry
	Promoted bool
	Unlocked []achievement.Rule
}

// AnswerCard records a flashcard response. Every response counts as a
// learn activity; a promotion to mastered also logs a mastered activity.
func (s *Session) AnswerCard(ctx context.Context, id string, known bool) (Answer, bool, error) {
	entry, promoted, ok := s.Vocab.Practice(ctx, id, known)
	if !ok {
		return Answer{}, false, nil
	}
	ans := Answer{Entry: entry, Promoted: promoted}
	ans.Unlocked = append(ans.Unlocked, s.syncCounts(ctx)...)
	unlocked, err := s.Progress.RecordPractice(ctx)
	if err != nil {
		return ans, true, err
	}
	ans.Unlocked = append(ans.Unlocked, unlocked...)
	if promoted {
		unlocked, err = s.Progress.LogActivity(ctx, model.ActivityMastered, 1)
		if err != nil {
			return ans, true, err
		}
		ans.Unlocked = append(ans.Unlocked, unlocked...)
	}
	return ans, true, nil
}

// GameResult is the outcome of FinishGame.
type GameResult struct {
	NewRecord bool
	Unlocked  []achievement.Rule
}

// FinishGame records a finished round: a positive score is offered as a
// best record, then a game activity is logged.
func (s *Session) FinishGame(ctx context.Context, game string, score int) (GameResult, error) {
	var res GameResult
	if score > 0 {
		res.NewRecord, res.Unlocked = s.Progress.RecordBestScore(ctx, game, score)
	}
	unlocked, err := s.Progress.LogActivity(ctx, model.ActivityGame, 1)
	if err != nil {
		return res, err
	}
	res.Unlocked = append(res.Unlocked, unlocked...)
	return res, nil
}

// Listen logs count listening activities, one per playback started.
func (s *Session) Listen(ctx context.Context, count int) ([]achievement.Rule, error) {
	return s.Progress.LogActivity(ctx, model.ActivityListening, count)
}

// Export snapshots every section. The API key is left out of the file.
func (s *Session) Export() backup.Document {
	p := s.Progress.Snapshot()
	st := s.Settings.Get()
	st.APIKey = ""
	entries := s.Vocab.Entries()
	if entries == nil {
		entries = []model.VocabEntry{}
	}
	return backup.Document{
		Vocab:      entries,
		Progress:   &p,
		Settings:   &st,
		ExportedAt: s.clock.Now(),
	}
}

// Import writes the sections present in doc straight into storage. The
// document is validated first; nothing is applied if validation fails.
func (s *Session) Import(ctx context.Context, doc backup.Document) error {
	if err := backup.Validate(doc); err != nil {
		return err
	}
	if doc.Settings != nil {
		st := *doc.Settings
		if st.APIKey == "" {
			st.APIKey = s.Settings.Get().APIKey
		}
		if err := s.Settings.Replace(ctx, st); err != nil {
			return fmt.Errorf("%w: %v", backup.ErrInvalidBackup, err)
		}
	}
	if doc.Vocab != nil {
		s.Vocab.Replace(ctx, doc.Vocab)
	}
	if doc.Progress != nil {
		s.Progress.Replace(ctx, *doc.Progress)
	}
	s.syncCounts(ctx)
	s.log.Info("backup imported",
		zap.Int("vocab", len(doc.Vocab)),
		zap.Bool("progress", doc.Progress != nil),
		zap.Bool("settings", doc.Settings != nil))
	return nil
}

// Reset wipes every store except the migration flag, so legacy data is
// not copied back on the next start.
func (s *Session) Reset(ctx context.Context) {
	s.Vocab.Reset(ctx)
	s.Progress.Reset(ctx)
	s.Settings.Reset(ctx)
	s.kv.Clear(ctx, kvs.Mentor)
	s.log.Info("all data reset")
}

// Entries returns the active vocabulary, newest first.
func (s *Session) Entries() []model.VocabEntry {
	return s.Vocab.Entries()
}

// PendingUndo returns the undo token of the latest delete, if still valid.
func (s *Session) PendingUndo() (model.UndoToken, bool) {
	return s.Vocab.PendingUndo()
}

// DismissUndo drops the pending undo token.
func (s *Session) DismissUndo() {
	s.Vocab.DismissUndo()
}

// Streak returns the current streak in days.
func (s *Session) Streak() int {
	return s.Progress.Snapshot().CurrentStreak
}

// Toast returns the achievement currently being announced.
func (s *Session) Toast() (achievement.Rule, bool) {
	return s.Progress.Toast()
}

// MentorWordPoints is awarded for each mission word used in a mentor chat.
const MentorWordPoints = 20

// RewardMentorWords awards points and logs one game activity for each
// mission word used.
func (s *Session) RewardMentorWords(ctx context.Context, used int) ([]achievement.Rule, error) {
	var unlocked []achievement.Rule
	for i := 0; i < used; i++ {
		s.Progress.AddPoints(ctx, MentorWordPoints)
		rules, err := s.Progress.LogActivity(ctx, model.ActivityGame, 1)
		if err != nil {
			return unlocked, err
		}
		unlocked = append(unlocked, rules...)
	}
	return unlocked, nil
}
