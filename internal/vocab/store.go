// Package vocab owns the active word list, the trash, and the undo window
// for deletes.
package vocab

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/lingoquest/internal/clock"
	"github.com/verte-zerg/lingoquest/internal/kvs"
	"github.com/verte-zerg/lingoquest/internal/model"
)

// UndoWindow is how long a delete stays undoable.
const UndoWindow = 10 * time.Second

// Boundary validation errors.
var (
	ErrEmptyWord     = errors.New("word is required")
	ErrEmptyMeaning  = errors.New("meaning is required")
	ErrInvalidLevel  = errors.New("invalid level")
	ErrInvalidStatus = errors.New("invalid status")
)

// Draft carries user-supplied fields for Add and UpdateDetails. Empty Level
// and Status mean "not supplied".
type Draft struct {
	Word     string
	Meaning  string
	Example  string
	Synonyms string
	Level    model.Level
	Status   model.Status
}

func (d Draft) validate() error {
	if strings.TrimSpace(d.Word) == "" {
		return ErrEmptyWord
	}
	if len(model.SplitMeanings(d.Meaning)) == 0 {
		return ErrEmptyMeaning
	}
	if d.Level != "" && !d.Level.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, d.Level)
	}
	if d.Status != "" && !d.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	return nil
}

// Store holds the vocabulary state. All mutations persist before returning.
type Store struct {
	kv       *kvs.Store
	clock    clock.Clock
	log      *zap.Logger
	validate *validator.Validate
	newID    func() string

	mu       sync.Mutex
	entries  []model.VocabEntry
	trash    []model.VocabEntry
	undo     *model.UndoToken
	undoTask *clock.Task
}

// New returns an empty store. Call Load to read persisted data.
func New(kv *kvs.Store, c clock.Clock, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		kv:       kv,
		clock:    c,
		log:      log.Named("vocab"),
		validate: validator.New(),
		newID:    uuid.NewString,
		undoTask: clock.NewTask(c),
	}
}

// Load reads the active list and trash. Missing or unreadable records load
// as empty lists.
func (s *Store) Load(ctx context.Context) {
	var entries, trash []model.VocabEntry
	if !s.kv.GetJSON(ctx, kvs.Vocab, kvs.DataKey, &entries) {
		entries = nil
	}
	if !s.kv.GetJSON(ctx, kvs.Trash, kvs.DataKey, &trash) {
		trash = nil
	}
	for i := range entries {
		normalize(&entries[i])
	}
	active := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		active[e.ID] = struct{}{}
	}
	kept := trash[:0]
	for _, e := range trash {
		if _, dup := active[e.ID]; dup {
			s.log.Warn("dropping trash entry also present in active list", zap.String("id", e.ID))
			continue
		}
		normalize(&e)
		kept = append(kept, e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.trash = kept
	s.clearUndoLocked()
}

func normalize(e *model.VocabEntry) {
	if e.Status == "" {
		e.Status = model.StatusNew
	}
	if e.Level == "" {
		e.Level = DetermineLevel(e.Word)
	}
	if e.PracticeCount < 0 {
		e.PracticeCount = 0
	}
}

// Add creates a new entry at the head of the active list.
func (s *Store) Add(ctx context.Context, d Draft) (model.VocabEntry, error) {
	if err := d.validate(); err != nil {
		return model.VocabEntry{}, err
	}
	level := d.Level
	if level == "" {
		level = DetermineLevel(d.Word)
	}
	entry := model.VocabEntry{
		ID:          s.newID(),
		Word:        strings.TrimSpace(d.Word),
		Meaning:     strings.TrimSpace(d.Meaning),
		Example:     d.Example,
		Synonyms:    d.Synonyms,
		Level:       level,
		Status:      model.StatusNew,
		CreatedDate: s.clock.Now(),
	}
	if err := s.validate.Struct(entry); err != nil {
		return model.VocabEntry{}, fmt.Errorf("failed to validate entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]model.VocabEntry{entry}, s.entries...)
	s.persistVocabLocked(ctx)
	return entry, nil
}

// Delete moves an active entry to the trash and opens the undo window,
// replacing any pending undo. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.entries, id)
	if idx < 0 {
		return false
	}
	entry := s.entries[idx]
	s.entries = append(s.entries[:idx:idx], s.entries[idx+1:]...)
	s.trash = append([]model.VocabEntry{entry}, s.trash...)

	token := &model.UndoToken{
		Kind:     model.UndoKindDelete,
		Entry:    entry,
		Index:    idx,
		Deadline: s.clock.Now().Add(UndoWindow),
	}
	s.undo = token
	s.undoTask.Arm(UndoWindow, func() { s.expireUndo(token) })

	s.persistVocabLocked(ctx)
	s.persistTrashLocked(ctx)
	return true
}

func (s *Store) expireUndo(token *model.UndoToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.undo == token {
		s.undo = nil
	}
}

// Undo reverses the pending delete. It is a no-op when no delete is pending.
func (s *Store) Undo(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.undo
	if token == nil || token.Kind != model.UndoKindDelete {
		return false
	}
	s.clearUndoLocked()

	ti := indexOf(s.trash, token.Entry.ID)
	if ti < 0 {
		return false
	}
	entry := s.trash[ti]
	s.trash = append(s.trash[:ti:ti], s.trash[ti+1:]...)
	pos := token.Index
	if pos > len(s.entries) {
		pos = len(s.entries)
	}
	s.entries = insertAt(s.entries, pos, entry)

	s.persistVocabLocked(ctx)
	s.persistTrashLocked(ctx)
	return true
}

// PendingUndo returns the outstanding undo token.
func (s *Store) PendingUndo() (model.UndoToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.undo == nil {
		return model.UndoToken{}, false
	}
	return *s.undo, true
}

// DismissUndo drops the pending undo without changing any list.
func (s *Store) DismissUndo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearUndoLocked()
}

func (s *Store) clearUndoLocked() {
	s.undoTask.Cancel()
	s.undo = nil
}

func (s *Store) dropUndoForLocked(id string) {
	if s.undo != nil && s.undo.Entry.ID == id {
		s.clearUndoLocked()
	}
}

// Restore moves a trashed entry back to the head of the active list.
func (s *Store) Restore(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.trash, id)
	if idx < 0 {
		return false
	}
	entry := s.trash[idx]
	s.trash = append(s.trash[:idx:idx], s.trash[idx+1:]...)
	s.entries = append([]model.VocabEntry{entry}, s.entries...)
	s.dropUndoForLocked(id)
	s.persistVocabLocked(ctx)
	s.persistTrashLocked(ctx)
	return true
}

// PermanentDelete discards a trashed entry.
func (s *Store) PermanentDelete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.trash, id)
	if idx < 0 {
		return false
	}
	s.trash = append(s.trash[:idx:idx], s.trash[idx+1:]...)
	s.dropUndoForLocked(id)
	s.persistTrashLocked(ctx)
	return true
}

// EmptyTrash discards every trashed entry and returns how many were removed.
func (s *Store) EmptyTrash(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.trash)
	s.trash = nil
	if s.undo != nil {
		s.clearUndoLocked()
	}
	s.persistTrashLocked(ctx)
	return n
}

// UpdateStatus sets an entry's status. Moving to new resets practice.
func (s *Store) UpdateStatus(ctx context.Context, id string, status model.Status) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.entries, id)
	if idx < 0 {
		return false, nil
	}
	e := &s.entries[idx]
	e.Status = status
	if status == model.StatusNew {
		e.PracticeCount = 0
	}
	s.persistVocabLocked(ctx)
	return true, nil
}

// UpdateDetails replaces the editable fields of an entry. An unset level
// keeps the previous one; an unset status keeps the previous one. Practice
// resets only when the status is explicitly set to new.
func (s *Store) UpdateDetails(ctx context.Context, id string, d Draft) (bool, error) {
	if err := d.validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.entries, id)
	if idx < 0 {
		return false, nil
	}
	e := &s.entries[idx]
	e.Word = strings.TrimSpace(d.Word)
	e.Meaning = strings.TrimSpace(d.Meaning)
	e.Example = d.Example
	e.Synonyms = d.Synonyms
	switch {
	case d.Level != "":
		e.Level = d.Level
	case e.Level == "":
		e.Level = DetermineLevel(e.Word)
	}
	if d.Status != "" {
		e.Status = d.Status
		if d.Status == model.StatusNew {
			e.PracticeCount = 0
		}
	}
	s.persistVocabLocked(ctx)
	return true, nil
}

// Practice records a flashcard answer. A known answer counts one practice,
// moves new entries to learning, and masters the entry when the count
// reaches model.MasteryThreshold. promoted is true only on that transition.
func (s *Store) Practice(ctx context.Context, id string, known bool) (entry model.VocabEntry, promoted bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.entries, id)
	if idx < 0 {
		return model.VocabEntry{}, false, false
	}
	e := &s.entries[idx]
	if !known {
		return *e, false, true
	}
	e.PracticeCount++
	if e.Status == model.StatusNew {
		e.Status = model.StatusLearning
	}
	if e.PracticeCount >= model.MasteryThreshold && e.Status != model.StatusMastered {
		e.Status = model.StatusMastered
		promoted = true
	}
	s.persistVocabLocked(ctx)
	return *e, promoted, true
}

// Get returns the active entry with the given id.
func (s *Store) Get(id string) (model.VocabEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.entries, id)
	if idx < 0 {
		return model.VocabEntry{}, false
	}
	return s.entries[idx], true
}

// Find returns the active entry whose id or word matches ref. Ids win over
// words; word matching ignores case.
func (s *Store) Find(ref string) (model.VocabEntry, bool) {
	if e, ok := s.Get(ref); ok {
		return e, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if strings.EqualFold(e.Word, ref) {
			return e, true
		}
	}
	return model.VocabEntry{}, false
}

// FindTrashed is Find over the trash.
func (s *Store) FindTrashed(ref string) (model.VocabEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.trash {
		if e.ID == ref {
			return e, true
		}
	}
	for _, e := range s.trash {
		if strings.EqualFold(e.Word, ref) {
			return e, true
		}
	}
	return model.VocabEntry{}, false
}

// Entries returns a copy of the active list, newest first.
func (s *Store) Entries() []model.VocabEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.VocabEntry(nil), s.entries...)
}

// Trash returns a copy of the trash, most recently deleted first.
func (s *Store) Trash() []model.VocabEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.VocabEntry(nil), s.trash...)
}

// Counts returns the number of active and mastered entries.
func (s *Store) Counts() (total, mastered int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Status == model.StatusMastered {
			mastered++
		}
	}
	return len(s.entries), mastered
}

// Replace swaps the active list wholesale. Trashed entries whose ids appear
// in entries are dropped so each id lives in one list.
func (s *Store) Replace(ctx context.Context, entries []model.VocabEntry) {
	list := append([]model.VocabEntry(nil), entries...)
	for i := range list {
		normalize(&list[i])
	}
	ids := make(map[string]struct{}, len(list))
	for _, e := range list {
		ids[e.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearUndoLocked()
	s.entries = list
	kept := s.trash[:0]
	for _, e := range s.trash {
		if _, dup := ids[e.ID]; !dup {
			kept = append(kept, e)
		}
	}
	s.trash = kept
	s.persistVocabLocked(ctx)
	s.persistTrashLocked(ctx)
}

// Reset empties both lists and removes their records.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearUndoLocked()
	s.entries = nil
	s.trash = nil
	s.kv.Clear(ctx, kvs.Vocab)
	s.kv.Clear(ctx, kvs.Trash)
}

// Close cancels the undo timer.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearUndoLocked()
}

func (s *Store) persistVocabLocked(ctx context.Context) {
	list := s.entries
	if list == nil {
		list = []model.VocabEntry{}
	}
	s.kv.SetJSON(ctx, kvs.Vocab, kvs.DataKey, list)
}

func (s *Store) persistTrashLocked(ctx context.Context) {
	list := s.trash
	if list == nil {
		list = []model.VocabEntry{}
	}
	s.kv.SetJSON(ctx, kvs.Trash, kvs.DataKey, list)
}

func indexOf(list []model.VocabEntry, id string) int {
	for i, e := range list {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func insertAt(list []model.VocabEntry, i int, e model.VocabEntry) []model.VocabEntry {
	list = append(list, model.VocabEntry{})
	copy(list[i+1:], list[i:])
	list[i] = e
	return list
}
