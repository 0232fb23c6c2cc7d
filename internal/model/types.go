// Package model defines shared data structures.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Level is a CEFR proficiency level.
type Level string

// Proficiency levels.
const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// DefaultLevel is used when no level is supplied and the word is not in the lookup table.
const DefaultLevel = LevelB1

// Levels lists every proficiency level in ascending order.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	for _, known := range Levels {
		if l == known {
			return true
		}
	}
	return false
}

// ParseLevel normalizes user input such as "b2" into a Level.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	return l, l.Valid()
}

// Status is the learning state of a vocabulary entry.
type Status string

// Learning states.
const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusMastered Status = "mastered"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusLearning, StatusMastered:
		return true
	}
	return false
}

// ParseStatus normalizes user input into a Status.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}

// MasteryThreshold is the practice count that promotes an entry to mastered.
const MasteryThreshold = 10

// VocabEntry is a learnable word.
type VocabEntry struct {
	ID            string    `json:"id" validate:"required"`
	Word          string    `json:"word" validate:"required"`
	Meaning       string    `json:"meaning" validate:"required"`
	Example       string    `json:"example"`
	Synonyms      string    `json:"synonyms"`
	Level         Level     `json:"level" validate:"omitempty,oneof=A1 A2 B1 B2 C1 C2"`
	Status        Status    `json:"status" validate:"omitempty,oneof=new learning mastered"`
	PracticeCount int       `json:"practiceCount" validate:"min=0"`
	CreatedDate   time.Time `json:"createdDate"`
}

// ExampleSeparator joins multiple example sentences in VocabEntry.Example.
const ExampleSeparator = "|||"

// Example is a sentence with an optional translation.
type Example struct {
	Text        string
	Translation string
}

// JoinExamples encodes examples as "text (translation)" joined by ExampleSeparator.
func JoinExamples(examples []Example) string {
	parts := make([]string, 0, len(examples))
	for _, ex := range examples {
		text := strings.TrimSpace(ex.Text)
		if text == "" {
			continue
		}
		if tr := strings.TrimSpace(ex.Translation); tr != "" {
			text = text + " (" + tr + ")"
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, ExampleSeparator)
}

// SplitExamples decodes the Example field back into sentences.
func SplitExamples(s string) []Example {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []Example
	for _, part := range strings.Split(s, ExampleSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ex := Example{Text: part}
		if strings.HasSuffix(part, ")") {
			if idx := strings.LastIndex(part, " ("); idx > 0 {
				ex.Text = part[:idx]
				ex.Translation = part[idx+2 : len(part)-1]
			}
		}
		out = append(out, ex)
	}
	return out
}

// SplitMeanings splits a comma-joined meaning or synonym list.
func SplitMeanings(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// UndoToken holds the most recent delete until its deadline. Index is the
// entry's position in the active list before the delete.
type UndoToken struct {
	Kind     string
	Entry    VocabEntry
	Index    int
	Deadline time.Time
}

// UndoKindDelete marks a token produced by a delete.
const UndoKindDelete = "delete"

// ActivityType names a per-day activity counter.
type ActivityType string

// Known activity types.
const (
	ActivityVocab     ActivityType = "vocab"
	ActivityLearn     ActivityType = "learn"
	ActivityGame      ActivityType = "game"
	ActivityListening ActivityType = "listening"
	ActivityMastered  ActivityType = "mastered"
)

// ActivityTypes lists the known activity types in display order.
var ActivityTypes = []ActivityType{ActivityVocab, ActivityLearn, ActivityGame, ActivityListening, ActivityMastered}

// Valid reports whether a is a known activity type.
func (a ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if a == known {
			return true
		}
	}
	return false
}

// DayRecord holds per-day activity counters. Unknown keys are preserved.
type DayRecord map[string]int

// NewDayRecord returns a record with every known counter at zero.
func NewDayRecord() DayRecord {
	rec := make(DayRecord, len(ActivityTypes))
	for _, t := range ActivityTypes {
		rec[string(t)] = 0
	}
	return rec
}

// Total sums every counter in the record.
func (d DayRecord) Total() int {
	total := 0
	for _, v := range d {
		total += v
	}
	return total
}

// Active reports whether any counter is positive.
func (d DayRecord) Active() bool {
	for _, v := range d {
		if v > 0 {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts both the counter object and the older array-of-type-names form.
func (d *DayRecord) UnmarshalJSON(data []byte) error {
	var counters map[string]int
	if err := json.Unmarshal(data, &counters); err == nil {
		rec := NewDayRecord()
		for k, v := range counters {
			rec[k] = v
		}
		*d = rec
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	rec := NewDayRecord()
	for _, name := range names {
		if ActivityType(name).Valid() {
			rec[name] = 1
		}
	}
	*d = rec
	return nil
}

// Time flag names.
const (
	FlagEarlyBird      = "earlyBird"
	FlagNightOwl       = "nightOwl"
	FlagWeekendWarrior = "weekendWarrior"
)

// ProgressState is the singleton progress record.
type ProgressState struct {
	Name                 string               `json:"name"`
	Level                int                  `json:"level" validate:"min=0"`
	Points               int                  `json:"points" validate:"min=0"`
	TotalVocab           int                  `json:"totalVocab" validate:"min=0"`
	MasteredVocab        int                  `json:"masteredVocab" validate:"min=0"`
	CurrentStreak        int                  `json:"currentStreak" validate:"min=0"`
	LongestStreak        int                  `json:"longestStreak" validate:"min=0"`
	LastPracticeDate     *time.Time           `json:"lastPracticeDate"`
	ActivityLog          map[string]DayRecord `json:"activityLog"`
	TotalActivityCounts  map[string]int       `json:"totalActivityCounts" validate:"dive,min=0"`
	TimeFlags            map[string]bool      `json:"timeFlags"`
	BestRecords          map[string]int       `json:"bestRecords" validate:"dive,min=0"`
	UnlockedAchievements []string             `json:"unlockedAchievements"`
}

// DefaultProgress returns the state of a fresh install.
func DefaultProgress() ProgressState {
	return ProgressState{
		Name:                 "Learner",
		Level:                1,
		ActivityLog:          map[string]DayRecord{},
		TotalActivityCounts:  map[string]int{},
		TimeFlags:            map[string]bool{},
		BestRecords:          map[string]int{},
		UnlockedAchievements: []string{},
	}
}

// Normalize backfills nil maps so older records behave like fresh ones.
func (p *ProgressState) Normalize() {
	if p.ActivityLog == nil {
		p.ActivityLog = map[string]DayRecord{}
	}
	if p.TotalActivityCounts == nil {
		p.TotalActivityCounts = map[string]int{}
	}
	if p.TimeFlags == nil {
		p.TimeFlags = map[string]bool{}
	}
	if p.BestRecords == nil {
		p.BestRecords = map[string]int{}
	}
	if p.UnlockedAchievements == nil {
		p.UnlockedAchievements = []string{}
	}
}

// Clone returns a deep copy.
func (p ProgressState) Clone() ProgressState {
	out := p
	if p.LastPracticeDate != nil {
		t := *p.LastPracticeDate
		out.LastPracticeDate = &t
	}
	out.ActivityLog = make(map[string]DayRecord, len(p.ActivityLog))
	for day, rec := range p.ActivityLog {
		cp := make(DayRecord, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out.ActivityLog[day] = cp
	}
	out.TotalActivityCounts = make(map[string]int, len(p.TotalActivityCounts))
	for k, v := range p.TotalActivityCounts {
		out.TotalActivityCounts[k] = v
	}
	out.TimeFlags = make(map[string]bool, len(p.TimeFlags))
	for k, v := range p.TimeFlags {
		out.TimeFlags[k] = v
	}
	out.BestRecords = make(map[string]int, len(p.BestRecords))
	for k, v := range p.BestRecords {
		out.BestRecords[k] = v
	}
	out.UnlockedAchievements = append([]string{}, p.UnlockedAchievements...)
	return out
}

// Settings holds user preferences.
type Settings struct {
	ReminderTime  string `json:"reminderTime" validate:"omitempty,datetime=15:04"`
	Notifications bool   `json:"notifications"`
	Theme         string `json:"theme" validate:"omitempty,oneof=light dark"`
	VoiceType     string `json:"voiceType" validate:"omitempty,oneof=female male mixed"`
	DailyGoal     int    `json:"dailyGoal" validate:"min=0,max=1000"`
	FontSize      string `json:"fontSize" validate:"omitempty,oneof=S M L"`
	AutoPlayAudio bool   `json:"autoPlayAudio"`
	APIKey        string `json:"geminiApiKey,omitempty"`
}

// DefaultSettings returns the defaults of a fresh install.
func DefaultSettings() Settings {
	return Settings{
		ReminderTime:  "09:00",
		Notifications: true,
		Theme:         "light",
		VoiceType:     "female",
		DailyGoal:     10,
		FontSize:      "M",
		AutoPlayAudio: false,
	}
}
