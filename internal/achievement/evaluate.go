package achievement

import "github.com/verte-zerg/lingoquest/internal/model"

// Games tracked in best records.
const (
	GameDefinition      = "definition"
	GameWordScramble    = "wordScramble"
	GameWordMatch       = "wordMatch"
	GameSpeedTyping     = "speedTyping"
	GameSentenceBuilder = "sentenceBuilder"
	GameHangman         = "hangman"
)

// ScoredGames contribute to the high score. Hangman records a time and is
// excluded.
var ScoredGames = []string{GameDefinition, GameWordScramble, GameWordMatch, GameSpeedTyping, GameSentenceBuilder}

// LowerIsBetter reports whether a smaller score is a better record for game.
func LowerIsBetter(game string) bool {
	return game == GameHangman
}

// Stats is the snapshot rules are evaluated against.
type Stats struct {
	TotalVocab      int
	MasteredVocab   int
	CurrentStreak   int
	LongestStreak   int
	ActivityCounts  map[string]int
	BestRecords     map[string]int
	HighScore       int
	TimeFlags       map[string]bool
	TotalDaysActive int
	UnlockedCount   int
}

// BuildStats derives the snapshot from progress state.
func BuildStats(p model.ProgressState) Stats {
	high := 0
	for _, g := range ScoredGames {
		if v := p.BestRecords[g]; v > high {
			high = v
		}
	}
	counts := make(map[string]int, len(p.TotalActivityCounts))
	for k, v := range p.TotalActivityCounts {
		counts[k] = v
	}
	return Stats{
		TotalVocab:      p.TotalVocab,
		MasteredVocab:   p.MasteredVocab,
		CurrentStreak:   p.CurrentStreak,
		LongestStreak:   p.LongestStreak,
		ActivityCounts:  counts,
		BestRecords:     p.BestRecords,
		HighScore:       high,
		TimeFlags:       p.TimeFlags,
		TotalDaysActive: len(p.ActivityLog),
		UnlockedCount:   len(p.UnlockedAchievements),
	}
}

// Value returns the statistic named by m.
func (s Stats) Value(m Metric) int {
	switch m {
	case MetricTotalVocab:
		return s.TotalVocab
	case MetricMasteredVocab:
		return s.MasteredVocab
	case MetricLongestStreak:
		return s.LongestStreak
	case MetricLearn:
		return s.ActivityCounts[string(model.ActivityLearn)]
	case MetricGame:
		return s.ActivityCounts[string(model.ActivityGame)]
	case MetricListening:
		return s.ActivityCounts[string(model.ActivityListening)]
	case MetricDaysActive:
		return s.TotalDaysActive
	case MetricUnlocked:
		return s.UnlockedCount
	case MetricHighScore:
		return s.HighScore
	}
	return 0
}

// Evaluate returns rules that hold for s and are not yet unlocked, in
// catalogue order.
func Evaluate(rules []Rule, unlocked []string, s Stats) []Rule {
	have := make(map[string]struct{}, len(unlocked))
	for _, id := range unlocked {
		have[id] = struct{}{}
	}
	var out []Rule
	for _, r := range rules {
		if _, ok := have[r.ID]; ok {
			continue
		}
		if r.Satisfied(s) {
			out = append(out, r)
			have[r.ID] = struct{}{}
		}
	}
	return out
}

// Merge appends the ids of newly unlocked rules to unlocked, skipping ids
// already present.
func Merge(unlocked []string, rules []Rule) []string {
	have := make(map[string]struct{}, len(unlocked))
	for _, id := range unlocked {
		have[id] = struct{}{}
	}
	out := append([]string{}, unlocked...)
	for _, r := range rules {
		if _, ok := have[r.ID]; ok {
			continue
		}
		have[r.ID] = struct{}{}
		out = append(out, r.ID)
	}
	return out
}

// Series is progress through one tiered series.
type Series struct {
	Name     string
	Title    string
	Metric   Metric
	Current  int
	Unlocked int
	Total    int
	Next     *Rule
	Percent  float64
}

// SeriesProgress summarises each tiered series for display.
func SeriesProgress(rules []Rule, unlocked []string, s Stats) []Series {
	have := make(map[string]struct{}, len(unlocked))
	for _, id := range unlocked {
		have[id] = struct{}{}
	}
	index := map[string]int{}
	var out []Series
	for _, r := range rules {
		if r.Series == SpecialSeries || r.Series == "" {
			continue
		}
		i, ok := index[r.Series]
		if !ok {
			i = len(out)
			index[r.Series] = i
			out = append(out, Series{
				Name:    r.Series,
				Title:   SeriesTitle(r.Series),
				Metric:  r.Metric,
				Current: s.Value(r.Metric),
			})
		}
		sr := &out[i]
		sr.Total++
		if _, ok := have[r.ID]; ok {
			sr.Unlocked++
			continue
		}
		if sr.Next == nil {
			next := r
			sr.Next = &next
		}
	}
	for i := range out {
		sr := &out[i]
		if sr.Next == nil {
			sr.Percent = 100
			continue
		}
		if sr.Next.Threshold > 0 {
			p := float64(sr.Current*100) / float64(sr.Next.Threshold)
			if p > 100 {
				p = 100
			}
			sr.Percent = p
		}
	}
	return out
}
