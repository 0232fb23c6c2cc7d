// Package achievement defines the badge catalogue and evaluates it against
// progress statistics.
package achievement

import (
	"fmt"
	"sync"

	"github.com/verte-zerg/lingoquest/internal/model"
)

// Metric names a numeric statistic a tiered rule compares against.
type Metric string

// Metrics used by tiered rules.
const (
	MetricTotalVocab    Metric = "totalVocab"
	MetricMasteredVocab Metric = "masteredVocab"
	MetricLongestStreak Metric = "longestStreak"
	MetricLearn         Metric = "learn"
	MetricGame          Metric = "game"
	MetricListening     Metric = "listening"
	MetricDaysActive    Metric = "totalDaysActive"
	MetricUnlocked      Metric = "unlockedCount"
	MetricHighScore     Metric = "highScore"
)

// Rule is one unlockable achievement. Tiered rules compare Metric against
// Threshold; special rules carry their own predicate.
type Rule struct {
	ID          string
	Title       string
	Description string
	Series      string
	Tier        int
	Metric      Metric
	Threshold   int

	check func(Stats) bool
}

// Satisfied reports whether the rule holds for s.
func (r Rule) Satisfied(s Stats) bool {
	if r.check != nil {
		return r.check(s)
	}
	return s.Value(r.Metric) >= r.Threshold
}

type series struct {
	name   string
	title  string
	metric Metric
	levels []int
	desc   func(n int) string
}

var seriesDefs = []series{
	{
		name: "vocab_collector", title: "Word Collector", metric: MetricTotalVocab,
		levels: []int{1, 5, 10, 15, 20, 25, 30, 40, 50, 60, 70, 80, 90, 100, 120, 140, 160, 180, 200, 250, 300, 350, 400, 450, 500, 600, 700, 800, 900, 1000, 1200, 1400, 1600, 1800, 2000, 2500, 3000, 3500, 4000, 5000},
		desc:   func(n int) string { return fmt.Sprintf("Add %d words to your collection.", n) },
	},
	{
		name: "scholar", title: "Scholar Level", metric: MetricLearn,
		levels: []int{1, 5, 10, 15, 20, 25, 30, 40, 50, 60, 75, 100, 125, 150, 200, 250, 300, 350, 400, 500, 600, 700, 800, 900, 1000, 1250, 1500, 1750, 2000, 2500},
		desc:   func(n int) string { return fmt.Sprintf("Complete %d learning sessions.", n) },
	},
	{
		name: "streak_master", title: "Streak Master", metric: MetricLongestStreak,
		levels: []int{3, 5, 7, 10, 14, 21, 30, 40, 45, 50, 60, 75, 90, 100, 120, 150, 180, 200, 250, 300, 365, 400, 450, 500, 600, 700, 800, 900, 1000, 1500},
		desc:   func(n int) string { return fmt.Sprintf("Reach a %d-day learning streak.", n) },
	},
	{
		name: "mastermind", title: "Mastermind", metric: MetricMasteredVocab,
		levels: []int{1, 5, 10, 15, 20, 25, 30, 40, 50, 60, 75, 100, 125, 150, 200, 250, 300, 350, 400, 500, 600, 700, 800, 900, 1000, 1200, 1500, 2000, 2500, 3000},
		desc:   func(n int) string { return fmt.Sprintf("Master %d words.", n) },
	},
	{
		name: "gamer", title: "Player", metric: MetricGame,
		levels: []int{1, 5, 10, 20, 30, 40, 50, 75, 100, 150, 200, 250, 300, 400, 500, 600, 700, 800, 900, 1000},
		desc:   func(n int) string { return fmt.Sprintf("Play %d learning games.", n) },
	},
	{
		name: "listener", title: "Listener", metric: MetricListening,
		levels: []int{10, 30, 60, 100, 150, 200, 300, 400, 500, 600, 800, 1000, 1500, 2000, 2500, 3000, 4000, 5000, 7500, 10000},
		desc:   func(n int) string { return fmt.Sprintf("Listen for %d minutes total.", n) },
	},
	{
		name: "dedicated", title: "Loyal User", metric: MetricDaysActive,
		levels: []int{3, 7, 14, 21, 30, 45, 60, 90, 100, 120, 150, 180, 200, 250, 300, 365, 400, 500, 600, 730},
		desc:   func(n int) string { return fmt.Sprintf("Log in on %d different days.", n) },
	},
	{
		name: "meta_unlock", title: "Trophy Hunter", metric: MetricUnlocked,
		levels: []int{5, 10, 20, 30, 40, 50, 75, 100, 125, 150, 160, 170, 180, 190, 200},
		desc:   func(n int) string { return fmt.Sprintf("Unlock %d other achievements.", n) },
	},
}

// SpecialSeries groups the one-off rules.
const SpecialSeries = "special"

func flag(name string) func(Stats) bool {
	return func(s Stats) bool { return s.TimeFlags[name] }
}

func best(game string, min int) func(Stats) bool {
	return func(s Stats) bool { return s.BestRecords[game] >= min }
}

func threshold(id, title, desc string, metric Metric, n int) Rule {
	return Rule{ID: id, Title: title, Description: desc, Series: SpecialSeries, Metric: metric, Threshold: n}
}

func specials() []Rule {
	return []Rule{
		{ID: "early_bird", Title: "Early Bird", Description: "Complete a session between 5 AM and 8 AM.", Series: SpecialSeries, check: flag(model.FlagEarlyBird)},
		{ID: "night_owl", Title: "Night Owl", Description: "Complete a session between 10 PM and 2 AM.", Series: SpecialSeries, check: flag(model.FlagNightOwl)},
		{ID: "weekend_warrior", Title: "Weekend Warrior", Description: "Practice on Saturday or Sunday.", Series: SpecialSeries, check: flag(model.FlagWeekendWarrior)},
		threshold("high_scorer_20", "High Scorer", "Score over 20 points in any game.", MetricHighScore, 20),
		threshold("high_scorer_40", "Elite Gamer", "Score over 40 points in a game.", MetricHighScore, 40),
		threshold("membara_beginner", "Spark of Ambition", "Reach a 7 day streak to ignite the flame.", MetricLongestStreak, 7),
		threshold("membara_intermediate", "Blazing Dedication", "Keep the fire alive with a 30 day streak.", MetricLongestStreak, 30),
		threshold("membara_advanced", "Inferno Master", "A scorching 100 day streak!", MetricLongestStreak, 100),
		threshold("vocab_glutton", "Word Eater", "Devour 500 words into your collection.", MetricTotalVocab, 500),
		threshold("game_addict", "Game Addict", "Complete 50 game sessions.", MetricGame, 50),
		{ID: "game_explorer", Title: "Game Explorer", Description: "Play at least 3 different types of games.", Series: SpecialSeries, Threshold: 3,
			check: func(s Stats) bool { return len(s.BestRecords) >= 3 }},
		{ID: "speed_demon", Title: "Speed Demon", Description: "Type 25+ words in Speed Typing.", Series: SpecialSeries, Threshold: 25, check: best(GameSpeedTyping, 25)},
		{ID: "word_wizard", Title: "Word Wizard", Description: "Unscramble 20+ words in 60s.", Series: SpecialSeries, Threshold: 20, check: best(GameWordScramble, 20)},
		{ID: "match_maker", Title: "Match Maker", Description: "Match 20+ pairs in Word Match.", Series: SpecialSeries, Threshold: 20, check: best(GameWordMatch, 20)},
		{ID: "context_king", Title: "Context King", Description: "Build 15+ sentences in Sentence Builder.", Series: SpecialSeries, Threshold: 15, check: best(GameSentenceBuilder, 15)},
		{ID: "quick_saver", Title: "Quick Saver", Description: "Win a Hangman game in under 45 seconds.", Series: SpecialSeries, Threshold: 45,
			check: func(s Stats) bool {
				v, ok := s.BestRecords[GameHangman]
				return ok && v > 0 && v <= 45
			}},
	}
}

var (
	catalogueOnce sync.Once
	catalogue     []Rule
	byID          map[string]Rule
)

func build() {
	for _, def := range seriesDefs {
		for i, n := range def.levels {
			catalogue = append(catalogue, Rule{
				ID:          fmt.Sprintf("%s_%d", def.name, n),
				Title:       fmt.Sprintf("%s %d", def.title, i+1),
				Description: def.desc(n),
				Series:      def.name,
				Tier:        i + 1,
				Metric:      def.metric,
				Threshold:   n,
			})
		}
	}
	catalogue = append(catalogue, specials()...)
	byID = make(map[string]Rule, len(catalogue))
	for _, r := range catalogue {
		byID[r.ID] = r
	}
}

// Rules returns the full catalogue in evaluation order. Callers must not
// modify the returned slice.
func Rules() []Rule {
	catalogueOnce.Do(build)
	return catalogue
}

// Lookup returns the rule with the given id.
func Lookup(id string) (Rule, bool) {
	catalogueOnce.Do(build)
	r, ok := byID[id]
	return r, ok
}

// SeriesNames lists tiered series in display order.
func SeriesNames() []string {
	out := make([]string, 0, len(seriesDefs))
	for _, def := range seriesDefs {
		out = append(out, def.name)
	}
	return out
}

// SeriesTitle returns the display title of a tiered series.
func SeriesTitle(name string) string {
	for _, def := range seriesDefs {
		if def.name == name {
			return def.title
		}
	}
	return name
}
