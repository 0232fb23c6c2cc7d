// Package queue builds flashcard queues for learn sessions.
package queue

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/lingoquest/internal/model"
)

// DefaultCount is the session length used when none is given.
const DefaultCount = 5

// Builder produces randomized card queues.
type Builder struct {
	rnd *rand.Rand
}

// New returns a Builder seeded with the current time.
func New() *Builder {
	return &Builder{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeeded returns a Builder with a fixed seed.
func NewSeeded(seed int64) *Builder {
	return &Builder{rnd: rand.New(rand.NewSource(seed))}
}

// Build shuffles entries and repeats the shuffle until count cards are
// queued. A non-positive count means DefaultCount.
func (b *Builder) Build(entries []model.VocabEntry, count int) []model.VocabEntry {
	if len(entries) == 0 {
		return nil
	}
	if count <= 0 {
		count = DefaultCount
	}
	result := make([]model.VocabEntry, 0, count)
	for len(result) < count {
		shuffled := append([]model.VocabEntry(nil), entries...)
		b.rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		need := count - len(result)
		if need > len(shuffled) {
			need = len(shuffled)
		}
		result = append(result, shuffled[:need]...)
	}
	return result
}

// Weight returns the selection weight of e: entries with little practice
// weigh more, and mastered entries weigh least.
func Weight(e model.VocabEntry, factor float64) float64 {
	remaining := model.MasteryThreshold - e.PracticeCount
	if remaining < 0 {
		remaining = 0
	}
	w := 1.0 + float64(remaining)*factor
	if e.Status == model.StatusMastered {
		w = 1.0
	}
	return w
}

// BuildWeighted draws count cards with a bias toward weak entries. The
// same entry is never drawn twice in a row when there is a choice.
func (b *Builder) BuildWeighted(entries []model.VocabEntry, count int, factor float64) []model.VocabEntry {
	if len(entries) == 0 {
		return nil
	}
	if count <= 0 {
		count = DefaultCount
	}
	weights := make([]float64, len(entries))
	total := 0.0
	for i, e := range entries {
		w := Weight(e, factor)
		weights[i] = w
		total += w
	}

	result := make([]model.VocabEntry, 0, count)
	last := -1
	for len(result) < count {
		idx := b.pick(weights, total)
		if idx == last && len(entries) > 1 {
			continue
		}
		last = idx
		result = append(result, entries[idx])
	}
	return result
}

func (b *Builder) pick(weights []float64, total float64) int {
	r := b.rnd.Float64() * total
	acc := 0.0
	for j, w := range weights {
		acc += w
		if r <= acc {
			return j
		}
	}
	return len(weights) - 1
}
