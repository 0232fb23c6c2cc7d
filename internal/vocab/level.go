package vocab

import (
	"strings"

	"github.com/verte-zerg/lingoquest/internal/model"
)

var knownLevels = map[string]model.Level{
	"apple": model.LevelA1, "book": model.LevelA1, "cat": model.LevelA1, "dog": model.LevelA1, "eat": model.LevelA1,
	"beautiful": model.LevelA2, "change": model.LevelA2, "doctor": model.LevelA2, "future": model.LevelA2,
	"analysis": model.LevelB1, "behavior": model.LevelB1, "concept": model.LevelB1, "data": model.LevelB1,
	"achievement": model.LevelB2, "complicated": model.LevelB2, "evaluation": model.LevelB2,
	"adaptation": model.LevelC1, "complexity": model.LevelC1, "hypothesis": model.LevelC1,
	"ephemeral": model.LevelC2, "serendipity": model.LevelC2, "quintessential": model.LevelC2,
}

// DetermineLevel looks word up in the built-in level table, falling back to
// model.DefaultLevel.
func DetermineLevel(word string) model.Level {
	if l, ok := knownLevels[strings.ToLower(strings.TrimSpace(word))]; ok {
		return l
	}
	return model.DefaultLevel
}
