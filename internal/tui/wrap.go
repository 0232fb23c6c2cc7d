package tui

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes styles text with the highlight style on every word
// matched by highlightMask.
func buildStyledRunes(text []rune, highlight string) []styledRune {
	marked := highlightMask(text, highlight)
	out := make([]styledRune, 0, len(text))
	for i, r := range text {
		style := exampleStyle
		if marked[i] {
			style = highlightStyle
		}
		out = append(out, styledRune{
			s:       style.Render(string(r)),
			width:   runewidth.RuneWidth(r),
			isSpace: r == ' ',
		})
	}
	return out
}

// highlightMask marks the runes of every word that starts with highlight,
// ignoring case and leading punctuation.
func highlightMask(text []rune, highlight string) []bool {
	marked := make([]bool, len(text))
	needle := []rune(strings.ToLower(strings.TrimSpace(highlight)))
	if len(needle) == 0 {
		return marked
	}
	for _, w := range findWords(text) {
		start := w.start
		for start < w.end && !unicode.IsLetter(text[start]) && !unicode.IsDigit(text[start]) {
			start++
		}
		if !hasFoldedPrefix(text[start:w.end], needle) {
			continue
		}
		for i := start; i < w.end; i++ {
			marked[i] = true
		}
	}
	return marked
}

func hasFoldedPrefix(word, prefix []rune) bool {
	if len(word) < len(prefix) {
		return false
	}
	for i, r := range prefix {
		if unicode.ToLower(word[i]) != r {
			return false
		}
	}
	return true
}

type wordRange struct {
	start int
	end   int
}

func findWords(text []rune) []wordRange {
	words := []wordRange{}
	start := -1
	for i, r := range text {
		if r == ' ' {
			if start != -1 {
				words = append(words, wordRange{start: start, end: i})
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		words = append(words, wordRange{start: start, end: len(text)})
	}
	return words
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at the last space that fits in width and
// hard-breaks words longer than a line.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func wrapText(text, highlight string, width int) string {
	return wrapStyledRunes(buildStyledRunes([]rune(text), highlight), width)
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
