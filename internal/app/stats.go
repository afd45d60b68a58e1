package app

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const tokenPunctuation = ".,!?;:()[]{}\"'"

var blankRuns = regexp.MustCompile(`\n\s*\n`)

// Stats summarizes an expansion for the status line
type Stats struct {
	Characters int
	Words      int
	Tokens     int
}

func (s Stats) String() string {
	return fmt.Sprintf("Characters: %d | Words: %d | Tokens: ~%d", s.Characters, s.Words, s.Tokens)
}

// ComputeStats counts characters (runes), whitespace separated words and
// estimated tokens of text.
func ComputeStats(text string) Stats {
	return Stats{
		Characters: utf8.RuneCountInString(text),
		Words:      len(strings.Fields(text)),
		Tokens:     EstimateTokens(text),
	}
}

// EstimateTokens is a rough tokenizer-free estimate: long words (more than
// 8 characters) count a quarter of their length but at least 2, other
// words count 1, and every punctuation character adds one. Never below 1.
func EstimateTokens(text string) int {
	count := 0
	for _, word := range strings.Fields(text) {
		if n := utf8.RuneCountInString(word); n > 8 {
			count += max(2, n/4)
		} else {
			count++
		}
		for _, r := range word {
			if strings.ContainsRune(tokenPunctuation, r) {
				count++
			}
		}
	}
	return max(1, count)
}

// PrepareInput trims the template, drops comment lines (trimmed text
// starting with '#') and folds runs of blank lines into one blank line.
func PrepareInput(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		kept = append(kept, line)
	}
	return blankRuns.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
}

// CollapseOutput folds every whitespace run into a single space.
func CollapseOutput(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
