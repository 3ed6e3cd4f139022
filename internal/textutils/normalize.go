// Package textutils normalizes free-text transaction notes before they are
// tokenized for the category classifier.
package textutils

import (
	"regexp"
	"strings"
)

var (
	nonLetters = regexp.MustCompile(`[^a-z\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Normalize cleans a transaction note for the classifier. Training and
// prediction must both go through this function: the output is lower-case
// a-z words separated by single spaces. Every other character (digits,
// currency symbols, punctuation, accented letters) becomes a word break.
//
// An empty result means the note carries no signal.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = nonLetters.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// HasSignal reports whether text normalizes to something non-empty.
func HasSignal(text string) bool {
	return Normalize(text) != ""
}

// Tokens splits normalized text into words.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}
