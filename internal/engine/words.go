package engine

import "strings"

// SplitIntoWords breaks text into tokens on runs of whitespace. Empty
// input yields an empty slice.
func SplitIntoWords(text string) []string {
	return strings.Fields(text)
}

// IsValidWord reports whether word is free of control characters. Any
// rune below the space character (0x00..0x1F) makes the word invalid;
// no other restriction is imposed.
func IsValidWord(word string) bool {
	for _, r := range word {
		if r < ' ' {
			return false
		}
	}
	return true
}

// uniqueNonEmpty deduplicates words into a set, dropping empty strings.
func uniqueNonEmpty(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}
