// Package textnorm normalizes free-text phrases for comparison.
//
// Display names and search phrases coming out of a chat conversation carry
// arbitrary casing and punctuation; matching only ever happens between the
// normalized word sets produced here.
package textnorm

import (
	"regexp"
	"sort"
	"strings"
)

// nonWord matches every rune that is neither a word character
// (Unicode letter, digit, underscore) nor whitespace.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// Words returns the set of lowercase tokens in s.
//
// Punctuation and symbols are stripped, the remainder is lowercased and split
// on whitespace runs. Empty input yields an empty set. Lowercasing is plain
// Unicode case mapping; no diacritic folding is performed.
func Words(s string) map[string]struct{} {
	set := make(map[string]struct{})
	if s == "" {
		return set
	}
	cleaned := strings.ToLower(nonWord.ReplaceAllString(s, ""))
	for _, w := range strings.Fields(cleaned) {
		set[w] = struct{}{}
	}
	return set
}

// Intersection returns the number of tokens present in both sets.
func Intersection(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}

// Join renders a word set as a deterministic space-separated string.
// Useful for logging and for normalization idempotence checks.
func Join(set map[string]struct{}) string {
	words := make([]string, 0, len(set))
	for w := range set {
		words = append(words, w)
	}
	sort.Strings(words)
	return strings.Join(words, " ")
}
