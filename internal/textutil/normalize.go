// Package textutil implements the text heuristics behind material search:
// normalization, keyword extraction and a keyword-overlap similarity used
// when no embedding is available.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters and digits are matched as Unicode classes, not \w: French input is
// full of accented letters and they must survive normalization.
var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_\s\-.,!?]`)

// accentFolder strips combining marks after NFD decomposition so accented
// French input matches its ASCII spelling ("Île" ~ "ile").
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize prepares raw text for keyword extraction and embedding: trims,
// collapses whitespace, lowercases and strips characters outside word/space
// and basic punctuation.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = strings.Join(strings.Fields(text), " ")
	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, "")

	return text
}

// FoldAccents returns s with diacritics removed. Falls back to the input
// unchanged if the transform fails on malformed UTF-8.
func FoldAccents(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// EqualFold reports whether two strings match case-insensitively after
// accent folding.
func EqualFold(a, b string) bool {
	return strings.EqualFold(FoldAccents(a), FoldAccents(b))
}

// ContainsFold reports whether s contains substr case-insensitively after
// accent folding.
func ContainsFold(s, substr string) bool {
	return strings.Contains(
		strings.ToLower(FoldAccents(s)),
		strings.ToLower(FoldAccents(substr)),
	)
}
