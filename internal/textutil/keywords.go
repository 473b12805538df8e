package textutil

import "strings"

// stopWords lists words carrying no material signal. Matches are dropped
// before frequency ranking.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"being": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {},
	"did": {}, "will": {}, "would": {}, "could": {}, "should": {}, "may": {},
	"might": {}, "can": {}, "this": {}, "that": {}, "these": {}, "those": {},
}

// Keywords extracts up to limit keywords from normalized text, ranked by
// frequency. Stop words and words of length <= 2 are dropped. Frequency ties
// keep first-seen order so extraction is deterministic.
func Keywords(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	counts := make(map[string]int)
	var order []string
	for _, word := range strings.Fields(text) {
		if _, stop := stopWords[word]; stop || len(word) <= 2 {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	// Stable sort by descending count over first-seen order.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && counts[order[j]] > counts[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	if limit > len(order) {
		limit = len(order)
	}
	return order[:limit]
}

// Similarity estimates how well a query matches a material's name and
// description without embeddings. An exact substring hit scores 0.9; word
// overlap scores up to 0.7; no overlap scores 0.
func Similarity(query, name, description string) float64 {
	query = strings.ToLower(query)
	name = strings.ToLower(name)
	description = strings.ToLower(description)

	if query == "" {
		return 0
	}
	if strings.Contains(name, query) || strings.Contains(description, query) {
		return 0.9
	}

	queryWords := wordSet(query)
	if len(queryWords) == 0 {
		return 0
	}

	nameOverlap := overlapRatio(queryWords, wordSet(name))
	descOverlap := overlapRatio(queryWords, wordSet(description))

	best := nameOverlap
	if descOverlap > best {
		best = descOverlap
	}
	return best * 0.7
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

func overlapRatio(query, target map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	var hits int
	for w := range query {
		if _, ok := target[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
