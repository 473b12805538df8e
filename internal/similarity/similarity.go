// Package similarity provides vector math over fixed-length embeddings.
// All functions are pure and safe for concurrent use.
package similarity

import "math"

// Cosine returns the cosine similarity of two vectors, clamped to [0, 1].
// Mismatched lengths and zero-norm vectors yield 0 rather than an error:
// malformed stored embeddings must degrade, not abort a search.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return clamp01(sim)
}

// Euclidean returns the Euclidean distance between two vectors. Mismatched
// lengths and empty inputs yield +Inf, so an unusable pair ranks behind every
// comparable one instead of aborting.
func Euclidean(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
