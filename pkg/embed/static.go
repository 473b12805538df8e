package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// StaticClient embeds text deterministically without any network dependency.
// Each word hashes into a fixed bucket, so texts sharing words produce nearby
// vectors. Used in tests and offline tooling; not a substitute for a real
// embedding model.
type StaticClient struct {
	dims int
}

// NewStatic creates a deterministic local embedder.
func NewStatic(dims int) *StaticClient {
	if dims <= 0 {
		dims = 768
	}
	return &StaticClient{dims: dims}
}

func (s *StaticClient) Dimensions() int {
	return s.dims
}

func (s *StaticClient) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, s.dims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[int(h.Sum32())%s.dims] += 1.0
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func (s *StaticClient) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}
