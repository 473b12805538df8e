package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmbedServer serves deterministic 4-dim vectors and counts requests.
func newEmbedServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := embeddingResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, embeddingData{
				Index:     i,
				Embedding: []float64{float64(i), 1, 2, 3},
			})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestClient_EmbedBatch(t *testing.T) {
	var requests atomic.Int32
	srv := newEmbedServer(t, &requests)
	defer srv.Close()

	c := NewClient("test-key", "jina-embeddings-v3", 4,
		WithBaseURL(srv.URL), WithRequestsPerMinute(100000))

	vectors, err := c.EmbedBatch(context.Background(), []string{"ceramic tile", "wall paint"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float64{0, 1, 2, 3}, vectors[0])
	assert.Equal(t, []float64{1, 1, 2, 3}, vectors[1])

	// Warmup plus the real batch.
	assert.Equal(t, int32(2), requests.Load())
}

func TestClient_Embed_BatchSplitting(t *testing.T) {
	var requests atomic.Int32
	srv := newEmbedServer(t, &requests)
	defer srv.Close()

	c := NewClient("test-key", "jina-embeddings-v3", 4,
		WithBaseURL(srv.URL), WithBatchSize(2), WithRequestsPerMinute(100000))

	vectors, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, vectors, 5)

	// Warmup plus ceil(5/2) batches.
	assert.Equal(t, int32(4), requests.Load())
}

func TestClient_RetriesOnTransientStatus(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var req embeddingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := embeddingResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, embeddingData{Index: i, Embedding: []float64{1, 2}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := &httpClient{
		apiKey:    "test-key",
		model:     "jina-embeddings-v3",
		dims:      2,
		baseURL:   srv.URL,
		batchSize: 32,
		http:      srv.Client(),
	}
	WithRequestsPerMinute(100000)(c)
	c.warmOnce.Do(func() {}) // skip warmup so attempt counting is exact

	vec, err := c.Embed(context.Background(), "copper pipe")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, vec)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestClient_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := &httpClient{
		apiKey:    "bad-key",
		model:     "jina-embeddings-v3",
		dims:      4,
		baseURL:   srv.URL,
		batchSize: 32,
		http:      srv.Client(),
	}
	WithRequestsPerMinute(100000)(c)
	c.warmOnce.Do(func() {})

	_, err := c.Embed(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 401")
}

func TestClient_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{{Index: 0, Embedding: []float64{1, 2, 3}}},
		})
	}))
	defer srv.Close()

	c := &httpClient{
		apiKey:    "test-key",
		model:     "jina-embeddings-v3",
		dims:      4,
		baseURL:   srv.URL,
		batchSize: 32,
		http:      srv.Client(),
	}
	WithRequestsPerMinute(100000)(c)
	c.warmOnce.Do(func() {})

	_, err := c.Embed(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dims")
}

func TestStaticClient_Deterministic(t *testing.T) {
	s := NewStatic(64)

	a, err := s.Embed(context.Background(), "ceramic tile for bathroom")
	require.NoError(t, err)
	b, err := s.Embed(context.Background(), "ceramic tile for bathroom")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestStaticClient_EmptyTextIsZeroVector(t *testing.T) {
	s := NewStatic(8)

	vec, err := s.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 8), vec)
}
