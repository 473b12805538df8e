// Package rank retrieves material candidates from storage and orders them by
// confidence for a query.
package rank

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/renoworks/pricing-engine/internal/confidence"
	"github.com/renoworks/pricing-engine/internal/config"
	"github.com/renoworks/pricing-engine/internal/model"
	"github.com/renoworks/pricing-engine/internal/similarity"
	"github.com/renoworks/pricing-engine/internal/store"
	"github.com/renoworks/pricing-engine/internal/textutil"
	"github.com/renoworks/pricing-engine/pkg/embed"
)

// Ranker scores and orders materials for a search query.
type Ranker struct {
	store    store.Store
	embedder embed.Client
	engine   *confidence.Engine
	cfg      config.SearchConfig
}

// New creates a Ranker.
func New(st store.Store, embedder embed.Client, engine *confidence.Engine, cfg config.SearchConfig) *Ranker {
	return &Ranker{store: st, embedder: embedder, engine: engine, cfg: cfg}
}

// Search returns the top-limit materials for the query, ordered by confidence
// descending. Storage filtering does no semantic reasoning, so candidates are
// over-fetched and reranked here. Embedding provider failures degrade to a
// keyword similarity fallback; an empty candidate set is a valid empty result,
// not an error.
func (r *Ranker) Search(ctx context.Context, query string, filters model.SearchFilters, limit int) ([]model.ScoredMaterial, error) {
	if limit <= 0 {
		limit = r.cfg.MaxResults
	}

	normalized := textutil.Normalize(query)

	overfetch := limit * r.cfg.OverfetchFactor
	candidates, err := r.store.FindMaterials(ctx, filters, overfetch)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	queryVec := r.embedQuery(ctx, normalized)

	scored := make([]model.ScoredMaterial, 0, len(candidates))
	for _, m := range candidates {
		sim := r.similarityScore(queryVec, normalized, m)
		scored = append(scored, r.engine.ScoreMaterial(ctx, m, sim, filters.Region))
	}

	// Ties keep storage (id) order so results are deterministic.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].ConfidenceScore > scored[j].ConfidenceScore
	})

	if limit > len(scored) {
		limit = len(scored)
	}
	return scored[:limit], nil
}

// embedQuery returns the query vector, or nil when the provider is
// unavailable or the query is blank. A nil vector switches scoring to the
// keyword fallback.
func (r *Ranker) embedQuery(ctx context.Context, normalized string) []float64 {
	if normalized == "" {
		return nil
	}

	vec, err := r.embedder.Embed(ctx, normalized)
	if err != nil {
		zap.L().Warn("query embedding failed, falling back to keyword similarity", zap.Error(err))
		return nil
	}
	return vec
}

func (r *Ranker) similarityScore(queryVec []float64, query string, m model.Material) float64 {
	if queryVec != nil && len(m.Embedding) > 0 {
		return similarity.Cosine(queryVec, m.Embedding)
	}
	return textutil.Similarity(query, m.Name, m.Description)
}
