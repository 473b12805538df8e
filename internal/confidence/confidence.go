// Package confidence combines semantic, regional, price and vendor signals
// into a single weighted confidence score per material.
package confidence

import (
	"context"
	"math"

	"github.com/renoworks/pricing-engine/internal/config"
	"github.com/renoworks/pricing-engine/internal/model"
	"github.com/renoworks/pricing-engine/internal/textutil"
	"github.com/renoworks/pricing-engine/internal/vendortrust"
)

// Engine computes weighted confidence scores. Stateless apart from the vendor
// trust lookup; safe for concurrent use.
type Engine struct {
	weights config.ConfidenceConfig
	trust   *vendortrust.Service
}

// New creates a confidence engine. Weights are assumed validated at config
// load (they sum to 1.0).
func New(weights config.ConfidenceConfig, trust *vendortrust.Service) *Engine {
	return &Engine{weights: weights, trust: trust}
}

// Score returns the combined confidence for a material given its semantic
// similarity to the query and the requested region. Output is in [0,1].
func (e *Engine) Score(ctx context.Context, m model.Material, similarity float64, region string) float64 {
	score := clamp01(similarity) * e.weights.SemanticWeight
	score += regionalScore(region, m.Region) * e.weights.RegionalWeight
	score += priceScore(m.UnitPrice) * e.weights.PriceWeight
	score += e.trust.Score(ctx, m.Vendor) * e.weights.VendorWeight

	return clamp01(score)
}

// ScoreMaterial wraps Score and attaches the tier classification.
func (e *Engine) ScoreMaterial(ctx context.Context, m model.Material, similarity float64, region string) model.ScoredMaterial {
	conf := e.Score(ctx, m, similarity, region)
	return model.ScoredMaterial{
		Material:        m,
		SimilarityScore: clamp01(similarity),
		ConfidenceScore: conf,
		Tier:            model.TierFor(conf),
	}
}

// regionalScore rates how well the material's region matches the requested
// one. Comparison is case-insensitive after accent folding so "ile-de-france"
// matches "Île-de-France". No requested region means no contribution.
func regionalScore(requested, materialRegion string) float64 {
	if requested == "" {
		return 0
	}
	if textutil.EqualFold(requested, materialRegion) {
		return 1.0
	}
	if materialRegion != "" &&
		(textutil.ContainsFold(materialRegion, requested) || textutil.ContainsFold(requested, materialRegion)) {
		return 0.7
	}
	return 0
}

// priceScore is a coarse sanity band, not a market model: prices in the
// plausible renovation range score full marks, extreme outliers are penalized.
func priceScore(unitPrice float64) float64 {
	switch {
	case unitPrice >= 0.1 && unitPrice <= 1000:
		return 1.0
	case unitPrice >= 0.01 && unitPrice <= 10000:
		return 0.7
	default:
		return 0.3
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
