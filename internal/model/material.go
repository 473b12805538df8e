// Package model defines the domain entities shared across the pricing engine.
package model

import "time"

// ConfidenceTier is a discrete bucket derived from a continuous confidence score.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "HIGH"
	TierMedium ConfidenceTier = "MEDIUM"
	TierLow    ConfidenceTier = "LOW"
)

// TierFor maps a confidence score to its tier. Thresholds: HIGH >= 0.8,
// MEDIUM >= 0.6, LOW otherwise.
func TierFor(confidence float64) ConfidenceTier {
	switch {
	case confidence >= 0.8:
		return TierHigh
	case confidence >= 0.6:
		return TierMedium
	default:
		return TierLow
	}
}

// Material is a catalog row as read from storage. It is a read-only snapshot
// for a single ranking pass; the store owns the canonical record.
type Material struct {
	ID           int64     `json:"id"`
	Name         string    `json:"material_name"`
	Description  string    `json:"description"`
	UnitPrice    float64   `json:"unit_price"`
	Unit         string    `json:"unit"`
	Region       string    `json:"region"`
	Vendor       string    `json:"vendor,omitempty"`
	QualityScore int       `json:"quality_score,omitempty"` // 1-10, 0 = unrated
	Embedding    []float64 `json:"-"`                       // precomputed vector, may be nil
	SourceURL    string    `json:"source,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ScoredMaterial is a Material annotated with ranking scores for one search.
type ScoredMaterial struct {
	Material
	SimilarityScore float64        `json:"similarity_score"` // 0-1 semantic match
	ConfidenceScore float64        `json:"confidence_score"` // 0-1 combined score
	Tier            ConfidenceTier `json:"confidence_tier"`
}

// SearchFilters narrows the candidate set fetched from storage. Zero values
// mean "no filter".
type SearchFilters struct {
	Region       string  `json:"region,omitempty"`
	Unit         string  `json:"unit,omitempty"`
	QualityScore int     `json:"quality_score,omitempty"` // minimum
	Vendor       string  `json:"vendor,omitempty"`
	MinPrice     float64 `json:"min_price,omitempty"`
	MaxPrice     float64 `json:"max_price,omitempty"`
}
