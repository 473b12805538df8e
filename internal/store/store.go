// Package store persists the material catalog, generated quotes and feedback.
// Two backends implement the same interface: Postgres for deployments and
// SQLite for local use and tooling.
package store

import (
	"context"

	"github.com/renoworks/pricing-engine/internal/model"
)

// Store defines the persistence interface for the pricing engine.
//
// Lookups return (nil, nil) when the row does not exist; callers decide
// whether a miss is an error or a degraded default.
type Store interface {
	// Materials
	FindMaterials(ctx context.Context, filters model.SearchFilters, limit int) ([]model.Material, error)
	GetMaterial(ctx context.Context, id int64) (*model.Material, error)
	InsertMaterial(ctx context.Context, m *model.Material) (int64, error)
	BulkInsertMaterials(ctx context.Context, materials []model.Material) (int64, error)
	UpdateMaterialEmbedding(ctx context.Context, id int64, embedding []float64) error
	ListMaterialsWithoutEmbedding(ctx context.Context, limit int) ([]model.Material, error)

	// Quotes. InsertQuote writes the quote and its per-material usage rows in
	// one transaction; a quote either exists with full vendor attribution or
	// not at all.
	InsertQuote(ctx context.Context, q *model.Quote) error
	GetQuote(ctx context.Context, id string) (*model.Quote, error)
	ListQuotes(ctx context.Context, filter model.QuoteFilter) ([]model.Quote, error)

	// Feedback
	InsertFeedback(ctx context.Context, fb *model.Feedback) error
	ListFeedback(ctx context.Context, quoteID string) ([]model.Feedback, error)
	FeedbackAnalytics(ctx context.Context) (*model.FeedbackAnalytics, error)

	// Vendor reliability. RecordVendorOutcome upserts atomically so counts
	// never go backwards under concurrent feedback.
	GetVendorReliability(ctx context.Context, vendor string) (*model.VendorReliability, error)
	RecordVendorOutcome(ctx context.Context, vendor string, accepted bool) (*model.VendorReliability, error)

	// Regional pricing
	GetRegionalMultiplier(ctx context.Context, region string) (*model.RegionalPricing, error)
	SeedRegionalPricing(ctx context.Context, multipliers map[string]float64) error
	InsertRegionAdjustment(ctx context.Context, adj *model.RegionAdjustment) error
	ListRegionAdjustments(ctx context.Context, region string, limit int) ([]model.RegionAdjustment, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
