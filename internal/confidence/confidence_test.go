package confidence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/renoworks/pricing-engine/internal/config"
	"github.com/renoworks/pricing-engine/internal/model"
	"github.com/renoworks/pricing-engine/internal/vendortrust"
)

func testWeights() config.ConfidenceConfig {
	return config.ConfidenceConfig{
		SemanticWeight: 0.40,
		RegionalWeight: 0.25,
		PriceWeight:    0.20,
		VendorWeight:   0.15,
	}
}

func newTestEngine() *Engine {
	trust := vendortrust.New(nil, config.DefaultVendorPriors(), config.UnknownVendorScore)
	return New(testWeights(), trust)
}

func TestScore_AllSignalsPerfect(t *testing.T) {
	e := newTestEngine()

	m := model.Material{
		Name:      "ceramic tile",
		UnitPrice: 25.5,
		Region:    "Bretagne",
		Vendor:    "leroy merlin",
	}
	score := e.Score(context.Background(), m, 1.0, "Bretagne")

	// 1.0*0.40 + 1.0*0.25 + 1.0*0.20 + 0.9*0.15
	assert.InDelta(t, 0.985, score, 1e-9)
}

func TestScore_NoRegionRequested(t *testing.T) {
	e := newTestEngine()

	m := model.Material{UnitPrice: 25.5, Region: "Bretagne", Vendor: "leroy merlin"}
	score := e.Score(context.Background(), m, 1.0, "")

	// Regional contributes nothing when no region is requested.
	assert.InDelta(t, 0.40+0.20+0.9*0.15, score, 1e-9)
}

func TestScore_RegionAccentFold(t *testing.T) {
	e := newTestEngine()

	m := model.Material{UnitPrice: 25.5, Region: "Île-de-France", Vendor: ""}
	score := e.Score(context.Background(), m, 0, "ile-de-france")

	// 1.0*0.25 regional + 1.0*0.20 price + 0.5*0.15 unknown vendor
	assert.InDelta(t, 0.25+0.20+0.075, score, 1e-9)
}

func TestScore_RegionSubstring(t *testing.T) {
	e := newTestEngine()

	m := model.Material{UnitPrice: 25.5, Region: "Bretagne Sud"}
	score := e.Score(context.Background(), m, 0, "Bretagne")

	assert.InDelta(t, 0.7*0.25+0.20+0.075, score, 1e-9)
}

func TestScore_RegionMismatch(t *testing.T) {
	e := newTestEngine()

	m := model.Material{UnitPrice: 25.5, Region: "Corse"}
	score := e.Score(context.Background(), m, 0, "Bretagne")

	assert.InDelta(t, 0.20+0.075, score, 1e-9)
}

func TestScore_PriceBands(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	cases := []struct {
		name  string
		price float64
		want  float64
	}{
		{"plausible low edge", 0.1, 1.0},
		{"plausible high edge", 1000, 1.0},
		{"tolerable low", 0.05, 0.7},
		{"tolerable high", 5000, 0.7},
		{"implausible zero", 0, 0.3},
		{"implausible huge", 50000, 0.3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := model.Material{UnitPrice: tc.price}
			score := e.Score(ctx, m, 0, "")
			assert.InDelta(t, tc.want*0.20+0.5*0.15, score, 1e-9)
		})
	}
}

func TestScore_ClampsToUnitInterval(t *testing.T) {
	e := newTestEngine()

	m := model.Material{UnitPrice: 25.5, Region: "Bretagne", Vendor: "leroy merlin"}
	score := e.Score(context.Background(), m, 5.0, "Bretagne")

	assert.LessOrEqual(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.0)
}

func TestScoreMaterial_Tiers(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	m := model.Material{UnitPrice: 25.5, Region: "Bretagne", Vendor: "leroy merlin"}

	high := e.ScoreMaterial(ctx, m, 1.0, "Bretagne")
	assert.Equal(t, model.TierHigh, high.Tier)

	low := e.ScoreMaterial(ctx, model.Material{UnitPrice: 50000}, 0.1, "Bretagne")
	assert.Equal(t, model.TierLow, low.Tier)
	assert.InDelta(t, 0.1, low.SimilarityScore, 1e-9)
}
