package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renoworks/pricing-engine/internal/confidence"
	"github.com/renoworks/pricing-engine/internal/config"
	"github.com/renoworks/pricing-engine/internal/extract"
	"github.com/renoworks/pricing-engine/internal/feedback"
	"github.com/renoworks/pricing-engine/internal/model"
	"github.com/renoworks/pricing-engine/internal/pricing"
	"github.com/renoworks/pricing-engine/internal/rank"
	"github.com/renoworks/pricing-engine/internal/store"
	"github.com/renoworks/pricing-engine/internal/vendortrust"
	"github.com/renoworks/pricing-engine/pkg/embed"
)

// newTestEnv wires the whole engine on a throwaway SQLite database with the
// deterministic local embedder.
func newTestEnv(t *testing.T) *appEnv {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "pricing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.SeedRegionalPricing(ctx, config.DefaultRegionalMultipliers()))

	_, err = st.BulkInsertMaterials(ctx, []model.Material{
		{Name: "ceramic tile 30x30", Description: "glazed floor tile", UnitPrice: 24.9, Unit: "m2", Region: "Bretagne", Vendor: "Castorama", QualityScore: 7},
		{Name: "tile adhesive 25kg", Description: "cement based adhesive", UnitPrice: 18.5, Unit: "bag", Region: "Bretagne", Vendor: "Leroy Merlin", QualityScore: 6},
		{Name: "wall paint 10L", Description: "matte interior paint", UnitPrice: 42.0, Unit: "L", Region: "Normandie", Vendor: "Brico Depot", QualityScore: 5},
	})
	require.NoError(t, err)

	searchCfg := config.SearchConfig{MaxResults: 20, SimilarityThreshold: 0.7, OverfetchFactor: 3}
	confCfg := config.ConfidenceConfig{SemanticWeight: 0.40, RegionalWeight: 0.25, PriceWeight: 0.20, VendorWeight: 0.15}
	pricingCfg := config.PricingConfig{
		BaseMargin:          0.25,
		VATRenovation:       0.10,
		VATNewBuild:         0.20,
		RegionalMultipliers: config.DefaultRegionalMultipliers(),
	}
	taskCfg := config.TaskConfig{
		MaxKeywords:         10,
		MaterialsPerKeyword: 3,
		Categories:          config.DefaultCategories(),
		BaseQuantities:      config.DefaultBaseQuantities(),
	}

	trust := vendortrust.New(st, config.DefaultVendorPriors(), config.UnknownVendorScore)
	engine := confidence.New(confCfg, trust)
	ranker := rank.New(st, embed.NewStatic(64), engine, searchCfg)

	extractor := extract.New(ranker, taskCfg)
	calc := pricing.New(pricingCfg, taskCfg, st)

	return &appEnv{
		Store:      st,
		Ranker:     ranker,
		Proposals:  pricing.NewService(extractor, calc, st),
		Learner:    feedback.NewLearner(st, trust),
		Categories: taskCfg.Categories,
	}
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestServe_Health(t *testing.T) {
	srv := httptest.NewServer(newRouter(newTestEnv(t)))
	defer srv.Close()

	resp, body := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestServe_MaterialPrice(t *testing.T) {
	srv := httptest.NewServer(newRouter(newTestEnv(t)))
	defer srv.Close()

	resp, body := doJSON(t, srv, http.MethodPost, "/material-price", map[string]any{
		"query":  "ceramic tile",
		"region": "Bretagne",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ceramic tile", body["query"])
	assert.NotZero(t, body["count"])

	results := body["results"].([]any)
	first := results[0].(map[string]any)
	assert.Equal(t, "ceramic tile 30x30", first["material_name"])
	assert.NotEmpty(t, first["confidence_tier"])
}

func TestServe_MaterialPriceValidation(t *testing.T) {
	srv := httptest.NewServer(newRouter(newTestEnv(t)))
	defer srv.Close()

	resp, body := doJSON(t, srv, http.MethodPost, "/material-price", map[string]any{"region": "Bretagne"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "query is required", body["error"])
}

func TestServe_MaterialsByCategory(t *testing.T) {
	srv := httptest.NewServer(newRouter(newTestEnv(t)))
	defer srv.Close()

	resp, body := doJSON(t, srv, http.MethodGet, "/materials/category/tiling", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "tiling", body["category"])
	assert.EqualValues(t, 2, body["count"])

	first := body["results"].([]any)[0].(map[string]any)
	assert.Equal(t, "ceramic tile 30x30", first["material_name"])
	assert.Equal(t, "MEDIUM", first["confidence_tier"])
}

func TestServe_MaterialsByCategory_Unknown(t *testing.T) {
	srv := httptest.NewServer(newRouter(newTestEnv(t)))
	defer srv.Close()

	resp, body := doJSON(t, srv, http.MethodGet, "/materials/category/roofing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "unknown category", body["error"])
}

func TestServe_ProposalAndFeedbackFlow(t *testing.T) {
	srv := httptest.NewServer(newRouter(newTestEnv(t)))
	defer srv.Close()

	resp, quote := doJSON(t, srv, http.MethodPost, "/generate-proposal", map[string]any{
		"transcript":   "install new tiles in the bathroom",
		"region":       "Bretagne",
		"project_type": "renovation",
		"user_type":    "contractor",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	quoteID := quote["quote_id"].(string)
	require.NotEmpty(t, quoteID)
	assert.NotEmpty(t, quote["tasks"])
	assert.InDelta(t, 0.10, quote["vat_rate"].(float64), 1e-9)

	resp, fetched := doJSON(t, srv, http.MethodGet, "/quotes/"+quoteID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, quoteID, fetched["quote_id"])

	resp, result := doJSON(t, srv, http.MethodPost, "/feedback", map[string]any{
		"quote_id":  quoteID,
		"user_type": "contractor",
		"verdict":   "overpriced",
		"comment":   "too expensive for the area",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, result["insights"])

	// overpriced regional feedback queues a decrease recommendation
	resp, adjustments := doJSON(t, srv, http.MethodGet, "/regions/Bretagne/adjustments", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotZero(t, adjustments["count"])
	first := adjustments["adjustments"].([]any)[0].(map[string]any)
	assert.Equal(t, "decrease", first["direction"])

	resp, listed := doJSON(t, srv, http.MethodGet, "/quotes/"+quoteID+"/feedback", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, listed["count"])

	resp, analytics := doJSON(t, srv, http.MethodGet, "/analytics/feedback", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, analytics["total_feedback"])
}

func TestServe_FeedbackUnknownQuote(t *testing.T) {
	srv := httptest.NewServer(newRouter(newTestEnv(t)))
	defer srv.Close()

	resp, body := doJSON(t, srv, http.MethodPost, "/feedback", map[string]any{
		"quote_id": "does-not-exist",
		"verdict":  "accepted",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "quote not found", body["error"])
}

func TestServe_FeedbackInvalidVerdict(t *testing.T) {
	srv := httptest.NewServer(newRouter(newTestEnv(t)))
	defer srv.Close()

	resp, body := doJSON(t, srv, http.MethodPost, "/feedback", map[string]any{
		"quote_id": "any",
		"verdict":  "shrug",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown verdict", body["error"])
}

func TestServe_GetQuoteNotFound(t *testing.T) {
	srv := httptest.NewServer(newRouter(newTestEnv(t)))
	defer srv.Close()

	resp, _ := doJSON(t, srv, http.MethodGet, "/quotes/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServe_ListQuotesFiltersByUserType(t *testing.T) {
	srv := httptest.NewServer(newRouter(newTestEnv(t)))
	defer srv.Close()

	resp, _ := doJSON(t, srv, http.MethodPost, "/generate-proposal", map[string]any{
		"transcript": "paint the walls",
		"user_type":  "architect",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, srv, http.MethodGet, "/quotes?user_type=architect", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["count"])

	resp, body = doJSON(t, srv, http.MethodGet, "/quotes?user_type=client", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["count"])
}
