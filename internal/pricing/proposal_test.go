package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renoworks/pricing-engine/internal/extract"
	"github.com/renoworks/pricing-engine/internal/model"
	"github.com/renoworks/pricing-engine/internal/store"
)

// mockStore implements store.Store for testing; only the quote methods do work.
type mockStore struct {
	store.Store

	inserted  *model.Quote
	insertErr error
}

func (m *mockStore) InsertQuote(_ context.Context, q *model.Quote) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	m.inserted = q
	return nil
}

func (m *mockStore) GetQuote(_ context.Context, id string) (*model.Quote, error) {
	if m.inserted != nil && m.inserted.ID == id {
		return m.inserted, nil
	}
	return nil, nil
}

// tileSearcher returns one tile material for tile-ish keywords.
type tileSearcher struct{}

func (tileSearcher) Search(_ context.Context, query string, _ model.SearchFilters, _ int) ([]model.ScoredMaterial, error) {
	if query != "tiles" && query != "tile" {
		return nil, nil
	}
	return []model.ScoredMaterial{{
		Material: model.Material{
			ID: 7, Name: "ceramic tile", UnitPrice: 20, Unit: "m2", Vendor: "castorama",
		},
		SimilarityScore: 0.9,
		ConfidenceScore: 0.8,
	}}, nil
}

func newTestService(st *mockStore) *Service {
	extractor := extract.New(tileSearcher{}, testTaskConfig())
	calc := New(testPricingConfig(), testTaskConfig(), nil)
	return NewService(extractor, calc, st)
}

func TestGenerateProposal_EndToEnd(t *testing.T) {
	st := &mockStore{}
	svc := newTestService(st)

	quote, err := svc.GenerateProposal(context.Background(),
		"install new tiles in the bathroom", "Île-de-France", "renovation", model.UserContractor)
	require.NoError(t, err)
	require.NotNil(t, quote)
	require.Same(t, quote, st.inserted)
	assert.NotEmpty(t, quote.ID)

	// bathroom classifies both tiling and plumbing
	require.Len(t, quote.Tasks, 2)
	tiling := quote.Tasks[0]
	assert.Equal(t, model.CategoryTiling, tiling.Category)
	require.Len(t, tiling.Materials, 1)

	// Total always equals subtotal + VAT + margin.
	var subtotal float64
	for _, task := range quote.Tasks {
		for _, item := range task.Materials {
			subtotal += item.TotalPrice
		}
		subtotal += task.LaborCost
	}
	assert.InDelta(t, subtotal*(1+quote.VATRate+quote.MarginPercentage), quote.TotalEstimate, 1e-6)

	assert.InDelta(t, 0.10, quote.VATRate, 1e-9)
	assert.InDelta(t, 0.25, quote.MarginPercentage, 1e-9)
	assert.Equal(t, model.UserContractor, quote.UserType)
	assert.Equal(t, "Île-de-France", quote.Region)

	// Overall confidence is the mean of task confidences.
	want := (quote.Tasks[0].ConfidenceScore + quote.Tasks[1].ConfidenceScore) / 2
	assert.InDelta(t, want, quote.ConfidenceScore, 1e-9)
}

func TestGenerateProposal_MarginIsAdditive(t *testing.T) {
	st := &mockStore{}
	svc := newTestService(st)

	quote, err := svc.GenerateProposal(context.Background(),
		"install tiles", "", "", model.UserClient)
	require.NoError(t, err)

	for _, task := range quote.Tasks {
		var taskCost float64
		for _, item := range task.Materials {
			taskCost += item.TotalPrice
		}
		taskCost += task.LaborCost
		assert.GreaterOrEqual(t, task.MarginProtectedPrice, taskCost)
	}
}

func TestGenerateProposal_EmptyTranscript(t *testing.T) {
	svc := newTestService(&mockStore{})

	_, err := svc.GenerateProposal(context.Background(), "", "", "", model.UserClient)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty transcript")
}

func TestGenerateProposal_PersistErrorPropagates(t *testing.T) {
	st := &mockStore{insertErr: assert.AnError}
	svc := newTestService(st)

	_, err := svc.GenerateProposal(context.Background(),
		"install tiles", "", "", model.UserClient)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist quote")
}

func TestGetQuote_RoundTrip(t *testing.T) {
	st := &mockStore{}
	svc := newTestService(st)

	quote, err := svc.GenerateProposal(context.Background(),
		"install tiles", "", "", model.UserClient)
	require.NoError(t, err)

	got, err := svc.GetQuote(context.Background(), quote.ID)
	require.NoError(t, err)
	assert.Equal(t, quote, got)

	missing, err := svc.GetQuote(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
