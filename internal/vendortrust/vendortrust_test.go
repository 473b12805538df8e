package vendortrust

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renoworks/pricing-engine/internal/model"
	"github.com/renoworks/pricing-engine/internal/store"
)

// mockStore implements store.Store for testing; only the vendor methods do work.
type mockStore struct {
	store.Store

	reliability map[string]*model.VendorReliability
	lookupErr   error
	recorded    []string
}

func (m *mockStore) GetVendorReliability(_ context.Context, vendor string) (*model.VendorReliability, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.reliability[vendor], nil
}

func (m *mockStore) RecordVendorOutcome(_ context.Context, vendor string, accepted bool) (*model.VendorReliability, error) {
	m.recorded = append(m.recorded, vendor)
	vr := m.reliability[vendor]
	if vr == nil {
		vr = &model.VendorReliability{VendorName: vendor}
		if m.reliability == nil {
			m.reliability = map[string]*model.VendorReliability{}
		}
		m.reliability[vendor] = vr
	}
	vr.TotalQuotes++
	if accepted {
		vr.AcceptedQuotes++
	}
	vr.ReliabilityScore = float64(vr.AcceptedQuotes) / float64(vr.TotalQuotes)
	return vr, nil
}

func testPriors() map[string]float64 {
	return map[string]float64{
		"leroy merlin": 0.9,
		"castorama":    0.85,
		"brico depot":  0.8,
		"weldom":       0.75,
	}
}

func TestScore_UsesStaticPriorWithoutHistory(t *testing.T) {
	svc := New(&mockStore{}, testPriors(), 0.5)

	assert.InDelta(t, 0.9, svc.Score(context.Background(), "Leroy Merlin"), 1e-9)
	assert.InDelta(t, 0.85, svc.Score(context.Background(), "castorama"), 1e-9)
}

func TestScore_SubstringMatchesPrior(t *testing.T) {
	svc := New(&mockStore{}, testPriors(), 0.5)

	// Catalog vendor fields carry branch suffixes.
	assert.InDelta(t, 0.75, svc.Score(context.Background(), "Weldom Rennes Centre"), 1e-9)
}

func TestScore_UnknownOrEmptyVendor(t *testing.T) {
	svc := New(&mockStore{}, testPriors(), 0.5)

	assert.InDelta(t, 0.5, svc.Score(context.Background(), "quincaillerie dupont"), 1e-9)
	assert.InDelta(t, 0.5, svc.Score(context.Background(), ""), 1e-9)
	assert.InDelta(t, 0.5, svc.Score(context.Background(), "   "), 1e-9)
}

func TestScore_HistoryBeatsPrior(t *testing.T) {
	st := &mockStore{reliability: map[string]*model.VendorReliability{
		"castorama": {VendorName: "castorama", ReliabilityScore: 0.25, TotalQuotes: 4, AcceptedQuotes: 1},
	}}
	svc := New(st, testPriors(), 0.5)

	assert.InDelta(t, 0.25, svc.Score(context.Background(), "Castorama"), 1e-9)
}

func TestScore_EmptyHistoryFallsBackToPrior(t *testing.T) {
	st := &mockStore{reliability: map[string]*model.VendorReliability{
		"castorama": {VendorName: "castorama", TotalQuotes: 0},
	}}
	svc := New(st, testPriors(), 0.5)

	assert.InDelta(t, 0.85, svc.Score(context.Background(), "castorama"), 1e-9)
}

func TestScore_StoreErrorDegradesToPrior(t *testing.T) {
	st := &mockStore{lookupErr: assert.AnError}
	svc := New(st, testPriors(), 0.5)

	assert.InDelta(t, 0.9, svc.Score(context.Background(), "leroy merlin"), 1e-9)
}

func TestScore_NilStoreUsesPriors(t *testing.T) {
	svc := New(nil, testPriors(), 0.5)

	assert.InDelta(t, 0.8, svc.Score(context.Background(), "Brico Depot"), 1e-9)
}

func TestRecordOutcome_CanonicalizesVendor(t *testing.T) {
	st := &mockStore{}
	svc := New(st, testPriors(), 0.5)

	vr, err := svc.RecordOutcome(context.Background(), "  Castorama ", true)
	require.NoError(t, err)
	assert.Equal(t, "castorama", vr.VendorName)
	assert.Equal(t, []string{"castorama"}, st.recorded)
}
