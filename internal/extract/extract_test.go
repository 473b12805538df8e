package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renoworks/pricing-engine/internal/config"
	"github.com/renoworks/pricing-engine/internal/model"
)

// mapSearcher returns canned results per query keyword.
type mapSearcher struct {
	results map[string][]model.ScoredMaterial
	err     error
	queries []string
}

func (m *mapSearcher) Search(_ context.Context, query string, _ model.SearchFilters, _ int) ([]model.ScoredMaterial, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.results[query], nil
}

func scoredMaterial(name string) model.ScoredMaterial {
	return model.ScoredMaterial{
		Material:        model.Material{Name: name, UnitPrice: 10},
		ConfidenceScore: 0.8,
	}
}

func testTaskConfig() config.TaskConfig {
	return config.TaskConfig{
		MaxKeywords:         10,
		MaterialsPerKeyword: 3,
		Categories:          config.DefaultCategories(),
		BaseQuantities:      config.DefaultBaseQuantities(),
	}
}

func TestExtract_ClassifiesTilingFromBathroomTranscript(t *testing.T) {
	searcher := &mapSearcher{results: map[string][]model.ScoredMaterial{
		"tiles":    {scoredMaterial("ceramic tile 30x30")},
		"bathroom": {scoredMaterial("tile adhesive")},
	}}
	e := New(searcher, testTaskConfig())

	drafts := e.Extract(context.Background(), "Install new tiles in the bathroom", "Bretagne")

	// "bathroom" is also a plumbing transcript keyword, so two categories
	// classify; only tiling binds the retrieved materials.
	require.Len(t, drafts, 2)
	assert.Equal(t, model.CategoryTiling, drafts[0].Category)
	require.Len(t, drafts[0].Materials, 2)
	assert.Equal(t, "2 days", drafts[0].Duration)
	assert.Equal(t, model.CategoryPlumbing, drafts[1].Category)
	assert.Empty(t, drafts[1].Materials)
}

func TestExtract_BindingListIsNotClassificationList(t *testing.T) {
	// "bathroom" classifies the transcript as tiling but must not bind a
	// material named "bathroom mirror" to the task.
	searcher := &mapSearcher{results: map[string][]model.ScoredMaterial{
		"bathroom": {scoredMaterial("bathroom mirror"), scoredMaterial("ceramic tile")},
	}}
	e := New(searcher, testTaskConfig())

	drafts := e.Extract(context.Background(), "renovate the bathroom completely", "")

	require.NotEmpty(t, drafts)
	assert.Equal(t, model.CategoryTiling, drafts[0].Category)
	require.Len(t, drafts[0].Materials, 1)
	assert.Equal(t, "ceramic tile", drafts[0].Materials[0].Name)
}

func TestExtract_MultipleCategoriesInFixedOrder(t *testing.T) {
	searcher := &mapSearcher{results: map[string][]model.ScoredMaterial{
		"paint": {scoredMaterial("wall paint")},
		"pipe":  {scoredMaterial("copper pipe")},
	}}
	e := New(searcher, testTaskConfig())

	drafts := e.Extract(context.Background(), "paint the walls and replace the pipe", "")

	// "walls" also matches tiling's "wall" family keyword; categories come
	// out in classifyOrder with only their own materials bound.
	require.Len(t, drafts, 3)
	assert.Equal(t, model.CategoryTiling, drafts[0].Category)
	assert.Empty(t, drafts[0].Materials)
	assert.Equal(t, model.CategoryPainting, drafts[1].Category)
	require.Len(t, drafts[1].Materials, 1)
	assert.Equal(t, "wall paint", drafts[1].Materials[0].Name)
	assert.Equal(t, model.CategoryPlumbing, drafts[2].Category)
	require.Len(t, drafts[2].Materials, 1)
	assert.Equal(t, "copper pipe", drafts[2].Materials[0].Name)
}

func TestExtract_NoCategoryMatchFallsBackToGeneral(t *testing.T) {
	searcher := &mapSearcher{results: map[string][]model.ScoredMaterial{
		"garden": {scoredMaterial("gravel 20kg")},
	}}
	e := New(searcher, testTaskConfig())

	drafts := e.Extract(context.Background(), "tidy the garden area", "")

	require.Len(t, drafts, 1)
	assert.Equal(t, model.CategoryGeneral, drafts[0].Category)
	require.Len(t, drafts[0].Materials, 1)
	assert.Equal(t, "1 day", drafts[0].Duration)
}

func TestExtract_SearchErrorsAreSkipped(t *testing.T) {
	searcher := &mapSearcher{err: assert.AnError}
	e := New(searcher, testTaskConfig())

	drafts := e.Extract(context.Background(), "install new tiles everywhere", "")

	require.Len(t, drafts, 1)
	assert.Equal(t, model.CategoryTiling, drafts[0].Category)
	assert.Empty(t, drafts[0].Materials)
}

func TestExtract_DurationBumpForMaterialHeavyTask(t *testing.T) {
	many := make([]model.ScoredMaterial, 6)
	for i := range many {
		many[i] = scoredMaterial("wall paint tin")
	}
	searcher := &mapSearcher{results: map[string][]model.ScoredMaterial{
		"paint": many,
	}}
	e := New(searcher, testTaskConfig())

	drafts := e.Extract(context.Background(), "paint everything", "")

	require.Len(t, drafts, 1)
	assert.Equal(t, model.CategoryPainting, drafts[0].Category)
	assert.Len(t, drafts[0].Materials, 6)
	assert.Equal(t, "2 days", drafts[0].Duration)
}

func TestExtract_StopWordsAndShortWordsNotSearched(t *testing.T) {
	searcher := &mapSearcher{}
	e := New(searcher, testTaskConfig())

	e.Extract(context.Background(), "the paint is on a wall", "")

	assert.NotContains(t, searcher.queries, "the")
	assert.NotContains(t, searcher.queries, "is")
	assert.NotContains(t, searcher.queries, "on")
	assert.Contains(t, searcher.queries, "paint")
	assert.Contains(t, searcher.queries, "wall")
}

func TestFallback_SingleGeneralTask(t *testing.T) {
	e := New(&mapSearcher{}, testTaskConfig())

	drafts := e.Fallback()

	require.Len(t, drafts, 1)
	assert.Equal(t, model.CategoryGeneral, drafts[0].Category)
	assert.Empty(t, drafts[0].Materials)
	assert.Equal(t, "1 day", drafts[0].Duration)
}
