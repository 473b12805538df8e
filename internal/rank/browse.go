package rank

import (
	"context"

	"github.com/renoworks/pricing-engine/internal/model"
	"github.com/renoworks/pricing-engine/internal/textutil"
)

// Category browsing skips semantic ranking entirely, so results carry a flat
// similarity and a MEDIUM tier rather than a computed score.
const browseScore = 0.8

// BrowseCategory returns up to limit materials whose name or description
// mentions one of the category's material keywords. Keyword matching is
// accent-insensitive. An empty keyword list yields an empty result.
func (r *Ranker) BrowseCategory(ctx context.Context, keywords []string, region string, limit int) ([]model.ScoredMaterial, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = r.cfg.MaxResults
	}

	candidates, err := r.store.FindMaterials(ctx, model.SearchFilters{Region: region}, limit*r.cfg.OverfetchFactor)
	if err != nil {
		return nil, err
	}

	results := make([]model.ScoredMaterial, 0, limit)
	for _, m := range candidates {
		text := m.Name + " " + m.Description
		for _, kw := range keywords {
			if textutil.ContainsFold(text, kw) {
				results = append(results, model.ScoredMaterial{
					Material:        m,
					SimilarityScore: browseScore,
					ConfidenceScore: browseScore,
					Tier:            model.TierMedium,
				})
				break
			}
		}
		if len(results) == limit {
			break
		}
	}
	return results, nil
}
