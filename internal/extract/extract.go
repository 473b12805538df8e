// Package extract infers renovation tasks from a free-text transcript:
// keyword extraction, category classification and material binding.
package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/renoworks/pricing-engine/internal/config"
	"github.com/renoworks/pricing-engine/internal/model"
	"github.com/renoworks/pricing-engine/internal/textutil"
)

// classifyOrder fixes the category iteration order so extraction output is
// deterministic regardless of config map iteration.
var classifyOrder = []model.TaskCategory{
	model.CategoryTiling,
	model.CategoryPainting,
	model.CategoryPlumbing,
	model.CategoryElectrical,
	model.CategoryCarpentry,
}

// Searcher is the material lookup the extractor runs per keyword.
type Searcher interface {
	Search(ctx context.Context, query string, filters model.SearchFilters, limit int) ([]model.ScoredMaterial, error)
}

// TaskDraft is one inferred work category with its bound materials, before
// pricing.
type TaskDraft struct {
	Category  model.TaskCategory
	Materials []model.ScoredMaterial
	Duration  string
}

// Extractor turns transcripts into task drafts.
type Extractor struct {
	searcher Searcher
	cfg      config.TaskConfig
}

// New creates an Extractor.
func New(searcher Searcher, cfg config.TaskConfig) *Extractor {
	return &Extractor{searcher: searcher, cfg: cfg}
}

// Extract infers tasks from a transcript. It never fails: per-keyword search
// errors are logged and skipped, and a transcript matching no category yields
// a single general task holding everything that was retrieved.
func (e *Extractor) Extract(ctx context.Context, transcript, region string) []TaskDraft {
	normalized := textutil.Normalize(transcript)
	keywords := textutil.Keywords(normalized, e.cfg.MaxKeywords)

	// Accumulate materials across keywords. Duplicates are kept: a material
	// matching two keywords is a stronger candidate, not a bug.
	var retrieved []model.ScoredMaterial
	for _, kw := range keywords {
		results, err := e.searcher.Search(ctx, kw, model.SearchFilters{Region: region}, e.cfg.MaterialsPerKeyword)
		if err != nil {
			zap.L().Warn("material search failed for keyword, skipping",
				zap.String("keyword", kw), zap.Error(err))
			continue
		}
		retrieved = append(retrieved, results...)
	}

	var drafts []TaskDraft
	for _, category := range classifyOrder {
		cat, ok := e.cfg.Categories[string(category)]
		if !ok || !matchesCategory(keywords, cat.TranscriptKeywords) {
			continue
		}
		materials := bindMaterials(retrieved, cat.MaterialKeywords)
		drafts = append(drafts, TaskDraft{
			Category:  category,
			Materials: materials,
			Duration:  e.estimateDuration(category, len(materials)),
		})
	}

	if len(drafts) == 0 {
		drafts = append(drafts, TaskDraft{
			Category:  model.CategoryGeneral,
			Materials: retrieved,
			Duration:  e.estimateDuration(model.CategoryGeneral, len(retrieved)),
		})
	}

	return drafts
}

// Fallback returns the degraded single-task result used when extraction
// cannot run at all.
func (e *Extractor) Fallback() []TaskDraft {
	return []TaskDraft{{
		Category: model.CategoryGeneral,
		Duration: e.estimateDuration(model.CategoryGeneral, 0),
	}}
}

// matchesCategory reports whether any extracted keyword contains any of the
// category's transcript keywords ("tiles" matches family keyword "tile").
func matchesCategory(keywords, family []string) bool {
	for _, kw := range keywords {
		for _, fam := range family {
			if strings.Contains(kw, fam) {
				return true
			}
		}
	}
	return false
}

// bindMaterials keeps the retrieved materials whose name or description
// mentions one of the category's material keywords. The binding list is
// deliberately different from the classification list: a bathroom transcript
// implies tiling work, but "bathroom" is not a material.
func bindMaterials(retrieved []model.ScoredMaterial, materialKeywords []string) []model.ScoredMaterial {
	var bound []model.ScoredMaterial
	for _, m := range retrieved {
		text := strings.ToLower(m.Name + " " + m.Description)
		for _, kw := range materialKeywords {
			if strings.Contains(text, kw) {
				bound = append(bound, m)
				break
			}
		}
	}
	return bound
}

// estimateDuration is a coarse per-category base, bumped by a day for
// material-heavy tasks.
func (e *Extractor) estimateDuration(category model.TaskCategory, materialCount int) string {
	days := 1
	if cat, ok := e.cfg.Categories[string(category)]; ok && cat.BaseDurationDays > 0 {
		days = cat.BaseDurationDays
	}
	if materialCount > 5 {
		days++
	}

	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
