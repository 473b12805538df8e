// Package pricing turns task drafts into priced tasks and proposal totals:
// quantity defaults, labor cost, regional adjustment, margin and VAT.
package pricing

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/renoworks/pricing-engine/internal/config"
	"github.com/renoworks/pricing-engine/internal/extract"
	"github.com/renoworks/pricing-engine/internal/model"
	"github.com/renoworks/pricing-engine/internal/textutil"
)

var digitsRe = regexp.MustCompile(`\d+`)

// MultiplierSource resolves persisted regional multipliers. Implemented by
// the store; nil means config-only lookup.
type MultiplierSource interface {
	GetRegionalMultiplier(ctx context.Context, region string) (*model.RegionalPricing, error)
}

// Calculator prices tasks. Stateless apart from the regional lookup; safe for
// concurrent use.
type Calculator struct {
	pricing config.PricingConfig
	tasks   config.TaskConfig
	regions MultiplierSource

	// quantityKeys is the sorted BaseQuantities key set, fixed at
	// construction so substring matching is deterministic.
	quantityKeys []string
}

// New creates a Calculator. regions may be nil.
func New(pricingCfg config.PricingConfig, taskCfg config.TaskConfig, regions MultiplierSource) *Calculator {
	keys := make([]string, 0, len(taskCfg.BaseQuantities))
	for k := range taskCfg.BaseQuantities {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &Calculator{
		pricing:      pricingCfg,
		tasks:        taskCfg,
		regions:      regions,
		quantityKeys: keys,
	}
}

// Totals aggregates a proposal's money and confidence figures.
type Totals struct {
	Subtotal     float64
	VATRate      float64
	VATAmount    float64
	MarginAmount float64
	Total        float64
	Confidence   float64
}

// PriceTask prices one task draft. Material totals carry the regional
// adjustment, so every stored figure is in local prices.
func (c *Calculator) PriceTask(ctx context.Context, draft extract.TaskDraft, region string) model.Task {
	multiplier := c.multiplier(ctx, region)
	cat := c.category(draft.Category)

	items := make([]model.MaterialItem, 0, len(draft.Materials))
	for _, m := range draft.Materials {
		quantity := c.estimateQuantity(m.Name)
		adjustedUnit := m.UnitPrice * multiplier
		items = append(items, model.MaterialItem{
			MaterialID:      m.ID,
			Name:            m.Name,
			Vendor:          m.Vendor,
			Quantity:        quantity,
			Unit:            m.Unit,
			UnitPrice:       adjustedUnit,
			TotalPrice:      adjustedUnit * quantity,
			ConfidenceScore: m.ConfidenceScore,
		})
	}

	var materialCost float64
	for _, item := range items {
		materialCost += item.TotalPrice
	}

	laborCost := durationHours(draft.Duration) * cat.LaborRate * multiplier

	return model.Task{
		Label:                c.label(cat, draft.Category, items),
		Category:             draft.Category,
		Materials:            items,
		EstimatedDuration:    draft.Duration,
		MarginProtectedPrice: (materialCost + laborCost) * (1 + c.pricing.BaseMargin),
		ConfidenceScore:      c.taskConfidence(items, cat),
		LaborCost:            laborCost,
	}
}

// FallbackTask is the degraded stand-in when pricing a task fails entirely.
func FallbackTask(category model.TaskCategory) model.Task {
	return model.Task{
		Label:                "General " + string(category),
		Category:             category,
		Materials:            nil,
		EstimatedDuration:    "1 day",
		MarginProtectedPrice: 100.0,
		ConfidenceScore:      0.5,
		LaborCost:            80.0,
	}
}

// Finalize computes proposal-level totals from priced tasks. The subtotal
// re-derives material+labor from the tasks' already-adjusted figures.
func (c *Calculator) Finalize(tasks []model.Task, projectType string) Totals {
	var subtotal float64
	for _, task := range tasks {
		for _, item := range task.Materials {
			subtotal += item.TotalPrice
		}
		subtotal += task.LaborCost
	}

	vatRate := c.pricing.VATRenovation
	if strings.Contains(strings.ToLower(projectType), "new") {
		vatRate = c.pricing.VATNewBuild
	}

	vatAmount := subtotal * vatRate
	marginAmount := subtotal * c.pricing.BaseMargin

	var confidence float64
	if len(tasks) > 0 {
		for _, task := range tasks {
			confidence += task.ConfidenceScore
		}
		confidence /= float64(len(tasks))
	}

	return Totals{
		Subtotal:     subtotal,
		VATRate:      vatRate,
		VATAmount:    vatAmount,
		MarginAmount: marginAmount,
		Total:        subtotal + vatAmount + marginAmount,
		Confidence:   confidence,
	}
}

// multiplier resolves the regional cost multiplier: persisted value first,
// config table second, 1.0 for unset or unknown regions. Lookup failures
// degrade, never abort pricing.
func (c *Calculator) multiplier(ctx context.Context, region string) float64 {
	if region == "" {
		return 1.0
	}

	if c.regions != nil {
		rp, err := c.regions.GetRegionalMultiplier(ctx, region)
		if err != nil {
			zap.L().Warn("regional multiplier lookup failed, using config table",
				zap.String("region", region), zap.Error(err))
		} else if rp != nil {
			return rp.Multiplier
		}
	}

	if m, ok := c.pricing.RegionalMultipliers[region]; ok {
		return m
	}
	// Accent-and-case-insensitive fallback so "ile-de-france" in a config
	// file still matches the canonical region name.
	for name, m := range c.pricing.RegionalMultipliers {
		if textutil.EqualFold(name, region) {
			return m
		}
	}
	return 1.0
}

func (c *Calculator) category(category model.TaskCategory) config.CategoryConfig {
	if cat, ok := c.tasks.Categories[string(category)]; ok {
		return cat
	}
	if cat, ok := c.tasks.Categories[string(model.CategoryGeneral)]; ok {
		return cat
	}
	// No usable category table at all; price as unskilled general work.
	return config.CategoryConfig{Label: "General Renovation", LaborRate: 40, BaseDurationDays: 1, Confidence: 0.5}
}

// estimateQuantity is a fixed lookup by material-name substring. Coarse by
// design: quantities are not derived from the transcript's actual scope.
func (c *Calculator) estimateQuantity(materialName string) float64 {
	name := strings.ToLower(materialName)
	for _, key := range c.quantityKeys {
		if strings.Contains(name, key) {
			return c.tasks.BaseQuantities[key]
		}
	}
	return config.DefaultQuantity
}

// durationHours parses duration strings like "2 days" or "6 hours" via a
// numeric-prefix extraction; anything unparseable defaults to one 8-hour day.
func durationHours(duration string) float64 {
	lower := strings.ToLower(duration)
	digits := digitsRe.FindString(lower)
	n, err := strconv.ParseFloat(digits, 64)

	switch {
	case strings.Contains(lower, "day") && err == nil:
		return n * 8
	case strings.Contains(lower, "hour") && err == nil:
		return n
	default:
		return 8.0
	}
}

// taskConfidence blends mean material confidence with the per-category
// estimation prior; no materials means a flat low score.
func (c *Calculator) taskConfidence(items []model.MaterialItem, cat config.CategoryConfig) float64 {
	if len(items) == 0 {
		return 0.3
	}

	var mean float64
	for _, item := range items {
		mean += item.ConfidenceScore
	}
	mean /= float64(len(items))

	return mean*0.7 + cat.Confidence*0.3
}

func (c *Calculator) label(cat config.CategoryConfig, category model.TaskCategory, items []model.MaterialItem) string {
	base := cat.Label
	if base == "" {
		base = string(category)
	}
	if len(items) == 0 {
		return base
	}

	names := make([]string, 0, 2)
	for _, item := range items[:min(2, len(items))] {
		names = append(names, item.Name)
	}
	return base + " - " + strings.Join(names, ", ")
}
