// Package feedback folds user verdicts on quotes back into the engine:
// impact scoring, insight generation, vendor reliability counters and the
// regional adjustment review queue.
package feedback

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/renoworks/pricing-engine/internal/model"
	"github.com/renoworks/pricing-engine/internal/store"
	"github.com/renoworks/pricing-engine/internal/vendortrust"
)

// ErrQuoteNotFound is returned when feedback references a quote that does not
// exist. Feedback is never stored against a missing quote.
var ErrQuoteNotFound = eris.New("feedback: quote not found")

// verdictWeights scale impact by how strong a signal the verdict carries.
var verdictWeights = map[model.Verdict]float64{
	model.VerdictRejected:    1.0,
	model.VerdictOverpriced:  0.8,
	model.VerdictUnderpriced: 0.8,
	model.VerdictModified:    0.6,
	model.VerdictAccepted:    0.3,
}

// userWeights scale impact by how much the user type's judgment is trusted.
var userWeights = map[model.UserType]float64{
	model.UserContractor: 1.0,
	model.UserArchitect:  0.9,
	model.UserClient:     0.7,
}

// Learner processes feedback submissions and applies their learning side
// effects.
type Learner struct {
	store store.Store
	trust *vendortrust.Service
}

// NewLearner creates a feedback learner.
func NewLearner(st store.Store, trust *vendortrust.Service) *Learner {
	return &Learner{store: st, trust: trust}
}

// Result is a processed feedback submission.
type Result struct {
	Feedback *model.Feedback `json:"feedback"`
	Insights []string        `json:"insights"`
}

// Submit validates and stores one piece of feedback, then applies its side
// effects: vendor reliability counters for every vendor on the quote and, for
// price-miss verdicts on regional quotes, a queued multiplier adjustment.
// Side-effect failures are logged but never fail a stored submission.
func (l *Learner) Submit(ctx context.Context, fb *model.Feedback) (*Result, error) {
	if !fb.Verdict.Valid() {
		return nil, eris.Errorf("feedback: unknown verdict %q", fb.Verdict)
	}

	quote, err := l.store.GetQuote(ctx, fb.QuoteID)
	if err != nil {
		return nil, eris.Wrapf(err, "feedback: load quote %s", fb.QuoteID)
	}
	if quote == nil {
		return nil, eris.Wrapf(ErrQuoteNotFound, "quote %s", fb.QuoteID)
	}

	fb.ImpactScore = impactScore(fb, quote)

	if err := l.store.InsertFeedback(ctx, fb); err != nil {
		return nil, eris.Wrap(err, "feedback: persist")
	}

	l.recordVendorOutcomes(ctx, quote, fb.Verdict)
	l.queueRegionAdjustment(ctx, quote, fb.Verdict)

	insights := generateInsights(fb, quote)

	zap.L().Info("feedback processed",
		zap.String("quote_id", fb.QuoteID),
		zap.String("verdict", string(fb.Verdict)),
		zap.Float64("impact", fb.ImpactScore),
		zap.Int("insights", len(insights)))

	return &Result{Feedback: fb, Insights: insights}, nil
}

// List returns stored feedback for a quote, newest first.
func (l *Learner) List(ctx context.Context, quoteID string) ([]model.Feedback, error) {
	return l.store.ListFeedback(ctx, quoteID)
}

// Analytics returns aggregate feedback statistics.
func (l *Learner) Analytics(ctx context.Context) (*model.FeedbackAnalytics, error) {
	return l.store.FeedbackAnalytics(ctx)
}

// impactScore weighs one feedback in [0,1]: verdict strength, user trust, an
// extra boost when a negative verdict contradicts a confident quote, and the
// quote's monetary stake.
func impactScore(fb *model.Feedback, quote *model.Quote) float64 {
	impact := 0.5
	impact *= verdictWeights[fb.Verdict]

	if w, ok := userWeights[fb.UserType]; ok {
		impact *= w
	}

	if fb.Verdict.Negative() {
		impact *= 1 + (1 - quote.ConfidenceScore)
	}

	impact *= min(quote.TotalEstimate/1000, 2.0)

	if impact < 0 {
		return 0
	}
	if impact > 1 {
		return 1
	}
	return impact
}

// generateInsights produces human-readable observations for operators. Pure
// string analysis; nothing here feeds back into pricing automatically.
func generateInsights(fb *model.Feedback, quote *model.Quote) []string {
	var insights []string

	switch fb.Verdict {
	case model.VerdictRejected:
		insights = append(insights, "Quote was completely rejected - review pricing strategy")
	case model.VerdictOverpriced:
		insights = append(insights, "Quote was overpriced - consider reducing margins or finding cheaper materials")
	case model.VerdictUnderpriced:
		insights = append(insights, "Quote was underpriced - review cost calculations and margins")
	case model.VerdictModified:
		insights = append(insights, "Quote was modified - analyze what changes were made")
	}

	if quote.ConfidenceScore > 0.8 && (fb.Verdict == model.VerdictRejected || fb.Verdict == model.VerdictOverpriced) {
		insights = append(insights, "High confidence quote was rejected - review confidence scoring logic")
	}
	if quote.ConfidenceScore < 0.5 && fb.Verdict == model.VerdictAccepted {
		insights = append(insights, "Low confidence quote was accepted - may be too conservative")
	}

	if quote.Region != "" {
		insights = append(insights, fmt.Sprintf("Regional feedback for %s - update regional pricing if needed", quote.Region))
	}

	for _, material := range sortedKeys(fb.MaterialFeedback) {
		note := strings.ToLower(fb.MaterialFeedback[material])
		if strings.Contains(note, "expensive") {
			insights = append(insights, fmt.Sprintf("Material %s considered expensive - review pricing", material))
		}
		if strings.Contains(note, "quality") {
			insights = append(insights, fmt.Sprintf("Quality feedback for %s - consider alternative suppliers", material))
		}
	}

	for _, aspect := range sortedKeys(fb.PricingFeedback) {
		insights = append(insights, fmt.Sprintf("Pricing feedback on %s: %s", aspect, fb.PricingFeedback[aspect]))
	}

	if insight := commentInsight(fb.Comment); insight != "" {
		insights = append(insights, insight)
	}

	if len(insights) == 0 {
		insights = append(insights, "Feedback received - monitoring for patterns")
	}
	return insights
}

func commentInsight(comment string) string {
	if comment == "" {
		return ""
	}
	lower := strings.ToLower(comment)

	switch {
	case containsAny(lower, "expensive", "overpriced", "high"):
		return "User indicated pricing was too high"
	case containsAny(lower, "cheap", "good price", "reasonable"):
		return "User indicated pricing was reasonable"
	case containsAny(lower, "quality", "material"):
		return "User provided material quality feedback"
	}
	return ""
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// recordVendorOutcomes folds the verdict into the reliability counters of
// every distinct vendor appearing on the quote. Only an accepted verdict
// counts as an acceptance; everything else only grows the total.
func (l *Learner) recordVendorOutcomes(ctx context.Context, quote *model.Quote, verdict model.Verdict) {
	if l.trust == nil {
		return
	}
	accepted := verdict == model.VerdictAccepted

	for _, vendor := range quoteVendors(quote) {
		if _, err := l.trust.RecordOutcome(ctx, vendor, accepted); err != nil {
			zap.L().Warn("vendor outcome update failed",
				zap.String("vendor", vendor),
				zap.String("quote_id", quote.ID),
				zap.Error(err))
		}
	}
}

// quoteVendors returns the distinct canonical vendor names on a quote, in
// first-appearance order.
func quoteVendors(quote *model.Quote) []string {
	seen := make(map[string]struct{})
	var vendors []string
	for _, task := range quote.Tasks {
		for _, item := range task.Materials {
			name := vendortrust.Canonical(item.Vendor)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			vendors = append(vendors, name)
		}
	}
	return vendors
}

// queueRegionAdjustment logs a multiplier change recommendation for review.
// Overpriced and rejected quotes suggest the region prices too high,
// underpriced ones too low. Nothing is applied automatically.
func (l *Learner) queueRegionAdjustment(ctx context.Context, quote *model.Quote, verdict model.Verdict) {
	if quote.Region == "" {
		return
	}

	var direction string
	switch verdict {
	case model.VerdictOverpriced, model.VerdictRejected:
		direction = "decrease"
	case model.VerdictUnderpriced:
		direction = "increase"
	default:
		return
	}

	adj := &model.RegionAdjustment{
		Region:    quote.Region,
		Direction: direction,
		Reason:    fmt.Sprintf("quote %s marked %s", quote.ID, verdict),
		QuoteID:   quote.ID,
	}
	if err := l.store.InsertRegionAdjustment(ctx, adj); err != nil {
		zap.L().Warn("region adjustment queueing failed",
			zap.String("region", quote.Region),
			zap.String("quote_id", quote.ID),
			zap.Error(err))
		return
	}

	zap.L().Info("queued regional adjustment recommendation",
		zap.String("region", quote.Region),
		zap.String("direction", direction),
		zap.String("quote_id", quote.ID))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
