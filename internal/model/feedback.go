package model

import "time"

// Verdict is the user's judgment on a quote.
type Verdict string

const (
	VerdictAccepted    Verdict = "accepted"
	VerdictRejected    Verdict = "rejected"
	VerdictOverpriced  Verdict = "overpriced"
	VerdictUnderpriced Verdict = "underpriced"
	VerdictModified    Verdict = "modified"
)

// Negative reports whether the verdict signals the quote missed the mark on
// price. Negative verdicts on low-confidence quotes carry extra learning weight.
func (v Verdict) Negative() bool {
	return v == VerdictRejected || v == VerdictOverpriced || v == VerdictUnderpriced
}

// Valid reports whether v is one of the known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictAccepted, VerdictRejected, VerdictOverpriced, VerdictUnderpriced, VerdictModified:
		return true
	}
	return false
}

// Feedback is an append-only record of one verdict on a quote.
type Feedback struct {
	ID               string            `json:"feedback_id"`
	QuoteID          string            `json:"quote_id"`
	UserType         UserType          `json:"user_type"`
	Verdict          Verdict           `json:"verdict"`
	Comment          string            `json:"comment,omitempty"`
	MaterialFeedback map[string]string `json:"material_feedback,omitempty"` // material name -> note
	PricingFeedback  map[string]string `json:"pricing_feedback,omitempty"`  // aspect -> note
	ImpactScore      float64           `json:"impact_score"`
	CreatedAt        time.Time         `json:"created_at"`
}

// VendorReliability accumulates acceptance statistics per vendor. Counts only
// grow; ReliabilityScore is always AcceptedQuotes/TotalQuotes when
// TotalQuotes > 0, else the 0.5 prior.
type VendorReliability struct {
	VendorName       string    `json:"vendor_name"`
	ReliabilityScore float64   `json:"reliability_score"`
	TotalQuotes      int       `json:"total_quotes"`
	AcceptedQuotes   int       `json:"accepted_quotes"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RegionalPricing is the per-region cost multiplier, seeded from config and
// only ever adjusted through human review.
type RegionalPricing struct {
	Region      string    `json:"region"`
	Multiplier  float64   `json:"multiplier"`
	LastUpdated time.Time `json:"last_updated"`
}

// RegionAdjustment is a logged recommendation to change a regional multiplier.
// It is queued for review, never applied automatically.
type RegionAdjustment struct {
	ID        string    `json:"id"`
	Region    string    `json:"region"`
	Direction string    `json:"direction"` // "increase" or "decrease"
	Reason    string    `json:"reason"`
	QuoteID   string    `json:"quote_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackAnalytics aggregates feedback over a window for system review.
type FeedbackAnalytics struct {
	TotalFeedback           int                `json:"total_feedback"`
	VerdictDistribution     map[Verdict]int    `json:"verdict_distribution"`
	AverageImpactScore      float64            `json:"average_impact_score"`
	RegionalAcceptanceRates map[string]float64 `json:"regional_acceptance_rates"`
}
