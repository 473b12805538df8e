// Package vendortrust scores vendor reliability. Scores come from persisted
// acceptance history when a vendor has one, and from a static prior table
// otherwise, so confidence scoring and feedback learning share a single
// source of vendor truth.
package vendortrust

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/renoworks/pricing-engine/internal/model"
	"github.com/renoworks/pricing-engine/internal/store"
)

// Service resolves vendor reliability scores and records feedback outcomes.
type Service struct {
	store        store.Store
	priors       map[string]float64
	unknownScore float64
}

// New creates a vendor trust service. The store may be nil, in which case
// scoring falls back to priors only (used by offline tooling and tests).
func New(st store.Store, priors map[string]float64, unknownScore float64) *Service {
	canonical := make(map[string]float64, len(priors))
	for name, score := range priors {
		canonical[Canonical(name)] = score
	}
	return &Service{store: st, priors: canonical, unknownScore: unknownScore}
}

// Canonical normalizes a vendor name for lookups and storage keys.
func Canonical(vendor string) string {
	return strings.ToLower(strings.TrimSpace(vendor))
}

// Score returns the reliability score for a vendor in [0,1]. Persisted
// history wins over the static prior; an empty or unknown vendor gets the
// default. Never returns an error: a storage failure degrades to the prior
// and is logged.
func (s *Service) Score(ctx context.Context, vendor string) float64 {
	name := Canonical(vendor)
	if name == "" {
		return s.unknownScore
	}

	if s.store != nil {
		vr, err := s.store.GetVendorReliability(ctx, name)
		if err != nil {
			zap.L().Warn("vendor reliability lookup failed, using prior",
				zap.String("vendor", name), zap.Error(err))
		} else if vr != nil && vr.TotalQuotes > 0 {
			return vr.ReliabilityScore
		}
	}

	return s.prior(name)
}

// prior matches the vendor against the static table by case-insensitive
// substring, the same way an unnormalized catalog vendor field ("Leroy
// Merlin Nantes") still resolves to its chain.
func (s *Service) prior(name string) float64 {
	if score, ok := s.priors[name]; ok {
		return score
	}
	for known, score := range s.priors {
		if strings.Contains(name, known) {
			return score
		}
	}
	return s.unknownScore
}

// RecordOutcome folds one quote verdict into the vendor's persisted counters.
func (s *Service) RecordOutcome(ctx context.Context, vendor string, accepted bool) (*model.VendorReliability, error) {
	return s.store.RecordVendorOutcome(ctx, Canonical(vendor), accepted)
}
