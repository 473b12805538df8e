package pricing

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/renoworks/pricing-engine/internal/extract"
	"github.com/renoworks/pricing-engine/internal/model"
	"github.com/renoworks/pricing-engine/internal/store"
)

// Service generates complete priced proposals from transcripts.
type Service struct {
	extractor *extract.Extractor
	calc      *Calculator
	store     store.Store
}

// NewService creates a proposal service.
func NewService(extractor *extract.Extractor, calc *Calculator, st store.Store) *Service {
	return &Service{extractor: extractor, calc: calc, store: st}
}

// GenerateProposal extracts tasks from the transcript, prices them and
// persists the resulting quote. The quote, its task rows and its material
// usage rows are written in one transaction; a persisted quote is always
// complete.
func (s *Service) GenerateProposal(ctx context.Context, transcript, region, projectType string, userType model.UserType) (*model.Quote, error) {
	if transcript == "" {
		return nil, eris.New("pricing: empty transcript")
	}

	drafts := s.extractor.Extract(ctx, transcript, region)

	tasks := make([]model.Task, 0, len(drafts))
	for _, draft := range drafts {
		tasks = append(tasks, s.calc.PriceTask(ctx, draft, region))
	}

	totals := s.calc.Finalize(tasks, projectType)

	quote := &model.Quote{
		Transcript:       transcript,
		Tasks:            tasks,
		TotalEstimate:    totals.Total,
		ConfidenceScore:  totals.Confidence,
		VATRate:          totals.VATRate,
		MarginPercentage: s.calc.pricing.BaseMargin,
		UserType:         userType,
		Region:           region,
		ProjectType:      projectType,
	}

	if err := s.store.InsertQuote(ctx, quote); err != nil {
		return nil, eris.Wrap(err, "pricing: persist quote")
	}

	zap.L().Info("generated proposal",
		zap.String("quote_id", quote.ID),
		zap.Int("tasks", len(tasks)),
		zap.Float64("total", totals.Total),
		zap.Float64("confidence", totals.Confidence))

	return quote, nil
}

// GetQuote returns a stored proposal, or nil when unknown.
func (s *Service) GetQuote(ctx context.Context, id string) (*model.Quote, error) {
	return s.store.GetQuote(ctx, id)
}

// ListQuotes returns stored proposals matching the filter, newest first.
func (s *Service) ListQuotes(ctx context.Context, filter model.QuoteFilter) ([]model.Quote, error) {
	return s.store.ListQuotes(ctx, filter)
}
