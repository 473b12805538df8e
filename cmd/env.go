package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/renoworks/pricing-engine/internal/confidence"
	"github.com/renoworks/pricing-engine/internal/config"
	"github.com/renoworks/pricing-engine/internal/extract"
	"github.com/renoworks/pricing-engine/internal/feedback"
	"github.com/renoworks/pricing-engine/internal/pricing"
	"github.com/renoworks/pricing-engine/internal/rank"
	"github.com/renoworks/pricing-engine/internal/store"
	"github.com/renoworks/pricing-engine/internal/vendortrust"
	"github.com/renoworks/pricing-engine/pkg/embed"
)

// appEnv wires the full engine once per command invocation.
type appEnv struct {
	Store      store.Store
	Ranker     *rank.Ranker
	Proposals  *pricing.Service
	Learner    *feedback.Learner
	Categories map[string]config.CategoryConfig
}

func (e *appEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "pricing.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEmbedder returns the configured embedding provider. Without an API key
// the engine still works: a deterministic local embedder keeps semantic search
// usable for development and tests.
func initEmbedder() embed.Client {
	if cfg.Embedding.Key == "" {
		zap.L().Warn("no embedding API key configured, using local deterministic embedder")
		return embed.NewStatic(cfg.Embedding.Dimensions)
	}
	return embed.NewClient(cfg.Embedding.Key, cfg.Embedding.Model, cfg.Embedding.Dimensions,
		embed.WithBaseURL(cfg.Embedding.BaseURL),
		embed.WithBatchSize(cfg.Embedding.BatchSize),
		embed.WithRequestsPerMinute(cfg.Embedding.RequestsPerMinute),
		embed.WithTimeout(time.Duration(cfg.Embedding.TimeoutSecs)*time.Second),
	)
}

func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	trust := vendortrust.New(st, config.DefaultVendorPriors(), config.UnknownVendorScore)
	engine := confidence.New(cfg.Confidence, trust)
	ranker := rank.New(st, initEmbedder(), engine, cfg.Search)

	extractor := extract.New(ranker, cfg.Tasks)
	calc := pricing.New(cfg.Pricing, cfg.Tasks, st)
	proposals := pricing.NewService(extractor, calc, st)

	return &appEnv{
		Store:      st,
		Ranker:     ranker,
		Proposals:  proposals,
		Learner:    feedback.NewLearner(st, trust),
		Categories: cfg.Tasks.Categories,
	}, nil
}
