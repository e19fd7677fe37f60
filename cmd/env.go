package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/adrata/dataops-cli/internal/classify"
	"github.com/adrata/dataops-cli/internal/pipeline"
	"github.com/adrata/dataops-cli/internal/resolve"
	"github.com/adrata/dataops-cli/internal/store"
)

// openStore opens the configured persistence backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q (want postgres or sqlite)", cfg.Store.Driver)
	}
}

// newMatcher builds the fuzzy matcher from config: inline corrections
// plus any corrections file, and the configured similarity threshold.
func newMatcher() *resolve.Matcher {
	norm := resolve.NewNormalizer(cfg.Resolve.Corrections...)
	return resolve.NewMatcher(norm, cfg.Resolve.Threshold)
}

// newClassifier builds the role classifier with the configured peer
// adjustment deltas over the default rule tables.
func newClassifier() *classify.Classifier {
	c := classify.DefaultConfig()
	if cfg.Classify.SoloContactBonus != 0 {
		c.SoloContactBonus = cfg.Classify.SoloContactBonus
	}
	if cfg.Classify.EarlierStagePenalty != 0 {
		c.EarlierStagePenalty = cfg.Classify.EarlierStagePenalty
	}
	if cfg.Classify.LaterStageBonus != 0 {
		c.LaterStageBonus = cfg.Classify.LaterStageBonus
	}
	return classify.New(c)
}

func pipelineOptions() pipeline.Options {
	return pipeline.Options{
		BatchSize:       cfg.Batch.Size,
		MaxConcurrent:   cfg.Batch.MaxConcurrent,
		WritesPerSecond: cfg.Batch.WritesPerSecond,
	}
}
