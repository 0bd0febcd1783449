package cmd

import (
	"context"
	"fmt"

	"github.com/danielolaszy/spark/internal/config"
	"github.com/danielolaszy/spark/internal/copyai"
	"github.com/danielolaszy/spark/internal/jira"
	"github.com/danielolaszy/spark/internal/release"
	"github.com/danielolaszy/spark/internal/store"
)

func fieldMapping(cfg *config.Config) jira.FieldMapping {
	return jira.FieldMapping{Team: cfg.Jira.TeamField, Brand: cfg.Jira.BrandField}
}

func newSummarizer(cfg *config.Config, cache store.SummaryStore) (*copyai.Summarizer, error) {
	client, err := copyai.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize copyai client: %w", err)
	}
	return copyai.NewSummarizer(client, cache, copyai.Options{
		PollInterval:    cfg.CopyAI.PollInterval,
		MaxPollAttempts: cfg.CopyAI.MaxPollAttempts,
	}), nil
}

// newAggregator wires the Jira client, cache and summarizer from the
// configuration. The returned store must be closed by the caller.
func newAggregator(ctx context.Context, cfg *config.Config) (*release.Aggregator, store.Store, error) {
	tracker, err := jira.NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize jira client: %w", err)
	}

	cache, err := store.New(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}

	summarizer, err := newSummarizer(cfg, cache)
	if err != nil {
		cache.Close()
		return nil, nil, err
	}

	agg := release.NewAggregator(tracker, cache, summarizer, release.Options{
		TeamNames:           cfg.Jira.TeamNames,
		Fields:              fieldMapping(cfg),
		Concurrency:         cfg.Report.Concurrency,
		SkipFailedSummaries: cfg.Report.SkipFailedSummaries,
	})
	return agg, cache, nil
}
