package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ApexAxiom/briefwire/internal/alert"
	"github.com/ApexAxiom/briefwire/internal/canonical"
	"github.com/ApexAxiom/briefwire/internal/collector"
	"github.com/ApexAxiom/briefwire/internal/config"
	"github.com/ApexAxiom/briefwire/internal/fallback"
	"github.com/ApexAxiom/briefwire/internal/fetcher"
	"github.com/ApexAxiom/briefwire/internal/generate"
	"github.com/ApexAxiom/briefwire/internal/runner"
	"github.com/ApexAxiom/briefwire/internal/storage"
	"github.com/ApexAxiom/briefwire/internal/storage/es"
	"github.com/ApexAxiom/briefwire/internal/storage/factory"
)

func main() {
	appSettings := NewAppConfig()

	cfg, err := appSettings.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	file, err := os.Open(cfg.PipelineConfigPath)
	if err != nil {
		slog.Error("failed to read pipeline configuration", "error", err)
		os.Exit(1)
	}

	loader := config.NewYAMLConfigLoader(file)
	pipelineCfg, err := loader.Load(true)
	_ = file.Close()
	if err != nil {
		slog.Error("failed to load pipeline configuration", "error", err)
		os.Exit(1)
	}

	store, err := factory.NewStore(ctx, storage.PG, cfg.PoolConfig)
	if err != nil {
		slog.Error("failed to create store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	r, err := newRunner(ctx, cfg, pipelineCfg, store)
	if err != nil {
		slog.Error("failed to create runner", "error", err)
		os.Exit(1)
	}

	summary, err := r.Run(ctx, pipelineCfg.Portfolios, pipelineCfg.Regions)
	if err != nil {
		slog.Error("failed to run publication cycle", "error", err)
		os.Exit(1)
	}

	if len(summary.Gaps) > 0 {
		publishAlerts(cfg.NatsURL, summary)
	}
}

func newRunner(ctx context.Context, cfg *RunnerConfig, pipelineCfg *config.PipelineConfig, store storage.Store) (*runner.Runner, error) {
	resolver := canonical.NewResolver(pipelineCfg.AggregatorHosts)
	cooldown := fetcher.NewCooldown(pipelineCfg.CooldownHosts, pipelineCfg.CooldownWindow())
	feedFetcher := fetcher.New(resolver, cooldown)

	coll := collector.New(feedFetcher, store, store, collector.Config{
		ArticlesPerRun: pipelineCfg.ArticlesPerRun,
		LookbackWindow: pipelineCfg.LookbackWindow(),
	})

	gen := generate.NewClient(generate.ClientConfig{
		Endpoint: cfg.GeneratorEndpoint,
		APIKey:   cfg.GeneratorAPIKey,
	})

	opts := []runner.Option{
		runner.WithPolicy(fallback.Policy{AllowPlaceholders: cfg.AllowPlaceholders}),
	}

	if cfg.ESAddress != "" {
		archiver, err := es.NewArchiver(ctx, es.ClientConfig{
			Addresses: []string{cfg.ESAddress},
			IndexName: cfg.ESIndex,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, runner.WithArchiver(archiver))
	}

	return runner.New(coll, gen, store, runner.Config{
		RunWindow:   pipelineCfg.RunWindow,
		CutoffHour:  pipelineCfg.CutoffHour,
		Concurrency: cfg.PairConcurrency,
	}, opts...), nil
}

// publishAlerts is best-effort: a broken bus never fails the cycle.
func publishAlerts(natsURL string, summary *runner.Summary) {
	if natsURL == "" {
		return
	}

	publisher, err := alert.Connect(natsURL)
	if err != nil {
		slog.Warn("failed to connect alert publisher", "error", err)
		return
	}
	defer publisher.Close()

	if err := publisher.PublishGaps(summary.Gaps); err != nil {
		slog.Warn("failed to publish gap alerts", "error", err)
	}
}
