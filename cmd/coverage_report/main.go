// Command coverage_report audits one publication day across every configured
// (portfolio, region) pair and prints the result. It is read-only against the
// store; pair it with a scheduler to catch gaps shortly after each cycle.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ApexAxiom/briefwire/internal/alert"
	"github.com/ApexAxiom/briefwire/internal/config"
	"github.com/ApexAxiom/briefwire/internal/coverage"
	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/ApexAxiom/briefwire/internal/fallback"
	"github.com/ApexAxiom/briefwire/internal/storage"
	"github.com/ApexAxiom/briefwire/internal/storage/es"
	"github.com/ApexAxiom/briefwire/internal/storage/factory"
	"github.com/ApexAxiom/briefwire/internal/storage/pg"
)

type cliConfig struct {
	ConfigPath string
	PgConnStr  string
	DayKey     string
	RunWindow  string
	NatsURL    string
	EsAddress  string
	EsIndex    string
	JSONOutput bool
}

func parseFlags() *cliConfig {
	cfg := &cliConfig{}
	flag.StringVar(&cfg.ConfigPath, "config", "configs/pipeline.yaml", "Path to pipeline YAML config")
	flag.StringVar(&cfg.PgConnStr, "pg", os.Getenv("DB_CONN_STR"), "PostgreSQL connection string")
	flag.StringVar(&cfg.DayKey, "day", "", "Day key to audit (YYYY-MM-DD); empty audits the current day per region")
	flag.StringVar(&cfg.RunWindow, "window", "morning", "Run window label attached to alerted gaps")
	flag.StringVar(&cfg.NatsURL, "nats", os.Getenv("NATS_URL"), "NATS URL for gap alerts; empty disables alerting")
	flag.StringVar(&cfg.EsAddress, "es-address", os.Getenv("ES_URL"), "Elasticsearch address; set to re-index the audited day's briefs into the archive")
	flag.StringVar(&cfg.EsIndex, "es-index", os.Getenv("ES_INDEX"), "Elasticsearch archive index name")
	flag.BoolVar(&cfg.JSONOutput, "json", false, "Print the report as JSON")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	if cfg.PgConnStr == "" {
		slog.Error("a PostgreSQL connection string is required (-pg or DB_CONN_STR)")
		os.Exit(1)
	}

	file, err := os.Open(cfg.ConfigPath)
	if err != nil {
		slog.Error("failed to read pipeline configuration", "error", err)
		os.Exit(1)
	}
	pipelineCfg, err := config.NewYAMLConfigLoader(file).Load(true)
	_ = file.Close()
	if err != nil {
		slog.Error("failed to load pipeline configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := factory.NewStore(ctx, storage.PG, pg.PoolConfig{ConnStr: cfg.PgConnStr})
	if err != nil {
		slog.Error("failed to create store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	auditor := coverage.NewAuditor(store, pipelineCfg.Portfolios, pipelineCfg.CutoffHour)
	report, err := auditor.Audit(ctx, pipelineCfg.Regions, cfg.DayKey)
	if err != nil {
		slog.Error("audit failed", "error", err)
		os.Exit(1)
	}

	printReport(report, cfg.JSONOutput)

	if cfg.EsAddress != "" {
		reindexBriefs(ctx, cfg, report.PublishedBriefs)
	}

	if len(report.MissingAgents) > 0 {
		alertGaps(cfg, report)
		os.Exit(2)
	}
}

// reindexBriefs pushes the audited day's published briefs back into the
// archive index. Runs that crashed between publish and archive leave holes in
// the index; this closes them idempotently, keyed by post id.
func reindexBriefs(ctx context.Context, cfg *cliConfig, briefs []domain.Brief) {
	archiver, err := es.NewArchiver(ctx, es.ClientConfig{
		Addresses: []string{cfg.EsAddress},
		IndexName: cfg.EsIndex,
	})
	if err != nil {
		slog.Error("failed to create archiver", "error", err)
		return
	}

	if err := archiver.IndexBulk(ctx, briefs); err != nil {
		slog.Error("failed to re-index briefs", "error", err)
		return
	}
	slog.Info("re-indexed audited briefs", "count", len(briefs), "index", cfg.EsIndex)
}

func printReport(report *coverage.Report, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			slog.Error("failed to encode report", "error", err)
		}
		return
	}

	fmt.Printf("expected %d pair(s), published %d, missing %d\n",
		len(report.ExpectedAgents), len(report.PublishedBriefs), len(report.MissingAgents))
	for _, agent := range report.MissingAgents {
		fmt.Printf("  MISSING %s (day %s)\n", agent.Key(), report.DayKeyByRegion[agent.Region])
	}
}

func alertGaps(cfg *cliConfig, report *coverage.Report) {
	if cfg.NatsURL == "" {
		return
	}

	publisher, err := alert.Connect(cfg.NatsURL)
	if err != nil {
		slog.Warn("failed to connect alert publisher", "error", err)
		return
	}
	defer publisher.Close()

	gaps := make([]fallback.Gap, 0, len(report.MissingAgents))
	for _, agent := range report.MissingAgents {
		gaps = append(gaps, fallback.Gap{
			Portfolio: agent.Portfolio,
			Region:    agent.Region,
			RunWindow: cfg.RunWindow,
			DayKey:    report.DayKeyByRegion[agent.Region],
		})
	}
	if err := publisher.PublishGaps(gaps); err != nil {
		slog.Warn("failed to publish gap alerts", "error", err)
	}
}
