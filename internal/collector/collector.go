// Package collector gathers, deduplicates, and ranks article candidates for
// one (portfolio, region) run. Freshness is preferred but coverage wins: when
// history filtering leaves too few candidates, previously used items are
// backfilled oldest-exclusion-first.
package collector

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/ApexAxiom/briefwire/internal/canonical"
	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/ApexAxiom/briefwire/internal/fetcher"
	"github.com/ApexAxiom/briefwire/internal/metrics"
	"github.com/ApexAxiom/briefwire/internal/relevance"
)

const (
	DefaultArticlesPerRun = 3
	DefaultLookbackWindow = 14 * 24 * time.Hour
	detailTopN            = 10
	detailConcurrency     = 4
)

// FeedFetcher retrieves one feed's candidates; the string is the terminal
// outcome label for health tracking.
type FeedFetcher interface {
	Fetch(ctx context.Context, feed domain.Feed) ([]domain.ArticleCandidate, string)
}

// HistoryReader reads which canonical URLs a pair consumed recently.
type HistoryReader interface {
	UsedURLs(ctx context.Context, portfolio, region string, since time.Time) (map[string]time.Time, error)
}

// HealthTracker folds fetch outcomes into persisted feed-health counters.
type HealthTracker interface {
	GetFeedHealth(ctx context.Context, url string) (domain.FeedHealthEntry, error)
	UpsertFeedHealth(ctx context.Context, e domain.FeedHealthEntry) error
}

type Config struct {
	ArticlesPerRun int
	LookbackWindow time.Duration
}

func (c *Config) applyDefaults() {
	if c.ArticlesPerRun <= 0 {
		c.ArticlesPerRun = DefaultArticlesPerRun
	}
	if c.LookbackWindow <= 0 {
		c.LookbackWindow = DefaultLookbackWindow
	}
}

// Metrics summarizes one collection run for logging and reporting.
type Metrics struct {
	FetchedItems      int `json:"fetchedItems"`
	Deduplicated      int `json:"deduplicated"`
	ExcludedByHistory int `json:"excludedByHistory"`
	Backfilled        int `json:"backfilled"`
}

type Result struct {
	Candidates   []domain.ArticleCandidate `json:"candidates"`
	ScannedFeeds int                       `json:"scannedFeeds"`
	Metrics      Metrics                   `json:"metrics"`
}

// Enricher adds per-item detail to already-ranked candidates.
type Enricher interface {
	Enrich(ctx context.Context, candidates []domain.ArticleCandidate)
}

type Collector struct {
	fetcher FeedFetcher
	history HistoryReader
	health  HealthTracker // nil disables health tracking
	details Enricher
	cfg     Config
	now     func() time.Time
}

func New(f FeedFetcher, history HistoryReader, health HealthTracker, cfg Config) *Collector {
	cfg.applyDefaults()
	return &Collector{
		fetcher: f,
		history: history,
		health:  health,
		details: NewDetailFetcher(),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Collect runs the full candidate pipeline for one pair. Feed-level failures
// never abort the run; only a history-store read error does, because without
// history the cross-run dedupe guarantee cannot be honored.
func (c *Collector) Collect(ctx context.Context, portfolio domain.Portfolio, region string) (*Result, error) {
	feeds := portfolio.Feeds[region]

	var fetched []domain.ArticleCandidate
	for _, feed := range feeds {
		items, outcome := c.fetcher.Fetch(ctx, feed)
		c.trackHealth(ctx, feed, outcome, len(items))
		fetched = append(fetched, items...)
	}

	deduped := dedupeByCanonical(fetched)

	since := c.now().Add(-c.cfg.LookbackWindow)
	used, err := c.history.UsedURLs(ctx, portfolio.ID, region, since)
	if err != nil {
		return nil, err
	}

	fresh, excluded := splitByHistory(deduped, used)

	minCount := 2 * c.cfg.ArticlesPerRun
	backfilled := 0
	if len(fresh) < minCount {
		fresh, backfilled = backfill(fresh, excluded, used, minCount)
	}

	ranked := relevance.Rank(fresh, portfolio.Keywords)

	// Only the top slice goes downstream; everything below the line is noise
	// the generator should never see.
	if len(ranked) > detailTopN {
		ranked = ranked[:detailTopN]
	}
	c.details.Enrich(ctx, ranked)

	metrics.CandidatesCollected.WithLabelValues(portfolio.ID, region).Add(float64(len(ranked)))

	result := &Result{
		Candidates:   ranked,
		ScannedFeeds: len(feeds),
		Metrics: Metrics{
			FetchedItems:      len(fetched),
			Deduplicated:      len(fetched) - len(deduped),
			ExcludedByHistory: len(excluded),
			Backfilled:        backfilled,
		},
	}

	slog.Info("collection finished",
		"portfolio", portfolio.ID,
		"region", region,
		"feeds", len(feeds),
		"fetched", len(fetched),
		"candidates", len(ranked),
		"backfilled", backfilled,
	)
	return result, nil
}

func (c *Collector) trackHealth(ctx context.Context, feed domain.Feed, outcome string, items int) {
	if c.health == nil {
		return
	}

	entry, err := c.health.GetFeedHealth(ctx, feed.URL)
	if err != nil {
		slog.Warn("failed to load feed health", "feed", feed.Name, "error", err)
		entry = domain.FeedHealthEntry{URL: feed.URL}
	}

	now := c.now()
	switch outcome {
	case fetcher.OutcomeOK, fetcher.OutcomeEmpty:
		entry.RecordSuccess(items, now)
	default:
		entry.RecordFailure(outcome, now)
	}

	if err := c.health.UpsertFeedHealth(ctx, entry); err != nil {
		slog.Warn("failed to persist feed health", "feed", feed.Name, "error", err)
	}
}

// dedupeByCanonical keeps the first occurrence of each canonical URL. The
// candidate's own URL stays untouched.
func dedupeByCanonical(candidates []domain.ArticleCandidate) []domain.ArticleCandidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]domain.ArticleCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := canonical.Canonicalize(c.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func splitByHistory(candidates []domain.ArticleCandidate, used map[string]time.Time) (fresh, excluded []domain.ArticleCandidate) {
	for _, c := range candidates {
		if _, ok := used[canonical.Canonicalize(c.URL)]; ok {
			excluded = append(excluded, c)
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh, excluded
}

// backfill reintroduces history-excluded candidates, oldest exclusion first,
// until the minimum candidate count is met or the pool runs out.
func backfill(fresh, excluded []domain.ArticleCandidate, used map[string]time.Time, minCount int) ([]domain.ArticleCandidate, int) {
	pool := make([]domain.ArticleCandidate, len(excluded))
	copy(pool, excluded)

	sort.SliceStable(pool, func(i, j int) bool {
		return used[canonical.Canonicalize(pool[i].URL)].Before(used[canonical.Canonicalize(pool[j].URL)])
	})

	added := 0
	for _, c := range pool {
		if len(fresh) >= minCount {
			break
		}
		fresh = append(fresh, c)
		added++
	}
	return fresh, added
}
