// Package runner orchestrates one scheduled publication cycle: for every
// (portfolio, region) pair it collects candidates, requests a draft, validates
// it, and persists the outcome. A pair that cannot publish a real brief is
// handed to the fallback resolver; whatever remains unfilled is reported as a
// coverage gap, never silently dropped.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ApexAxiom/briefwire/internal/collector"
	"github.com/ApexAxiom/briefwire/internal/coverage"
	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/ApexAxiom/briefwire/internal/fallback"
	"github.com/ApexAxiom/briefwire/internal/generate"
	"github.com/ApexAxiom/briefwire/internal/metrics"
	"github.com/ApexAxiom/briefwire/internal/storage"
	"github.com/ApexAxiom/briefwire/internal/validate"
	"github.com/google/uuid"
)

const defaultPairConcurrency = 4

// Collector produces ranked candidates for one pair.
type Collector interface {
	Collect(ctx context.Context, portfolio domain.Portfolio, region string) (*collector.Result, error)
}

// BriefWriter is the slice of the store the runner writes through.
type BriefWriter interface {
	SaveBrief(ctx context.Context, b domain.Brief) (uuid.UUID, error)
	LatestPublished(ctx context.Context, portfolio, region string) (*domain.Brief, error)
	RecordUsedURLs(ctx context.Context, portfolio, region string, postID uuid.UUID, urls []string, usedAt time.Time) error
}

// Archiver mirrors published briefs into the search archive. May be nil.
type Archiver interface {
	IndexBrief(ctx context.Context, b domain.Brief) error
}

type Config struct {
	RunWindow   string
	CutoffHour  int
	Concurrency int
}

func (c *Config) applyDefaults() {
	if c.RunWindow == "" {
		c.RunWindow = "morning"
	}
	if c.CutoffHour <= 0 {
		c.CutoffHour = coverage.DefaultCutoffHour
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultPairConcurrency
	}
}

// PairResult records how one (portfolio, region) slot ended up.
type PairResult struct {
	Agent            domain.Agent             `json:"agent"`
	DayKey           string                   `json:"dayKey"`
	GenerationStatus domain.GenerationStatus  `json:"generationStatus,omitempty"`
	PostID           uuid.UUID                `json:"postId,omitempty"`
	Collection       collector.Metrics        `json:"collection"`
	Err              string                   `json:"error,omitempty"`
	FailureReason    domain.PlaceholderReason `json:"failureReason,omitempty"`
}

// Summary aggregates one full cycle across all pairs.
type Summary struct {
	Published int            `json:"published"`
	FellBack  int            `json:"fellBack"`
	Gaps      []fallback.Gap `json:"gaps"`
	Pairs     []PairResult   `json:"pairs"`
}

type Runner struct {
	collector Collector
	generator generate.Generator
	store     BriefWriter
	archiver  Archiver
	policy    fallback.Policy
	cfg       Config
	now       func() time.Time
}

type Option func(*Runner)

func WithArchiver(a Archiver) Option {
	return func(r *Runner) {
		r.archiver = a
	}
}

func WithPolicy(p fallback.Policy) Option {
	return func(r *Runner) {
		r.policy = p
	}
}

func New(c Collector, g generate.Generator, store BriefWriter, cfg Config, opts ...Option) *Runner {
	cfg.applyDefaults()
	r := &Runner{
		collector: c,
		generator: g,
		store:     store,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the cycle for every portfolio x region pair. Pair failures are
// contained per pair; Run itself only fails on a nil dependency.
func (r *Runner) Run(ctx context.Context, portfolios []domain.Portfolio, regions []domain.Region) (*Summary, error) {
	if r.collector == nil || r.generator == nil || r.store == nil {
		return nil, fmt.Errorf("runner is missing a collector, generator, or store")
	}

	start := r.now()
	slog.Info("starting publication cycle",
		"portfolios", len(portfolios),
		"regions", len(regions),
		"runWindow", r.cfg.RunWindow,
	)

	summary := &Summary{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	gate := make(chan struct{}, r.cfg.Concurrency)

	for _, p := range portfolios {
		for _, reg := range regions {
			wg.Add(1)
			gate <- struct{}{}
			go func(p domain.Portfolio, reg domain.Region) {
				defer wg.Done()
				defer func() { <-gate }()

				res := r.runPair(ctx, p, reg)

				mu.Lock()
				defer mu.Unlock()
				summary.Pairs = append(summary.Pairs, res)
				switch {
				case res.GenerationStatus == domain.GenerationPublished:
					summary.Published++
				case res.GenerationStatus != "":
					summary.FellBack++
				default:
					summary.Gaps = append(summary.Gaps, fallback.Gap{
						Portfolio: p.ID,
						Region:    reg.ID,
						RunWindow: r.cfg.RunWindow,
						DayKey:    res.DayKey,
						Reason:    res.FailureReason,
					})
				}
			}(p, reg)
		}
	}
	wg.Wait()

	for _, gap := range summary.Gaps {
		metrics.CoverageGaps.WithLabelValues(gap.Region).Inc()
	}

	slog.Info("publication cycle finished",
		"published", summary.Published,
		"fellBack", summary.FellBack,
		"gaps", len(summary.Gaps),
		"duration", r.now().Sub(start).String(),
	)
	return summary, nil
}

// runPair never panics outward; a panic in any stage is converted into a
// failed pair so the rest of the cycle keeps going.
func (r *Runner) runPair(ctx context.Context, p domain.Portfolio, reg domain.Region) (res PairResult) {
	res.Agent = domain.Agent{Portfolio: p.ID, Region: reg.ID, Label: p.Label + " / " + reg.Label}
	res.DayKey = coverage.ExpectedCoverageDayKey(reg, r.now(), r.cfg.CutoffHour)

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("pair pipeline panicked", "portfolio", p.ID, "region", reg.ID, "panic", rec)
			res.GenerationStatus = ""
			res.PostID = uuid.Nil
			res.Err = fmt.Sprintf("panic: %v", rec)
			r.resolveFallback(ctx, &res, domain.ReasonGenerationFailed)
		}
	}()

	collected, err := r.collector.Collect(ctx, p, reg.ID)
	if err != nil {
		res.Err = fmt.Sprintf("collect: %v", err)
		r.resolveFallback(ctx, &res, domain.ReasonGenerationFailed)
		return res
	}
	res.Collection = collected.Metrics

	if len(collected.Candidates) == 0 {
		res.Err = "no candidates survived collection"
		r.resolveFallback(ctx, &res, domain.ReasonNoUpdates)
		return res
	}

	draft, err := r.generator.Generate(ctx, generate.Request{
		Portfolio:  p.ID,
		Region:     reg.ID,
		DayKey:     res.DayKey,
		Candidates: collected.Candidates,
	})
	if err != nil {
		res.Err = fmt.Sprintf("generate: %v", err)
		r.resolveFallback(ctx, &res, domain.ReasonGenerationFailed)
		return res
	}

	brief := r.assembleBrief(p, reg, res.DayKey, draft)
	if err := validate.AssertValid(&brief, collected.Candidates); err != nil {
		metrics.ValidationFailures.WithLabelValues(p.ID, reg.ID).Inc()
		slog.Warn("draft rejected by citation validator",
			"portfolio", p.ID,
			"region", reg.ID,
			"error", err,
		)
		res.Err = fmt.Sprintf("validate: %v", err)
		r.resolveFallback(ctx, &res, domain.ReasonGenerationFailed)
		return res
	}

	postID, err := r.persist(ctx, brief)
	if err != nil {
		res.Err = fmt.Sprintf("persist: %v", err)
		r.resolveFallback(ctx, &res, domain.ReasonGenerationFailed)
		return res
	}

	res.GenerationStatus = domain.GenerationPublished
	res.PostID = postID
	return res
}

func (r *Runner) assembleBrief(p domain.Portfolio, reg domain.Region, dayKey string, draft *generate.Draft) domain.Brief {
	now := r.now()
	return domain.Brief{
		PostID:           uuid.New(),
		Portfolio:        p.ID,
		Region:           reg.ID,
		RunWindow:        r.cfg.RunWindow,
		BriefDay:         dayKey,
		Status:           domain.BriefStatusPublished,
		GenerationStatus: domain.GenerationPublished,
		PublishedAt:      now,
		CreatedAt:        now,
		BodyMarkdown:     draft.BodyMarkdown,
		Summary:          draft.Summary,
		Sources:          draft.Sources,
		Tags:             draft.Tags,
		SelectedArticles: draft.SelectedArticles,
	}
}

// persist writes the brief, its used-URL history, and the archive copy.
// History and archive failures are logged, not fatal: the brief is already
// durably published and the next run degrades gracefully without them.
func (r *Runner) persist(ctx context.Context, b domain.Brief) (uuid.UUID, error) {
	postID, err := r.store.SaveBrief(ctx, b)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save brief: %w", err)
	}

	if len(b.Sources) > 0 {
		if err := r.store.RecordUsedURLs(ctx, b.Portfolio, b.Region, postID, b.Sources, b.PublishedAt); err != nil {
			slog.Warn("failed to record used urls", "portfolio", b.Portfolio, "region", b.Region, "error", err)
		}
	}

	r.archive(ctx, b)
	metrics.BriefsPublished.WithLabelValues(b.Portfolio, b.Region, string(b.GenerationStatus)).Inc()
	return postID, nil
}

// resolveFallback tries to fill a failed pair. On success it rewrites the
// pair result in place; otherwise the pair stays a gap for the summary, with
// the reason recorded for classification.
func (r *Runner) resolveFallback(ctx context.Context, res *PairResult, reason domain.PlaceholderReason) {
	res.FailureReason = reason
	gap := fallback.Gap{
		Portfolio: res.Agent.Portfolio,
		Region:    res.Agent.Region,
		RunWindow: r.cfg.RunWindow,
		DayKey:    res.DayKey,
		Reason:    reason,
	}

	previous, err := r.store.LatestPublished(ctx, gap.Portfolio, gap.Region)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("failed to load previous brief for fallback", "portfolio", gap.Portfolio, "region", gap.Region, "error", err)
		previous = nil
	}

	brief := fallback.Resolve(gap, r.policy, previous, r.now())
	if brief == nil {
		slog.Warn("coverage gap left unfilled",
			"portfolio", gap.Portfolio,
			"region", gap.Region,
			"dayKey", gap.DayKey,
			"reason", string(gap.Reason),
		)
		return
	}

	postID, err := r.store.SaveBrief(ctx, *brief)
	if err != nil {
		slog.Error("failed to persist fallback brief", "portfolio", gap.Portfolio, "region", gap.Region, "error", err)
		return
	}

	r.archive(ctx, *brief)
	metrics.BriefsPublished.WithLabelValues(brief.Portfolio, brief.Region, string(brief.GenerationStatus)).Inc()
	res.GenerationStatus = brief.GenerationStatus
	res.PostID = postID
}

func (r *Runner) archive(ctx context.Context, b domain.Brief) {
	if r.archiver == nil {
		return
	}
	if err := r.archiver.IndexBrief(ctx, b); err != nil {
		slog.Warn("failed to archive brief", "portfolio", b.Portfolio, "region", b.Region, "error", err)
	}
}

