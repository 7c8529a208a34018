package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefwire_feed_fetches_total",
			Help: "Feed fetch attempts by host and terminal outcome",
		},
		[]string{"host", "outcome"},
	)

	CandidatesCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefwire_candidates_collected_total",
			Help: "Candidates surviving dedupe and history filtering",
		},
		[]string{"portfolio", "region"},
	)

	BriefsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefwire_briefs_published_total",
			Help: "Briefs persisted by generation status",
		},
		[]string{"portfolio", "region", "generation_status"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefwire_validation_failures_total",
			Help: "Generated briefs rejected by the citation validator",
		},
		[]string{"portfolio", "region"},
	)

	CoverageGaps = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "briefwire_coverage_gaps",
			Help: "Missing (portfolio, region) pairs observed by the last audit",
		},
		[]string{"region"},
	)
)
