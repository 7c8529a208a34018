// Package storage defines the durable-store boundary for briefs, used-URL
// history, and feed health. The store is append-mostly: briefs are written
// once, health entries are overwritten keyed by feed URL, and nothing here
// needs cross-record atomicity.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedStore = errors.New("unsupported store type")
	ErrNotFound         = errors.New("record not found")
)

type Type string

const (
	PG Type = "pg"
	ES Type = "es"
)

// BriefStore persists and reads published brief records.
type BriefStore interface {
	// SaveBrief writes a new brief record and returns its post id.
	SaveBrief(ctx context.Context, b domain.Brief) (uuid.UUID, error)

	// LatestPublished returns the most recent published brief for a
	// (portfolio, region) pair, or ErrNotFound.
	LatestPublished(ctx context.Context, portfolio, region string) (*domain.Brief, error)

	// ListRegionBriefs pages a region's published briefs in
	// reverse-chronological order. olderThan == nil starts from the newest.
	ListRegionBriefs(ctx context.Context, region string, olderThan *time.Time, limit int) ([]domain.Brief, error)

	// ListBriefs returns the newest briefs for a pair, newest first.
	ListBriefs(ctx context.Context, portfolio, region string, limit int) ([]domain.Brief, error)
}

// HistoryStore tracks which canonical URLs a pair has already consumed.
type HistoryStore interface {
	// UsedURLs returns canonical URL -> last-used time for a pair within the
	// lookback window starting at since.
	UsedURLs(ctx context.Context, portfolio, region string, since time.Time) (map[string]time.Time, error)

	// RecordUsedURLs marks canonical URLs as consumed by a brief.
	RecordUsedURLs(ctx context.Context, portfolio, region string, postID uuid.UUID, urls []string, usedAt time.Time) error
}

// HealthStore persists per-feed fetch health for observability tooling.
type HealthStore interface {
	UpsertFeedHealth(ctx context.Context, e domain.FeedHealthEntry) error
	ListFeedHealth(ctx context.Context) ([]domain.FeedHealthEntry, error)

	// GetFeedHealth loads the running counters for one feed URL; a URL never
	// seen before yields a zero-valued entry, not an error.
	GetFeedHealth(ctx context.Context, url string) (domain.FeedHealthEntry, error)
}

// Store is the full durable-store surface the pipeline depends on.
type Store interface {
	BriefStore
	HistoryStore
	HealthStore
	Close()
}
