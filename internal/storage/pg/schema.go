package pg

import (
	"context"
	"fmt"
)

// schema is applied at startup; every statement is idempotent so repeated
// boots are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS briefs (
		post_id UUID PRIMARY KEY,
		portfolio TEXT NOT NULL,
		region TEXT NOT NULL,
		run_window TEXT NOT NULL DEFAULT '',
		brief_day TEXT NOT NULL,
		status TEXT NOT NULL,
		generation_status TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ NOT NULL,
		body_markdown TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		sources JSONB NOT NULL DEFAULT '[]',
		tags JSONB NOT NULL DEFAULT '[]',
		selected_articles JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_briefs_pair_published
		ON briefs (portfolio, region, published_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_briefs_region_published
		ON briefs (region, published_at DESC)`,
	`CREATE TABLE IF NOT EXISTS used_articles (
		portfolio TEXT NOT NULL,
		region TEXT NOT NULL,
		post_id UUID NOT NULL,
		canonical_url TEXT NOT NULL,
		used_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (portfolio, region, canonical_url, post_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_used_articles_pair_used
		ON used_articles (portfolio, region, used_at)`,
	`CREATE TABLE IF NOT EXISTS feed_health (
		url TEXT PRIMARY KEY,
		last_status TEXT NOT NULL,
		consecutive_failures INT NOT NULL,
		consecutive_empty INT NOT NULL,
		consecutive_success INT NOT NULL,
		total_checks INT NOT NULL,
		total_items INT NOT NULL,
		checked_at TIMESTAMPTZ NOT NULL
	)`,
}

func ensureSchema(ctx context.Context, pool *ConnectionPool) error {
	for _, stmt := range schema {
		if _, err := pool.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
