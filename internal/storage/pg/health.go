package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/jackc/pgx/v5"
)

func (s *Store) UpsertFeedHealth(ctx context.Context, e domain.FeedHealthEntry) error {
	cmd := `
        INSERT INTO feed_health (url, last_status, consecutive_failures, consecutive_empty,
            consecutive_success, total_checks, total_items, checked_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (url) DO UPDATE SET
            last_status = EXCLUDED.last_status,
            consecutive_failures = EXCLUDED.consecutive_failures,
            consecutive_empty = EXCLUDED.consecutive_empty,
            consecutive_success = EXCLUDED.consecutive_success,
            total_checks = EXCLUDED.total_checks,
            total_items = EXCLUDED.total_items,
            checked_at = EXCLUDED.checked_at
    `
	_, err := s.db.Exec(ctx, cmd,
		e.URL,
		e.LastStatus,
		e.ConsecutiveFailures,
		e.ConsecutiveEmpty,
		e.ConsecutiveSuccess,
		e.TotalChecks,
		e.TotalItems,
		e.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert feed health: %w", err)
	}
	return nil
}

func (s *Store) ListFeedHealth(ctx context.Context) ([]domain.FeedHealthEntry, error) {
	query := `
        SELECT url, last_status, consecutive_failures, consecutive_empty,
            consecutive_success, total_checks, total_items, checked_at
        FROM feed_health
        ORDER BY url
    `
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed health: %w", err)
	}
	defer rows.Close()

	var entries []domain.FeedHealthEntry
	for rows.Next() {
		var e domain.FeedHealthEntry
		if err := rows.Scan(
			&e.URL,
			&e.LastStatus,
			&e.ConsecutiveFailures,
			&e.ConsecutiveEmpty,
			&e.ConsecutiveSuccess,
			&e.TotalChecks,
			&e.TotalItems,
			&e.CheckedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feed health: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feed health: %w", err)
	}
	return entries, nil
}

// GetFeedHealth loads one entry so a fetch outcome can be folded into the
// running counters. A URL never seen before returns a zero entry.
func (s *Store) GetFeedHealth(ctx context.Context, url string) (domain.FeedHealthEntry, error) {
	query := `
        SELECT url, last_status, consecutive_failures, consecutive_empty,
            consecutive_success, total_checks, total_items, checked_at
        FROM feed_health
        WHERE url = $1
    `
	var e domain.FeedHealthEntry
	err := s.db.QueryRow(ctx, query, url).Scan(
		&e.URL,
		&e.LastStatus,
		&e.ConsecutiveFailures,
		&e.ConsecutiveEmpty,
		&e.ConsecutiveSuccess,
		&e.TotalChecks,
		&e.TotalItems,
		&e.CheckedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FeedHealthEntry{URL: url}, nil
		}
		return domain.FeedHealthEntry{}, fmt.Errorf("failed to read feed health: %w", err)
	}
	return e, nil
}
