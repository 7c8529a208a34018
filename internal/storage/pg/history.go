package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (s *Store) UsedURLs(ctx context.Context, portfolio, region string, since time.Time) (map[string]time.Time, error) {
	query := `
        SELECT canonical_url, MAX(used_at)
        FROM used_articles
        WHERE portfolio = $1 AND region = $2 AND used_at >= $3
        GROUP BY canonical_url
    `
	rows, err := s.db.Query(ctx, query, portfolio, region, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read used urls: %w", err)
	}
	defer rows.Close()

	used := make(map[string]time.Time)
	for rows.Next() {
		var url string
		var usedAt time.Time
		if err := rows.Scan(&url, &usedAt); err != nil {
			return nil, fmt.Errorf("failed to scan used url: %w", err)
		}
		used[url] = usedAt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate used urls: %w", err)
	}
	return used, nil
}

func (s *Store) RecordUsedURLs(ctx context.Context, portfolio, region string, postID uuid.UUID, urls []string, usedAt time.Time) error {
	if len(urls) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(urls))
	for _, u := range urls {
		rows = append(rows, []interface{}{portfolio, region, postID, u, usedAt})
	}

	_, err := s.db.CopyFrom(
		ctx,
		pgx.Identifier{"used_articles"},
		[]string{"portfolio", "region", "post_id", "canonical_url", "used_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to record used urls: %w", err)
	}
	return nil
}
