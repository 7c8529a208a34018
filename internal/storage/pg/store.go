package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/ApexAxiom/briefwire/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Postgres implementation of storage.Store.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(ctx context.Context, pool *ConnectionPool) (*Store, error) {
	if err := ensureSchema(ctx, pool); err != nil {
		return nil, err
	}
	return &Store{db: pool.conn}, nil
}

func (s *Store) Close() {
	s.db.Close()
}

func (s *Store) SaveBrief(ctx context.Context, b domain.Brief) (uuid.UUID, error) {
	if b.PostID == uuid.Nil {
		b.PostID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if b.Sources == nil {
		b.Sources = []string{}
	}

	sourcesJSON, err := json.Marshal(b.Sources)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal sources: %w", err)
	}
	tagsJSON, err := json.Marshal(b.Tags)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	selectedJSON, err := json.Marshal(b.SelectedArticles)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal selected articles: %w", err)
	}

	cmd := `
        INSERT INTO briefs (post_id, portfolio, region, run_window, brief_day, status,
            generation_status, published_at, body_markdown, summary, sources, tags,
            selected_articles, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING post_id;
    `
	var id uuid.UUID
	err = s.db.QueryRow(
		ctx,
		cmd,
		b.PostID,
		b.Portfolio,
		b.Region,
		b.RunWindow,
		b.BriefDay,
		b.Status,
		b.GenerationStatus,
		b.PublishedAt,
		b.BodyMarkdown,
		b.Summary,
		sourcesJSON,
		tagsJSON,
		selectedJSON,
		b.CreatedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert brief: %w", err)
	}

	return id, nil
}

const briefColumns = `post_id, portfolio, region, run_window, brief_day, status,
	generation_status, published_at, body_markdown, summary, sources, tags,
	selected_articles, created_at`

func (s *Store) LatestPublished(ctx context.Context, portfolio, region string) (*domain.Brief, error) {
	query := `
        SELECT ` + briefColumns + `
        FROM briefs
        WHERE portfolio = $1 AND region = $2 AND status = $3
        ORDER BY published_at DESC
        LIMIT 1
    `
	row := s.db.QueryRow(ctx, query, portfolio, region, domain.BriefStatusPublished)

	b, err := scanBrief(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read latest brief: %w", err)
	}
	return b, nil
}

func (s *Store) ListRegionBriefs(ctx context.Context, region string, olderThan *time.Time, limit int) ([]domain.Brief, error) {
	var rows pgx.Rows
	var err error

	if olderThan == nil {
		query := `
            SELECT ` + briefColumns + `
            FROM briefs
            WHERE region = $1 AND status = $2
            ORDER BY published_at DESC
            LIMIT $3
        `
		rows, err = s.db.Query(ctx, query, region, domain.BriefStatusPublished, limit)
	} else {
		query := `
            SELECT ` + briefColumns + `
            FROM briefs
            WHERE region = $1 AND status = $2 AND published_at < $3
            ORDER BY published_at DESC
            LIMIT $4
        `
		rows, err = s.db.Query(ctx, query, region, domain.BriefStatusPublished, *olderThan, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list region briefs: %w", err)
	}
	defer rows.Close()

	return collectBriefs(rows)
}

func (s *Store) ListBriefs(ctx context.Context, portfolio, region string, limit int) ([]domain.Brief, error) {
	query := `
        SELECT ` + briefColumns + `
        FROM briefs
        WHERE portfolio = $1 AND region = $2
        ORDER BY published_at DESC
        LIMIT $3
    `
	rows, err := s.db.Query(ctx, query, portfolio, region, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list briefs: %w", err)
	}
	defer rows.Close()

	return collectBriefs(rows)
}

func collectBriefs(rows pgx.Rows) ([]domain.Brief, error) {
	var briefs []domain.Brief
	for rows.Next() {
		b, err := scanBrief(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brief: %w", err)
		}
		briefs = append(briefs, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate briefs: %w", err)
	}
	return briefs, nil
}

func scanBrief(row pgx.Row) (*domain.Brief, error) {
	var b domain.Brief
	var sourcesJSON, tagsJSON, selectedJSON []byte

	err := row.Scan(
		&b.PostID,
		&b.Portfolio,
		&b.Region,
		&b.RunWindow,
		&b.BriefDay,
		&b.Status,
		&b.GenerationStatus,
		&b.PublishedAt,
		&b.BodyMarkdown,
		&b.Summary,
		&sourcesJSON,
		&tagsJSON,
		&selectedJSON,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(sourcesJSON, &b.Sources); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &b.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if len(selectedJSON) > 0 {
		if err := json.Unmarshal(selectedJSON, &b.SelectedArticles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal selected articles: %w", err)
		}
	}
	return &b, nil
}
