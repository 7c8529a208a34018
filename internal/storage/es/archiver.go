// Package es mirrors published briefs into an Elasticsearch index for the
// downstream rendering/search layer. The index is an archive: the Postgres
// store remains the system of record and indexing failures never fail a
// publish.
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
)

// Document is the brief shape stored in the archive index.
type Document struct {
	PostID           string    `json:"post_id"`
	Portfolio        string    `json:"portfolio"`
	Region           string    `json:"region"`
	BriefDay         string    `json:"brief_day"`
	Status           string    `json:"status"`
	GenerationStatus string    `json:"generation_status"`
	PublishedAt      time.Time `json:"published_at"`
	BodyMarkdown     string    `json:"body_markdown"`
	Summary          string    `json:"summary"`
	Sources          []string  `json:"sources"`
	Tags             []string  `json:"tags"`
	IndexedAt        time.Time `json:"indexed_at"`
}

type Archiver struct {
	client    *elasticsearch.TypedClient
	indexName string
	config    ClientConfig
}

func NewArchiver(ctx context.Context, config ClientConfig) (*Archiver, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	a := &Archiver{
		client:    client,
		indexName: config.IndexName,
		config:    config,
	}

	if err := a.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return a, nil
}

// IndexBrief writes one brief into the archive index, keyed by post id.
func (a *Archiver) IndexBrief(ctx context.Context, b domain.Brief) error {
	doc := a.briefToDocument(b)

	res, err := a.client.Index(a.indexName).Id(doc.PostID).Document(doc).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index brief: %w", err)
	}

	slog.Info("brief archived", "postId", doc.PostID, "index", a.indexName, "result", res.Result)
	return nil
}

// IndexBulk archives a batch of briefs in one bulk request, used by the
// coverage_report re-index mode to close archive holes.
func (a *Archiver) IndexBulk(ctx context.Context, briefs []domain.Brief) error {
	if len(briefs) == 0 {
		return nil
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         a.indexName,
		Client:        a.client,
		NumWorkers:    4,
		FlushBytes:    5e+6, // 5MB
		FlushInterval: 30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	var failed int64
	for _, b := range briefs {
		doc := a.briefToDocument(b)

		docBytes, err := json.Marshal(doc)
		if err != nil {
			slog.Error("failed to marshal brief document", "error", err, "postId", doc.PostID)
			failed++
			continue
		}

		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: doc.PostID,
			Body:       bytes.NewReader(docBytes),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed++
				if err != nil {
					slog.Error("bulk index error", "error", err, "postId", item.DocumentID)
				} else {
					slog.Error("bulk index error", "status", res.Status, "reason", res.Error.Reason, "postId", item.DocumentID)
				}
			},
		})
		if err != nil {
			failed++
			slog.Error("failed to add brief to bulk indexer", "error", err, "postId", doc.PostID)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("failed to close bulk indexer: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("failed to index %d out of %d briefs", failed, len(briefs))
	}
	return nil
}

func (a *Archiver) briefToDocument(b domain.Brief) Document {
	return Document{
		PostID:           b.PostID.String(),
		Portfolio:        b.Portfolio,
		Region:           b.Region,
		BriefDay:         b.BriefDay,
		Status:           string(b.Status),
		GenerationStatus: string(b.GenerationStatus),
		PublishedAt:      b.PublishedAt,
		BodyMarkdown:     b.BodyMarkdown,
		Summary:          b.Summary,
		Sources:          b.Sources,
		Tags:             b.Tags,
		IndexedAt:        time.Now(),
	}
}

func (a *Archiver) EnsureIndex(ctx context.Context) error {
	existsRes, err := a.client.Indices.Exists(a.indexName).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}

	if existsRes {
		slog.Info("index already exists", "index", a.indexName)
		return nil
	}

	mappings := types.TypeMapping{
		Properties: map[string]types.Property{
			"post_id":           types.NewKeywordProperty(),
			"portfolio":         types.NewKeywordProperty(),
			"region":            types.NewKeywordProperty(),
			"brief_day":         types.NewKeywordProperty(),
			"status":            types.NewKeywordProperty(),
			"generation_status": types.NewKeywordProperty(),
			"published_at":      types.NewDateProperty(),
			"body_markdown":     types.NewTextProperty(),
			"summary":           types.NewTextProperty(),
			"sources":           types.NewKeywordProperty(),
			"tags":              types.NewKeywordProperty(),
			"indexed_at":        types.NewDateProperty(),
		},
	}

	createRes, err := a.client.Indices.Create(a.indexName).
		Mappings(&mappings).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if !createRes.Acknowledged {
		return fmt.Errorf("index creation was not acknowledged")
	}

	slog.Info("index created", "index", a.indexName)
	return nil
}
