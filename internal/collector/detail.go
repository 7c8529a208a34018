package collector

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/PuerkitoBio/goquery"
)

const detailTimeout = 10 * time.Second

// DetailFetcher enriches ranked candidates with full text, a canonical image,
// and a publish date scraped from the article page. Fan-out is capped by a
// counting gate per run; results land at the candidate's own index so rank
// order survives out-of-order completion.
type DetailFetcher struct {
	client *http.Client
}

func NewDetailFetcher() *DetailFetcher {
	return &DetailFetcher{
		client: &http.Client{Timeout: detailTimeout},
	}
}

// Enrich fetches details for every candidate in place. A failed detail fetch
// leaves that candidate's feed-level fields untouched and never fails the
// batch.
func (d *DetailFetcher) Enrich(ctx context.Context, candidates []domain.ArticleCandidate) {
	gate := make(chan struct{}, detailConcurrency)
	var wg sync.WaitGroup

	for i := range candidates {
		wg.Add(1)
		gate <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-gate }()

			detail, err := d.fetchOne(ctx, candidates[idx].URL)
			if err != nil {
				slog.Debug("detail fetch failed, keeping feed-level fields",
					"url", candidates[idx].URL, "error", err)
				return
			}

			if detail.fullText != "" {
				candidates[idx].FullText = detail.fullText
			}
			if detail.imageURL != "" {
				candidates[idx].ImageURL = detail.imageURL
			}
			if detail.publishedAt != nil && candidates[idx].PublishedAt == nil {
				candidates[idx].PublishedAt = detail.publishedAt
			}
		}(i)
	}
	wg.Wait()
}

type articleDetail struct {
	fullText    string
	imageURL    string
	publishedAt *time.Time
}

func (d *DetailFetcher) fetchOne(ctx context.Context, rawURL string) (*articleDetail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	detail := &articleDetail{
		imageURL: metaContent(doc, `meta[property="og:image"]`),
		fullText: extractBodyText(doc),
	}

	if ts := metaContent(doc, `meta[property="article:published_time"]`); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			detail.publishedAt = &parsed
		}
	}

	return detail, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// extractBodyText prefers paragraphs inside an article element, falling back
// to all paragraphs on the page.
func extractBodyText(doc *goquery.Document) string {
	paragraphs := doc.Find("article p")
	if paragraphs.Length() == 0 {
		paragraphs = doc.Find("p")
	}

	var parts []string
	paragraphs.Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}
