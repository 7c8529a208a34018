// Package fetcher retrieves one feed document at a time with retry, linear
// backoff, and per-provider cooldown. It never returns an error to callers:
// an unrecoverable fetch degrades to an empty candidate list.
package fetcher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ApexAxiom/briefwire/internal/canonical"
	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/ApexAxiom/briefwire/internal/metrics"
	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const (
	maxAttempts  = 3
	backoffStep  = 1 * time.Second
	fetchTimeout = 15 * time.Second
	maxBodyBytes = 4 << 20

	userAgent = "briefwire/1.0 (+https://github.com/ApexAxiom/briefwire)"
)

// Outcome labels for health tracking and metrics.
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeCooldown  = "cooldown"
	OutcomeMalformed = "malformed"
	OutcomeClientErr = "client-error"
	OutcomeExhausted = "exhausted"
)

// Fetcher retrieves and parses feed documents.
type Fetcher struct {
	client   *http.Client
	parser   *gofeed.Parser
	resolver *canonical.Resolver
	cooldown *Cooldown

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(time.Duration)
}

func New(resolver *canonical.Resolver, cooldown *Cooldown) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: fetchTimeout},
		parser:   gofeed.NewParser(),
		resolver: resolver,
		cooldown: cooldown,
		sleep:    time.Sleep,
	}
}

// Fetch retrieves one feed and maps its items to candidates. The returned
// outcome labels the terminal result for feed-health tracking. Fetch never
// fails: every unrecoverable condition yields (nil, <outcome>).
func (f *Fetcher) Fetch(ctx context.Context, feed domain.Feed) ([]domain.ArticleCandidate, string) {
	host := hostOf(feed.URL)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if f.cooldown.Active(host) {
			slog.Info("skipping feed on cooldown", "feed", feed.Name, "host", host)
			metrics.FeedFetches.WithLabelValues(host, OutcomeCooldown).Inc()
			return nil, OutcomeCooldown
		}

		if attempt > 1 {
			f.sleep(time.Duration(attempt) * backoffStep)
		}

		candidates, outcome, retry := f.attempt(ctx, feed, host)
		if !retry {
			metrics.FeedFetches.WithLabelValues(host, outcome).Inc()
			return candidates, outcome
		}
		slog.Warn("feed fetch attempt failed", "feed", feed.Name, "attempt", attempt, "outcome", outcome)
	}

	// A known heavy provider that burned every retry gets a cooldown so the
	// rest of the cycle stops hammering it.
	if f.cooldown.Eligible(host) {
		f.cooldown.Start(host)
	}
	metrics.FeedFetches.WithLabelValues(host, OutcomeExhausted).Inc()
	return nil, OutcomeExhausted
}

// attempt performs a single HTTP round trip. retry=true means the failure is
// transient and the caller may try again.
func (f *Fetcher) attempt(ctx context.Context, feed domain.Feed, host string) (candidates []domain.ArticleCandidate, outcome string, retry bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, OutcomeClientErr, false
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/html, text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		// Timeouts and connection resets are all transient here.
		return nil, "network-error", true
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if f.cooldown.Eligible(host) {
			f.cooldown.Start(host)
		}
		return nil, "http-429", false
	case resp.StatusCode >= 500:
		if f.cooldown.Eligible(host) && throttling5xx(resp.StatusCode) {
			f.cooldown.Start(host)
		}
		return nil, "http-5xx", true
	case resp.StatusCode >= 400:
		return nil, OutcomeClientErr, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "read-error", true
	}

	switch feed.Kind {
	case domain.FeedKindWeb:
		candidates = f.parseWebPage(ctx, feed, body)
	default:
		if !looksLikeFeedXML(body) {
			// A non-XML body from a feed endpoint is a broken feed, not a
			// transient hiccup. Abandon without retry.
			return nil, OutcomeMalformed, false
		}
		candidates, err = f.parseFeedXML(ctx, feed, body)
		if err != nil {
			return nil, OutcomeMalformed, false
		}
	}

	if len(candidates) == 0 {
		return nil, OutcomeEmpty, false
	}
	return candidates, OutcomeOK, false
}

func (f *Fetcher) parseFeedXML(ctx context.Context, feed domain.Feed, body []byte) ([]domain.ArticleCandidate, error) {
	parsed, err := f.parser.ParseString(string(body))
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.ArticleCandidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}

		var publishedAt *time.Time
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = item.UpdatedParsed
		}

		summary := strings.TrimSpace(item.Description)
		if summary == "" {
			summary = truncate(strings.TrimSpace(item.Content), 400)
		}

		candidates = append(candidates, domain.ArticleCandidate{
			Title:       strings.TrimSpace(item.Title),
			URL:         f.resolver.Resolve(ctx, item.Link),
			PublishedAt: publishedAt,
			Summary:     summary,
			SourceName:  feed.Name,
		})
	}
	return candidates, nil
}

// parseWebPage extracts headline links from an HTML listing page for feeds
// that publish no RSS. Only anchors inside article or heading elements count.
func (f *Fetcher) parseWebPage(ctx context.Context, feed domain.Feed, body []byte) []domain.ArticleCandidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		slog.Warn("failed to parse web feed page", "feed", feed.Name, "error", err)
		return nil
	}

	base := feed.URL
	var candidates []domain.ArticleCandidate
	seen := make(map[string]bool)

	doc.Find("article a[href], h2 a[href], h3 a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		title := strings.TrimSpace(sel.Text())
		if href == "" || title == "" {
			return
		}
		link := absoluteURL(base, href)
		if link == "" || seen[link] {
			return
		}
		seen[link] = true
		candidates = append(candidates, domain.ArticleCandidate{
			Title:      title,
			URL:        f.resolver.Resolve(ctx, link),
			SourceName: feed.Name,
		})
	})
	return candidates
}

// looksLikeFeedXML sniffs for an XML/RSS/Atom prolog before handing the body
// to the parser, so HTML error pages are classified as malformed rather than
// transient.
func looksLikeFeedXML(body []byte) bool {
	head := strings.TrimLeft(string(body[:min(len(body), 512)]), " \t\r\n\uFEFF")
	for _, prefix := range []string{"<?xml", "<rss", "<feed", "<rdf:RDF"} {
		if strings.HasPrefix(head, prefix) {
			return true
		}
	}
	return false
}

// throttling5xx lists the 5xx codes that indicate load shedding rather than
// a plain server bug.
func throttling5xx(status int) bool {
	return status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout
}

func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
