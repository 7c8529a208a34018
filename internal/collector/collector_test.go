package collector

import (
	"context"
	"testing"
	"time"

	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/ApexAxiom/briefwire/internal/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	byURL map[string][]domain.ArticleCandidate
}

func (s *stubFetcher) Fetch(_ context.Context, feed domain.Feed) ([]domain.ArticleCandidate, string) {
	items := s.byURL[feed.URL]
	if len(items) == 0 {
		return nil, fetcher.OutcomeEmpty
	}
	return items, fetcher.OutcomeOK
}

type stubHistory struct {
	used map[string]time.Time
	err  error
}

func (s *stubHistory) UsedURLs(context.Context, string, string, time.Time) (map[string]time.Time, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.used == nil {
		return map[string]time.Time{}, nil
	}
	return s.used, nil
}

type stubHealth struct {
	entries map[string]domain.FeedHealthEntry
}

func (s *stubHealth) GetFeedHealth(_ context.Context, url string) (domain.FeedHealthEntry, error) {
	if e, ok := s.entries[url]; ok {
		return e, nil
	}
	return domain.FeedHealthEntry{URL: url}, nil
}

func (s *stubHealth) UpsertFeedHealth(_ context.Context, e domain.FeedHealthEntry) error {
	if s.entries == nil {
		s.entries = map[string]domain.FeedHealthEntry{}
	}
	s.entries[e.URL] = e
	return nil
}

type noopEnricher struct{}

func (noopEnricher) Enrich(context.Context, []domain.ArticleCandidate) {}

func newTestCollector(f FeedFetcher, h HistoryReader, cfg Config) *Collector {
	c := New(f, h, nil, cfg)
	c.details = noopEnricher{}
	return c
}

func testPortfolio(region string, feeds ...domain.Feed) domain.Portfolio {
	return domain.Portfolio{
		ID:    "metals",
		Label: "Industrial Metals",
		Keywords: domain.KeywordPack{
			Primary:   []string{"copper"},
			Secondary: []string{"mining"},
			Exclude:   []string{"football"},
		},
		Feeds: map[string][]domain.Feed{region: feeds},
	}
}

func TestCollect_DedupesByCanonicalURL(t *testing.T) {
	feed := domain.Feed{Name: "wire", URL: "https://feeds.example/rss", Kind: domain.FeedKindRSS}
	f := &stubFetcher{byURL: map[string][]domain.ArticleCandidate{
		feed.URL: {
			{Title: "first", URL: "https://pub.example/story?utm_source=rss"},
			{Title: "same story", URL: "https://pub.example/story/"},
			{Title: "other", URL: "https://pub.example/other"},
		},
	}}

	c := newTestCollector(f, &stubHistory{}, Config{})
	res, err := c.Collect(context.Background(), testPortfolio("us", feed), "us")

	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, 1, res.Metrics.Deduplicated)
	// The original URL of the first occurrence is preserved untouched.
	urls := []string{res.Candidates[0].URL, res.Candidates[1].URL}
	assert.Contains(t, urls, "https://pub.example/story?utm_source=rss")
}

func TestCollect_ExcludesHistoryAndRanks(t *testing.T) {
	feed := domain.Feed{Name: "wire", URL: "https://feeds.example/rss", Kind: domain.FeedKindRSS}
	f := &stubFetcher{byURL: map[string][]domain.ArticleCandidate{
		feed.URL: {
			{Title: "already used copper piece", URL: "https://pub.example/a"},
			{Title: "copper surges on demand", URL: "https://pub.example/b"},
			{Title: "local football scores", URL: "https://pub.example/c"},
		},
	}}
	h := &stubHistory{used: map[string]time.Time{
		"https://pub.example/a": time.Now().Add(-24 * time.Hour),
	}}

	// High minimum disabled: per-run 1 means minimum 2, met by B and C.
	c := newTestCollector(f, h, Config{ArticlesPerRun: 1})
	res, err := c.Collect(context.Background(), testPortfolio("us", feed), "us")

	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "https://pub.example/b", res.Candidates[0].URL, "high scorer first")
	assert.Equal(t, "https://pub.example/c", res.Candidates[1].URL, "excluded-term scorer last")
	assert.Positive(t, res.Candidates[0].Score)
	assert.Negative(t, res.Candidates[1].Score)
}

func TestCollect_BackfillsOldestExclusionFirst(t *testing.T) {
	feed := domain.Feed{Name: "wire", URL: "https://feeds.example/rss", Kind: domain.FeedKindRSS}
	f := &stubFetcher{byURL: map[string][]domain.ArticleCandidate{
		feed.URL: {
			{Title: "copper fresh", URL: "https://pub.example/fresh"},
			{Title: "copper used recently", URL: "https://pub.example/recent"},
			{Title: "copper used long ago", URL: "https://pub.example/old"},
		},
	}}
	h := &stubHistory{used: map[string]time.Time{
		"https://pub.example/recent": time.Now().Add(-1 * time.Hour),
		"https://pub.example/old":    time.Now().Add(-72 * time.Hour),
	}}

	// ArticlesPerRun 1 -> minimum 2: one fresh candidate forces one backfill,
	// and the oldest exclusion is chosen over the recent one.
	c := newTestCollector(f, h, Config{ArticlesPerRun: 1})
	res, err := c.Collect(context.Background(), testPortfolio("us", feed), "us")

	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, 1, res.Metrics.Backfilled)

	urls := []string{res.Candidates[0].URL, res.Candidates[1].URL}
	assert.Contains(t, urls, "https://pub.example/fresh")
	assert.Contains(t, urls, "https://pub.example/old")
	assert.NotContains(t, urls, "https://pub.example/recent")
}

func TestCollect_CapsCandidatesAtDetailDepth(t *testing.T) {
	feed := domain.Feed{Name: "wire", URL: "https://feeds.example/rss", Kind: domain.FeedKindRSS}
	items := make([]domain.ArticleCandidate, 0, 15)
	for i := 0; i < 15; i++ {
		title := "market note"
		if i == 3 {
			title = "copper mining surge"
		}
		items = append(items, domain.ArticleCandidate{
			Title: title,
			URL:   "https://pub.example/story-" + string(rune('a'+i)),
		})
	}
	f := &stubFetcher{byURL: map[string][]domain.ArticleCandidate{feed.URL: items}}

	c := newTestCollector(f, &stubHistory{}, Config{})
	res, err := c.Collect(context.Background(), testPortfolio("us", feed), "us")

	require.NoError(t, err)
	require.Len(t, res.Candidates, detailTopN)
	assert.Equal(t, "copper mining surge", res.Candidates[0].Title, "best scorer survives the cap")
	assert.Equal(t, 15, res.Metrics.FetchedItems)
}

func TestCollect_HistoryErrorAbortsRun(t *testing.T) {
	feed := domain.Feed{Name: "wire", URL: "https://feeds.example/rss", Kind: domain.FeedKindRSS}
	f := &stubFetcher{byURL: map[string][]domain.ArticleCandidate{
		feed.URL: {{Title: "copper", URL: "https://pub.example/a"}},
	}}
	h := &stubHistory{err: assert.AnError}

	c := newTestCollector(f, h, Config{})
	_, err := c.Collect(context.Background(), testPortfolio("us", feed), "us")

	assert.Error(t, err)
}

func TestCollect_TracksFeedHealth(t *testing.T) {
	good := domain.Feed{Name: "good", URL: "https://feeds.example/good", Kind: domain.FeedKindRSS}
	dead := domain.Feed{Name: "dead", URL: "https://feeds.example/dead", Kind: domain.FeedKindRSS}
	f := &stubFetcher{byURL: map[string][]domain.ArticleCandidate{
		good.URL: {{Title: "copper", URL: "https://pub.example/a"}},
	}}
	health := &stubHealth{}

	c := New(f, &stubHistory{}, health, Config{})
	c.details = noopEnricher{}

	_, err := c.Collect(context.Background(), testPortfolio("us", good, dead), "us")
	require.NoError(t, err)

	require.Contains(t, health.entries, good.URL)
	assert.Equal(t, "ok", health.entries[good.URL].LastStatus)
	assert.Equal(t, 1, health.entries[good.URL].TotalItems)

	require.Contains(t, health.entries, dead.URL)
	assert.Equal(t, "empty", health.entries[dead.URL].LastStatus)
	assert.Equal(t, 1, health.entries[dead.URL].ConsecutiveEmpty)
}
