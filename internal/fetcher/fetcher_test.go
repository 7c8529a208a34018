package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ApexAxiom/briefwire/internal/canonical"
	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Wire</title>
    <item>
      <title>Copper rallies</title>
      <link>https://publisher.example/copper-rallies</link>
      <description>Copper futures climbed on supply fears.</description>
      <pubDate>Mon, 31 Aug 2026 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Mines reopen</title>
      <link>https://publisher.example/mines-reopen</link>
      <description>Two mines resumed output.</description>
    </item>
  </channel>
</rss>`

func newTestFetcher(cooldownHosts []string) *Fetcher {
	f := New(canonical.NewResolver(nil), NewCooldown(cooldownHosts, time.Minute))
	f.sleep = func(time.Duration) {}
	return f
}

func serverHost(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u.Host
}

func TestFetch_ParsesRSSItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	f := newTestFetcher(nil)
	got, outcome := f.Fetch(context.Background(), domain.Feed{Name: "wire", URL: srv.URL, Kind: domain.FeedKindRSS})

	assert.Equal(t, OutcomeOK, outcome)
	require.Len(t, got, 2)
	assert.Equal(t, "Copper rallies", got[0].Title)
	assert.Equal(t, "https://publisher.example/copper-rallies", got[0].URL)
	assert.Equal(t, "wire", got[0].SourceName)
	assert.NotNil(t, got[0].PublishedAt)
	assert.Nil(t, got[1].PublishedAt)
}

func TestFetch_MalformedBodyAbandonsWithoutRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("<html><body>maintenance page</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(nil)
	got, outcome := f.Fetch(context.Background(), domain.Feed{Name: "wire", URL: srv.URL, Kind: domain.FeedKindRSS})

	assert.Nil(t, got)
	assert.Equal(t, OutcomeMalformed, outcome)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "malformed is not transient")
}

func TestFetch_ClientErrorAbandonsImmediately(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(nil)
	got, outcome := f.Fetch(context.Background(), domain.Feed{Name: "wire", URL: srv.URL, Kind: domain.FeedKindRSS})

	assert.Nil(t, got)
	assert.Equal(t, OutcomeClientErr, outcome)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_ServerErrorRetriesThenExhausts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(nil)
	got, outcome := f.Fetch(context.Background(), domain.Feed{Name: "wire", URL: srv.URL, Kind: domain.FeedKindRSS})

	assert.Nil(t, got)
	assert.Equal(t, OutcomeExhausted, outcome)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_RateLimitStartsCooldownForEligibleHost(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	host := serverHost(t, srv)
	f := newTestFetcher([]string{host})
	feed := domain.Feed{Name: "heavy", URL: srv.URL, Kind: domain.FeedKindRSS}

	_, outcome := f.Fetch(context.Background(), feed)
	assert.Equal(t, "http-429", outcome)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Within the cooldown window the next fetch short-circuits with no
	// network call at all.
	got, outcome := f.Fetch(context.Background(), feed)
	assert.Nil(t, got)
	assert.Equal(t, OutcomeCooldown, outcome)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_ExhaustedRetriesCooldownEligibleHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	host := serverHost(t, srv)
	f := newTestFetcher([]string{host})

	_, outcome := f.Fetch(context.Background(), domain.Feed{Name: "heavy", URL: srv.URL, Kind: domain.FeedKindRSS})
	assert.Equal(t, OutcomeExhausted, outcome)
	assert.True(t, f.cooldown.Active(host))
}

func TestFetch_WebKindExtractsHeadlineLinks(t *testing.T) {
	page := `<html><body>
	  <article><h2><a href="/stories/one">First story</a></h2></article>
	  <article><h2><a href="https://other.example/two">Second story</a></h2></article>
	  <footer><a href="/about">About us</a></footer>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	f := newTestFetcher(nil)
	got, outcome := f.Fetch(context.Background(), domain.Feed{Name: "site", URL: srv.URL, Kind: domain.FeedKindWeb})

	assert.Equal(t, OutcomeOK, outcome)
	require.Len(t, got, 2)
	assert.Equal(t, "First story", got[0].Title)
	assert.Equal(t, srv.URL+"/stories/one", got[0].URL)
	assert.Equal(t, "https://other.example/two", got[1].URL)
}

func TestLooksLikeFeedXML(t *testing.T) {
	assert.True(t, looksLikeFeedXML([]byte("<?xml version=\"1.0\"?><rss/>")))
	assert.True(t, looksLikeFeedXML([]byte("\n  <rss version=\"2.0\">")))
	assert.True(t, looksLikeFeedXML([]byte("<feed xmlns=\"http://www.w3.org/2005/Atom\">")))
	assert.True(t, looksLikeFeedXML([]byte("\uFEFF<?xml version=\"1.0\"?><rss/>")))
	assert.False(t, looksLikeFeedXML([]byte("<html><body>nope</body></html>")))
	assert.False(t, looksLikeFeedXML([]byte("{}")))
}

func TestCooldown_ExpiresAfterWindow(t *testing.T) {
	c := NewCooldown([]string{"heavy.example"}, time.Minute)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Start("heavy.example")
	assert.True(t, c.Active("heavy.example"))

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	assert.False(t, c.Active("heavy.example"))
}

func TestCooldown_IgnoresNonEligibleHosts(t *testing.T) {
	c := NewCooldown([]string{"heavy.example"}, time.Minute)
	c.Start("other.example")
	assert.False(t, c.Active("other.example"))
	assert.False(t, c.Eligible("other.example"))
	assert.True(t, c.Eligible("HEAVY.example"))
}
