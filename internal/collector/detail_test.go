package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func articleHTML(body, image, published string) string {
	meta := ""
	if image != "" {
		meta += fmt.Sprintf(`<meta property="og:image" content="%s">`, image)
	}
	if published != "" {
		meta += fmt.Sprintf(`<meta property="article:published_time" content="%s">`, published)
	}
	return fmt.Sprintf(`<html><head>%s</head><body><article><p>%s</p></article></body></html>`, meta, body)
}

func TestEnrich_FillsDetailFields(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, articleHTML("Smelter output fell sharply.", "https://cdn.example.com/hero.jpg", "2026-08-30T08:00:00Z"))
	}))
	defer ts.Close()

	candidates := []domain.ArticleCandidate{{Title: "Smelters", URL: ts.URL}}

	NewDetailFetcher().Enrich(context.Background(), candidates)

	assert.Equal(t, "Smelter output fell sharply.", candidates[0].FullText)
	assert.Equal(t, "https://cdn.example.com/hero.jpg", candidates[0].ImageURL)
	require.NotNil(t, candidates[0].PublishedAt)
	assert.Equal(t, time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC), candidates[0].PublishedAt.UTC())
}

func TestEnrich_FailureLeavesCandidateUntouched(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			panic(http.ErrAbortHandler)
		}
		fmt.Fprint(w, articleHTML("Healthy page.", "", ""))
	}))
	defer ts.Close()

	candidates := []domain.ArticleCandidate{
		{Title: "Broken", URL: ts.URL + "/broken", FullText: "feed summary"},
		{Title: "Healthy", URL: ts.URL + "/ok"},
	}

	NewDetailFetcher().Enrich(context.Background(), candidates)

	assert.Equal(t, "feed summary", candidates[0].FullText)
	assert.Equal(t, "Healthy page.", candidates[1].FullText)
}

func TestEnrich_DoesNotOverridePublishDateFromFeed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, articleHTML("Body.", "", "2026-08-30T08:00:00Z"))
	}))
	defer ts.Close()

	feedDate := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	candidates := []domain.ArticleCandidate{{URL: ts.URL, PublishedAt: &feedDate}}

	NewDetailFetcher().Enrich(context.Background(), candidates)

	assert.Equal(t, feedDate, *candidates[0].PublishedAt)
}
