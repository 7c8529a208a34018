package domain

import "time"

// ArticleCandidate is a transient item produced during one collection run.
// URL is the original publisher URL and is never mutated; the canonical key
// used for dedupe and history lookups is derived on demand and never stored
// as the item's identity.
type ArticleCandidate struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	SourceName  string     `json:"sourceName,omitempty"`
	Score       int        `json:"score"`

	// Detail-fetch enrichment. Empty when the per-item detail fetch failed;
	// a failed detail fetch keeps the feed-level fields above.
	FullText string `json:"fullText,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}
