package domain

import "time"

// FeedKind distinguishes how a feed document should be parsed.
type FeedKind string

const (
	FeedKindRSS FeedKind = "rss"
	FeedKindWeb FeedKind = "web"
)

// Feed is one configured source for a portfolio/region pair. Configuration
// is loaded once at startup and treated as read-only afterwards.
type Feed struct {
	Name string   `json:"name" yaml:"name"`
	URL  string   `json:"url" yaml:"url"`
	Kind FeedKind `json:"kind" yaml:"kind"`
}

// FeedHealthEntry tracks fetch outcomes per feed URL. It is overwritten after
// every fetch attempt and consumed only by observability tooling; routing
// decisions never read it.
type FeedHealthEntry struct {
	URL                 string    `json:"url"`
	LastStatus          string    `json:"lastStatus"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	ConsecutiveEmpty    int       `json:"consecutiveEmpty"`
	ConsecutiveSuccess  int       `json:"consecutiveSuccess"`
	TotalChecks         int       `json:"totalChecks"`
	TotalItems          int       `json:"totalItems"`
	CheckedAt           time.Time `json:"checkedAt"`
}

// RecordSuccess updates the counters for a fetch that returned items.
func (h *FeedHealthEntry) RecordSuccess(items int, now time.Time) {
	h.TotalChecks++
	h.TotalItems += items
	h.ConsecutiveFailures = 0
	h.CheckedAt = now
	if items == 0 {
		h.LastStatus = "empty"
		h.ConsecutiveEmpty++
		h.ConsecutiveSuccess = 0
		return
	}
	h.LastStatus = "ok"
	h.ConsecutiveEmpty = 0
	h.ConsecutiveSuccess++
}

// RecordFailure updates the counters for a fetch that produced no usable feed.
func (h *FeedHealthEntry) RecordFailure(status string, now time.Time) {
	h.TotalChecks++
	h.LastStatus = status
	h.ConsecutiveFailures++
	h.ConsecutiveSuccess = 0
	h.CheckedAt = now
}
