package domain

import (
	"time"

	"github.com/google/uuid"
)

// BriefStatus is the publication state of a brief record.
type BriefStatus string

const (
	BriefStatusDraft     BriefStatus = "draft"
	BriefStatusPublished BriefStatus = "published"
	BriefStatusFailed    BriefStatus = "failed"
)

// GenerationStatus records how the brief's content came to exist.
type GenerationStatus string

const (
	GenerationPublished GenerationStatus = "published"
	GenerationNoUpdates GenerationStatus = "no-updates"
	GenerationFailed    GenerationStatus = "generation-failed"
)

// PlaceholderReason tags why a fallback brief was produced. Its values are a
// subset of GenerationStatus and propagate into the brief's tags.
type PlaceholderReason string

const (
	ReasonNoUpdates        PlaceholderReason = "no-updates"
	ReasonGenerationFailed PlaceholderReason = "generation-failed"
)

const (
	TagCarryForward      = "carry-forward"
	TagSystemPlaceholder = "system-placeholder"
)

// GenerationStatus maps the reason onto the brief field that records it.
func (r PlaceholderReason) GenerationStatus() GenerationStatus {
	if r == ReasonGenerationFailed {
		return GenerationFailed
	}
	return GenerationNoUpdates
}

// SelectedArticle references one of the candidates handed to the generator,
// by its position in the candidate list the generator saw.
type SelectedArticle struct {
	Index int    `json:"index"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Brief is the published unit of content. Once persisted it is immutable;
// supersession happens by writing a new record with a fresh PostID.
type Brief struct {
	PostID           uuid.UUID         `json:"postId"`
	Region           string            `json:"region"`
	Portfolio        string            `json:"portfolio"`
	RunWindow        string            `json:"runWindow,omitempty"`
	BriefDay         string            `json:"briefDay"`
	Status           BriefStatus       `json:"status"`
	GenerationStatus GenerationStatus  `json:"generationStatus,omitempty"`
	PublishedAt      time.Time         `json:"publishedAt"`
	BodyMarkdown     string            `json:"bodyMarkdown"`
	Summary          string            `json:"summary,omitempty"`
	Sources          []string          `json:"sources"`
	Tags             []string          `json:"tags,omitempty"`
	SelectedArticles []SelectedArticle `json:"selectedArticles,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// HasTag reports whether the brief carries the given tag.
func (b *Brief) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
