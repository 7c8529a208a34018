// Package generate is the boundary to the external generative service. The
// core neither builds prompts nor picks models; it sends candidates out and
// validates what comes back.
package generate

import (
	"context"

	"github.com/ApexAxiom/briefwire/internal/domain"
)

// Request carries everything the external service needs for one brief.
type Request struct {
	Portfolio  string                    `json:"portfolio"`
	Region     string                    `json:"region"`
	DayKey     string                    `json:"dayKey"`
	Candidates []domain.ArticleCandidate `json:"candidates"`
}

// Draft is the JSON-shaped object the generative service returns. It is
// untrusted until the citation validator has passed it.
type Draft struct {
	BodyMarkdown     string                   `json:"bodyMarkdown"`
	Summary          string                   `json:"summary"`
	Sources          []string                 `json:"sources"`
	Tags             []string                 `json:"tags,omitempty"`
	SelectedArticles []domain.SelectedArticle `json:"selectedArticles,omitempty"`
}

type Generator interface {
	Generate(ctx context.Context, req Request) (*Draft, error)
}
