// Package relevance scores candidate text against portfolio keyword packs.
package relevance

import (
	"sort"
	"strings"

	"github.com/ApexAxiom/briefwire/internal/domain"
)

const (
	primaryWeight   = 2
	secondaryWeight = 1
	excludePenalty  = 3
)

// genericExcludes are off-topic terms shared by every portfolio; a portfolio's
// own exclude list is layered on top of these.
var genericExcludes = []string{
	"horoscope",
	"celebrity gossip",
	"lottery results",
	"sponsored content",
	"advertorial",
	"coupon code",
	"giveaway",
}

// Score rates a text against keyword lists: +2 per primary hit, +1 per
// secondary hit, -3 per exclude hit. Matching is case-insensitive substring;
// the function is pure and deterministic.
func Score(text string, primary, secondary, exclude []string) int {
	lower := strings.ToLower(text)

	score := 0
	for _, term := range primary {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			score += primaryWeight
		}
	}
	for _, term := range secondary {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			score += secondaryWeight
		}
	}
	for _, term := range exclude {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			score -= excludePenalty
		}
	}
	return score
}

// ScoreCandidate rates a candidate's title and summary against a pack,
// layering the pack's excludes on the shared generic list.
func ScoreCandidate(c domain.ArticleCandidate, pack domain.KeywordPack) int {
	text := c.Title + " " + c.Summary
	exclude := append(append([]string{}, genericExcludes...), pack.Exclude...)
	return Score(text, pack.Primary, pack.Secondary, exclude)
}

// Rank scores every candidate and sorts descending by score. The sort is
// stable: ties keep their discovery order, so repeated runs over identical
// input produce identical output.
func Rank(candidates []domain.ArticleCandidate, pack domain.KeywordPack) []domain.ArticleCandidate {
	ranked := make([]domain.ArticleCandidate, len(candidates))
	copy(ranked, candidates)

	for i := range ranked {
		ranked[i].Score = ScoreCandidate(ranked[i], pack)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
