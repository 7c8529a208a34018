// Package validate rejects generated briefs whose claims are not traceable to
// the sources they were given. The generator is an untrusted black box; its
// output passes through here before anything is persisted.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ApexAxiom/briefwire/internal/domain"
)

// MinCitations is the minimum number of distinct URLs a brief body must cite.
const MinCitations = 5

// Issue codes. The issue list doubles as repair feedback for external
// re-prompting loops, so messages carry the offending detail.
const (
	CodeSourceNotCited        = "source-not-cited"
	CodeURLNotInSources       = "url-not-in-sources"
	CodeInsufficientCitations = "insufficient-citations"
	CodeUnsupportedClaim      = "unsupported-claim"
	CodeIndexOutOfRange       = "index-out-of-range"
)

type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	urlPattern = regexp.MustCompile(`https?://[^\s<>"\)\]]+`)

	// numericClaim matches percentage, currency, and magnitude/date-like
	// tokens that make a sentence factual.
	numericClaim = regexp.MustCompile(`(?i)\d+(\.\d+)?\s?%|[$€£¥]\s?\d|\b\d+(\.\d+)?\s?(million|billion|trillion|tonnes|barrels|bps)\b|\b\d{4}-\d{2}-\d{2}\b`)

	// sourceTag anchors a claim to one of the candidate indices the
	// generator was given, e.g. "[2]" or a markdown link "[2](https://...)".
	sourceTag = regexp.MustCompile(`\[(\d+)\](\([^)]*\))?\s*[.!?]*\s*$`)

	// analysisTag marks a sentence as explicitly non-factual commentary.
	analysisTag = regexp.MustCompile(`(?i)\[analysis\]`)
)

// Validate checks a brief against its source articles and returns every
// problem found. An empty slice means the brief passes. It never fails hard;
// the strict publish-time gate is AssertValid.
func Validate(b *domain.Brief, candidates []domain.ArticleCandidate) []Issue {
	var issues []Issue

	for _, src := range b.Sources {
		if !strings.Contains(b.BodyMarkdown, src) {
			issues = append(issues, Issue{
				Code:    CodeSourceNotCited,
				Message: fmt.Sprintf("source %s does not appear in the body", src),
			})
		}
	}

	cited := distinctURLs(b.BodyMarkdown)
	if len(cited) < MinCitations {
		issues = append(issues, Issue{
			Code:    CodeInsufficientCitations,
			Message: fmt.Sprintf("body cites %d distinct URLs, need at least %d", len(cited), MinCitations),
		})
	}

	// The reverse direction: every URL the brief references, in prose or in
	// structured fields, must be listed in Sources. Anything unlisted would
	// escape used-URL history and break cross-run dedupe.
	listed := make(map[string]bool, len(b.Sources))
	for _, src := range b.Sources {
		listed[src] = true
	}
	for _, u := range cited {
		if !listed[u] {
			issues = append(issues, Issue{
				Code:    CodeURLNotInSources,
				Message: fmt.Sprintf("body cites %s which is not listed in sources", u),
			})
		}
	}
	for _, sel := range b.SelectedArticles {
		if sel.URL != "" && !listed[sel.URL] {
			issues = append(issues, Issue{
				Code:    CodeURLNotInSources,
				Message: fmt.Sprintf("selected article %q links %s which is not listed in sources", sel.Title, sel.URL),
			})
		}
	}

	for _, sentence := range splitSentences(b.BodyMarkdown) {
		if !numericClaim.MatchString(stripSourceTags(sentence)) {
			continue
		}
		if analysisTag.MatchString(sentence) {
			continue
		}
		m := sourceTag.FindStringSubmatch(strings.TrimSpace(sentence))
		if m == nil {
			issues = append(issues, Issue{
				Code:    CodeUnsupportedClaim,
				Message: fmt.Sprintf("numeric claim lacks a source tag: %q", snippet(sentence)),
			})
			continue
		}
		if !indexInRange(m[1], len(candidates)) {
			issues = append(issues, Issue{
				Code:    CodeIndexOutOfRange,
				Message: fmt.Sprintf("source tag %s references no supplied candidate: %q", m[0], snippet(sentence)),
			})
		}
	}

	for _, sel := range b.SelectedArticles {
		if sel.Index < 0 || sel.Index >= len(candidates) {
			issues = append(issues, Issue{
				Code:    CodeIndexOutOfRange,
				Message: fmt.Sprintf("selected article index %d outside candidate set of %d", sel.Index, len(candidates)),
			})
		}
	}

	return issues
}

// AssertValid is the strict publish-time gate: any issue rejects the whole
// brief, and fabricated indices are called out first because they indicate
// the generator invented references.
func AssertValid(b *domain.Brief, candidates []domain.ArticleCandidate) error {
	issues := Validate(b, candidates)
	if len(issues) == 0 {
		return nil
	}

	for _, issue := range issues {
		if issue.Code == CodeIndexOutOfRange {
			return fmt.Errorf("brief rejected: %s", issue.Message)
		}
	}
	return fmt.Errorf("brief rejected with %d citation issues, first: %s", len(issues), issues[0].Message)
}

func distinctURLs(body string) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, u := range urlPattern.FindAllString(body, -1) {
		u = strings.TrimRight(u, ".,;")
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}

var sentenceBoundary = regexp.MustCompile(`[.!?]\s+|\n+`)

// splitSentences is deliberately coarse: a sentence keeps its trailing source
// tag because tags are written after the terminal punctuation.
func splitSentences(body string) []string {
	parts := sentenceBoundary.Split(body, -1)
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var anySourceTag = regexp.MustCompile(`\[\d+\]`)

func stripSourceTags(sentence string) string {
	return anySourceTag.ReplaceAllString(sentence, "")
}

func indexInRange(tag string, n int) bool {
	idx := 0
	for _, ch := range tag {
		idx = idx*10 + int(ch-'0')
	}
	return idx >= 0 && idx < n
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
