package validate

import (
	"strings"
	"testing"

	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateSet(n int) []domain.ArticleCandidate {
	out := make([]domain.ArticleCandidate, n)
	for i := range out {
		out[i] = domain.ArticleCandidate{URL: "https://pub.example/" + string(rune('a'+i))}
	}
	return out
}

func validBody() string {
	return strings.Join([]string{
		"Copper rose 3.2% on Monday [0](https://pub.example/a).",
		"Output reached 2 million tonnes [1](https://pub.example/b).",
		"Analysts see support at $9,000 [2](https://pub.example/c).",
		"Inventories fell for a third week [3](https://pub.example/d).",
		"Demand outlook remains firm. [analysis]",
		"Further reading: https://pub.example/e",
	}, "\n")
}

func validBrief() *domain.Brief {
	return &domain.Brief{
		BodyMarkdown: validBody(),
		Sources: []string{
			"https://pub.example/a",
			"https://pub.example/b",
			"https://pub.example/c",
			"https://pub.example/d",
			"https://pub.example/e",
		},
	}
}

func TestValidate_PassesCompliantBrief(t *testing.T) {
	issues := Validate(validBrief(), candidateSet(5))
	assert.Empty(t, issues)
}

func TestValidate_FlagsSourceMissingFromBody(t *testing.T) {
	b := validBrief()
	b.Sources = append(b.Sources, "https://pub.example/never-mentioned")

	issues := Validate(b, candidateSet(5))

	require.Len(t, issues, 1)
	assert.Equal(t, CodeSourceNotCited, issues[0].Code)
	assert.Contains(t, issues[0].Message, "never-mentioned")
}

func TestValidate_FlagsTooFewCitations(t *testing.T) {
	b := &domain.Brief{
		BodyMarkdown: "Quiet day in the market. See https://pub.example/a and https://pub.example/b",
		Sources:      []string{"https://pub.example/a", "https://pub.example/b"},
	}

	issues := Validate(b, candidateSet(2))

	require.Len(t, issues, 1)
	assert.Equal(t, CodeInsufficientCitations, issues[0].Code)
}

func TestValidate_FlagsUntaggedNumericClaim(t *testing.T) {
	b := validBrief()
	b.BodyMarkdown += "\nZinc jumped 12% overnight."

	issues := Validate(b, candidateSet(5))

	require.Len(t, issues, 1)
	assert.Equal(t, CodeUnsupportedClaim, issues[0].Code)
	assert.Contains(t, issues[0].Message, "Zinc jumped 12%")
}

func TestValidate_AnalysisTagExemptsClaim(t *testing.T) {
	b := validBrief()
	b.BodyMarkdown += "\nZinc could add 12% this quarter [analysis]."

	assert.Empty(t, Validate(b, candidateSet(5)))
}

func TestValidate_FlagsFabricatedSourceIndex(t *testing.T) {
	b := validBrief()
	b.BodyMarkdown += " Nickel fell 2% [9](https://pub.example/z)."

	issues := Validate(b, candidateSet(5))

	// The fabricated tag is flagged twice over: the index references no
	// candidate and its link is not listed in sources.
	require.Len(t, issues, 2)
	codes := []string{issues[0].Code, issues[1].Code}
	assert.Contains(t, codes, CodeIndexOutOfRange)
	assert.Contains(t, codes, CodeURLNotInSources)
}

func TestValidate_FlagsBodyURLMissingFromSources(t *testing.T) {
	b := validBrief()
	b.BodyMarkdown += "\nBackground reading at https://pub.example/not-in-sources for context."

	issues := Validate(b, candidateSet(5))

	require.Len(t, issues, 1)
	assert.Equal(t, CodeURLNotInSources, issues[0].Code)
	assert.Contains(t, issues[0].Message, "not-in-sources")
}

func TestValidate_FlagsSelectedArticleURLMissingFromSources(t *testing.T) {
	b := validBrief()
	b.SelectedArticles = []domain.SelectedArticle{
		{Index: 0, Title: "Copper piece", URL: "https://pub.example/unlisted"},
	}

	issues := Validate(b, candidateSet(5))

	require.Len(t, issues, 1)
	assert.Equal(t, CodeURLNotInSources, issues[0].Code)
	assert.Contains(t, issues[0].Message, "unlisted")
}

func TestValidate_FlagsFabricatedSelectedArticle(t *testing.T) {
	b := validBrief()
	b.SelectedArticles = []domain.SelectedArticle{{Index: 7}}

	issues := Validate(b, candidateSet(5))

	require.Len(t, issues, 1)
	assert.Equal(t, CodeIndexOutOfRange, issues[0].Code)
}

func TestAssertValid(t *testing.T) {
	assert.NoError(t, AssertValid(validBrief(), candidateSet(5)))

	bad := validBrief()
	bad.SelectedArticles = []domain.SelectedArticle{{Index: 7}}
	err := AssertValid(bad, candidateSet(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selected article index 7")

	sparse := &domain.Brief{BodyMarkdown: "Nothing to cite here."}
	assert.Error(t, AssertValid(sparse, nil))
}
