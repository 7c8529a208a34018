package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize_StripsTrackingParams(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "utm params removed",
			in:   "https://example.com/story?utm_source=rss&utm_medium=feed&id=7",
			want: "https://example.com/story?id=7",
		},
		{
			name: "gclid and fbclid removed",
			in:   "https://example.com/story?gclid=abc&fbclid=def",
			want: "https://example.com/story",
		},
		{
			name: "non-tracking params kept",
			in:   "https://example.com/story?page=2",
			want: "https://example.com/story?page=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestCanonicalize_ClearsFragmentAndTrailingSlash(t *testing.T) {
	assert.Equal(t, "https://example.com/story", Canonicalize("https://example.com/story/#comments"))
	assert.Equal(t, "https://example.com/", Canonicalize("https://example.com/"))
	assert.Equal(t, "https://example.com/a/b", Canonicalize("https://example.com/a/b/"))
}

func TestCanonicalize_UnwrapsRedirectorLinks(t *testing.T) {
	in := "https://news.google.com/articles?url=https%3A%2F%2Fpublisher.com%2Fpiece%3Futm_source%3Dgoogle"
	assert.Equal(t, "https://publisher.com/piece", Canonicalize(in))

	// Nested redirectors unwrap recursively.
	nested := "https://t.co/x?u=https%3A%2F%2Fnews.google.com%2Farticles%3Furl%3Dhttps%253A%252F%252Fpublisher.com%252Fdeep"
	assert.Equal(t, "https://publisher.com/deep", Canonicalize(nested))
}

func TestCanonicalize_RedirectorWithoutTargetParam(t *testing.T) {
	// A redirector host with no embedded target falls through to normal rules.
	assert.Equal(t, "https://t.co/abc123", Canonicalize("https://t.co/abc123?utm_source=x"))
}

func TestCanonicalize_TotalOnGarbage(t *testing.T) {
	assert.Equal(t, "not a url", Canonicalize("  not a url "))
	assert.Equal(t, "", Canonicalize(""))
	assert.Equal(t, "/relative/path", Canonicalize("/relative/path"))
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{
		"https://example.com/story?utm_source=rss&b=2&a=1",
		"https://news.google.com/articles?url=https%3A%2F%2Fpublisher.com%2Fpiece%2F",
		"https://example.com/a/b/#frag",
		"not a url at all",
		"https://example.com/story?z=1&y=2",
	}
	for _, in := range inputs {
		once := Canonicalize(in)
		assert.Equal(t, once, Canonicalize(once), "input %q", in)
	}
}
