package fallback

import (
	"testing"
	"time"

	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metalGap() Gap {
	return Gap{
		Portfolio: "metals",
		Region:    "au",
		RunWindow: "daily",
		DayKey:    "2026-08-31",
		Reason:    domain.ReasonNoUpdates,
	}
}

func realPrevious() *domain.Brief {
	return &domain.Brief{
		PostID:           uuid.MustParse("123e4567-e89b-12d3-a456-426614174000"),
		Portfolio:        "stale-portfolio-key",
		Region:           "stale-region-key",
		BriefDay:         "2026-08-28",
		Status:           domain.BriefStatusPublished,
		GenerationStatus: domain.GenerationPublished,
		PublishedAt:      time.Date(2026, 8, 28, 7, 0, 0, 0, time.UTC),
		BodyMarkdown:     "Copper held steady. [1](https://pub.example/a)",
		Summary:          "Copper steady.",
		Sources:          []string{"https://pub.example/a"},
	}
}

func TestResolve_CarryForwardFromRealPrevious(t *testing.T) {
	now := time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)
	prev := realPrevious()

	// Carry-forward happens even with placeholders denied: republishing
	// vetted content is not synthetic generation.
	got := Resolve(metalGap(), Policy{AllowPlaceholders: false}, prev, now)

	require.NotNil(t, got)
	assert.True(t, got.HasTag(domain.TagCarryForward))
	assert.True(t, got.HasTag(string(domain.ReasonNoUpdates)))
	assert.Equal(t, domain.GenerationNoUpdates, got.GenerationStatus)
	assert.Contains(t, got.BodyMarkdown, prev.BodyMarkdown)
	assert.Contains(t, got.BodyMarkdown, "republished")
	assert.Equal(t, prev.Sources, got.Sources)
	assert.Equal(t, "2026-08-31", got.BriefDay)
	assert.Equal(t, now, got.PublishedAt)
}

func TestResolve_CarryForwardNeverLeaksIdentity(t *testing.T) {
	now := time.Now()
	prev := realPrevious()

	got := Resolve(metalGap(), Policy{}, prev, now)
	require.NotNil(t, got)

	// Ownership keys come from the gap, never from the source record.
	assert.Equal(t, "metals", got.Portfolio)
	assert.Equal(t, "au", got.Region)
	assert.NotEqual(t, prev.PostID, got.PostID)
	assert.NotEqual(t, uuid.Nil, got.PostID)
	assert.NotEqual(t, prev.BriefDay, got.BriefDay)

	// Mutating the clone's sources must not touch the original.
	got.Sources[0] = "https://tampered.example"
	assert.Equal(t, "https://pub.example/a", prev.Sources[0])
}

func TestResolve_BaselinePlaceholderWhenPermitted(t *testing.T) {
	now := time.Now()
	gap := metalGap()
	gap.Reason = domain.ReasonGenerationFailed

	got := Resolve(gap, Policy{AllowPlaceholders: true}, nil, now)

	require.NotNil(t, got)
	assert.True(t, got.HasTag(domain.TagSystemPlaceholder))
	assert.True(t, got.HasTag(string(domain.ReasonGenerationFailed)))
	assert.Equal(t, domain.GenerationFailed, got.GenerationStatus)
	assert.Empty(t, got.Sources)
	assert.NotEmpty(t, got.BodyMarkdown)
}

func TestResolve_PolicyDeniedWithoutPrevious(t *testing.T) {
	got := Resolve(metalGap(), Policy{AllowPlaceholders: false}, nil, time.Now())
	assert.Nil(t, got, "the gap stays visible")
}

func TestResolve_PlaceholderPreviousDoesNotChain(t *testing.T) {
	now := time.Now()
	prev := Resolve(metalGap(), Policy{AllowPlaceholders: true}, realPrevious(), now)
	require.NotNil(t, prev)
	require.True(t, IsPlaceholder(prev))

	// A carry-forward previous resolves as though no real previous exists.
	got := Resolve(metalGap(), Policy{AllowPlaceholders: false}, prev, now)
	assert.Nil(t, got)

	got = Resolve(metalGap(), Policy{AllowPlaceholders: true}, prev, now)
	require.NotNil(t, got)
	assert.True(t, got.HasTag(domain.TagSystemPlaceholder), "baseline, not a chained carry-forward")
}

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		name  string
		brief *domain.Brief
		want  bool
	}{
		{name: "nil brief", brief: nil, want: false},
		{name: "real brief", brief: realPrevious(), want: false},
		{
			name:  "by generation status",
			brief: &domain.Brief{GenerationStatus: domain.GenerationNoUpdates},
			want:  true,
		},
		{
			name:  "by tag",
			brief: &domain.Brief{GenerationStatus: domain.GenerationPublished, Tags: []string{domain.TagCarryForward}},
			want:  true,
		},
		{
			name:  "by residual body signature",
			brief: &domain.Brief{GenerationStatus: domain.GenerationPublished, BodyMarkdown: "No material change detected since Friday."},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPlaceholder(tt.brief))
		})
	}
}
