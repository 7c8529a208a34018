// Package fallback decides how a coverage gap is filled: with nothing, with a
// carried-forward copy of the last real brief, or with a baseline placeholder.
package fallback

import (
	"fmt"
	"time"

	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/google/uuid"
)

// Policy is resolved once per process start from the environment. Placeholder
// generation defaults to denied in production: a visible gap beats a
// low-quality synthetic artifact.
type Policy struct {
	AllowPlaceholders bool
}

// Gap identifies one unfilled (portfolio, region) slot for a day-key.
type Gap struct {
	Portfolio string
	Region    string
	RunWindow string
	DayKey    string
	Reason    domain.PlaceholderReason
}

// Resolve is a pure function of (gap, policy, previous). It returns nil when
// the gap must stay visible; callers report it rather than synthesize content.
//
// A real previous brief is carried forward regardless of policy: republishing
// vetted content is not synthetic generation. Only baseline placeholders are
// policy-gated. A placeholder previous brief resolves as though no previous
// brief existed.
func Resolve(gap Gap, policy Policy, previous *domain.Brief, now time.Time) *domain.Brief {
	if previous != nil && !IsPlaceholder(previous) {
		return carryForward(gap, previous, now)
	}

	if !policy.AllowPlaceholders {
		return nil
	}
	return baselinePlaceholder(gap, now)
}

const carryForwardBanner = "> **Note:** no material change detected since the last update for this edition; " +
	"the previous brief is automatically republished below.\n\n"

// carryForward clones the previous brief's content into a new record. Every
// identity and indexing field is derived from the gap and freshly minted
// values, never copied from the source record, so a stale storage identity
// can never leak into the clone.
func carryForward(gap Gap, previous *domain.Brief, now time.Time) *domain.Brief {
	return &domain.Brief{
		PostID:           uuid.New(),
		Portfolio:        gap.Portfolio,
		Region:           gap.Region,
		RunWindow:        gap.RunWindow,
		BriefDay:         gap.DayKey,
		Status:           domain.BriefStatusPublished,
		GenerationStatus: gap.Reason.GenerationStatus(),
		PublishedAt:      now,
		CreatedAt:        now,

		// Content fields are the only thing taken from the source.
		BodyMarkdown: carryForwardBanner + previous.BodyMarkdown,
		Summary:      previous.Summary,
		Sources:      append([]string{}, previous.Sources...),

		Tags: []string{domain.TagCarryForward, string(gap.Reason)},
	}
}

func baselinePlaceholder(gap Gap, now time.Time) *domain.Brief {
	body := fmt.Sprintf(
		"No fresh updates were available for this edition on %s. "+
			"This baseline notice keeps the publication cycle complete; "+
			"a full brief will follow with the next cycle.",
		gap.DayKey,
	)

	return &domain.Brief{
		PostID:           uuid.New(),
		Portfolio:        gap.Portfolio,
		Region:           gap.Region,
		RunWindow:        gap.RunWindow,
		BriefDay:         gap.DayKey,
		Status:           domain.BriefStatusPublished,
		GenerationStatus: gap.Reason.GenerationStatus(),
		PublishedAt:      now,
		CreatedAt:        now,
		BodyMarkdown:     body,
		Sources:          []string{},
		Tags:             []string{domain.TagSystemPlaceholder, string(gap.Reason)},
	}
}
