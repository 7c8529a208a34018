package fallback

import (
	"strings"

	"github.com/ApexAxiom/briefwire/internal/domain"
)

// residualSignatures are phrases that betray a placeholder body even when the
// record predates structured tagging.
var residualSignatures = []string{
	"no material change detected",
	"no fresh updates were available",
	"automatically republished",
}

// IsPlaceholder reports whether a brief is itself a user-visible placeholder
// or carry-forward rather than a real publication. Carry-forwards must never
// chain off one another silently, so the resolver treats a placeholder
// previous brief as no previous brief at all.
func IsPlaceholder(b *domain.Brief) bool {
	if b == nil {
		return false
	}

	switch b.GenerationStatus {
	case domain.GenerationNoUpdates, domain.GenerationFailed:
		return true
	}

	if b.HasTag(domain.TagCarryForward) || b.HasTag(domain.TagSystemPlaceholder) {
		return true
	}

	body := strings.ToLower(b.BodyMarkdown)
	for _, sig := range residualSignatures {
		if strings.Contains(body, sig) {
			return true
		}
	}
	return false
}
