// Package coverage audits published briefs against the expected
// (portfolio, region) cross product for a publication cycle.
package coverage

import (
	"log/slog"
	"time"

	"github.com/ApexAxiom/briefwire/internal/domain"
)

// DefaultCutoffHour is the region-local hour before which "today" still
// resolves to the previous calendar day. It absorbs the lag between the
// midnight UTC rollover and when a region's business day actually starts.
const DefaultCutoffHour = 6

const dayKeyLayout = "2006-01-02"

// DayKey buckets an instant into a calendar-day key in the given location,
// honoring the cutoff hour.
func DayKey(t time.Time, loc *time.Location, cutoffHour int) string {
	local := t.In(loc)
	if local.Hour() < cutoffHour {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format(dayKeyLayout)
}

// ExpectedCoverageDayKey resolves the day-key a region is expected to have
// published for at the given instant. An unknown timezone falls back to UTC.
func ExpectedCoverageDayKey(region domain.Region, now time.Time, cutoffHour int) string {
	loc, err := time.LoadLocation(region.Timezone)
	if err != nil {
		slog.Warn("unknown region timezone, using UTC", "region", region.ID, "tz", region.Timezone)
		loc = time.UTC
	}
	return DayKey(now, loc, cutoffHour)
}
