package coverage

import (
	"context"
	"fmt"
	"time"

	"github.com/ApexAxiom/briefwire/internal/domain"
)

const auditPageSize = 50

// BriefPager pages a region's published briefs newest-first.
type BriefPager interface {
	ListRegionBriefs(ctx context.Context, region string, olderThan *time.Time, limit int) ([]domain.Brief, error)
}

// Report is the audit output consumed by reporting tools and alerting.
type Report struct {
	DayKeyByRegion  map[string]string `json:"dayKeyByRegion"`
	ExpectedAgents  []domain.Agent    `json:"expectedAgents"`
	PublishedBriefs []domain.Brief    `json:"publishedBriefs"`
	MissingAgents   []domain.Agent    `json:"missingAgents"`
}

// Auditor compares expected (portfolio, region) pairs against published
// records. It is strictly read-only: reporting tools run it liberally and it
// must never mutate coverage state.
type Auditor struct {
	store      BriefPager
	portfolios []domain.Portfolio
	cutoffHour int
	now        func() time.Time
}

func NewAuditor(store BriefPager, portfolios []domain.Portfolio, cutoffHour int) *Auditor {
	if cutoffHour <= 0 {
		cutoffHour = DefaultCutoffHour
	}
	return &Auditor{
		store:      store,
		portfolios: portfolios,
		cutoffHour: cutoffHour,
		now:        time.Now,
	}
}

// Audit scans each region's published briefs for the target day-key. An empty
// dayKey resolves per region from that region's local clock; a non-empty one
// is applied to every region as-is.
func (a *Auditor) Audit(ctx context.Context, regions []domain.Region, dayKey string) (*Report, error) {
	report := &Report{
		DayKeyByRegion: make(map[string]string, len(regions)),
	}

	published := make(map[string]bool)

	for _, region := range regions {
		key := dayKey
		if key == "" {
			key = ExpectedCoverageDayKey(region, a.now(), a.cutoffHour)
		}
		report.DayKeyByRegion[region.ID] = key

		briefs, err := a.scanRegionDay(ctx, region.ID, key)
		if err != nil {
			return nil, fmt.Errorf("failed to audit region %s: %w", region.ID, err)
		}

		for _, b := range briefs {
			report.PublishedBriefs = append(report.PublishedBriefs, b)
			published[domain.Agent{Portfolio: b.Portfolio, Region: b.Region}.Key()] = true
		}
	}

	for _, p := range a.portfolios {
		for _, region := range regions {
			agent := domain.Agent{Portfolio: p.ID, Region: region.ID, Label: p.Label + " / " + region.Label}
			report.ExpectedAgents = append(report.ExpectedAgents, agent)
			if !published[agent.Key()] {
				report.MissingAgents = append(report.MissingAgents, agent)
			}
		}
	}

	return report, nil
}

// scanRegionDay walks a region's briefs in reverse-chronological order and
// collects the ones matching the day-key, stopping as soon as an older day is
// observed.
func (a *Auditor) scanRegionDay(ctx context.Context, regionID, dayKey string) ([]domain.Brief, error) {
	var matched []domain.Brief
	var olderThan *time.Time

	for {
		page, err := a.store.ListRegionBriefs(ctx, regionID, olderThan, auditPageSize)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return matched, nil
		}

		for _, b := range page {
			switch {
			case b.BriefDay == dayKey:
				matched = append(matched, b)
			case b.BriefDay < dayKey:
				// Reverse-chronological scan: everything after this is older.
				return matched, nil
			}
		}

		if len(page) < auditPageSize {
			return matched, nil
		}
		last := page[len(page)-1].PublishedAt
		olderThan = &last
	}
}
