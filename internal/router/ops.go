// Package router binds the read-only operations API: coverage audit, feed
// health, and published-brief listings. Nothing here mutates the store.
package router

import (
	"net/http"
	"time"

	"github.com/ApexAxiom/briefwire/internal/apperr"
	"github.com/ApexAxiom/briefwire/internal/coverage"
	"github.com/ApexAxiom/briefwire/internal/domain"
	"github.com/ApexAxiom/briefwire/internal/storage"
	"github.com/ApexAxiom/briefwire/pkg/pagination"
	pkgserver "github.com/ApexAxiom/briefwire/pkg/server"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type OpsRouter struct {
	e       *echo.Echo
	store   storage.Store
	auditor *coverage.Auditor
	regions []domain.Region
	health  pkgserver.HealthChecker
}

func NewOpsRouter(e *echo.Echo, store storage.Store, auditor *coverage.Auditor, regions []domain.Region) *OpsRouter {
	return &OpsRouter{
		e:       e,
		store:   store,
		auditor: auditor,
		regions: regions,
		health:  pkgserver.NewOkHealthChecker(),
	}
}

func (r *OpsRouter) Bind() {
	r.e.GET("/coverage", r.coverageHandler)
	r.e.GET("/feeds/health", r.feedHealthHandler)
	r.e.GET("/briefs", r.briefsHandler)
	r.e.GET("/healthz", r.healthzHandler)
	r.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// coverageHandler audits the current (or an explicit) day-key across all
// configured regions. dayKey is optional and must be YYYY-MM-DD when given.
func (r *OpsRouter) coverageHandler(c echo.Context) error {
	dayKey := c.QueryParam("dayKey")
	if dayKey != "" {
		if _, err := time.Parse("2006-01-02", dayKey); err != nil {
			return apperr.NewValidation("dayKey must be formatted YYYY-MM-DD")
		}
	}

	regions := r.regions
	if regionID := c.QueryParam("region"); regionID != "" {
		regions = filterRegions(r.regions, regionID)
		if len(regions) == 0 {
			return apperr.NewNotFound("unknown region")
		}
	}

	report, err := r.auditor.Audit(c.Request().Context(), regions, dayKey)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (r *OpsRouter) feedHealthHandler(c echo.Context) error {
	entries, err := r.store.ListFeedHealth(c.Request().Context())
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []domain.FeedHealthEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

// briefsHandler pages a region's published briefs newest-first. The cursor is
// the RFC3339 publish time of the last brief on the previous page.
func (r *OpsRouter) briefsHandler(c echo.Context) error {
	regionID := c.QueryParam("region")
	if regionID == "" {
		return apperr.NewValidation("region parameter is required")
	}

	var req pagination.CursorRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("invalid pagination parameters", err)
	}
	if req.Size <= 0 || req.Size > 100 {
		req.Size = 20
	}

	var olderThan *time.Time
	if req.Cursor != nil && *req.Cursor != "" {
		t, err := time.Parse(time.RFC3339, *req.Cursor)
		if err != nil {
			return apperr.NewValidationWrap("cursor must be an RFC3339 timestamp", err)
		}
		olderThan = &t
	}

	// size+1 so the cursor result can tell whether another page exists.
	briefs, err := r.store.ListRegionBriefs(c.Request().Context(), regionID, olderThan, req.Size+1)
	if err != nil {
		return err
	}

	result, err := pagination.NewCursorResult(briefs, req.Size, func(b domain.Brief) (string, error) {
		return b.PublishedAt.Format(time.RFC3339), nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (r *OpsRouter) healthzHandler(c echo.Context) error {
	if !r.health.Healthy(c.Request().Context()) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func filterRegions(regions []domain.Region, id string) []domain.Region {
	var out []domain.Region
	for _, r := range regions {
		if r.ID == id {
			out = append(out, r)
		}
	}
	return out
}
