// Package alert pushes coverage-gap events onto the message bus so on-call
// tooling can react without polling the audit endpoint.
package alert

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ApexAxiom/briefwire/internal/fallback"
	"github.com/nats-io/nats.go"
)

const SubjectCoverageGaps = "coverage.gaps"

// GapEvent is the wire shape of one published gap alert.
type GapEvent struct {
	Portfolio  string    `json:"portfolio"`
	Region     string    `json:"region"`
	RunWindow  string    `json:"runWindow"`
	DayKey     string    `json:"dayKey"`
	Reason     string    `json:"reason"`
	DetectedAt time.Time `json:"detectedAt"`
}

// Publisher sends gap events over NATS. A nil Publisher is a valid no-op so
// callers do not branch on whether alerting is configured.
type Publisher struct {
	nc  *nats.Conn
	now func() time.Time
}

func Connect(url string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("briefwire-alerts"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats connection lost", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &Publisher{nc: nc, now: time.Now}, nil
}

// PublishGaps emits one event per gap. Individual publish failures are
// collected rather than short-circuiting, so one bad event cannot suppress
// the rest of the batch.
func (p *Publisher) PublishGaps(gaps []fallback.Gap) error {
	if p == nil {
		return nil
	}

	var failed int
	for _, gap := range gaps {
		event := GapEvent{
			Portfolio:  gap.Portfolio,
			Region:     gap.Region,
			RunWindow:  gap.RunWindow,
			DayKey:     gap.DayKey,
			Reason:     string(gap.Reason),
			DetectedAt: p.now(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			failed++
			continue
		}
		if err := p.nc.Publish(SubjectCoverageGaps, payload); err != nil {
			slog.Warn("failed to publish gap alert", "portfolio", gap.Portfolio, "region", gap.Region, "error", err)
			failed++
		}
	}

	if err := p.nc.Flush(); err != nil {
		return fmt.Errorf("failed to flush gap alerts: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d gap alerts failed to publish", failed, len(gaps))
	}
	return nil
}

func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Close()
}
