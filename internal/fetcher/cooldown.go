package fetcher

import (
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultCooldownWindow is how long a throttling host is blocked from new
// requests once a cooldown starts.
const DefaultCooldownWindow = 30 * time.Minute

// Cooldown is a process-wide, best-effort circuit breaker keyed by host.
// Only configured hosts are eligible; everything else passes through
// untouched. Races between concurrent checks and Start are tolerated: the
// worst case is one extra wasted request, never a correctness problem.
type Cooldown struct {
	window time.Duration
	hosts  map[string]bool
	now    func() time.Time

	mu    sync.RWMutex
	until map[string]time.Time
}

// NewCooldown creates a Cooldown for the given eligible hosts. A zero window
// falls back to DefaultCooldownWindow.
func NewCooldown(hosts []string, window time.Duration) *Cooldown {
	if window <= 0 {
		window = DefaultCooldownWindow
	}
	hostSet := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		hostSet[strings.ToLower(h)] = true
	}
	return &Cooldown{
		window: window,
		hosts:  hostSet,
		now:    time.Now,
		until:  make(map[string]time.Time),
	}
}

// Eligible reports whether the host is configured for cooldown treatment.
func (c *Cooldown) Eligible(host string) bool {
	return c.hosts[strings.ToLower(host)]
}

// Active reports whether the host is currently inside a cooldown window.
func (c *Cooldown) Active(host string) bool {
	c.mu.RLock()
	expiry, ok := c.until[strings.ToLower(host)]
	c.mu.RUnlock()
	return ok && c.now().Before(expiry)
}

// Start opens a cooldown window for an eligible host. Calling it for a
// non-eligible host is a no-op.
func (c *Cooldown) Start(host string) {
	key := strings.ToLower(host)
	if !c.hosts[key] {
		return
	}
	expiry := c.now().Add(c.window)

	c.mu.Lock()
	c.until[key] = expiry
	c.mu.Unlock()

	slog.Warn("provider cooldown started", "host", key, "until", expiry)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
