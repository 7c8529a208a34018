package canonical

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	resolveTimeout = 6 * time.Second
	maxRedirectHops = 3
)

// Resolver unwraps server-side redirects for configured aggregator hosts.
// Results are cached for the process lifetime; aggregator redirect targets
// are stable per URL, so no TTL is needed. The cache is shared between
// concurrent runs and tolerates overlapping resolution of the same URL.
type Resolver struct {
	client *http.Client
	hosts  map[string]bool

	mu    sync.RWMutex
	cache map[string]string
}

// NewResolver creates a Resolver limited to the given aggregator hosts.
// URLs on any other host are returned unchanged without a network call.
func NewResolver(hosts []string) *Resolver {
	hostSet := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		hostSet[strings.ToLower(h)] = true
	}
	return &Resolver{
		client: &http.Client{
			Timeout: resolveTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		hosts: hostSet,
		cache: make(map[string]string),
	}
}

// Resolve follows up to 3 redirect hops for a known aggregator URL and
// returns the final target. It never fails: on any error the best URL seen
// so far is returned.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !r.hosts[strings.ToLower(u.Host)] {
		return rawURL
	}

	r.mu.RLock()
	cached, ok := r.cache[rawURL]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	current := rawURL
	for hop := 0; hop < maxRedirectHops; hop++ {
		next, ok := r.hop(ctx, current)
		if !ok {
			break
		}
		current = next
	}

	r.mu.Lock()
	r.cache[rawURL] = current
	r.mu.Unlock()

	return current
}

// hop performs one HEAD request (falling back to GET when HEAD is rejected)
// and returns the redirect target, if any.
func (r *Resolver) hop(ctx context.Context, rawURL string) (string, bool) {
	resp, err := r.do(ctx, http.MethodHead, rawURL)
	if err != nil || resp.StatusCode == http.StatusMethodNotAllowed {
		if resp != nil {
			resp.Body.Close()
		}
		resp, err = r.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			slog.Debug("redirect hop failed", "url", rawURL, "error", err)
			return "", false
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return "", false
	}

	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", false
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	target, err := url.Parse(loc)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(target).String(), true
}

func (r *Resolver) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return r.client.Do(req)
}
