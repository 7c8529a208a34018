// Package canonical normalizes article URLs into stable dedupe keys and
// unwraps aggregator/redirector links to the publisher URL behind them.
package canonical

import (
	"net/url"
	"strings"
)

const maxUnwrapDepth = 4

// redirectorHosts are aggregators whose links carry the real target inside a
// query parameter rather than behind an HTTP redirect.
var redirectorHosts = map[string]bool{
	"news.google.com":      true,
	"www.google.com":       true,
	"google.com":           true,
	"feedproxy.google.com": true,
	"out.reddit.com":       true,
	"t.co":                 true,
	"lnkd.in":              true,
}

// targetParams are checked in order when unwrapping a redirector link.
var targetParams = []string{"url", "u", "q", "target"}

// Canonicalize reduces a URL to a stable key: redirector links are unwrapped,
// tracking parameters stripped, the fragment cleared, and a single trailing
// slash removed from non-root paths. It is total: on anything unparseable it
// returns a trimmed copy of the input. Canonicalize(Canonicalize(x)) always
// equals Canonicalize(x).
func Canonicalize(raw string) string {
	return canonicalize(raw, 0)
}

func canonicalize(raw string, depth int) string {
	trimmed := strings.TrimSpace(raw)

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return trimmed
	}

	if depth < maxUnwrapDepth && redirectorHosts[strings.ToLower(u.Host)] {
		q := u.Query()
		for _, p := range targetParams {
			v := q.Get(p)
			if v == "" {
				continue
			}
			if nested, err := url.Parse(v); err == nil && nested.Host != "" && nested.Scheme != "" {
				return canonicalize(v, depth+1)
			}
		}
	}

	q := u.Query()
	for key := range q {
		if isTrackingParam(key) {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	u.Fragment = ""
	u.RawFragment = ""

	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = ""
	}

	return u.String()
}

func isTrackingParam(key string) bool {
	k := strings.ToLower(key)
	return strings.HasPrefix(k, "utm_") || k == "gclid" || k == "fbclid"
}
