package discovery

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// listingIDRe matches a numeric run immediately after a known listing path
// segment, e.g. /listing/1001.
var listingIDRe = regexp.MustCompile(`/(?:listing|product|item)/(\d+)`)

// Canonicalizer normalizes listing URLs for one storefront into the global
// dedup key: scheme + host + path, query and fragment stripped, one
// trailing slash removed. The scheme and host are always forced to the
// storefront's own, which defends against relative links resolved against
// a wrong base.
type Canonicalizer struct {
	scheme string
	host   string
}

// NewCanonicalizer derives the canonical scheme and host from the
// storefront root URL.
func NewCanonicalizer(rootURL string) (*Canonicalizer, error) {
	u, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("invalid storefront root URL %q: %w", rootURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("storefront root URL %q has no scheme or host", rootURL)
	}
	return &Canonicalizer{scheme: u.Scheme, host: u.Host}, nil
}

// Canonicalize returns the dedup key for a raw (possibly relative) listing
// URL. Idempotent: Canonicalize(Canonicalize(u)) == Canonicalize(u).
func (c *Canonicalizer) Canonicalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unparseable URL %q: %w", raw, err)
	}

	path := strings.TrimSuffix(u.EscapedPath(), "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.scheme + "://" + c.host + path, nil
}

// ExtractListingID extracts the numeric listing identifier embedded in the
// URL path. Returns empty when no marker matches; that is expected and
// non-fatal, the record stays keyed by canonical URL alone.
func ExtractListingID(u string) string {
	m := listingIDRe.FindStringSubmatch(u)
	if m == nil {
		return ""
	}
	return m[1]
}
