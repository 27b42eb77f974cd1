package discovery

import (
	"net/url"
	"strings"

	"github.com/MwangiWaraga/jakan-store-ds/helpers"
)

// Storefront is one scrapeable catalog root (a store or category).
type Storefront struct {
	Name    string `json:"name"`
	RootURL string `json:"root_url"`
}

// Slug returns the store slug embedded in the root URL path, e.g.
// "JAKAN-PHONE-STORE" for /store/JAKAN-PHONE-STORE. Empty if the path has
// no /store/ segment.
func (s Storefront) Slug() string {
	u, err := url.Parse(s.RootURL)
	if err != nil {
		return ""
	}
	if !strings.Contains(u.Path, "/store/") {
		return ""
	}
	part, err := helpers.GetSplitPart(strings.TrimPrefix(u.Path, "/"), "/", 1)
	if err != nil {
		return ""
	}
	return part
}

// Listing is one discovered product tile after canonicalization.
type Listing struct {
	CanonicalURL   string `json:"canonical_url"`
	ListingID      string `json:"listing_id,omitempty"`
	Title          string `json:"title,omitempty"`
	PriceText      string `json:"price_text,omitempty"`
	SourceStrategy string `json:"source_strategy"`
	Store          string `json:"store"`
}

// Tile is one extracted candidate listing before canonicalization. RawURL
// is the href as found on the page; the orchestrator canonicalizes it and
// derives the listing ID.
type Tile struct {
	RawURL    string
	Title     string
	PriceText string
}
