package discovery

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/MwangiWaraga/jakan-store-ds/helpers"
	"github.com/MwangiWaraga/jakan-store-ds/logger"
)

// listingPathPatterns identify anchors that point at a product listing.
var listingPathPatterns = []string{"/listing/", "/item/", "/product/"}

// envelopeFields are the JSON keys that may wrap an HTML fragment when a
// pagination endpoint answers with a JSON envelope instead of a page.
var envelopeFields = []string{"html", "data", "content", "body"}

// priceRe matches currency-prefixed price text as found on East African
// storefronts, e.g. "KSh 1,200" or "$19.99".
var priceRe = regexp.MustCompile(`(?i)(?:KSh|KES|USh|TSh|USD|US\$|[$€£₦])\s*\d[\d,]*(?:\.\d+)?`)

const (
	titleClimbLevels = 4
	priceClimbLevels = 6
)

// titleClassSelector matches elements whose class suggests a product title
// or name.
const titleClassSelector = "h1, h2, h3, h4, h5, h6, [class*=title], [class*=Title], [class*=name], [class*=Name]"

// TileExtractor turns one page's raw content into candidate listing tiles
// using a cascade of extraction heuristics. Malformed content yields an
// empty list, never an error: a bad page must not abort a crawl.
type TileExtractor struct {
	log *logger.Logger
}

// NewTileExtractor creates a tile extractor.
func NewTileExtractor() *TileExtractor {
	return &TileExtractor{log: logger.Default}
}

// Extract parses content (raw HTML or a JSON envelope holding HTML) and
// returns one tile per listing anchor, deduplicated by raw href within
// this page.
func (e *TileExtractor) Extract(content []byte) []Tile {
	htmlBody := unwrapEnvelope(content)
	if len(bytes.TrimSpace(htmlBody)) == 0 {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
	if err != nil {
		if e.log != nil {
			e.log.Debug().Err(err).Msg("unparseable page content")
		}
		return nil
	}

	var tiles []Tile
	seen := make(map[string]struct{})

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href := anchorHref(a)
		if href == "" || !isListingHref(href) {
			return
		}
		// page-local dedup, first occurrence wins
		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}

		tiles = append(tiles, Tile{
			RawURL:    href,
			Title:     resolveTitle(a),
			PriceText: resolvePrice(a),
		})
	})

	return tiles
}

// unwrapEnvelope returns the HTML payload of a JSON envelope, or the input
// unchanged when it is not an envelope.
func unwrapEnvelope(content []byte) []byte {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return content
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		// not a JSON envelope after all, treat as HTML
		return content
	}

	for _, field := range envelopeFields {
		raw, ok := envelope[field]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
			continue
		}
		return []byte(s)
	}
	return content
}

// anchorHref returns the anchor target, consulting data attributes some
// grids use instead of href. Rejects empty, fragment-only and script
// pseudo-URLs.
func anchorHref(a *goquery.Selection) string {
	for _, attr := range []string{"href", "data-href", "data-url"} {
		v, _ := a.Attr(attr)
		v = strings.TrimSpace(v)
		if v == "" || v == "#" || strings.HasPrefix(strings.ToLower(v), "javascript:") {
			continue
		}
		return v
	}
	return ""
}

func isListingHref(href string) bool {
	for _, pattern := range listingPathPatterns {
		if strings.Contains(href, pattern) {
			return true
		}
	}
	return false
}

// resolveTitle runs the title cascade: explicit attributes, anchor text,
// enclosed image alt, ancestor title-like elements, then any
// label-suggesting attribute. First acceptable candidate wins.
func resolveTitle(a *goquery.Selection) string {
	rules := []func(*goquery.Selection) string{
		titleFromAttrs,
		titleFromText,
		titleFromImage,
		titleFromAncestors,
		titleFromLabelAttrs,
	}
	for _, rule := range rules {
		if title := cleanTitle(rule(a)); acceptableTitle(title) {
			return title
		}
	}
	return ""
}

func titleFromAttrs(a *goquery.Selection) string {
	if v, ok := a.Attr("title"); ok && strings.TrimSpace(v) != "" {
		return v
	}
	if v, ok := a.Attr("aria-label"); ok {
		return v
	}
	return ""
}

func titleFromText(a *goquery.Selection) string {
	return a.Text()
}

func titleFromImage(a *goquery.Selection) string {
	img := a.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	if v, ok := img.Attr("alt"); ok && strings.TrimSpace(v) != "" {
		return v
	}
	if v, ok := img.Attr("title"); ok {
		return v
	}
	return ""
}

// titleFromAncestors climbs a few levels above the anchor looking for a
// heading or a title/name-like class, preferring the longest candidate at
// the nearest level that has one.
func titleFromAncestors(a *goquery.Selection) string {
	node := a.Parent()
	for level := 0; level < titleClimbLevels && node.Length() > 0; level++ {
		best := ""
		if node.Is(titleClassSelector) {
			best = cleanTitle(node.Text())
			if !acceptableTitle(best) {
				best = ""
			}
		}
		node.Find(titleClassSelector).Each(func(_ int, el *goquery.Selection) {
			candidate := cleanTitle(el.Text())
			if acceptableTitle(candidate) && len(candidate) > len(best) {
				best = candidate
			}
		})
		if best != "" {
			return best
		}
		node = node.Parent()
	}
	return ""
}

// titleFromLabelAttrs scans the anchor's attributes for anything whose
// name suggests a label, e.g. data-name or data-title.
func titleFromLabelAttrs(a *goquery.Selection) string {
	if len(a.Nodes) == 0 {
		return ""
	}
	for _, attr := range a.Nodes[0].Attr {
		key := strings.ToLower(attr.Key)
		if strings.Contains(key, "name") || strings.Contains(key, "label") || strings.Contains(key, "title") {
			if strings.TrimSpace(attr.Val) != "" {
				return attr.Val
			}
		}
	}
	return ""
}

// cleanTitle strips embedded price text, collapses whitespace and removes
// a trailing parenthesized rating count.
func cleanTitle(s string) string {
	s = priceRe.ReplaceAllString(s, "")
	s = helpers.CollapseWhitespace(s)
	return helpers.TrimRatingCount(s)
}

// acceptableTitle rejects empty, price-only and near-symbolic candidates.
func acceptableTitle(s string) bool {
	return s != "" && helpers.AlphabeticCount(s) >= 3
}

// resolvePrice walks upward from the anchor joining descendant text at
// each level and testing the currency pattern, stopping at the first
// match. The text is cleaned only by whitespace collapse and rating tail
// trim; the numeric value is never computed here.
func resolvePrice(a *goquery.Selection) string {
	node := a
	for level := 0; level <= priceClimbLevels && node.Length() > 0; level++ {
		text := helpers.CollapseWhitespace(node.Text())
		if m := priceRe.FindString(text); m != "" {
			return helpers.TrimRatingCount(helpers.CollapseWhitespace(m))
		}
		node = node.Parent()
	}
	return ""
}
