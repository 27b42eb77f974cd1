package discovery

import (
	"regexp"
	"strconv"
)

var (
	storeIDRe       = regexp.MustCompile(`/store/(\d+)`)
	productsCountRe = regexp.MustCompile(`(?i)Products:\s*(\d+)`)
)

// Recon is what the seed page reveals about a storefront before any
// pagination strategy runs.
type Recon struct {
	// StoreID is the numeric store identifier embedded in links or
	// scripts; it unlocks the sub-page AJAX endpoint. Empty if absent.
	StoreID string
	// TotalProducts is the advertised catalog size, 0 when the page does
	// not state one. Used only to bound page budgets, never trusted for
	// completeness.
	TotalProducts int
}

// ReconFromPage scans the seed page body for a store ID and a total
// product count.
func ReconFromPage(body []byte) Recon {
	var recon Recon
	if m := storeIDRe.FindSubmatch(body); m != nil {
		recon.StoreID = string(m[1])
	}
	if m := productsCountRe.FindSubmatch(body); m != nil {
		if n, err := strconv.Atoi(string(m[1])); err == nil {
			recon.TotalProducts = n
		}
	}
	return recon
}

// EstimatePages converts a total-product estimate and an observed
// page size into a page budget, capped at maxPages. Falls back to
// maxPages when either input is unknown.
func EstimatePages(totalProducts, perPage, maxPages int) int {
	if totalProducts <= 0 || perPage <= 0 {
		return maxPages
	}
	pages := (totalProducts + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	if pages > maxPages {
		pages = maxPages
	}
	return pages
}
