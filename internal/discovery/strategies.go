package discovery

import (
	"fmt"
	"net/url"
	"strconv"
)

// The strategy catalog below is configuration data, not logic: the order
// encodes empirically observed yield per endpoint family and should be
// revisited if coverage regresses on a particular target.

// offsetSteps are the literal offset values catalog backends have been
// seen to honor (32 items per grid page).
var offsetSteps = []int{0, 32, 64, 96}

// withQueryParam returns rawURL with one query parameter set, leaving any
// existing parameters in place.
func withQueryParam(rawURL, key, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// ParamStrategy paginates by setting a single query parameter to the page
// index on the storefront root URL.
func ParamStrategy(rootURL, param string, pages []int, emptyThreshold int) Strategy {
	return Strategy{
		Name:           param,
		BuildURL:       func(page int) string { return withQueryParam(rootURL, param, strconv.Itoa(page)) },
		Pages:          pages,
		EmptyThreshold: emptyThreshold,
	}
}

// OffsetStrategy paginates by literal offset values rather than a page
// range.
func OffsetStrategy(rootURL, param string, offsets []int, emptyThreshold int) Strategy {
	return Strategy{
		Name:           param,
		BuildURL:       func(offset int) string { return withQueryParam(rootURL, param, strconv.Itoa(offset)) },
		Pages:          offsets,
		EmptyThreshold: emptyThreshold,
	}
}

// SortStrategy re-walks the catalog under a different sort order; a
// backend that caps plain pagination often exposes later items this way.
func SortStrategy(rootURL, sortValue string, pages []int, emptyThreshold int) Strategy {
	sorted := withQueryParam(rootURL, "sort", sortValue)
	return Strategy{
		Name:           "sort=" + sortValue,
		BuildURL:       func(page int) string { return withQueryParam(sorted, "page", strconv.Itoa(page)) },
		Pages:          pages,
		EmptyThreshold: emptyThreshold,
	}
}

// SubPageStrategy targets the AJAX sub-page endpoint unlocked by a numeric
// store ID found on the seed page. Empirically the highest-yield family.
func SubPageStrategy(rootURL, storeID, param string, pages []int, emptyThreshold int) Strategy {
	u, err := url.Parse(rootURL)
	base := rootURL
	if err == nil {
		base = fmt.Sprintf("%s://%s/new/store/sub-page/%s", u.Scheme, u.Host, storeID)
	}
	withType := withQueryParam(base, "typeName", "All Products")
	return Strategy{
		Name:           "sub-page " + param,
		BuildURL:       func(page int) string { return withQueryParam(withType, param, strconv.Itoa(page)) },
		Pages:          pages,
		EmptyThreshold: emptyThreshold,
	}
}

// DefaultStrategies builds the prioritized strategy list for one
// storefront. pageBudget bounds each range-shaped strategy;
// blindThreshold is the consecutive-empty tolerance for probes whose
// indexing base is unknown.
func DefaultStrategies(store Storefront, recon Recon, pageBudget, blindThreshold int) []Strategy {
	if pageBudget < 1 {
		pageBudget = 1
	}
	if blindThreshold < 1 {
		blindThreshold = 1
	}

	var strategies []Strategy

	// Sub-page AJAX endpoints first when the seed page revealed a store
	// ID. The endpoint's parameter name varies, so both spellings probe.
	if recon.StoreID != "" {
		strategies = append(strategies,
			SubPageStrategy(store.RootURL, recon.StoreID, "pageNum", PageRange(2, pageBudget+1), blindThreshold),
			SubPageStrategy(store.RootURL, recon.StoreID, "page", PageRange(2, pageBudget+1), blindThreshold),
		)
	}

	// Page-parameter probes on the slug URL. Page 1 duplicates the seed
	// page, so ranges start at 2; whether the backend honors the name at
	// all is unknown, hence the blind threshold.
	strategies = append(strategies,
		ParamStrategy(store.RootURL, "pageNo", PageRange(2, pageBudget+1), 1),
		ParamStrategy(store.RootURL, "page", PageRange(2, pageBudget+1), 1),
		ParamStrategy(store.RootURL, "pageNum", PageRange(2, pageBudget+1), 1),
	)

	// Sort views restart from page 1: a different order surfaces items
	// the plain walk never reached.
	strategies = append(strategies,
		SortStrategy(store.RootURL, "price_desc", PageRange(1, pageBudget), 1),
		SortStrategy(store.RootURL, "sales", PageRange(1, pageBudget), 1),
	)

	// Offset probe with literal values; tolerant threshold because the
	// first offsets may all overlap the seed page.
	strategies = append(strategies,
		OffsetStrategy(store.RootURL, "offset", offsetSteps, blindThreshold),
	)

	return strategies
}
