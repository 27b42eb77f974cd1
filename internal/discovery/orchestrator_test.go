package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MwangiWaraga/jakan-store-ds/internal/fetch"
	errs "github.com/MwangiWaraga/jakan-store-ds/pkg/errors"
)

const testRootURL = "https://www.kilimall.co.ke/store/JAKAN-PHONE-STORE"

var testStore = Storefront{Name: "Jakan Phone Store", RootURL: testRootURL}

// grid renders a product grid holding one listing anchor per id.
func grid(ids ...int) string {
	var b strings.Builder
	b.WriteString("<div class=\"grid\">")
	for _, id := range ids {
		fmt.Fprintf(&b, `<a href="/listing/%d" title="Product %d">KSh %d00</a>`, id, id, id)
	}
	b.WriteString("</div>")
	return b.String()
}

// stubFetcher answers from a URL-to-body map; unknown URLs get the
// fallback body. Errors in the errs map win over bodies.
type stubFetcher struct {
	bodies   map[string]string
	errs     map[string]error
	fallback string
	calls    atomic.Int64
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*fetch.Page, error) {
	f.calls.Add(1)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	body, ok := f.bodies[url]
	if !ok {
		body = f.fallback
	}
	return &fetch.Page{Body: []byte(body), ContentType: "text/html"}, nil
}

func idRange(from, to int) []int {
	return PageRange(from, to)
}

func newTestOrchestrator(f fetch.Fetcher, ceiling int) *Orchestrator {
	return NewOrchestrator(f, Options{
		MaxPagesPerStrategy:  5,
		BlindProbeThreshold:  3,
		GlobalRequestCeiling: ceiling,
	})
}

func TestDiscoverParamThenOffset(t *testing.T) {
	// The pageNo walk finds twenty listings on its first page, then a page
	// of pure duplicates exhausts it. Every other probe repeats known
	// content until one offset page returns five tiles of which three are
	// already seen, crediting the offset probe with exactly two.
	stub := &stubFetcher{
		bodies: map[string]string{
			testRootURL:                grid(),
			testRootURL + "?pageNo=2":  grid(idRange(1, 20)...),
			testRootURL + "?offset=64": grid(1, 2, 3, 21, 22),
		},
		fallback: grid(idRange(1, 20)...),
	}

	session, err := newTestOrchestrator(stub, 200).Discover(context.Background(), testStore)
	require.NoError(t, err)
	assert.Len(t, session.Records, 22)

	byStrategy := map[string]int{}
	for _, rec := range session.Records {
		byStrategy[rec.SourceStrategy]++
	}
	assert.Equal(t, 20, byStrategy["pageNo"])
	assert.Equal(t, 2, byStrategy["offset"])

	reports := map[string]StrategyReport{}
	for _, r := range session.Strategies {
		reports[r.Name] = r
	}
	pageNo := reports["pageNo"]
	assert.Equal(t, StateExhausted, pageNo.State)
	assert.Equal(t, 2, pageNo.PagesTried, "one productive page plus one duplicate page")
	assert.Equal(t, 20, pageNo.NovelListings)

	offset := reports["offset"]
	assert.Equal(t, StateExhausted, offset.State)
	assert.Equal(t, 2, offset.NovelListings)
}

func TestDiscoverRecordsAreCanonicalAndDeduplicated(t *testing.T) {
	stub := &stubFetcher{
		bodies: map[string]string{
			testRootURL: `<a href="/listing/1001?src=grid#top" title="Blue Case">x</a>
			              <a href="/listing/1001/" title="Blue Case again">x</a>`,
		},
		fallback: grid(),
	}

	session, err := newTestOrchestrator(stub, 200).Discover(context.Background(), testStore)
	require.NoError(t, err)
	require.Len(t, session.Records, 1)

	rec := session.Records[0]
	assert.Equal(t, "https://www.kilimall.co.ke/listing/1001", rec.CanonicalURL)
	assert.Equal(t, "1001", rec.ListingID)
	assert.Equal(t, "Blue Case", rec.Title, "first discovery wins")
	assert.Equal(t, "seed", rec.SourceStrategy)
	assert.Equal(t, "Jakan Phone Store", rec.Store)
}

func TestDiscoverFailedStrategyDoesNotAbortCrawl(t *testing.T) {
	stub := &stubFetcher{
		bodies: map[string]string{
			testRootURL:             grid(1),
			testRootURL + "?page=2": grid(2, 3, 4, 5, 6),
		},
		errs: map[string]error{
			testRootURL + "?pageNo=2": errs.NewNetwork("Jakan Phone Store", "fetch aborted after retries", nil),
		},
		fallback: grid(1),
	}

	session, err := newTestOrchestrator(stub, 200).Discover(context.Background(), testStore)
	require.NoError(t, err)

	reports := map[string]StrategyReport{}
	for _, r := range session.Strategies {
		reports[r.Name] = r
	}
	assert.Equal(t, StateFailed, reports["pageNo"].State)
	assert.Equal(t, 1, reports["pageNo"].PagesTried)
	assert.Equal(t, StateExhausted, reports["page"].State)
	assert.Equal(t, 5, reports["page"].NovelListings)
	assert.Len(t, session.Records, 6)
}

func TestDiscoverSeedFailureIsFatal(t *testing.T) {
	stub := &stubFetcher{
		errs: map[string]error{
			testRootURL: errs.NewNetwork("Jakan Phone Store", "connection refused", nil),
		},
	}

	session, err := newTestOrchestrator(stub, 200).Discover(context.Background(), testStore)
	assert.Error(t, err)
	assert.Empty(t, session.Records)
	assert.Equal(t, 1, session.RequestsIssued)
	assert.Equal(t, int64(1), stub.calls.Load(), "nothing runs without a seed page")
}

func TestDiscoverRespectsRequestCeiling(t *testing.T) {
	stub := &stubFetcher{
		bodies:   map[string]string{},
		fallback: grid(idRange(1, 10)...),
	}

	session, err := newTestOrchestrator(stub, 3).Discover(context.Background(), testStore)
	require.NoError(t, err)
	assert.Equal(t, 3, session.RequestsIssued, "seed plus two strategy pages")
	assert.Equal(t, int64(3), stub.calls.Load())

	// every strategy still reaches a terminal state
	for _, r := range session.Strategies {
		assert.True(t, r.State == StateExhausted || r.State == StateFailed, "strategy %s left in %s", r.Name, r.StateName)
	}
}

func TestDiscoverSubPageStrategiesUnlockedByStoreID(t *testing.T) {
	seed := `<a href="/store/2099">store home</a><span>Products: 40</span>` + grid(1)
	subPageURL := "https://www.kilimall.co.ke/new/store/sub-page/2099?pageNum=2&typeName=All+Products"

	stub := &stubFetcher{
		bodies: map[string]string{
			testRootURL: seed,
			subPageURL:  grid(2, 3),
		},
		fallback: grid(1),
	}

	session, err := newTestOrchestrator(stub, 200).Discover(context.Background(), testStore)
	require.NoError(t, err)

	byStrategy := map[string]int{}
	for _, rec := range session.Records {
		byStrategy[rec.SourceStrategy]++
	}
	assert.Equal(t, 1, byStrategy["seed"])
	assert.Equal(t, 2, byStrategy["sub-page pageNum"])
}

func TestDiscoverCancellationKeepsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stub := &stubFetcher{
		bodies: map[string]string{
			testRootURL:               grid(1, 2, 3),
			testRootURL + "?pageNo=2": grid(4, 5),
		},
		fallback: grid(1, 2, 3),
	}
	// stop the crawl once the first strategy page has been consumed
	gate := fetch.Func(func(c context.Context, url string) (*fetch.Page, error) {
		page, err := stub.Fetch(c, url)
		if stub.calls.Load() >= 2 {
			cancel()
		}
		return page, err
	})

	session, err := newTestOrchestrator(gate, 200).Discover(ctx, testStore)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, session.Records, 5, "seed and first strategy page survive cancellation")
	assert.Equal(t, 2, session.RequestsIssued)
}

func TestDiscoverInvalidRootURL(t *testing.T) {
	stub := &stubFetcher{fallback: grid()}
	bad := Storefront{Name: "Broken", RootURL: "not-a-url"}

	session, err := newTestOrchestrator(stub, 200).Discover(context.Background(), bad)
	assert.Error(t, err)
	assert.Equal(t, errs.ErrorTypeConfiguration, errs.GetType(err))
	assert.Empty(t, session.Records)
	assert.Equal(t, int64(0), stub.calls.Load())
}
