package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MwangiWaraga/jakan-store-ds/internal/discovery"
	"github.com/MwangiWaraga/jakan-store-ds/logger"
	errs "github.com/MwangiWaraga/jakan-store-ds/pkg/errors"
	"github.com/MwangiWaraga/jakan-store-ds/services/sink"
)

// Discoverer crawls one storefront to completion. The returned session
// carries partial results even when err is non-nil.
type Discoverer interface {
	Discover(ctx context.Context, store discovery.Storefront) (*discovery.Session, error)
}

// StoreResult is the outcome of one storefront's crawl.
type StoreResult struct {
	Store    discovery.Storefront
	Listings int
	Requests int
	Err      error
}

// Summary aggregates a full run across storefronts.
type Summary struct {
	Results  []StoreResult
	Records  int
	Duration time.Duration
}

// Failed returns how many storefronts ended in error.
func (s *Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Worker runs discovery across storefronts with bounded concurrency and
// hands the combined record set to the sink in a single write.
type Worker struct {
	discoverer  Discoverer
	sink        sink.Sink
	storefronts []discovery.Storefront
	concurrency int
}

// NewWorker creates a crawl runner.
func NewWorker(d Discoverer, s sink.Sink, storefronts []discovery.Storefront, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		discoverer:  d,
		sink:        s,
		storefronts: storefronts,
		concurrency: concurrency,
	}
}

// Run crawls every storefront once and writes the aggregate exactly once.
// A storefront failure is recorded and the run continues; a sink failure
// is fatal.
func (w *Worker) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	log := logger.ForWorker()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		records []discovery.Listing
		results = make([]StoreResult, len(w.storefronts))
	)
	sem := make(chan struct{}, w.concurrency)

	for i, store := range w.storefronts {
		wg.Add(1)
		go func(i int, store discovery.Storefront) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			session, err := w.discoverer.Discover(ctx, store)
			if err != nil {
				log.Error().Err(err).Str("storefront", store.Name).Msg("Storefront crawl failed")
			}

			mu.Lock()
			records = append(records, session.Records...)
			results[i] = StoreResult{
				Store:    store,
				Listings: len(session.Records),
				Requests: session.RequestsIssued,
				Err:      err,
			}
			mu.Unlock()
		}(i, store)
	}
	wg.Wait()

	if err := w.sink.Write(records); err != nil {
		return nil, errs.NewSink("writing crawl results", err)
	}

	summary := &Summary{
		Results:  results,
		Records:  len(records),
		Duration: time.Since(start),
	}
	log.Info().
		Int("storefronts", len(w.storefronts)).
		Int("failed", summary.Failed()).
		Int("records", summary.Records).
		Dur("duration", summary.Duration).
		Msg("Crawl run finished")
	return summary, nil
}
