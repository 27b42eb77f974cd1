package discovery

import (
	"context"
	"math/rand"
	"time"

	"github.com/MwangiWaraga/jakan-store-ds/internal/fetch"
	"github.com/MwangiWaraga/jakan-store-ds/internal/metrics"
	"github.com/MwangiWaraga/jakan-store-ds/logger"
	errs "github.com/MwangiWaraga/jakan-store-ds/pkg/errors"
)

// Options configures an Orchestrator.
type Options struct {
	// MaxPagesPerStrategy bounds each range-shaped strategy's page walk.
	MaxPagesPerStrategy int
	// BlindProbeThreshold is the consecutive-empty tolerance for probes
	// whose indexing base is unknown.
	BlindProbeThreshold int
	// GlobalRequestCeiling caps total requests per storefront crawl,
	// seed page included.
	GlobalRequestCeiling int
	// DelayMin and DelayMax bound the randomized pause before each
	// request after the first.
	DelayMin time.Duration
	DelayMax time.Duration
	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// Orchestrator runs the full strategy catalog against one storefront and
// accumulates a deduplicated result set. Strategies run sequentially in
// priority order against a shared seen-set, so a later strategy earns
// credit only for listings the earlier ones missed.
type Orchestrator struct {
	fetcher   fetch.Fetcher
	extractor *TileExtractor
	opts      Options
}

// NewOrchestrator creates a discovery orchestrator on top of a fetcher.
func NewOrchestrator(fetcher fetch.Fetcher, opts Options) *Orchestrator {
	if opts.MaxPagesPerStrategy < 1 {
		opts.MaxPagesPerStrategy = 1
	}
	if opts.GlobalRequestCeiling < 1 {
		opts.GlobalRequestCeiling = 1
	}
	return &Orchestrator{
		fetcher:   fetcher,
		extractor: NewTileExtractor(),
		opts:      opts,
	}
}

// Discover crawls one storefront to completion and returns the session.
// The session is returned even on error so partial results are never
// lost; callers decide whether a partial crawl is worth keeping.
func (o *Orchestrator) Discover(ctx context.Context, store Storefront) (*Session, error) {
	session := newSession(store)
	log := logger.ForStorefront(store.Name)

	canon, err := NewCanonicalizer(store.RootURL)
	if err != nil {
		o.opts.Metrics.IncError(string(errs.ErrorTypeConfiguration))
		return session, errs.NewConfiguration("invalid storefront root URL for "+store.Name, err)
	}

	// Seed fetch. The crawl cannot proceed without it: recon and the
	// baseline seen-set both come from the root page.
	seed, err := o.fetchPage(ctx, session, store.RootURL)
	if err != nil {
		return session, err
	}
	seedTiles := o.extractor.Extract(seed.Body)
	novel := session.merge("seed", seedTiles, canon)
	o.opts.Metrics.IncListings(novel)

	recon := ReconFromPage(seed.Body)
	pageBudget := EstimatePages(recon.TotalProducts, len(seedTiles), o.opts.MaxPagesPerStrategy)

	log.Info().
		Str("store_id", recon.StoreID).
		Int("total_products", recon.TotalProducts).
		Int("seed_listings", novel).
		Int("page_budget", pageBudget).
		Msg("Seed page reconnoitered")

	strategies := DefaultStrategies(store, recon, pageBudget, o.opts.BlindProbeThreshold)
	for i := range strategies {
		o.runStrategy(ctx, session, canon, &strategies[i])
		session.reportStrategy(&strategies[i])
		o.opts.Metrics.IncStrategyTerminal(strategies[i].State().String())

		if ctx.Err() != nil || session.RequestsIssued >= o.opts.GlobalRequestCeiling {
			for j := i + 1; j < len(strategies); j++ {
				strategies[j].Exhaust()
				session.reportStrategy(&strategies[j])
			}
			break
		}
	}

	log.Info().
		Int("listings", len(session.Records)).
		Int("requests", session.RequestsIssued).
		Msg("Storefront discovery finished")

	if ctx.Err() != nil {
		return session, ctx.Err()
	}
	return session, nil
}

// runStrategy walks one strategy's page list until the strategy reaches a
// terminal state, the request ceiling is hit, or the context is done.
func (o *Orchestrator) runStrategy(ctx context.Context, session *Session, canon *Canonicalizer, strategy *Strategy) {
	log := logger.ForStrategy(session.Store.Name, strategy.Name)

	for _, page := range strategy.Pages {
		if strategy.Terminal() {
			return
		}
		if ctx.Err() != nil {
			strategy.Exhaust()
			return
		}
		if session.RequestsIssued >= o.opts.GlobalRequestCeiling {
			log.Warn().
				Int("ceiling", o.opts.GlobalRequestCeiling).
				Msg("Request ceiling reached, abandoning strategy")
			strategy.Exhaust()
			return
		}

		if err := o.politeDelay(ctx); err != nil {
			strategy.Exhaust()
			return
		}

		url := strategy.BuildURL(page)
		fetched, err := o.fetchPage(ctx, session, url)
		if err != nil {
			log.Warn().Err(err).Int("page", page).Msg("Page fetch failed, strategy abandoned")
			strategy.RecordFailure()
			return
		}

		tiles := o.extractor.Extract(fetched.Body)
		novel := session.merge(strategy.Name, tiles, canon)
		o.opts.Metrics.IncListings(novel)
		strategy.RecordPage(novel)

		log.Debug().
			Int("page", page).
			Int("tiles", len(tiles)).
			Int("novel", novel).
			Msg("Page processed")
	}

	// Page budget spent while still productive: nothing left to try.
	strategy.Exhaust()
}

// fetchPage issues one request, counting it against the ceiling whether or
// not it succeeds.
func (o *Orchestrator) fetchPage(ctx context.Context, session *Session, url string) (*fetch.Page, error) {
	session.RequestsIssued++
	o.opts.Metrics.IncRequest(session.Store.Name)

	start := time.Now()
	page, err := o.fetcher.Fetch(ctx, url)
	o.opts.Metrics.ObserveDuration(time.Since(start))
	if err != nil {
		o.opts.Metrics.IncError(string(errs.GetType(err)))
		return nil, err
	}
	return page, nil
}

// politeDelay sleeps a random interval in [DelayMin, DelayMax]. Skipped
// when no delay is configured; interrupted by context cancellation.
func (o *Orchestrator) politeDelay(ctx context.Context) error {
	if o.opts.DelayMax <= 0 {
		return ctx.Err()
	}
	d := o.opts.DelayMin
	if span := o.opts.DelayMax - o.opts.DelayMin; span > 0 {
		d += time.Duration(rand.Int63n(int64(span) + 1))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
