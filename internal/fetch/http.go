package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/html/charset"

	"github.com/MwangiWaraga/jakan-store-ds/internal/metrics"
	"github.com/MwangiWaraga/jakan-store-ds/logger"
	errs "github.com/MwangiWaraga/jakan-store-ds/pkg/errors"
	"github.com/MwangiWaraga/jakan-store-ds/services/cache"
)

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.bing.com/",
	}
)

// Options configures the HTTP fetcher.
type Options struct {
	Timeout    time.Duration
	RetryCount int
	// CacheSvc, when set, backs the per-host block gate: a host that rate
	// limited us is not contacted again until BlockTime elapses.
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	// CacheSize bounds the LRU body cache. Strategies frequently build
	// identical probe URLs; serving those from memory saves requests.
	// Zero disables the cache.
	CacheSize int
	Metrics   *metrics.Metrics
}

// HTTPFetcher fetches catalog pages with randomized browser-like headers,
// bounded retries with jittered backoff, and UTF-8 body decoding.
type HTTPFetcher struct {
	client    *http.Client
	opts      Options
	bodyCache *lru.Cache[string, *Page]
	log       *logger.Logger
}

// NewHTTPFetcher creates an HTTP fetcher.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.RetryCount <= 0 {
		opts.RetryCount = 3
	}

	var bodyCache *lru.Cache[string, *Page]
	if opts.CacheSize > 0 {
		bodyCache, _ = lru.New[string, *Page](opts.CacheSize)
	}

	return &HTTPFetcher{
		client:    &http.Client{Timeout: opts.Timeout},
		opts:      opts,
		bodyCache: bodyCache,
		log:       logger.ForFetcher(),
	}
}

// Fetch retrieves one URL. Transient failures (5xx, timeouts, connection
// errors) are retried with jittered backoff; 4xx responses are terminal
// immediately. 429/430 additionally arm the block gate for the host.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if f.bodyCache != nil {
		if page, ok := f.bodyCache.Get(rawURL); ok {
			f.log.Debug().Str("url", rawURL).Msg("body cache hit")
			return page, nil
		}
	}

	host := hostOf(rawURL)
	if err := f.checkBlockGate(host); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= f.opts.RetryCount; attempt++ {
		page, retryable, err := f.fetchOnce(ctx, rawURL, host)
		if err == nil {
			if f.bodyCache != nil {
				f.bodyCache.Add(rawURL, page)
			}
			return page, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		if attempt < f.opts.RetryCount {
			f.opts.Metrics.IncRetries()
			select {
			case <-ctx.Done():
				return nil, errs.NewNetwork(host, "fetch cancelled", ctx.Err())
			case <-time.After(f.backoff(attempt)):
			}
		}
	}
	return nil, lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL, host string) (*Page, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, errs.NewNetwork(host, "failed to create request", err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", userAgents[mathrand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-KE,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("referer", referers[mathrand.Intn(len(referers))])

	start := time.Now()
	resp, err := f.client.Do(req)
	f.opts.Metrics.ObserveDuration(time.Since(start))
	if err != nil {
		f.opts.Metrics.IncError(string(errs.ErrorTypeNetwork))
		return nil, true, errs.NewNetwork(host, fmt.Sprintf("failed to fetch %s", rawURL), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 430:
		f.armBlockGate(host)
		f.opts.Metrics.IncError(string(errs.ErrorTypeRateLimit))
		return nil, false, errs.NewRateLimit(host, f.opts.BlockTime)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Client errors are definitive, never retried.
		f.opts.Metrics.IncError(string(errs.ErrorTypeNetwork))
		return nil, false, errs.NewNetwork(host, fmt.Sprintf("fetch %s terminal status %d", rawURL, resp.StatusCode), nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		f.opts.Metrics.IncError(string(errs.ErrorTypeNetwork))
		return nil, true, errs.NewNetwork(host, fmt.Sprintf("fetch %s unexpected status %d", rawURL, resp.StatusCode), nil)
	}

	contentType := resp.Header.Get("Content-Type")
	if !acceptableContentType(contentType) {
		return nil, false, errs.NewParsing(host, fmt.Sprintf("fetch %s unexpected content type %q", rawURL, contentType), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, errs.NewNetwork(host, "failed to read response body", err)
	}

	utf8Body, err := toUTF8(bodyBytes, contentType)
	if err != nil {
		return nil, false, errs.NewParsing(host, "failed to decode response body", err)
	}

	return &Page{Body: utf8Body, ContentType: contentType}, false, nil
}

func (f *HTTPFetcher) checkBlockGate(host string) error {
	if f.opts.CacheSvc == nil || host == "" {
		return nil
	}
	if _, err := f.opts.CacheSvc.Get(blockKey(host)); err == nil {
		return errs.NewRateLimit(host, f.opts.BlockTime)
	}
	return nil
}

func (f *HTTPFetcher) armBlockGate(host string) {
	if f.opts.CacheSvc == nil || host == "" || f.opts.BlockTime <= 0 {
		return
	}
	value := []byte(fmt.Sprintf("%d", int(f.opts.BlockTime.Seconds())))
	if err := f.opts.CacheSvc.Set(blockKey(host), value, f.opts.BlockTime); err != nil {
		f.log.Warn().Err(err).Str("host", host).Msg("failed to arm block gate")
	}
}

func (f *HTTPFetcher) backoff(attempt int) time.Duration {
	base := time.Duration(attempt) * 500 * time.Millisecond
	jitter := time.Duration(mathrand.Int63n(int64(300 * time.Millisecond)))
	return base + jitter
}

func blockKey(host string) string {
	return host + "_rate_limited"
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func acceptableContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "html") || strings.Contains(ct, "json") || strings.Contains(ct, "text/plain")
}

// toUTF8 converts the body to UTF-8 based on the Content-Type header and
// body sniffing.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return body, nil
	}
	reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
