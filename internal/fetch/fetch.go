package fetch

import (
	"context"
)

// Page is the body of one successfully fetched catalog page, decoded to UTF-8.
type Page struct {
	Body        []byte
	ContentType string
}

// Fetcher is the capability the discovery engine consumes. Implementations
// apply their own retries and rate limiting and return a definitive
// success or failure per call.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, url string) (*Page, error)

// Fetch implements Fetcher.
func (f Func) Fetch(ctx context.Context, url string) (*Page, error) {
	return f(ctx, url)
}
