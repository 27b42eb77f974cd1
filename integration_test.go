package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MwangiWaraga/jakan-store-ds/internal/discovery"
	"github.com/MwangiWaraga/jakan-store-ds/internal/fetch"
	"github.com/MwangiWaraga/jakan-store-ds/internal/metrics"
	"github.com/MwangiWaraga/jakan-store-ds/services/sink"
	"github.com/MwangiWaraga/jakan-store-ds/services/worker"
)

// gridHTML renders listing anchors the way the live catalog grid does.
func gridHTML(ids ...int) string {
	var b strings.Builder
	b.WriteString(`<div class="grid">`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<div class="product-card"><div class="product-title">Product %d</div><a href="/listing/%d">KSh %d00</a></div>`, id, id, id)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// newCatalogServer simulates a storefront with a seed page, a pageNo walk
// and a JSON sub-page endpoint. Any other page repeats the seed content.
func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()

	seedGrid := gridHTML(1, 2, 3)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/new/store/sub-page/2099":
			w.Header().Set("Content-Type", "application/json")
			if r.URL.Query().Get("pageNum") == "2" {
				payload := strings.ReplaceAll(gridHTML(7, 8), `"`, `\"`)
				fmt.Fprintf(w, `{"status":"ok","data":"%s"}`, payload)
				return
			}
			payload := strings.ReplaceAll(seedGrid, `"`, `\"`)
			fmt.Fprintf(w, `{"status":"ok","data":"%s"}`, payload)

		case r.URL.Path == "/store/JAKAN-PHONE-STORE":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			switch r.URL.Query().Get("pageNo") {
			case "2":
				fmt.Fprint(w, gridHTML(4, 5, 6))
			default:
				fmt.Fprintf(w, `<html><body>
					<a href="/store/2099">Store home</a>
					<span>Products: 64</span>
					%s
				</body></html>`, seedGrid)
			}

		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFullCrawlToCSV(t *testing.T) {
	server := newCatalogServer(t)
	store := discovery.Storefront{
		Name:    "Jakan Phone Store",
		RootURL: server.URL + "/store/JAKAN-PHONE-STORE",
	}

	m := metrics.NewMetrics()
	fetcher := fetch.NewHTTPFetcher(fetch.Options{
		RetryCount: 1,
		CacheSize:  64,
		Metrics:    m,
	})
	orchestrator := discovery.NewOrchestrator(fetcher, discovery.Options{
		MaxPagesPerStrategy:  3,
		BlindProbeThreshold:  3,
		GlobalRequestCeiling: 50,
		Metrics:              m,
	})

	csvPath := filepath.Join(t.TempDir(), "listings.csv")
	out, err := sink.NewCSVSink(csvPath)
	require.NoError(t, err)

	summary, err := worker.NewWorker(orchestrator, out, []discovery.Storefront{store}, 1).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, out.Close())

	assert.Equal(t, 0, summary.Failed())
	// seed 3, sub-page 2, pageNo walk 3
	assert.Equal(t, 8, summary.Records)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 9, "header plus eight records")

	host := strings.TrimPrefix(server.URL, "http://")
	byStrategy := map[string]int{}
	urls := map[string]bool{}
	for _, row := range rows[1:] {
		assert.Equal(t, "Jakan Phone Store", row[1])
		assert.Contains(t, row[2], "http://"+host+"/listing/")
		assert.NotEmpty(t, row[3], "numeric listing id extracted")
		assert.Contains(t, row[4], "Product ")
		byStrategy[row[6]]++
		urls[row[2]] = true
	}
	assert.Len(t, urls, 8, "canonical URLs are unique")
	assert.Equal(t, 3, byStrategy["seed"])
	assert.Equal(t, 2, byStrategy["sub-page pageNum"])
	assert.Equal(t, 3, byStrategy["pageNo"])
}

func TestFullCrawlStorefrontDownStillWrites(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(down.Close)

	up := newCatalogServer(t)

	stores := []discovery.Storefront{
		{Name: "Down Store", RootURL: down.URL + "/store/DOWN"},
		{Name: "Jakan Phone Store", RootURL: up.URL + "/store/JAKAN-PHONE-STORE"},
	}

	fetcher := fetch.NewHTTPFetcher(fetch.Options{RetryCount: 1})
	orchestrator := discovery.NewOrchestrator(fetcher, discovery.Options{
		MaxPagesPerStrategy:  3,
		BlindProbeThreshold:  3,
		GlobalRequestCeiling: 50,
	})

	csvPath := filepath.Join(t.TempDir(), "listings.csv")
	out, err := sink.NewCSVSink(csvPath)
	require.NoError(t, err)

	summary, err := worker.NewWorker(orchestrator, out, stores, 2).Run(context.Background())
	require.NoError(t, err, "a dead storefront does not fail the run")
	require.NoError(t, out.Close())

	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, 8, summary.Records)
}
