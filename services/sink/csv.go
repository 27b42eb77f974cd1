package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MwangiWaraga/jakan-store-ds/internal/discovery"
	"github.com/MwangiWaraga/jakan-store-ds/logger"
)

var csvHeader = []string{"scraped_at", "store", "canonical_url", "listing_id", "title", "price_text", "source_strategy"}

// CSVSink writes listing records to a CSV file.
type CSVSink struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVSink creates the output file, parent directories included, and
// writes the header row.
func NewCSVSink(filename string) (*CSVSink, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVSink{file: f, writer: writer}, nil
}

// Write appends the records and flushes them to disk.
func (s *CSVSink) Write(records []discovery.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		row := []string{
			now,
			rec.Store,
			rec.CanonicalURL,
			rec.ListingID,
			rec.Title,
			rec.PriceText,
			rec.SourceStrategy,
		}
		if err := s.writer.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}

	logger.ForSink().Info().
		Int("records", len(records)).
		Str("file", s.file.Name()).
		Msg("Records written")
	return nil
}

// Close flushes and closes the file handle.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return s.file.Close()
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
