package sink

import (
	"github.com/MwangiWaraga/jakan-store-ds/internal/discovery"
)

// Sink receives the final record set of a crawl run. Write is called
// exactly once per run with the complete aggregate; a write failure is
// fatal to the run.
type Sink interface {
	// Write persists the records.
	Write(records []discovery.Listing) error

	// Close releases the sink's resources.
	Close() error
}
