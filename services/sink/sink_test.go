package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MwangiWaraga/jakan-store-ds/internal/discovery"
)

func TestCSVSinkWritesHeaderAndRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "listings.csv")

	s, err := NewCSVSink(path)
	require.NoError(t, err)

	records := []discovery.Listing{
		{
			CanonicalURL:   "https://www.kilimall.co.ke/listing/1001",
			ListingID:      "1001",
			Title:          "Blue Phone Case",
			PriceText:      "KSh 1,200",
			SourceStrategy: "pageNo",
			Store:          "Jakan Phone Store",
		},
		{
			CanonicalURL:   "https://www.kilimall.co.ke/listing/1002",
			SourceStrategy: "offset",
			Store:          "Jakan Phone Store",
		},
	}
	require.NoError(t, s.Write(records))
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "https://www.kilimall.co.ke/listing/1001", rows[1][2])
	assert.Equal(t, "1001", rows[1][3])
	assert.Equal(t, "Blue Phone Case", rows[1][4])
	assert.Equal(t, "pageNo", rows[1][6])
	assert.Equal(t, "", rows[2][4], "missing title stays empty")
}

func TestCSVSinkEmptyWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")

	s, err := NewCSVSink(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(nil))
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "only the header")
}

func TestCSVSinkCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c", "listings.csv")

	s, err := NewCSVSink(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
