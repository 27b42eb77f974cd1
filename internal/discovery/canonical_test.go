package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	canon, err := NewCanonicalizer("https://www.kilimall.co.ke/store/JAKAN-PHONE-STORE")
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "query and fragment stripped",
			raw:  "https://www.kilimall.co.ke/listing/1001?src=grid#reviews",
			want: "https://www.kilimall.co.ke/listing/1001",
		},
		{
			name: "trailing slash trimmed",
			raw:  "https://www.kilimall.co.ke/listing/1001/",
			want: "https://www.kilimall.co.ke/listing/1001",
		},
		{
			name: "relative path gets storefront scheme and host",
			raw:  "/listing/2002",
			want: "https://www.kilimall.co.ke/listing/2002",
		},
		{
			name: "foreign host forced to storefront host",
			raw:  "http://cdn.example.com/listing/3003",
			want: "https://www.kilimall.co.ke/listing/3003",
		},
		{
			name: "root URL collapses to bare origin",
			raw:  "https://www.kilimall.co.ke/",
			want: "https://www.kilimall.co.ke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := canon.Canonicalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	canon, err := NewCanonicalizer("https://www.kilimall.co.ke/store/JAKAN-PHONE-STORE")
	require.NoError(t, err)

	once, err := canon.Canonicalize("/listing/1001/?page=3#top")
	require.NoError(t, err)
	twice, err := canon.Canonicalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestCanonicalizeErrors(t *testing.T) {
	canon, err := NewCanonicalizer("https://www.kilimall.co.ke/store/JAKAN-PHONE-STORE")
	require.NoError(t, err)

	_, err = canon.Canonicalize("")
	assert.Error(t, err)

	_, err = canon.Canonicalize("   ")
	assert.Error(t, err)
}

func TestNewCanonicalizerRejectsRelativeRoot(t *testing.T) {
	_, err := NewCanonicalizer("/store/JAKAN-PHONE-STORE")
	assert.Error(t, err)
}

func TestExtractListingID(t *testing.T) {
	assert.Equal(t, "1001", ExtractListingID("https://www.kilimall.co.ke/listing/1001"))
	assert.Equal(t, "42", ExtractListingID("https://www.kilimall.co.ke/product/42"))
	assert.Equal(t, "7", ExtractListingID("https://www.kilimall.co.ke/item/7"))
	assert.Equal(t, "", ExtractListingID("https://www.kilimall.co.ke/listing/blue-phone"))
	assert.Equal(t, "", ExtractListingID("https://www.kilimall.co.ke/about"))
}
