package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedBody = `[
  {"currency": "USD", "date": "2023-08-29T07:10:40.000Z", "price": 1},
  {"currency": "ETH", "date": "2023-08-29T07:10:40.000Z", "price": 1645.93},
  {"currency": "ETH", "date": "2023-08-29T07:10:52.000Z", "price": 1646.1},
  {"currency": "BAD", "date": "yesterday", "price": 5},
  {"currency": "ZRO", "date": "2023-08-29T07:10:40.000Z", "price": 0}
]`

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	source := NewHTTPSource(srv.URL, nil)
	entries, err := source.Fetch(context.Background())
	require.NoError(t, err)

	// the unparsable date and the non-positive price are skipped,
	// duplicates survive: deduplication is the table builder's job
	require.Len(t, entries, 3)
	assert.Equal(t, "USD", entries[0].Currency)
	assert.Equal(t, "ETH", entries[1].Currency)
	assert.Equal(t, "ETH", entries[2].Currency)
	assert.True(t, entries[2].AsOf.After(entries[1].AsOf))
	assert.True(t, entries[1].Price.Equal(decimal.NewFromFloat(1645.93)))
}

func TestHTTPSource_FetchRecoversAfterTransientFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"currency": "USD", "date": "2023-08-29T07:10:40.000Z", "price": 1}]`))
	}))
	defer srv.Close()

	source := NewHTTPSource(srv.URL, nil)
	entries, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, attempts)
}

func TestHTTPSource_FetchBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a feed"}`))
	}))
	defer srv.Close()

	source := NewHTTPSource(srv.URL, nil)
	_, err := source.Fetch(context.Background())
	assert.Error(t, err)
}

func TestStaticSource(t *testing.T) {
	source := StaticSource{}
	entries, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
