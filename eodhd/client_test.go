package eodhd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/eod/MCD.US", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "key", r.URL.Query().Get("api_token"))
		assert.Equal(t, "2024-02-12", r.URL.Query().Get("from"))
		w.Write([]byte(`[
			{"date":"2024-02-12","open":10,"high":11,"low":9.5,"close":10.5,"adjusted_close":10.5,"volume":1200},
			{"date":"2024-02-13","open":10.5,"high":12,"low":10,"close":11.25,"adjusted_close":11.25,"volume":900}
		]`))
	})
	mux.HandleFunc("/splits/AAPL.US", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"date":"2020-08-31","split":"4.000000/1.000000"}]`))
	})
	mux.HandleFunc("/search/apple", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Code":"AAPL","Exchange":"US","Name":"Apple Inc","Type":"Common Stock","ISIN":"US0378331005"}]`))
	})
	mux.HandleFunc("/eod/BAD.US", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "ticker not found", http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBarsAreCached(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	c, err := NewClient("key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	defer c.Close()

	from, to := date.New(2024, 2, 12), date.New(2024, 2, 13)
	for range 2 {
		bars, err := c.Bars(context.Background(), "MCD.US", from, to)
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.Equal(t, date.New(2024, 2, 13), bars[1].Date)
		assert.True(t, decimal.RequireFromString("11.25").Equal(bars[1].Close))
		assert.Equal(t, int64(900), bars[1].Volume)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestAPIError(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	c, err := NewClient("key", WithBaseURL(srv.URL), WithCacheTTL(0))
	require.NoError(t, err)

	_, err = c.Bars(context.Background(), "BAD.US", date.Date{}, date.Date{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "ticker not found", apiErr.Message)
}

func TestSplitsAndSearch(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	c, err := NewClient("key", WithBaseURL(srv.URL), WithRateLimit(100))
	require.NoError(t, err)
	defer c.Close()

	splits, err := c.Splits(context.Background(), "AAPL.US", date.Date{}, date.Date{})
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.True(t, decimal.NewFromInt(4).Equal(splits[0].Ratio))

	results, err := c.Search(context.Background(), "apple")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "AAPL.US", results[0].Symbol())
}

func TestParseRatio(t *testing.T) {
	r, err := parseRatio("3/2")
	require.NoError(t, err)
	assert.Equal(t, "1.5", r.String())

	for _, bad := range []string{"3", "a/1", "1/0", "-1/2"} {
		_, err := parseRatio(bad)
		assert.Error(t, err, bad)
	}
}

func TestLatest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/real-time/MCD.US", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"MCD.US","timestamp":1707782400,"open":290.1,"close":291.5,"previousClose":289}`))
	})
	mux.HandleFunc("/real-time/KO.US", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"KO.US","timestamp":"1707782400","close":"NA","previousClose":"60.25"}`))
	})
	mux.HandleFunc("/real-time/BAD.US", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"BAD.US","timestamp":1707782400,"close":{"value":1}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c, err := NewClient("key", WithBaseURL(srv.URL), WithCacheTTL(0))
	require.NoError(t, err)

	q, err := c.Latest(context.Background(), "MCD.US")
	require.NoError(t, err)
	assert.Equal(t, date.New(2024, 2, 13), q.Date)
	assert.Equal(t, "291.5", q.Close.String())

	q, err = c.Latest(context.Background(), "KO.US")
	require.NoError(t, err)
	assert.Equal(t, "60.25", q.Close.String())

	_, err = c.Latest(context.Background(), "BAD.US")
	assert.Error(t, err)
}
