package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCandleClient_FetchesAndDecodes(t *testing.T) {
	bars := []Candle{
		{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 99, High: 101, Low: 98, Close: 100, Volume: 1000},
		{Time: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 100, High: 103, Low: 99, Close: 102, Volume: 1200},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/candles", r.URL.Path)
		assert.Equal(t, "THYAO", r.URL.Query().Get("symbol"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		require.NoError(t, json.NewEncoder(w).Encode(bars))
	}))
	defer srv.Close()

	client, err := NewHTTPCandleClient(HTTPCandleConfig{BaseURL: srv.URL, RateLimitPerMinute: 600})
	require.NoError(t, err)

	got, err := client.Candles(context.Background(), "THYAO", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 100.0, got[0].Close)
	assert.Equal(t, 102.0, got[1].Close)
}

func TestHTTPCandleClient_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewHTTPCandleClient(HTTPCandleConfig{BaseURL: srv.URL, RateLimitPerMinute: 600, MaxRetries: 1})
	require.NoError(t, err)

	_, err = client.Candles(context.Background(), "THYAO", 5)
	assert.ErrorContains(t, err, "HTTP 500")
}

func TestHTTPCandleClient_RejectsBadClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode([]Candle{{Close: 0}}))
	}))
	defer srv.Close()

	client, err := NewHTTPCandleClient(HTTPCandleConfig{BaseURL: srv.URL, RateLimitPerMinute: 600, MaxRetries: 1})
	require.NoError(t, err)

	_, err = client.Candles(context.Background(), "THYAO", 1)
	assert.ErrorContains(t, err, "bad close")
}

func TestHTTPCandleClient_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPCandleClient(HTTPCandleConfig{})
	assert.Error(t, err)
}

func TestHTTPCandleClient_ValidatesArgs(t *testing.T) {
	client, err := NewHTTPCandleClient(HTTPCandleConfig{BaseURL: "http://localhost:0"})
	require.NoError(t, err)

	_, err = client.Candles(context.Background(), "", 5)
	assert.Error(t, err)

	_, err = client.Candles(context.Background(), "THYAO", 0)
	assert.Error(t, err)
}

func TestSimCandleSource_Deterministic(t *testing.T) {
	sim := NewSimCandleSource()

	first, err := sim.Candles(context.Background(), "THYAO", 50)
	require.NoError(t, err)
	second, err := sim.Candles(context.Background(), "THYAO", 50)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 50)
}

func TestSimCandleSource_SymbolsDiffer(t *testing.T) {
	sim := NewSimCandleSource()

	thyao, err := sim.Candles(context.Background(), "THYAO", 10)
	require.NoError(t, err)
	garan, err := sim.Candles(context.Background(), "GARAN", 10)
	require.NoError(t, err)

	assert.NotEqual(t, thyao, garan)
}

func TestSimCandleSource_BarsAreSane(t *testing.T) {
	sim := NewSimCandleSource()

	bars, err := sim.Candles(context.Background(), "SASA", 100)
	require.NoError(t, err)

	for i, bar := range bars {
		assert.Greater(t, bar.Close, 0.0, "bar %d", i)
		assert.GreaterOrEqual(t, bar.High, bar.Low, "bar %d", i)
		assert.Positive(t, bar.Volume, "bar %d", i)
		if i > 0 {
			assert.True(t, bar.Time.After(bars[i-1].Time), "bar %d out of order", i)
		}
	}
}
