package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Candle is one OHLCV bar.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// CandleSource returns up to limit most-recent bars for a symbol, oldest
// first.
type CandleSource interface {
	Candles(ctx context.Context, symbol string, limit int) ([]Candle, error)
}

// HTTPCandleConfig holds settings for the HTTP candle client.
type HTTPCandleConfig struct {
	BaseURL            string
	RateLimitPerMinute int
	TimeoutSeconds     int
	MaxRetries         int
}

// HTTPCandleClient fetches bars from a JSON candle endpoint
// (GET {base}/candles?symbol=X&limit=N -> [{time,open,high,low,close,volume}]).
// Requests share a token-bucket rate limiter so a burst of committee runs
// cannot blow through a provider quota.
type HTTPCandleClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

func NewHTTPCandleClient(cfg HTTPCandleConfig) (*HTTPCandleClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("candle base URL is required")
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 30
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 5
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	return &HTTPCandleClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMinute)/60), 1),
		maxRetries: cfg.MaxRetries,
	}, nil
}

func (c *HTTPCandleClient) Candles(ctx context.Context, symbol string, limit int) ([]Candle, error) {
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("non-positive candle limit %d", limit)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{
		"symbol": {symbol},
		"limit":  {strconv.Itoa(limit)},
	}
	requestURL := c.baseURL + "/candles?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(250*(1<<attempt)) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		candles, err := c.fetch(ctx, requestURL, symbol)
		if err != nil {
			lastErr = err
			continue
		}
		return candles, nil
	}
	return nil, lastErr
}

func (c *HTTPCandleClient) fetch(ctx context.Context, requestURL, symbol string) ([]Candle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("candles %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("candles %s: HTTP %d", symbol, resp.StatusCode)
	}

	var candles []Candle
	if err := json.NewDecoder(resp.Body).Decode(&candles); err != nil {
		return nil, fmt.Errorf("candles %s: decode: %w", symbol, err)
	}
	for i, candle := range candles {
		if candle.Close <= 0 || math.IsNaN(candle.Close) || math.IsInf(candle.Close, 0) {
			return nil, fmt.Errorf("candles %s: bad close at bar %d", symbol, i)
		}
	}
	return candles, nil
}

// SimCandleSource generates a deterministic random walk per symbol. The walk
// is seeded from the symbol name, so repeated calls and repeated process runs
// see identical history.
type SimCandleSource struct {
	BasePrice  float64 // default 100
	Volatility float64 // per-bar, default 1.5%
}

func NewSimCandleSource() *SimCandleSource {
	return &SimCandleSource{BasePrice: 100, Volatility: 0.015}
}

func (s *SimCandleSource) Candles(_ context.Context, symbol string, limit int) ([]Candle, error) {
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("non-positive candle limit %d", limit)
	}

	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	base := s.BasePrice
	if base <= 0 {
		base = 100
	}
	vol := s.Volatility
	if vol <= 0 {
		vol = 0.015
	}

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]Candle, limit)
	price := base
	for i := range candles {
		open := price
		price *= 1 + rng.NormFloat64()*vol
		if price < 0.01 {
			price = 0.01
		}
		high := math.Max(open, price) * (1 + rng.Float64()*vol/2)
		low := math.Min(open, price) * (1 - rng.Float64()*vol/2)

		candles[i] = Candle{
			Time:   start.AddDate(0, 0, i),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  price,
			Volume: 100000 + rng.Int63n(900000),
		}
	}
	return candles, nil
}
