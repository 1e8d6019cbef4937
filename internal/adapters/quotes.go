package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// QuotesAdapter provides last-known market prices for the execution path.
type QuotesAdapter interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error)
	Close() error
}

// Quote is a normalized snapshot from any price source.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Last      float64   `json:"last"`
	Volume    int64     `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "candles"|"mock"
}

// ValidateQuote normalizes the symbol and rejects quotes that could poison
// downstream sizing: non-positive prices, crossed books, negative volume.
func ValidateQuote(q *Quote) error {
	if q == nil {
		return fmt.Errorf("quote is nil")
	}

	q.Symbol = strings.ToUpper(strings.TrimSpace(q.Symbol))
	if q.Symbol == "" {
		return fmt.Errorf("empty symbol")
	}

	if q.Bid <= 0 || q.Ask <= 0 || q.Last <= 0 {
		return fmt.Errorf("invalid quote prices: bid=%.4f ask=%.4f last=%.4f", q.Bid, q.Ask, q.Last)
	}
	if q.Ask < q.Bid {
		return fmt.Errorf("invalid spread: ask(%.4f) < bid(%.4f)", q.Ask, q.Bid)
	}
	if q.Volume < 0 {
		return fmt.Errorf("negative volume: %d", q.Volume)
	}

	return nil
}

// SpreadBps is the bid-ask spread in basis points.
func (q *Quote) SpreadBps() float64 {
	if q.Bid <= 0 {
		return 0
	}
	return ((q.Ask - q.Bid) / q.Bid) * 10000
}

// CandleQuotes derives quotes from the most recent candle of a CandleSource,
// applying a small synthetic spread around the close. It lets the execution
// path run against whatever candle source is configured without a separate
// quote feed.
type CandleQuotes struct {
	Source    CandleSource
	SpreadPct float64 // total spread as a fraction of the close, default 0.04%
}

func NewCandleQuotes(src CandleSource) *CandleQuotes {
	return &CandleQuotes{Source: src, SpreadPct: 0.0004}
}

func (c *CandleQuotes) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	candles, err := c.Source.Candles(ctx, symbol, 1)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles for %s", symbol)
	}

	last := candles[len(candles)-1]
	half := last.Close * c.SpreadPct / 2

	q := &Quote{
		Symbol:    symbol,
		Bid:       last.Close - half,
		Ask:       last.Close + half,
		Last:      last.Close,
		Volume:    last.Volume,
		Timestamp: last.Time,
		Source:    "candles",
	}
	if err := ValidateQuote(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (c *CandleQuotes) GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	results := make(map[string]*Quote, len(symbols))
	for _, symbol := range symbols {
		q, err := c.GetQuote(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("quote %s: %w", symbol, err)
		}
		results[symbol] = q
	}
	return results, nil
}

func (c *CandleQuotes) Close() error { return nil }
