package adapters

import (
	"context"
	"fmt"

	"github.com/bistai/committee-trader/internal/committee"
	"github.com/bistai/committee-trader/internal/risk"
)

// PortfolioValuer marks the current portfolio to market given last prices.
// *ledger.Ledger satisfies it.
type PortfolioValuer interface {
	PortfolioValue(prices map[string]float64) float64
}

// PortfolioSource builds the risk gate's portfolio snapshot from a candle
// source: price history over a fixed universe plus the ledger's marked value.
// Weights are left empty so the gate diversifies with HRP over the same
// history. Any fetch failure surfaces as an error, which the gate treats as a
// rejection.
type PortfolioSource struct {
	Source   CandleSource
	Valuer   PortfolioValuer
	Universe []string
	Lookback int
}

func NewPortfolioSource(src CandleSource, valuer PortfolioValuer, universe []string, lookback int) *PortfolioSource {
	if lookback <= 0 {
		lookback = 50
	}
	return &PortfolioSource{Source: src, Valuer: valuer, Universe: universe, Lookback: lookback}
}

func (p *PortfolioSource) Snapshot(ctx context.Context, symbol string) (committee.PortfolioSnapshot, error) {
	if p.Source == nil {
		return committee.PortfolioSnapshot{}, fmt.Errorf("no candle source configured")
	}
	if p.Valuer == nil {
		return committee.PortfolioSnapshot{}, fmt.Errorf("no portfolio valuer configured")
	}

	universe := p.Universe
	if len(universe) == 0 {
		universe = []string{symbol}
	}

	series := make([][]Candle, len(universe))
	minLen := -1
	for i, sym := range universe {
		candles, err := p.Source.Candles(ctx, sym, p.Lookback)
		if err != nil {
			return committee.PortfolioSnapshot{}, fmt.Errorf("history %s: %w", sym, err)
		}
		if len(candles) == 0 {
			return committee.PortfolioSnapshot{}, fmt.Errorf("history %s: no bars", sym)
		}
		series[i] = candles
		if minLen < 0 || len(candles) < minLen {
			minLen = len(candles)
		}
	}

	// Align on the most recent minLen bars so the matrix stays rectangular.
	prices := make([][]float64, minLen)
	lastClose := make(map[string]float64, len(universe))
	for row := 0; row < minLen; row++ {
		prices[row] = make([]float64, len(universe))
		for col, candles := range series {
			aligned := candles[len(candles)-minLen:]
			prices[row][col] = aligned[row].Close
		}
	}
	for col, candles := range series {
		lastClose[universe[col]] = candles[len(candles)-1].Close
	}

	return committee.PortfolioSnapshot{
		Value: p.Valuer.PortfolioValue(lastClose),
		History: risk.PriceHistory{
			Symbols: append([]string(nil), universe...),
			Prices:  prices,
		},
	}, nil
}
