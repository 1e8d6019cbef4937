package adapters

import (
	"context"
	"fmt"
	"sync"
)

// MockQuotesAdapter serves canned quotes for tests and offline runs.
type MockQuotesAdapter struct {
	mu     sync.RWMutex
	quotes map[string]Quote
	err    error
}

func NewMockQuotesAdapter() *MockQuotesAdapter {
	return &MockQuotesAdapter{quotes: make(map[string]Quote)}
}

// SetQuote installs or replaces the canned quote for a symbol.
func (m *MockQuotesAdapter) SetQuote(q Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[q.Symbol] = q
}

// SetError makes every subsequent call fail with err (nil clears it).
func (m *MockQuotesAdapter) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockQuotesAdapter) GetQuote(_ context.Context, symbol string) (*Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}
	q, ok := m.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("no mock quote for %s", symbol)
	}
	out := q
	return &out, nil
}

func (m *MockQuotesAdapter) GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	results := make(map[string]*Quote, len(symbols))
	for _, symbol := range symbols {
		q, err := m.GetQuote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		results[symbol] = q
	}
	return results, nil
}

func (m *MockQuotesAdapter) Close() error { return nil }

// MockCandleSource serves fixed bar series for tests.
type MockCandleSource struct {
	mu     sync.RWMutex
	series map[string][]Candle
	err    error
}

func NewMockCandleSource() *MockCandleSource {
	return &MockCandleSource{series: make(map[string][]Candle)}
}

func (m *MockCandleSource) SetSeries(symbol string, candles []Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[symbol] = candles
}

// SetCloses installs a series with only the close prices populated, which is
// all the risk path reads.
func (m *MockCandleSource) SetCloses(symbol string, closes ...float64) {
	candles := make([]Candle, len(closes))
	for i, c := range closes {
		candles[i] = Candle{Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	m.SetSeries(symbol, candles)
}

func (m *MockCandleSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockCandleSource) Candles(_ context.Context, symbol string, limit int) ([]Candle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}
	candles, ok := m.series[symbol]
	if !ok {
		return nil, fmt.Errorf("no mock candles for %s", symbol)
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	out := make([]Candle, len(candles))
	copy(out, candles)
	return out, nil
}
