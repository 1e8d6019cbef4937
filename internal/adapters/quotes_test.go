package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuote() *Quote {
	return &Quote{
		Symbol:    "THYAO",
		Bid:       99.98,
		Ask:       100.02,
		Last:      100.00,
		Volume:    50000,
		Timestamp: time.Now(),
		Source:    "mock",
	}
}

func TestValidateQuote(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Quote)
		wantErr bool
	}{
		{"valid", func(q *Quote) {}, false},
		{"lowercase_symbol_normalized", func(q *Quote) { q.Symbol = " thyao " }, false},
		{"empty_symbol", func(q *Quote) { q.Symbol = "" }, true},
		{"zero_bid", func(q *Quote) { q.Bid = 0 }, true},
		{"negative_last", func(q *Quote) { q.Last = -1 }, true},
		{"crossed_book", func(q *Quote) { q.Ask = q.Bid - 1 }, true},
		{"negative_volume", func(q *Quote) { q.Volume = -1 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := validQuote()
			tc.mutate(q)
			err := ValidateQuote(q)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "THYAO", q.Symbol)
		})
	}
}

func TestValidateQuote_Nil(t *testing.T) {
	assert.Error(t, ValidateQuote(nil))
}

func TestQuote_SpreadBps(t *testing.T) {
	q := &Quote{Bid: 100, Ask: 100.05}
	assert.InDelta(t, 5.0, q.SpreadBps(), 1e-9)

	zero := &Quote{Bid: 0, Ask: 1}
	assert.Equal(t, 0.0, zero.SpreadBps())
}

func TestCandleQuotes_DerivesFromLastClose(t *testing.T) {
	src := NewMockCandleSource()
	src.SetCloses("THYAO", 95, 98, 100)

	cq := NewCandleQuotes(src)
	q, err := cq.GetQuote(context.Background(), "THYAO")
	require.NoError(t, err)

	assert.Equal(t, 100.0, q.Last)
	assert.Less(t, q.Bid, q.Last)
	assert.Greater(t, q.Ask, q.Last)
	assert.Equal(t, "candles", q.Source)
}

func TestCandleQuotes_PropagatesSourceError(t *testing.T) {
	src := NewMockCandleSource()

	cq := NewCandleQuotes(src)
	_, err := cq.GetQuote(context.Background(), "THYAO")
	assert.Error(t, err)
}

func TestMockQuotesAdapter_RoundTrip(t *testing.T) {
	m := NewMockQuotesAdapter()
	m.SetQuote(*validQuote())

	q, err := m.GetQuote(context.Background(), "THYAO")
	require.NoError(t, err)
	assert.Equal(t, 100.0, q.Last)

	_, err = m.GetQuote(context.Background(), "GARAN")
	assert.Error(t, err)

	quotes, err := m.GetQuotes(context.Background(), []string{"THYAO"})
	require.NoError(t, err)
	assert.Len(t, quotes, 1)
}
