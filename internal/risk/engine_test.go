package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noisyHistory() PriceHistory {
	return PriceHistory{
		Symbols: []string{"THYAO", "GARAN"},
		Prices: [][]float64{
			{100, 50},
			{103, 49},
			{98, 51.5},
			{104, 48.5},
			{97, 52},
			{105, 49},
			{99, 50.5},
			{102, 48},
		},
	}
}

func TestVaR_ZeroVarianceClampsToZero(t *testing.T) {
	hist := PriceHistory{
		Symbols: []string{"THYAO", "GARAN"},
		Prices: [][]float64{
			{10, 20}, {10, 20}, {10, 20}, {10, 20}, {10, 20},
		},
	}
	weights := map[string]float64{"THYAO": 0.5, "GARAN": 0.5}

	amount, fraction, err := VaR(1_000_000, weights, hist, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 0.0, fraction)
	assert.Equal(t, 0.0, amount)
}

func TestVaR_ExpectedProfitClampsToZero(t *testing.T) {
	// Steady 1% growth, no volatility: raw VaR is negative and must clamp.
	hist := PriceHistory{
		Symbols: []string{"THYAO"},
		Prices:  [][]float64{{100}, {101}, {102.01}, {103.0301}, {104.060401}},
	}
	weights := map[string]float64{"THYAO": 1.0}

	_, fraction, err := VaR(50_000, weights, hist, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 0.0, fraction)
}

func TestVaR_NoisySeriesIsPositive(t *testing.T) {
	weights := map[string]float64{"THYAO": 0.6, "GARAN": 0.4}

	amount, fraction, err := VaR(1_000_000, weights, noisyHistory(), 0.95)
	require.NoError(t, err)
	assert.Greater(t, fraction, 0.0)
	assert.InDelta(t, 1_000_000*fraction, amount, 1e-9)
}

func TestVaR_MonotonicInConfidence(t *testing.T) {
	weights := map[string]float64{"THYAO": 0.5, "GARAN": 0.5}

	_, f95, err := VaR(1000, weights, noisyHistory(), 0.95)
	require.NoError(t, err)
	_, f99, err := VaR(1000, weights, noisyHistory(), 0.99)
	require.NoError(t, err)

	assert.Greater(t, f99, f95)
}

func TestVaR_AbsentWeightsCountAsZero(t *testing.T) {
	// All weight on one asset: the other column must not contribute.
	single := map[string]float64{"THYAO": 1.0}
	both := map[string]float64{"THYAO": 1.0, "GARAN": 0.0}

	_, fSingle, err := VaR(1000, single, noisyHistory(), 0.95)
	require.NoError(t, err)
	_, fBoth, err := VaR(1000, both, noisyHistory(), 0.95)
	require.NoError(t, err)

	assert.InDelta(t, fSingle, fBoth, 1e-12)
}

func TestVaR_InputValidation(t *testing.T) {
	weights := map[string]float64{"THYAO": 1.0}

	_, _, err := VaR(1000, weights, PriceHistory{}, 0.95)
	assert.Error(t, err, "empty history")

	short := PriceHistory{Symbols: []string{"THYAO"}, Prices: [][]float64{{10}, {11}}}
	_, _, err = VaR(1000, weights, short, 0.95)
	assert.Error(t, err, "too few rows")

	ragged := PriceHistory{Symbols: []string{"THYAO", "GARAN"}, Prices: [][]float64{{10, 20}, {10}, {10, 20}}}
	_, _, err = VaR(1000, weights, ragged, 0.95)
	assert.Error(t, err, "ragged matrix")

	negative := PriceHistory{Symbols: []string{"THYAO"}, Prices: [][]float64{{10}, {-1}, {10}}}
	_, _, err = VaR(1000, weights, negative, 0.95)
	assert.Error(t, err, "non-positive price")

	_, _, err = VaR(1000, weights, noisyHistory(), 1.0)
	assert.Error(t, err, "confidence out of range")
}
