package committee

import (
	"context"
	"fmt"

	"github.com/bistai/committee-trader/internal/observ"
	"github.com/bistai/committee-trader/internal/risk"
)

// PortfolioSnapshot is the representative portfolio the risk gate evaluates:
// its marked value, per-asset weights, and the price history backing the
// return series. Empty weights mean "let the engine diversify" — the gate
// falls back to HRP weighting over the same history.
type PortfolioSnapshot struct {
	Value   float64
	Weights map[string]float64
	History risk.PriceHistory
}

// PortfolioProvider supplies the snapshot the gate measures risk against.
type PortfolioProvider interface {
	Snapshot(ctx context.Context, symbol string) (PortfolioSnapshot, error)
}

// RiskGate votes APPROVE or REJECT by comparing the portfolio's per-period
// VaR fraction against a fixed exposure limit. Any failure to obtain a
// snapshot or compute VaR fails closed to REJECT: a broken risk engine never
// silently approves a trade.
type RiskGate struct {
	Provider   PortfolioProvider
	Confidence float64
	Limit      float64
}

// NewRiskGate applies the default 95% confidence and 2% limit for zero
// values.
func NewRiskGate(provider PortfolioProvider, confidence, limit float64) RiskGate {
	if confidence == 0 {
		confidence = 0.95
	}
	if limit == 0 {
		limit = 0.02
	}
	return RiskGate{Provider: provider, Confidence: confidence, Limit: limit}
}

func (g RiskGate) Evaluate(ctx context.Context, symbol string) (Vote, string) {
	if g.Provider == nil {
		return g.reject(symbol, fmt.Errorf("no portfolio provider configured"))
	}

	snap, err := g.Provider.Snapshot(ctx, symbol)
	if err != nil {
		return g.reject(symbol, err)
	}

	weights := snap.Weights
	if len(weights) == 0 {
		weights = risk.HRPWeights(snap.History)
	}

	amount, fraction, err := risk.VaR(snap.Value, weights, snap.History, g.Confidence)
	if err != nil {
		return g.reject(symbol, err)
	}

	observ.SetGauge("portfolio_var_fraction", fraction, map[string]string{"symbol": symbol})

	if fraction > g.Limit {
		observ.IncCounter("risk_rejections_total", map[string]string{"symbol": symbol, "cause": "var_limit"})
		return VoteReject, fmt.Sprintf("portfolio VaR %.2f%% exceeds the %.2f%% per-period limit (expected loss %.2f at %.0f%% confidence)",
			fraction*100, g.Limit*100, amount, g.Confidence*100)
	}

	return VoteApprove, fmt.Sprintf("portfolio VaR %.2f%% is within the %.2f%% per-period limit at %.0f%% confidence",
		fraction*100, g.Limit*100, g.Confidence*100)
}

func (g RiskGate) reject(symbol string, err error) (Vote, string) {
	observ.IncCounter("risk_rejections_total", map[string]string{"symbol": symbol, "cause": "engine_error"})
	return VoteReject, fmt.Sprintf("risk engine error: %v", err)
}
