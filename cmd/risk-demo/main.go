package main

import (
	"context"
	"flag"
	"log"
	"sort"

	"github.com/joho/godotenv"

	"github.com/bistai/committee-trader/internal/adapters"
	"github.com/bistai/committee-trader/internal/config"
	"github.com/bistai/committee-trader/internal/risk"
)

// risk-demo runs the risk engine standalone over simulated history: HRP
// weights for the configured universe, then parametric VaR of the resulting
// portfolio.
func main() {
	log.SetFlags(0)
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "config file")
	value := flag.Float64("value", 0, "portfolio value (defaults to initial capital)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("config %s unavailable (%v), using defaults", *configPath, err)
		cfg = config.Default()
	}
	if *value == 0 {
		*value = cfg.Ledger.InitialCapital
	}

	sim := adapters.NewSimCandleSource()
	hist := risk.PriceHistory{Symbols: cfg.Universe}
	hist.Prices = make([][]float64, cfg.Risk.Lookback)
	for col, symbol := range cfg.Universe {
		candles, err := sim.Candles(context.Background(), symbol, cfg.Risk.Lookback)
		if err != nil {
			log.Fatalf("candles %s: %v", symbol, err)
		}
		for row, candle := range candles {
			if hist.Prices[row] == nil {
				hist.Prices[row] = make([]float64, len(cfg.Universe))
			}
			hist.Prices[row][col] = candle.Close
		}
	}

	weights := risk.HRPWeights(hist)

	symbols := make([]string, 0, len(weights))
	for symbol := range weights {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	log.Printf("HRP weights over %d bars:", cfg.Risk.Lookback)
	for _, symbol := range symbols {
		log.Printf("  %-6s %6.2f%%", symbol, weights[symbol]*100)
	}

	amount, fraction, err := risk.VaR(*value, weights, hist, cfg.Risk.Confidence)
	if err != nil {
		log.Fatalf("var: %v", err)
	}

	log.Printf("portfolio value:    %.2f", *value)
	log.Printf("VaR (%.0f%% conf):    %.2f (%.2f%% per period)", cfg.Risk.Confidence*100, amount, fraction*100)
	if fraction > cfg.Risk.VaRLimitPct {
		log.Printf("verdict: REJECT (limit %.2f%%)", cfg.Risk.VaRLimitPct*100)
	} else {
		log.Printf("verdict: APPROVE (limit %.2f%%)", cfg.Risk.VaRLimitPct*100)
	}
}
