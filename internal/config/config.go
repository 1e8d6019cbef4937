package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Committee struct {
	UpperThreshold   float64 `yaml:"upper_threshold"`   // forecast prob above this -> BUY
	LowerThreshold   float64 `yaml:"lower_threshold"`   // forecast prob below this -> SELL
	SentimentBuy     float64 `yaml:"sentiment_buy"`     // sentiment above this -> BUY
	SentimentSell    float64 `yaml:"sentiment_sell"`    // sentiment below this -> SELL
	InflationCaution float64 `yaml:"inflation_caution"` // annual inflation pct that triggers the caution clause
}

type Risk struct {
	Confidence  float64 `yaml:"confidence"`    // one-sided VaR confidence
	VaRLimitPct float64 `yaml:"var_limit_pct"` // per-period VaR fraction above which trades are rejected
	Lookback    int     `yaml:"lookback"`      // price history periods fed to the engine
}

type Ledger struct {
	InitialCapital float64 `yaml:"initial_capital"`
	CommissionRate float64 `yaml:"commission_rate"` // fraction of notional, both sides
	LogPath        string  `yaml:"log_path"`
}

type Feed struct {
	BookURL string `yaml:"book_url"` // websocket order-book stub, empty disables
	Depth   int    `yaml:"depth"`    // levels used for imbalance
}

type Candles struct {
	BaseURL            string `yaml:"base_url"` // empty -> deterministic sim source
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
}

type Root struct {
	Committee Committee `yaml:"committee"`
	Risk      Risk      `yaml:"risk"`
	Ledger    Ledger    `yaml:"ledger"`
	Feed      Feed      `yaml:"feed"`
	Candles   Candles   `yaml:"candles"`
	Universe  []string  `yaml:"universe"` // portfolio assets backing the risk gate
}

func Load(path string) (Root, error) {
	var c Root
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return withDefaults(c), nil
}

// Default returns the configuration used when no file is present.
func Default() Root {
	return withDefaults(Root{})
}

func withDefaults(c Root) Root {
	if c.Committee.UpperThreshold == 0 {
		c.Committee.UpperThreshold = 0.60
	}
	if c.Committee.LowerThreshold == 0 {
		c.Committee.LowerThreshold = 0.40
	}
	if c.Committee.SentimentBuy == 0 {
		c.Committee.SentimentBuy = 0.5
	}
	if c.Committee.SentimentSell == 0 {
		c.Committee.SentimentSell = -0.5
	}
	if c.Committee.InflationCaution == 0 {
		c.Committee.InflationCaution = 50
	}

	if c.Risk.Confidence == 0 {
		c.Risk.Confidence = 0.95
	}
	if c.Risk.VaRLimitPct == 0 {
		c.Risk.VaRLimitPct = 0.02
	}
	if c.Risk.Lookback == 0 {
		c.Risk.Lookback = 50
	}

	if c.Ledger.InitialCapital == 0 {
		c.Ledger.InitialCapital = 100000
	}
	if c.Ledger.CommissionRate == 0 {
		c.Ledger.CommissionRate = 0.002
	}
	if c.Ledger.LogPath == "" {
		c.Ledger.LogPath = "data/trade_log.csv"
	}

	if c.Feed.Depth == 0 {
		c.Feed.Depth = 5
	}

	if c.Candles.RateLimitPerMinute == 0 {
		c.Candles.RateLimitPerMinute = 30
	}
	if c.Candles.TimeoutSeconds == 0 {
		c.Candles.TimeoutSeconds = 5
	}

	if len(c.Universe) == 0 {
		c.Universe = []string{"THYAO", "GARAN", "AKBNK", "SASA", "KCHOL"}
	}

	return c
}
