package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/bistai/committee-trader/internal/adapters"
	"github.com/bistai/committee-trader/internal/committee"
	"github.com/bistai/committee-trader/internal/config"
	"github.com/bistai/committee-trader/internal/feed"
	"github.com/bistai/committee-trader/internal/ledger"
	"github.com/bistai/committee-trader/internal/orderflow"
)

type seedsFile struct {
	Seeds []struct {
		Symbol  string            `json:"symbol"`
		Signals committee.Signals `json:"signals"`
	} `json:"seeds"`
}

func mustRead(path string, v any) {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		log.Fatalf("json %s: %v", path, err)
	}
}

func main() {
	log.SetFlags(0)
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "config file")
	seedsPath := flag.String("seeds", "fixtures/signals.json", "committee inputs")
	execute := flag.Bool("execute", false, "route BUY/SELL decisions to the paper ledger")
	qty := flag.Int64("qty", 10, "shares per executed order")
	bookURL := flag.String("book-url", "", "order-book websocket override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("config %s unavailable (%v), using defaults", *configPath, err)
		cfg = config.Default()
	}
	if *bookURL != "" {
		cfg.Feed.BookURL = *bookURL
	}

	var sf seedsFile
	mustRead(*seedsPath, &sf)
	if len(sf.Seeds) == 0 {
		log.Fatalf("no seeds in %s", *seedsPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	candles := newCandleSource(cfg.Candles)

	book, err := ledger.Open(cfg.Ledger.LogPath, cfg.Ledger.InitialCapital, cfg.Ledger.CommissionRate)
	if err != nil {
		log.Fatalf("open ledger: %v", err)
	}

	com := committee.New(
		committee.NewTechnicalAnalyst(cfg.Committee.UpperThreshold, cfg.Committee.LowerThreshold),
		committee.NewFundamentalAnalyst(cfg.Committee.SentimentBuy, cfg.Committee.SentimentSell, cfg.Committee.InflationCaution),
		committee.NewRiskGate(
			adapters.NewPortfolioSource(candles, book, cfg.Universe, cfg.Risk.Lookback),
			cfg.Risk.Confidence,
			cfg.Risk.VaRLimitPct,
		),
	)
	quotes := adapters.NewCandleQuotes(candles)

	enc := json.NewEncoder(os.Stdout)
	for _, seed := range sf.Seeds {
		st := com.Run(ctx, committee.Seed{Symbol: seed.Symbol, Signals: seed.Signals})

		if cfg.Feed.BookURL != "" {
			if imb, err := readImbalance(ctx, cfg.Feed.BookURL, seed.Symbol, cfg.Feed.Depth); err != nil {
				log.Printf("book feed %s: %v", seed.Symbol, err)
			} else {
				log.Printf("%s weighted book imbalance: %+.4f", seed.Symbol, imb)
			}
		}

		if *execute {
			if err := executeDecision(ctx, book, quotes, st, *qty); err != nil {
				log.Printf("execute %s: %v", seed.Symbol, err)
			}
		}

		if err := enc.Encode(st); err != nil {
			log.Fatalf("encode result: %v", err)
		}
	}

	if *execute {
		log.Printf("ledger balance: %.2f, positions: %v", book.Balance(), book.Positions())
	}
}

func newCandleSource(cfg config.Candles) adapters.CandleSource {
	if cfg.BaseURL == "" {
		return adapters.NewSimCandleSource()
	}
	client, err := adapters.NewHTTPCandleClient(adapters.HTTPCandleConfig{
		BaseURL:            cfg.BaseURL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TimeoutSeconds:     cfg.TimeoutSeconds,
	})
	if err != nil {
		log.Fatalf("candle client: %v", err)
	}
	return client
}

// readImbalance takes one depth snapshot for the symbol and reduces it to a
// linearly weighted imbalance.
func readImbalance(ctx context.Context, url, symbol string, depth int) (float64, error) {
	client, err := feed.Dial(ctx, url)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	if err := client.Subscribe(symbol); err != nil {
		return 0, err
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case book, open := <-client.Books():
			if !open {
				return 0, fmt.Errorf("feed closed before a %s snapshot", symbol)
			}
			if book.Symbol != symbol {
				continue
			}
			return orderflow.WeightedImbalance(book.Bids, book.Asks, depth), nil
		case err := <-client.Errs():
			return 0, err
		case <-deadline:
			return 0, fmt.Errorf("timed out waiting for a %s snapshot", symbol)
		}
	}
}

func executeDecision(ctx context.Context, book *ledger.Ledger, quotes adapters.QuotesAdapter, st committee.State, qty int64) error {
	switch st.Final {
	case committee.DecisionBuy, committee.DecisionStrongBuy:
		q, err := quotes.GetQuote(ctx, st.Symbol)
		if err != nil {
			return err
		}
		trade, err := book.Buy(st.Symbol, q.Ask, qty)
		if err != nil {
			return err
		}
		log.Printf("bought %d %s @ %.2f, balance %.2f", trade.Quantity, trade.Symbol, q.Ask, book.Balance())
	case committee.DecisionSell:
		held := book.Position(st.Symbol)
		if held == 0 {
			log.Printf("no %s position to sell", st.Symbol)
			return nil
		}
		q, err := quotes.GetQuote(ctx, st.Symbol)
		if err != nil {
			return err
		}
		trade, err := book.Sell(st.Symbol, q.Bid, held)
		if err != nil {
			return err
		}
		log.Printf("sold %d %s @ %.2f, balance %.2f", trade.Quantity, trade.Symbol, q.Bid, book.Balance())
	default:
		log.Printf("%s: %s, nothing to execute", st.Symbol, st.Final)
	}
	return nil
}
