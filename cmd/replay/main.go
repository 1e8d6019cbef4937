package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/bistai/committee-trader/internal/config"
	"github.com/bistai/committee-trader/internal/ledger"
)

type pricesFile struct {
	Prices map[string]float64 `json:"prices"`
}

func main() {
	log.SetFlags(0)
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "config file")
	pricesPath := flag.String("prices", "", "optional mark prices for portfolio valuation")
	verbose := flag.Bool("v", false, "print every replayed trade")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("config %s unavailable (%v), using defaults", *configPath, err)
		cfg = config.Default()
	}

	// Open replays the full log and verifies every recorded balance; a
	// corrupt log is fatal here by design.
	book, err := ledger.Open(cfg.Ledger.LogPath, cfg.Ledger.InitialCapital, cfg.Ledger.CommissionRate)
	if err != nil {
		log.Fatalf("replay %s: %v", cfg.Ledger.LogPath, err)
	}

	trades := book.Trades()
	if *verbose {
		for _, trade := range trades {
			log.Printf("%s  %-4s %-6s %d @ %s  commission %s  balance %s",
				trade.Timestamp.Format("2006-01-02 15:04:05"),
				trade.Action, trade.Symbol, trade.Quantity,
				trade.Price.String(), trade.Commission.String(), trade.BalanceAfter.String())
		}
	}

	log.Printf("replayed %d trades from %s", len(trades), cfg.Ledger.LogPath)
	log.Printf("initial capital: %.2f", book.InitialCapital())
	log.Printf("cash balance:    %.2f", book.Balance())
	log.Printf("open positions:  %v", book.Positions())

	if *pricesPath != "" {
		b, err := os.ReadFile(*pricesPath)
		if err != nil {
			log.Fatalf("read %s: %v", *pricesPath, err)
		}
		var pf pricesFile
		if err := json.Unmarshal(b, &pf); err != nil {
			log.Fatalf("json %s: %v", *pricesPath, err)
		}

		value := book.PortfolioValue(pf.Prices)
		log.Printf("portfolio value: %.2f (pnl %+.2f)", value, value-book.InitialCapital())
	}
}
