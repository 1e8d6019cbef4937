package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// trade log CSV layout; the file is the sole durable representation of
// ledger state and must replay per Reconstruct.
var logHeader = []string{"timestamp", "action", "symbol", "price", "quantity", "commission", "balance_after"}

func writeLogHeader(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create trade log dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create trade log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(logHeader); err != nil {
		return fmt.Errorf("write trade log header: %w", err)
	}
	w.Flush()
	return w.Error()
}

func appendTrade(path string, t Trade) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	record := []string{
		t.Timestamp.Format(time.RFC3339Nano),
		t.Action,
		t.Symbol,
		t.Price.String(),
		strconv.FormatInt(t.Quantity, 10),
		t.Commission.String(),
		t.BalanceAfter.String(),
	}
	if err := w.Write(record); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func readLog(path string) ([]Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trade log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(logHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("trade log corrupt: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("trade log corrupt: missing header")
	}
	if !equalRecord(records[0], logHeader) {
		return nil, fmt.Errorf("trade log corrupt: unexpected header %v", records[0])
	}

	trades := make([]Trade, 0, len(records)-1)
	for i, rec := range records[1:] {
		t, err := parseTrade(rec)
		if err != nil {
			return nil, fmt.Errorf("trade log corrupt at row %d: %w", i+1, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func parseTrade(rec []string) (Trade, error) {
	ts, err := time.Parse(time.RFC3339Nano, rec[0])
	if err != nil {
		return Trade{}, fmt.Errorf("timestamp %q: %w", rec[0], err)
	}

	action := rec[1]
	if action != ActionBuy && action != ActionSell {
		return Trade{}, fmt.Errorf("unknown action %q", action)
	}

	symbol := rec[2]
	if symbol == "" {
		return Trade{}, fmt.Errorf("empty symbol")
	}

	price, err := decimal.NewFromString(rec[3])
	if err != nil {
		return Trade{}, fmt.Errorf("price %q: %w", rec[3], err)
	}
	if price.Sign() <= 0 {
		return Trade{}, fmt.Errorf("non-positive price %s", price)
	}

	qty, err := strconv.ParseInt(rec[4], 10, 64)
	if err != nil {
		return Trade{}, fmt.Errorf("quantity %q: %w", rec[4], err)
	}
	if qty <= 0 {
		return Trade{}, fmt.Errorf("non-positive quantity %d", qty)
	}

	commission, err := decimal.NewFromString(rec[5])
	if err != nil {
		return Trade{}, fmt.Errorf("commission %q: %w", rec[5], err)
	}
	if commission.Sign() < 0 {
		return Trade{}, fmt.Errorf("negative commission %s", commission)
	}

	balanceAfter, err := decimal.NewFromString(rec[6])
	if err != nil {
		return Trade{}, fmt.Errorf("balance_after %q: %w", rec[6], err)
	}

	return Trade{
		Timestamp:    ts,
		Action:       action,
		Symbol:       symbol,
		Price:        price,
		Quantity:     qty,
		Commission:   commission,
		BalanceAfter: balanceAfter,
	}, nil
}

func equalRecord(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
