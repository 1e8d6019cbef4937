package ledger

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bistai/committee-trader/internal/observ"
)

var (
	// ErrInsufficientFunds is returned by Buy when cost plus commission
	// exceeds the cash balance. The ledger is left untouched.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientShares is returned by Sell when the held quantity is
	// smaller than the requested one. The ledger is left untouched.
	ErrInsufficientShares = errors.New("insufficient shares")
)

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// Trade is one committed, immutable row of the trade log.
type Trade struct {
	Timestamp    time.Time
	Action       string
	Symbol       string
	Price        decimal.Decimal
	Quantity     int64
	Commission   decimal.Decimal
	BalanceAfter decimal.Decimal
}

// Ledger is a paper-trading ledger: cash balance plus integer positions,
// backed by an append-only CSV trade log. The log is the sole durable state;
// opening a ledger replays it in full. Every Buy/Sell is a single atomic
// unit under one mutex: validation, the log append and the in-memory
// mutation never interleave with another call.
type Ledger struct {
	mu sync.Mutex

	logPath        string
	initialCapital decimal.Decimal
	commissionRate decimal.Decimal

	balance   decimal.Decimal
	positions map[string]int64
	trades    []Trade

	now func() time.Time
}

// Open loads (or creates) a ledger whose trade log lives at path. An existing
// log is replayed from the initial capital; a log that cannot be parsed or
// whose rows disagree with the replayed balance is fatal — the ledger never
// silently resets capital.
func Open(path string, initialCapital, commissionRate float64) (*Ledger, error) {
	l := &Ledger{
		logPath:        path,
		initialCapital: decimal.NewFromFloat(initialCapital),
		commissionRate: decimal.NewFromFloat(commissionRate),
		positions:      map[string]int64{},
		now:            time.Now,
	}
	l.balance = l.initialCapital

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return l, writeLogHeader(path)
		}
		return nil, fmt.Errorf("stat trade log: %w", err)
	}

	trades, err := readLog(path)
	if err != nil {
		return nil, err
	}
	l.trades = trades
	if err := l.reconstructLocked(true); err != nil {
		return nil, err
	}
	return l, nil
}

// Buy purchases quantity shares at price. Commission is charged on the
// notional. Fails without any state change when the total exceeds the cash
// balance.
func (l *Ledger) Buy(symbol string, price float64, quantity int64) (Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := validateOrder(symbol, price, quantity); err != nil {
		return Trade{}, err
	}

	p := decimal.NewFromFloat(price)
	cost := p.Mul(decimal.NewFromInt(quantity))
	commission := cost.Mul(l.commissionRate)
	total := cost.Add(commission)

	if total.GreaterThan(l.balance) {
		return Trade{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, total, l.balance)
	}

	t := Trade{
		Timestamp:    l.now().UTC(),
		Action:       ActionBuy,
		Symbol:       symbol,
		Price:        p,
		Quantity:     quantity,
		Commission:   commission,
		BalanceAfter: l.balance.Sub(total),
	}
	if err := appendTrade(l.logPath, t); err != nil {
		return Trade{}, fmt.Errorf("append trade log: %w", err)
	}

	l.balance = t.BalanceAfter
	l.positions[symbol] += quantity
	l.trades = append(l.trades, t)

	l.logTrade(t)
	return t, nil
}

// Sell disposes quantity shares at price. Fails without any state change
// when fewer shares are held than requested.
func (l *Ledger) Sell(symbol string, price float64, quantity int64) (Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := validateOrder(symbol, price, quantity); err != nil {
		return Trade{}, err
	}

	held := l.positions[symbol]
	if held < quantity {
		return Trade{}, fmt.Errorf("%w: have %d %s, want to sell %d", ErrInsufficientShares, held, symbol, quantity)
	}

	p := decimal.NewFromFloat(price)
	revenue := p.Mul(decimal.NewFromInt(quantity))
	commission := revenue.Mul(l.commissionRate)
	net := revenue.Sub(commission)

	t := Trade{
		Timestamp:    l.now().UTC(),
		Action:       ActionSell,
		Symbol:       symbol,
		Price:        p,
		Quantity:     quantity,
		Commission:   commission,
		BalanceAfter: l.balance.Add(net),
	}
	if err := appendTrade(l.logPath, t); err != nil {
		return Trade{}, fmt.Errorf("append trade log: %w", err)
	}

	l.balance = t.BalanceAfter
	l.positions[symbol] -= quantity
	if l.positions[symbol] <= 0 {
		delete(l.positions, symbol)
	}
	l.trades = append(l.trades, t)

	l.logTrade(t)
	return t, nil
}

// Reconstruct rebuilds balance and positions by folding the entire trade log
// from the initial capital. The result must match the incrementally
// maintained state; this is the ledger's core correctness property.
func (l *Ledger) Reconstruct() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reconstructLocked(false)
}

// reconstructLocked folds l.trades from scratch. With verify set, every
// row's recorded balance_after must match the folded balance; a mismatch
// means the log was tampered with or truncated mid-write.
func (l *Ledger) reconstructLocked(verify bool) error {
	balance := l.initialCapital
	positions := map[string]int64{}

	for i, t := range l.trades {
		qty := decimal.NewFromInt(t.Quantity)
		switch t.Action {
		case ActionBuy:
			balance = balance.Sub(t.Price.Mul(qty).Add(t.Commission))
			positions[t.Symbol] += t.Quantity
		case ActionSell:
			balance = balance.Add(t.Price.Mul(qty).Sub(t.Commission))
			positions[t.Symbol] -= t.Quantity
			if positions[t.Symbol] <= 0 {
				delete(positions, t.Symbol)
			}
		default:
			return fmt.Errorf("trade log corrupt: row %d has action %q", i+1, t.Action)
		}
		if verify && !balance.Equal(t.BalanceAfter) {
			return fmt.Errorf("trade log corrupt: row %d balance_after %s, replay gives %s", i+1, t.BalanceAfter, balance)
		}
	}

	l.balance = balance
	l.positions = positions
	return nil
}

// PortfolioValue marks the ledger: cash plus every position at its current
// price. Symbols missing from prices are valued at zero.
func (l *Ledger) PortfolioValue(currentPrices map[string]float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	value := l.balance.InexactFloat64()
	for sym, qty := range l.positions {
		value += float64(qty) * currentPrices[sym]
	}
	return value
}

// Balance returns the current cash balance.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance.InexactFloat64()
}

// Position returns the held quantity for symbol, zero if none.
func (l *Ledger) Position(symbol string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.positions[symbol]
}

// Positions returns a copy of all open positions.
func (l *Ledger) Positions() map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]int64, len(l.positions))
	for sym, qty := range l.positions {
		out[sym] = qty
	}
	return out
}

// Trades returns a copy of the trade log.
func (l *Ledger) Trades() []Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Trade(nil), l.trades...)
}

// InitialCapital returns the capital the log is replayed from.
func (l *Ledger) InitialCapital() float64 {
	return l.initialCapital.InexactFloat64()
}

func validateOrder(symbol string, price float64, quantity int64) error {
	if symbol == "" {
		return fmt.Errorf("empty symbol")
	}
	if price <= 0 {
		return fmt.Errorf("invalid price %.4f for %s", price, symbol)
	}
	if quantity <= 0 {
		return fmt.Errorf("invalid quantity %d for %s", quantity, symbol)
	}
	return nil
}

func (l *Ledger) logTrade(t Trade) {
	observ.Log("ledger_trade", map[string]any{
		"trade_id":      uuid.NewString(),
		"action":        t.Action,
		"symbol":        t.Symbol,
		"price":         t.Price.InexactFloat64(),
		"quantity":      t.Quantity,
		"commission":    t.Commission.InexactFloat64(),
		"balance_after": t.BalanceAfter.InexactFloat64(),
	})
	observ.IncCounter("ledger_trades_total", map[string]string{"action": t.Action, "symbol": t.Symbol})
	observ.SetGauge("ledger_balance", t.BalanceAfter.InexactFloat64(), nil)
}
