// Package ledger owns one authenticated session: the cash account, the
// holding set and the trade history. Every successful mutation is persisted
// before the call returns.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"QuantumTrader/internal/model"
	"QuantumTrader/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity rejects a non-positive trade quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrUnknownSymbol rejects a trade on a symbol the market does not quote.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrInsufficientFunds rejects a buy whose cost exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientShares rejects a sell of more shares than are held.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrPersistence reports a storage failure after the in-memory mutation
	// already applied. Memory and disk disagree until the persistence step is
	// retried; the trade itself must not be retried.
	ErrPersistence = errors.New("persistence failure")
)

// Quoter supplies the executing price for a trade. Satisfied by
// market.Engine.
type Quoter interface {
	Quote(symbol string) (model.Instrument, error)
}

// Ledger applies Buy/Sell intents against the current quote. All operations
// for the account are serialized behind one mutex, so balance and holding
// read-modify-writes never interleave.
type Ledger struct {
	mu     sync.Mutex
	quotes Quoter
	store  store.Store

	account  model.Account
	holdings map[string]*model.Holding
	order    []string            // holding display order, first buy wins
	txs      []model.Transaction // most-recent-first
}

// Open reconstructs the session aggregate for an authenticated account:
// holdings from their persisted snapshot and the transaction history from
// the append log, reversed into most-recent-first display order. Persisted
// execution timestamps are kept as stored.
func Open(quotes Quoter, st store.Store, account model.Account) (*Ledger, error) {
	l := &Ledger{
		quotes:   quotes,
		store:    st,
		account:  account,
		holdings: make(map[string]*model.Holding),
	}

	holdings, err := st.LoadHoldings(account.Username)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}
	for _, h := range holdings {
		h := h
		l.holdings[h.Symbol] = &h
		l.order = append(l.order, h.Symbol)
	}

	txs, err := st.LoadTransactions(account.Username)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	l.txs = make([]model.Transaction, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		l.txs = append(l.txs, txs[i])
	}

	return l, nil
}

// Buy purchases quantity shares at the current quote. The single quote read
// prices both the cost check and the recorded transaction.
func (l *Ledger) Buy(symbol string, quantity int64) (model.Transaction, error) {
	if quantity <= 0 {
		return model.Transaction{}, fmt.Errorf("buy %s: %w", symbol, ErrInvalidQuantity)
	}
	quote, err := l.quotes.Quote(symbol)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("buy %s: %w", symbol, ErrUnknownSymbol)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cost := quote.Price.Mul(decimal.NewFromInt(quantity))
	if l.account.Balance.LessThan(cost) {
		return model.Transaction{}, fmt.Errorf("buy %d %s at %s: %w",
			quantity, symbol, quote.Price, ErrInsufficientFunds)
	}

	l.account.Balance = l.account.Balance.Sub(cost)

	if h, ok := l.holdings[symbol]; ok {
		oldQty := decimal.NewFromInt(h.Quantity)
		newQty := decimal.NewFromInt(h.Quantity + quantity)
		h.AvgCost = h.AvgCost.Mul(oldQty).Add(cost).Div(newQty)
		h.Quantity += quantity
	} else {
		l.holdings[symbol] = &model.Holding{Symbol: symbol, Quantity: quantity, AvgCost: quote.Price}
		l.order = append(l.order, symbol)
	}

	tx := l.record(model.Buy, symbol, quantity, quote.Price)
	if err := l.persist(tx); err != nil {
		return tx, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return tx, nil
}

// Sell disposes of quantity shares at the current quote. A holding that
// reaches zero is removed outright; its average cost is not retained.
func (l *Ledger) Sell(symbol string, quantity int64) (model.Transaction, error) {
	if quantity <= 0 {
		return model.Transaction{}, fmt.Errorf("sell %s: %w", symbol, ErrInvalidQuantity)
	}
	quote, err := l.quotes.Quote(symbol)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("sell %s: %w", symbol, ErrUnknownSymbol)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holdings[symbol]
	if !ok || h.Quantity < quantity {
		return model.Transaction{}, fmt.Errorf("sell %d %s: %w", quantity, symbol, ErrInsufficientShares)
	}

	h.Quantity -= quantity
	if h.Quantity == 0 {
		delete(l.holdings, symbol)
		for i, sym := range l.order {
			if sym == symbol {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
	l.account.Balance = l.account.Balance.Add(quote.Price.Mul(decimal.NewFromInt(quantity)))

	tx := l.record(model.Sell, symbol, quantity, quote.Price)
	if err := l.persist(tx); err != nil {
		return tx, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return tx, nil
}

// Account returns a copy of the session account.
func (l *Ledger) Account() model.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account
}

// Holdings returns copies of the active holdings, oldest position first.
func (l *Ledger) Holdings() []model.Holding {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.Holding, 0, len(l.order))
	for _, sym := range l.order {
		out = append(out, *l.holdings[sym])
	}
	return out
}

// Transactions returns a copy of the trade history, most recent first.
func (l *Ledger) Transactions() []model.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Transaction(nil), l.txs...)
}

// record prepends a new transaction to the in-memory log. Caller holds l.mu.
func (l *Ledger) record(kind model.TradeKind, symbol string, quantity int64, price decimal.Decimal) model.Transaction {
	tx := model.Transaction{
		ID:         uuid.NewString(),
		Kind:       kind,
		Symbol:     symbol,
		Quantity:   quantity,
		Price:      price,
		ExecutedAt: time.Now(),
	}
	l.txs = append([]model.Transaction{tx}, l.txs...)
	return tx
}

// persist writes the account, the full holding set and the new transaction,
// in that order. Caller holds l.mu.
func (l *Ledger) persist(tx model.Transaction) error {
	users, err := l.store.LoadUsers()
	if err != nil {
		return fmt.Errorf("load user directory: %w", err)
	}
	rec := users[l.account.Username]
	rec.Balance = l.account.Balance
	users[l.account.Username] = rec
	if err := l.store.SaveUsers(users); err != nil {
		return fmt.Errorf("save user directory: %w", err)
	}

	holdings := make([]model.Holding, 0, len(l.order))
	for _, sym := range l.order {
		holdings = append(holdings, *l.holdings[sym])
	}
	if err := l.store.SaveHoldings(l.account.Username, holdings); err != nil {
		return fmt.Errorf("save holdings: %w", err)
	}

	if err := l.store.AppendTransaction(l.account.Username, tx); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}
