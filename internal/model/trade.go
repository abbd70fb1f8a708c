package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeKind distinguishes the two sides of a transaction.
type TradeKind string

const (
	Buy  TradeKind = "BUY"
	Sell TradeKind = "SELL"
)

// Holding is a position in one symbol: shares held and the quantity-weighted
// average price paid for them.
type Holding struct {
	Symbol   string
	Quantity int64
	AvgCost  decimal.Decimal
}

// MarketValue is the position's worth at the given price.
func (h Holding) MarketValue(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(h.Quantity))
}

// UnrealizedPL is the gain or loss versus average cost at the given price.
func (h Holding) UnrealizedPL(price decimal.Decimal) decimal.Decimal {
	return price.Sub(h.AvgCost).Mul(decimal.NewFromInt(h.Quantity))
}

// Transaction is an immutable record of one executed trade. Price is the
// quote the trade executed at, never re-derived later.
type Transaction struct {
	ID         string
	Kind       TradeKind
	Symbol     string
	Quantity   int64
	Price      decimal.Decimal
	ExecutedAt time.Time
}

// Notional is price × quantity, the amount debited or credited.
func (t Transaction) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}
