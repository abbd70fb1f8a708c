package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one observed price at one instant.
type PricePoint struct {
	Time  time.Time
	Price decimal.Decimal
}

// Instrument is a value snapshot of a tradable symbol: current price plus
// bounded price history. Snapshots are detached from the engine, so callers
// may hold them across ticks.
type Instrument struct {
	Symbol  string
	Name    string
	Price   decimal.Decimal
	History []PricePoint
}

// DailyChangePercent derives the change from the oldest retained history
// point to the current price. Zero if there are fewer than two points or the
// first price is non-positive.
func (i Instrument) DailyChangePercent() float64 {
	if len(i.History) < 2 {
		return 0
	}
	first := i.History[0].Price
	if !first.IsPositive() {
		return 0
	}
	pct, _ := i.Price.Sub(first).Div(first).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}
