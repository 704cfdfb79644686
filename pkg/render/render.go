// Package render maps a stock record to its display row. All formatting is
// pure; the only stateful piece is the configurable synthetic workload that
// simulates an expensive per-row computation.
package render

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"sync/atomic"

	"github.com/marketmock/ticker-board/pkg/models"
)

// Direction of the session change, derived from price vs open.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
	DirectionFlat = "flat"
)

// Row is the formatted, read-only projection of one record that clients see.
type Row struct {
	Symbol    string `json:"symbol"`
	Company   string `json:"company"`
	Sector    string `json:"sector"`
	Exchange  string `json:"exchange"`
	Price     string `json:"price"`
	Change    string `json:"change"`
	Direction string `json:"direction"`
	DayHigh   string `json:"day_high"`
	DayLow    string `json:"day_low"`
	Volume    string `json:"volume"`
	MarketCap string `json:"market_cap"`
}

// Currency formats a price with two decimals.
func Currency(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// PercentChange formats the session change relative to the open with an
// explicit sign, e.g. "+10.00%". An open of 0 divides by zero and renders a
// non-finite percentage; that case is left unguarded.
func PercentChange(price, open float64) string {
	return fmt.Sprintf("%+.2f%%", (price-open)/open*100)
}

// ChangeDirection reports whether the price is above, below, or at the open.
func ChangeDirection(price, open float64) string {
	switch {
	case price > open:
		return DirectionUp
	case price < open:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// Abbrev shortens a count with K/M/B suffixes at fixed thresholds.
// 2500000 -> "2.50M", 500 -> "500".
func Abbrev(n int64) string {
	v := float64(n)
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2fK", v/1e3)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// CurrencyAbbrev is Abbrev with a dollar sign, used for market caps.
func CurrencyAbbrev(n int64) string {
	return "$" + Abbrev(n)
}

// RowRenderer renders records into rows, burning Cost iterations of synthetic
// work per row so that every rendered row carries a measurable CPU cost.
type RowRenderer struct {
	Cost int
}

func NewRowRenderer(cost int) *RowRenderer {
	return &RowRenderer{Cost: cost}
}

// Row projects one record into its display form.
func (r *RowRenderer) Row(s models.Stock) Row {
	burn(r.Cost, s.Symbol)

	return Row{
		Symbol:    s.Symbol,
		Company:   s.Company,
		Sector:    s.Sector,
		Exchange:  s.Exchange,
		Price:     Currency(s.Price),
		Change:    PercentChange(s.Price, s.OpenPrice),
		Direction: ChangeDirection(s.Price, s.OpenPrice),
		DayHigh:   Currency(s.DayHigh),
		DayLow:    Currency(s.DayLow),
		Volume:    Abbrev(s.Volume),
		MarketCap: CurrencyAbbrev(s.MarketCap),
	}
}

// sink keeps burn's result observable so the loop cannot be elided. Atomic
// because rows render from both the pub/sub loop and snapshot goroutines.
var sink atomic.Uint64

// burn spins a hash mix for cost iterations per row.
func burn(cost int, seed string) {
	h := fnv.New64a()
	h.Write([]byte(seed))
	sum := h.Sum64()
	for i := 0; i < cost; i++ {
		sum = sum*1099511628211 + uint64(i)
	}
	sink.Store(sum)
}
