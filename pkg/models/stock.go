package models

// Stock is one simulated market instrument. Identity fields (ID, Symbol,
// Company, Sector, Exchange) are fixed for the lifetime of the record;
// Volume and MarketCap are sampled once; the price fields are rewritten on
// every feed tick.
type Stock struct {
	ID        int64   `json:"id"`
	Symbol    string  `json:"symbol"`
	Company   string  `json:"company"`
	Sector    string  `json:"sector"`
	Exchange  string  `json:"exchange"`
	Price     float64 `json:"price"`
	OpenPrice float64 `json:"open_price"`
	DayHigh   float64 `json:"day_high"`
	DayLow    float64 `json:"day_low"`
	Volume    int64   `json:"volume"`
	MarketCap int64   `json:"market_cap"`
	Timestamp int64   `json:"timestamp"` // unix micro
	SeqID     int64   `json:"seq_id"`    // monotonic counter per symbol
}

// Sector and exchange enumerations records are stamped with.
var (
	Sectors   = []string{"Technology", "Healthcare", "Finance", "Energy", "Consumer", "Industrials"}
	Exchanges = []string{"NYSE", "NASDAQ", "AMEX"}
)
