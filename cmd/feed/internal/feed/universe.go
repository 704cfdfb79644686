package feed

import (
	"math"

	"github.com/marketmock/ticker-board/pkg/models"
)

// Sampling ranges for the synthetic universe.
const (
	priceBase  = 10.0
	priceSpan  = 500.0
	openSpread = 10.0 // open = price +/- up to this; may cross zero, kept as-is
	rangeSpan  = 10.0 // high/low sampled within this distance of price

	volumeBase = 100_000
	volumeSpan = 10_000_001

	marketCapBase = 10_000_000
	marketCapSpan = 1_000_000_001
)

// BuildUniverse generates the full record set once. Records are never added
// or removed afterwards; only their price fields move.
func BuildUniverse(n int, rnd Rand, clock Clock) []models.Stock {
	now := clock.Now().UnixMicro()
	stocks := make([]models.Stock, n)

	for i := range stocks {
		id := int64(i)
		price := priceBase + rnd.Float64()*priceSpan

		stocks[i] = models.Stock{
			ID:        id,
			Symbol:    models.SymbolFor(id),
			Company:   models.CompanyFor(id),
			Sector:    models.Sectors[i%len(models.Sectors)],
			Exchange:  models.Exchanges[i%len(models.Exchanges)],
			Price:     round2(price),
			OpenPrice: round2(price + (rnd.Float64()*2-1)*openSpread),
			DayHigh:   round2(price + rnd.Float64()*rangeSpan),
			DayLow:    round2(price - rnd.Float64()*rangeSpan),
			Volume:    int64(volumeBase + rnd.Intn(volumeSpan)),
			MarketCap: int64(marketCapBase + rnd.Intn(marketCapSpan)),
			Timestamp: now,
		}
	}

	return stocks
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
