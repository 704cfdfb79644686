package feed_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/marketmock/ticker-board/cmd/feed/internal/feed"
	"github.com/marketmock/ticker-board/cmd/feed/internal/testutils"
)

func TestBuildUniverse_Bounds(t *testing.T) {
	rnd := feed.MathRand{Rand: rand.New(rand.NewSource(42))}
	clock := &testutils.MockClock{CurrentTime: time.Unix(0, 0)}

	stocks := feed.BuildUniverse(1000, rnd, clock)

	if len(stocks) != 1000 {
		t.Fatalf("Expected 1000 records, got %d", len(stocks))
	}

	for _, s := range stocks {
		if s.Price < 10 || s.Price > 510 {
			t.Errorf("%s: price %.2f outside [10, 510]", s.Symbol, s.Price)
		}
		if s.DayHigh < s.Price {
			t.Errorf("%s: day high %.2f below price %.2f", s.Symbol, s.DayHigh, s.Price)
		}
		if s.DayLow > s.Price {
			t.Errorf("%s: day low %.2f above price %.2f", s.Symbol, s.DayLow, s.Price)
		}
		if diff := s.OpenPrice - s.Price; diff > 10.01 || diff < -10.01 {
			t.Errorf("%s: open %.2f too far from price %.2f", s.Symbol, s.OpenPrice, s.Price)
		}
		if s.Volume < 100_000 || s.Volume > 10_100_000 {
			t.Errorf("%s: volume %d outside range", s.Symbol, s.Volume)
		}
		if s.MarketCap < 10_000_000 || s.MarketCap > 1_010_000_000 {
			t.Errorf("%s: market cap %d outside range", s.Symbol, s.MarketCap)
		}
	}
}

func TestBuildUniverse_StableIdentity(t *testing.T) {
	rnd := feed.MathRand{Rand: rand.New(rand.NewSource(7))}
	clock := &testutils.MockClock{CurrentTime: time.Unix(0, 0)}

	stocks := feed.BuildUniverse(200, rnd, clock)

	seenSymbols := make(map[string]bool)
	for i, s := range stocks {
		if s.ID != int64(i) {
			t.Errorf("Expected ID %d, got %d", i, s.ID)
		}
		if seenSymbols[s.Symbol] {
			t.Errorf("Duplicate symbol %s", s.Symbol)
		}
		seenSymbols[s.Symbol] = true
		if s.Company == "" || s.Sector == "" || s.Exchange == "" {
			t.Errorf("%s: missing identity fields: %+v", s.Symbol, s)
		}
	}
}
