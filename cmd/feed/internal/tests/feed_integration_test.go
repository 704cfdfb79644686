package tests

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/marketmock/ticker-board/cmd/feed/internal/feed"
	"github.com/marketmock/ticker-board/cmd/feed/internal/testutils"
	"github.com/marketmock/ticker-board/pkg/models"
)

// Simulates the feed main loop with a fake writer: generate a universe, let
// the mutator run a few virtual ticks, and check what went over the wire.
func TestFeed_ComponentWiring(t *testing.T) {
	writer := &testutils.MockKafkaWriter{}
	clock := &testutils.MockClock{CurrentTime: time.Now()}
	rnd := feed.MathRand{Rand: rand.New(rand.NewSource(1))}

	universe := feed.BuildUniverse(25, rnd, clock)
	mutator := feed.NewMutator(zap.NewNop(), writer, universe, rnd, clock, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// MockClock.Sleep only advances virtual time, so a few wall-clock
		// milliseconds cover many ticks.
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	mutator.Run(ctx)

	writer.Mu.Lock()
	defer writer.Mu.Unlock()

	if len(writer.Messages) == 0 {
		t.Fatal("Expected messages to be generated")
	}
	if len(writer.Messages)%25 != 0 {
		t.Errorf("Messages should arrive in whole-universe batches, got %d", len(writer.Messages))
	}

	for _, msg := range writer.Messages {
		var s models.Stock
		if err := json.Unmarshal(msg.Value, &s); err != nil {
			t.Fatalf("Invalid JSON on the wire: %v", err)
		}
		if s.Price < 1.0 {
			t.Errorf("%s: price %f below floor", s.Symbol, s.Price)
		}
		if string(msg.Key) != s.Symbol {
			t.Errorf("Key %s does not match symbol %s", msg.Key, s.Symbol)
		}
	}
}
