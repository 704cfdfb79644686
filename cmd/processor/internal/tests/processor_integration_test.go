package tests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/marketmock/ticker-board/cmd/processor/internal/processor"
	"github.com/marketmock/ticker-board/cmd/processor/internal/testutils"
	"github.com/marketmock/ticker-board/pkg/config"
	"github.com/marketmock/ticker-board/pkg/models"
)

func TestProcessor_EndToEnd_Flow(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	update := models.Stock{
		Symbol:    "AAAA",
		Company:   "AAAA Corp",
		Price:     150.50,
		OpenPrice: 140.00,
		DayHigh:   152.00,
		DayLow:    139.00,
		Volume:    2_500_000,
		MarketCap: 1_500_000_000,
		SeqID:     100,
	}
	val, _ := json.Marshal(update)

	// Mock reader: spinning up real Kafka is too heavy for this test.
	mockReader := &testutils.MockKafkaReader{Messages: []kafka.Message{
		{Key: []byte("AAAA"), Value: val},
	}}

	cfg := &config.Config{Processor: config.ProcessorConfig{NumWorkers: 1}}
	proc := processor.NewProcessor(cfg, zap.NewNop(), rdb, mockReader)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		proc.Run(ctx)
		close(done)
	}()

	// Poll until the snapshot appears; the processor is async.
	success := false
	for i := 0; i < 10; i++ {
		if mr.Exists("ticker:AAAA") {
			success = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !success {
		t.Fatal("Snapshot key ticker:AAAA never appeared in Redis")
	}

	stored, err := mr.Get("ticker:AAAA")
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}

	var roundTrip models.Stock
	if err := json.Unmarshal([]byte(stored), &roundTrip); err != nil {
		t.Fatalf("Snapshot is not valid JSON: %v", err)
	}
	if roundTrip.Price != 150.50 || roundTrip.SeqID != 100 {
		t.Errorf("Snapshot content mismatch: %+v", roundTrip)
	}

	cancel()
	<-done
}
