// Package processor drains the tick topic into Redis: latest record per
// symbol as a snapshot key, plus a pub/sub publish for live listeners.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marketmock/ticker-board/pkg/config"
	"github.com/marketmock/ticker-board/pkg/models"
)

const (
	snapshotKeyPrefix = "ticker:"
	tickChannelPrefix = "ticks."
	snapshotTTL       = 1 * time.Hour // bounds Redis memory if the feed stops
)

// SnapshotKey returns the Redis key holding the latest record for a symbol.
func SnapshotKey(symbol string) string { return snapshotKeyPrefix + symbol }

// TickChannel returns the pub/sub channel a symbol's updates are published on.
func TickChannel(symbol string) string { return tickChannelPrefix + symbol }

type Processor struct {
	cfg        *config.Config
	logger     Logger
	rdb        RedisClient
	reader     KafkaReader
	numWorkers int
}

func NewProcessor(cfg *config.Config, logger Logger, rdb RedisClient, reader KafkaReader) *Processor {
	return &Processor{
		cfg:        cfg,
		logger:     logger,
		rdb:        rdb,
		reader:     reader,
		numWorkers: cfg.Processor.NumWorkers,
	}
}

// Run consumes until the context is cancelled, then drains the workers.
func (p *Processor) Run(ctx context.Context) error {
	workerChans := make([]chan []byte, p.numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < p.numWorkers; i++ {
		workerChans[i] = make(chan []byte, 100)
		wg.Add(1)
		go p.worker(i, workerChans[i], &wg)
	}

	go func() {
		p.logger.Info("Processor Started", zap.Int("workers", p.numWorkers))
		for {
			m, err := p.reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				p.logger.Error("Kafka Read Error", zap.Error(err))
				continue
			}

			// Same symbol always lands on the same worker, which keeps
			// per-symbol ordering and makes the SeqID dedupe local state.
			workerID := shardFor(m.Key, p.numWorkers)

			select {
			case workerChans[workerID] <- m.Value:
			case <-ctx.Done():
				return
			default:
				// Full lane: drop. For a ticker, latest beats complete.
				p.logger.Warn("Dropping slow packet", zap.String("key", string(m.Key)), zap.Int("worker_id", workerID))
			}
		}
	}()

	<-ctx.Done()
	p.logger.Info("Shutdown signal received, stopping processor...")

	for _, ch := range workerChans {
		close(ch)
	}
	p.logger.Info("Waiting for workers to drain...")
	wg.Wait()

	return nil
}

func (p *Processor) worker(id int, msgs <-chan []byte, wg *sync.WaitGroup) {
	defer wg.Done()
	// Background context so an in-flight Redis write finishes during shutdown.
	ctx := context.Background()

	lastSeq := make(map[string]int64)

	for payload := range msgs {
		var update models.Stock
		if err := json.Unmarshal(payload, &update); err != nil {
			p.logger.Error("JSON Unmarshal Error", zap.Error(err))
			continue
		}

		if update.SeqID <= lastSeq[update.Symbol] {
			p.logger.Debug("Skipping stale update", zap.String("symbol", update.Symbol), zap.Int64("seq_id", update.SeqID))
			continue
		}

		// SET + PUBLISH in one pipeline so snapshot and broadcast agree.
		pipe := p.rdb.Pipeline()
		pipe.Set(ctx, SnapshotKey(update.Symbol), payload, snapshotTTL)
		pipe.Publish(ctx, TickChannel(update.Symbol), payload)

		if _, err := pipe.Exec(ctx); err != nil {
			p.logger.Error("Redis Pipeline Error", zap.Error(err), zap.String("symbol", update.Symbol))
			continue
		}

		lastSeq[update.Symbol] = update.SeqID
		p.logger.Debug("Processed", zap.String("symbol", update.Symbol), zap.Int("worker_id", id), zap.Int64("seq_id", update.SeqID))
	}
}

func shardFor(key []byte, numWorkers int) int {
	h := fnv.New32a()
	h.Write(key)
	return int(h.Sum32()) % numWorkers
}
