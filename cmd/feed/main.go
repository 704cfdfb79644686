package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/marketmock/ticker-board/cmd/feed/internal/feed"
	"github.com/marketmock/ticker-board/pkg/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	clock := feed.SystemClock{}

	seed := cfg.Feed.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := feed.MathRand{Rand: rand.New(rand.NewSource(seed))}

	// Ensure the topic exists before the first batch goes out.
	creator := feed.NewTopicCreator(logger, &feed.Dialer{Dialer: kafka.DefaultDialer}, clock)
	creator.Create(cfg.Kafka.Brokers, cfg.Kafka.Topic)

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.LeastBytes{},
		// Each tick is already a batch of every record; buffer a tick's worth
		// and flush well inside the tick interval.
		BatchSize:    cfg.Feed.Records,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}

	universe := feed.BuildUniverse(cfg.Feed.Records, rnd, clock)
	mutator := feed.NewMutator(
		logger,
		writer,
		universe,
		rnd,
		clock,
		time.Duration(cfg.Feed.TickMs)*time.Millisecond,
	)

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go mutator.Run(ctx)

	<-sigChan
	logger.Info("Shutdown signal received")
	cancel()

	// Flush whatever the async writer still buffers.
	if err := writer.Close(); err != nil {
		logger.Error("Error closing Kafka writer", zap.Error(err))
	} else {
		logger.Info("Kafka writer closed cleanly")
	}
}
