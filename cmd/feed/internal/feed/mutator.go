package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/marketmock/ticker-board/pkg/models"
)

const (
	maxDelta   = 2.5 // price moves by a uniform delta in [-maxDelta, maxDelta]
	priceFloor = 1.0
)

// Mutator rewrites every record's price fields on a fixed interval and ships
// the whole collection downstream on each tick, changed or not.
type Mutator struct {
	logger   *zap.Logger
	writer   KafkaWriter
	records  []models.Stock
	rand     Rand
	clock    Clock
	interval time.Duration
}

func NewMutator(
	logger *zap.Logger,
	writer KafkaWriter,
	records []models.Stock,
	rnd Rand,
	clock Clock,
	interval time.Duration,
) *Mutator {
	return &Mutator{
		logger:   logger,
		writer:   writer,
		records:  records,
		rand:     rnd,
		clock:    clock,
		interval: interval,
	}
}

// Run ticks until the context is cancelled.
func (m *Mutator) Run(ctx context.Context) {
	m.logger.Info("Feed started",
		zap.Int("records", len(m.records)),
		zap.Duration("interval", m.interval),
	)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := m.Tick(ctx); err != nil {
				m.logger.Error("Kafka Write Error", zap.Error(err))
			}
			m.clock.Sleep(m.interval)
		}
	}
}

// Tick replaces every record with its mutated copy and writes the full batch,
// keyed by symbol so a symbol's updates stay ordered within a partition.
func (m *Mutator) Tick(ctx context.Context) error {
	now := m.clock.Now().UnixMicro()
	msgs := make([]kafka.Message, 0, len(m.records))

	for i := range m.records {
		delta := m.rand.Float64()*(2*maxDelta) - maxDelta
		next := Mutate(m.records[i], delta)
		next.Timestamp = now
		next.SeqID = m.records[i].SeqID + 1
		m.records[i] = next

		payload, err := json.Marshal(next)
		if err != nil {
			m.logger.Error("JSON Marshal Error", zap.Error(err))
			continue
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(next.Symbol),
			Value: payload,
		})
	}

	return m.writer.WriteMessages(ctx, msgs...)
}

// Records returns a copy of the current collection.
func (m *Mutator) Records() []models.Stock {
	out := make([]models.Stock, len(m.records))
	copy(out, m.records)
	return out
}

// Mutate applies one price step to a record copy. The new price is floored at
// priceFloor and rounded to two decimals. Day high/low track the raw
// (pre-floor) price, so DayLow can drift under the floor.
func Mutate(s models.Stock, delta float64) models.Stock {
	raw := s.Price + delta

	price := raw
	if price < priceFloor {
		price = priceFloor
	}
	s.Price = round2(price)

	if raw > s.DayHigh {
		s.DayHigh = raw
	}
	if raw < s.DayLow {
		s.DayLow = raw
	}

	return s
}
