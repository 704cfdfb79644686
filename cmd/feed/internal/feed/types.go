package feed

import (
	"context"
	"math/rand"
	"time"

	"github.com/segmentio/kafka-go"
)

// Clock and Rand are seams for deterministic tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type Rand interface {
	Intn(n int) int
	Float64() float64
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaDialer interface {
	DialContext(ctx context.Context, network, address string) (KafkaConn, error)
}

type KafkaConn interface {
	Controller() (kafka.Broker, error)
	Close() error
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
}

type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

type MathRand struct{ *rand.Rand }

func (r MathRand) Intn(n int) int   { return r.Rand.Intn(n) }
func (r MathRand) Float64() float64 { return r.Rand.Float64() }

// kafkaConnAdapter narrows *kafka.Conn to the KafkaConn interface.
type kafkaConnAdapter struct{ *kafka.Conn }

func (c *kafkaConnAdapter) Controller() (kafka.Broker, error) { return c.Conn.Controller() }
func (c *kafkaConnAdapter) Close() error                      { return c.Conn.Close() }
func (c *kafkaConnAdapter) CreateTopics(topics ...kafka.TopicConfig) error {
	return c.Conn.CreateTopics(topics...)
}
func (c *kafkaConnAdapter) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	return c.Conn.ReadPartitions(topics...)
}

// Dialer adapts *kafka.Dialer to the KafkaDialer seam.
type Dialer struct{ *kafka.Dialer }

func (d *Dialer) DialContext(ctx context.Context, network, address string) (KafkaConn, error) {
	conn, err := d.Dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return &kafkaConnAdapter{Conn: conn}, nil
}
