package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/normalizer"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/cmd/broadcaster/internal/store"
	"github.com/twoChar/Yebelo-Technologies-assignment-1/pkg/config"
)

const maxLoggedPayload = 256

// Consumer drives the only write path: Kafka record -> normalize ->
// store upsert -> hub broadcast. Per-record faults are logged and skipped;
// nothing in here ever blocks on a subscriber.
type Consumer struct {
	brokers []string
	topic   string

	reader KafkaReader
	norm   *normalizer.Normalizer
	store  store.Store
	hub    Broadcaster
	logger *zap.Logger

	state atomic.Int32
}

func NewConsumer(cfg config.KafkaConfig, reader KafkaReader, norm *normalizer.Normalizer, st store.Store, hub Broadcaster, logger *zap.Logger) *Consumer {
	c := &Consumer{
		brokers: cfg.Brokers,
		topic:   cfg.Topic,
		reader:  reader,
		norm:    norm,
		store:   st,
		hub:     hub,
		logger:  logger,
	}
	c.state.Store(int32(StateDisconnected))
	return c
}

// NewReader builds the group reader. The replay flag decides where a fresh
// consumer group starts: the earliest retained offset or only new records.
func NewReader(cfg config.KafkaConfig, groupID string) *kafka.Reader {
	startOffset := kafka.LastOffset
	if cfg.Replay {
		startOffset = kafka.FirstOffset
	}

	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		Topic:             cfg.Topic,
		GroupID:           groupID,
		MinBytes:          1,
		MaxBytes:          10e6,
		MaxWait:           200 * time.Millisecond,
		StartOffset:       startOffset,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    10 * time.Second,
	})
}

// Connect verifies the broker is reachable and the topic exists before any
// serving starts. Failure here is fatal to the process: a broadcaster with
// no feed behind it would be half-alive.
func (c *Consumer) Connect(ctx context.Context) error {
	c.setState(StateConnecting)

	conn, err := kafka.DialContext(ctx, "tcp", c.brokers[0])
	if err != nil {
		c.setState(StateFailed)
		return fmt.Errorf("dial broker %s: %w", c.brokers[0], err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(c.topic)
	if err != nil {
		c.setState(StateFailed)
		return fmt.Errorf("read partitions for topic %s: %w", c.topic, err)
	}
	if len(partitions) == 0 {
		c.setState(StateFailed)
		return fmt.Errorf("topic %s has no partitions", c.topic)
	}

	c.setState(StateSubscribed)
	c.logger.Info("Subscribed to topic", zap.String("topic", c.topic), zap.Int("partitions", len(partitions)))
	return nil
}

// Run consumes until the context is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) error {
	c.setState(StateConsuming)
	c.logger.Info("Consuming", zap.String("topic", c.topic))

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.setState(StateDisconnected)
				return nil
			}
			if errors.Is(err, io.EOF) {
				// Reader closed during shutdown.
				c.setState(StateDisconnected)
				return nil
			}
			c.logger.Error("Kafka Read Error", zap.Error(err))
			continue
		}
		c.handleRecord(m.Value)
	}
}

func (c *Consumer) handleRecord(raw []byte) {
	ev, err := c.norm.Normalize(raw)
	if err != nil {
		c.logger.Warn("Dropping record", zap.Error(err), zap.ByteString("payload", truncate(raw)))
		return
	}

	if err := c.store.Upsert(ev); err != nil {
		c.logger.Error("Store upsert failed", zap.Error(err), zap.String("token", ev.Token))
		return
	}
	c.hub.Broadcast(ev)
}

// State reports the adapter lifecycle for health reporting.
func (c *Consumer) State() State {
	return State(c.state.Load())
}

func (c *Consumer) setState(s State) {
	c.state.Store(int32(s))
}

func truncate(b []byte) []byte {
	if len(b) > maxLoggedPayload {
		return b[:maxLoggedPayload]
	}
	return b
}
