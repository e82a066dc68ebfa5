package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConsumer wraps a kafka-go Reader configured with a consumer group, so
// offsets are tracked by the broker rather than the stage itself (§6).
type KafkaConsumer struct {
	reader *kafka.Reader
}

// KafkaConsumerConfig describes a single-topic, grouped consumer. The
// validator and serving stages each subscribe to one topic (the source stage
// reads CSV files and has no consumer) — nothing here needs a multi-topic
// reader, so one Reader per topic keeps this close to kafka-go's own grain.
type KafkaConsumerConfig struct {
	Brokers []string
	GroupID string
	Topic   string
}

// NewKafkaConsumer constructs a Consumer bound to one topic and group.
func NewKafkaConsumer(cfg KafkaConsumerConfig) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("bus: at least one broker required")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("bus: consumer group id required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("bus: topic required")
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commits via Commit, one per processed message
	})
	return &KafkaConsumer{reader: r}, nil
}

// Poll fetches the next message without committing it. A nil message and nil
// error mean nothing arrived within timeout.
func (c *KafkaConsumer) Poll(ctx context.Context, timeout time.Duration) (*Message, error) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m, err := c.reader.FetchMessage(pollCtx)
	if err != nil {
		if pollCtx.Err() != nil && ctx.Err() == nil {
			return nil, nil // our deadline, not the caller's — treat as an empty poll
		}
		return nil, fmt.Errorf("bus: poll: %w", err)
	}
	return &Message{
		Topic:     m.Topic,
		Key:       m.Key,
		Value:     m.Value,
		Partition: m.Partition,
		Offset:    m.Offset,
		Time:      m.Time,
	}, nil
}

// Commit advances the consumer group's committed offset past msg.
func (c *KafkaConsumer) Commit(ctx context.Context, msg Message) error {
	if err := c.reader.CommitMessages(ctx, kafka.Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}); err != nil {
		return fmt.Errorf("bus: commit offset %d: %w", msg.Offset, err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *KafkaConsumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
