package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer wraps a kafka-go Writer the way the teacher's KafkaProducer
// does (kernel/internal/audit/kafka_producer.go), but runs in Async mode so
// that delivery acknowledgement happens on the writer's own goroutine and
// fires concurrently with whatever loop called Produce — §5 requires this
// for watermark writes to stay off the stage's main loop.
type KafkaProducer struct {
	writer *kafka.Writer

	mu      sync.Mutex
	pending map[string]DeliveryCallback // keyed by a per-call token stashed in WriterData
}

// KafkaProducerConfig mirrors the teacher's KafkaProducerConfig shape.
type KafkaProducerConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	Balancer     kafka.Balancer
}

// NewKafkaProducer constructs a Producer for a single topic.
func NewKafkaProducer(cfg KafkaProducerConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("bus: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("bus: topic required")
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.Balancer == nil {
		cfg.Balancer = &kafka.Hash{}
	}

	p := &KafkaProducer{pending: make(map[string]DeliveryCallback)}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     cfg.Balancer,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		Async:        true,
		Completion:   p.onCompletion,
	}
	return p, nil
}

func (p *KafkaProducer) onCompletion(messages []kafka.Message, err error) {
	for _, m := range messages {
		token, _ := m.WriterData.(string)
		p.mu.Lock()
		cb, ok := p.pending[token]
		delete(p.pending, token)
		p.mu.Unlock()
		if !ok || cb == nil {
			continue
		}
		cb(Message{Topic: m.Topic, Key: m.Key, Value: m.Value, Partition: m.Partition, Offset: m.Offset, Time: m.Time}, err)
	}
}

// Produce enqueues key/value for delivery; cb runs later from onCompletion.
func (p *KafkaProducer) Produce(ctx context.Context, key, value []byte, cb DeliveryCallback) error {
	token := fmt.Sprintf("%x-%d", key, time.Now().UnixNano())
	msg := kafka.Message{
		Key:        key,
		Value:      value,
		Time:       time.Now().UTC(),
		WriterData: token,
	}
	if cb != nil {
		p.mu.Lock()
		p.pending[token] = cb
		p.mu.Unlock()
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.mu.Lock()
		delete(p.pending, token)
		p.mu.Unlock()
		return fmt.Errorf("bus: produce: %w", err)
	}
	return nil
}

// Flush blocks until every message handed to Produce has been acknowledged
// or timeout elapses.
func (p *KafkaProducer) Flush(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		p.mu.Lock()
		n := len(p.pending)
		p.mu.Unlock()
		if n == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("bus: flush timed out with %d message(s) unacknowledged", n)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Close shuts down the underlying writer, flushing any buffered batch.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
