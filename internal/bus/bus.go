// Package bus wraps github.com/segmentio/kafka-go behind the narrow contract
// §6 describes for the message bus: topic admin, a callback-driven producer,
// a poll-style consumer, and consumer-group lag/reset operations. The
// teacher's kernel/internal/audit package wraps kafka-go the same way — one
// small struct per concern, backoff-free single-shot calls, errors wrapped
// with fmt.Errorf.
package bus

import (
	"context"
	"time"
)

// Message is the bus's wire envelope. Key carries the partitioning key
// (always the incident number from the validator onward, §3 invariant).
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition int
	Offset    int64
	Time      time.Time
}

// DeliveryCallback is invoked once per message, asynchronously with respect
// to the caller of Produce, when the bus has confirmed (or failed) delivery
// (§5 "producer callback as concurrent writer").
type DeliveryCallback func(msg Message, err error)

// Producer publishes messages to a single topic.
type Producer interface {
	// Produce enqueues a message for delivery. cb fires later, on the
	// producer's own goroutine, once the broker has acknowledged the write
	// (or the write has permanently failed).
	Produce(ctx context.Context, key, value []byte, cb DeliveryCallback) error

	// Flush blocks until all enqueued messages have been delivered or the
	// timeout elapses, returning an error in the latter case.
	Flush(ctx context.Context, timeout time.Duration) error

	Close() error
}

// Consumer polls a set of topics under a single consumer group.
type Consumer interface {
	// Poll waits up to timeout for the next message. A nil message and nil
	// error means the timeout elapsed with nothing available.
	Poll(ctx context.Context, timeout time.Duration) (*Message, error)

	// Commit acknowledges a message has been fully processed, advancing the
	// consumer group's committed offset for its partition.
	Commit(ctx context.Context, msg Message) error

	Close() error
}

// Admin exposes the bus's administrative surface (§6 Bus adapter contract).
type Admin interface {
	CreateTopicIfNotExists(ctx context.Context, topic string, partitions, replicationFactor int) error
	DeleteTopic(ctx context.Context, topic string) error
	ListTopics(ctx context.Context) ([]string, error)
	ResetConsumerGroupToEarliest(ctx context.Context, groupID, topic string) error
	ConsumerGroupLag(ctx context.Context, groupID, topic string) (map[int]int64, error)
}
