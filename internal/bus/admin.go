package bus

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaAdmin implements Admin using kafka-go's Conn and protocol-level
// Client, the way original_source/kafka_utils.py uses the Python
// AdminClient: topic create/delete are idempotent ("if not exists"),
// restart resets a group to the earliest offset rather than deleting it.
type KafkaAdmin struct {
	brokers []string
}

// NewKafkaAdmin returns an Admin dialing the given brokers on demand; it
// holds no persistent connection.
func NewKafkaAdmin(brokers []string) (*KafkaAdmin, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("bus: at least one broker required")
	}
	return &KafkaAdmin{brokers: brokers}, nil
}

func (a *KafkaAdmin) dialController(ctx context.Context) (*kafka.Conn, error) {
	conn, err := kafka.DialContext(ctx, "tcp", a.brokers[0])
	if err != nil {
		return nil, fmt.Errorf("bus: dial %s: %w", a.brokers[0], err)
	}
	controller, err := conn.Controller()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("bus: find controller: %w", err)
	}
	conn.Close()
	ctrlConn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return nil, fmt.Errorf("bus: dial controller: %w", err)
	}
	return ctrlConn, nil
}

// CreateTopicIfNotExists is idempotent: kafka.Conn.CreateTopics returns no
// error for a topic that already exists with a compatible configuration.
func (a *KafkaAdmin) CreateTopicIfNotExists(ctx context.Context, topic string, partitions, replicationFactor int) error {
	conn, err := a.dialController(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replicationFactor,
	})
	if err != nil && err != kafka.TopicAlreadyExists {
		return fmt.Errorf("bus: create topic %s: %w", topic, err)
	}
	return nil
}

// DeleteTopic removes a topic, tolerating "unknown topic" so RESTART's
// teardown stays idempotent (§4.1).
func (a *KafkaAdmin) DeleteTopic(ctx context.Context, topic string) error {
	conn, err := a.dialController(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.DeleteTopics(topic); err != nil && err != kafka.UnknownTopicOrPartition {
		return fmt.Errorf("bus: delete topic %s: %w", topic, err)
	}
	return nil
}

// ListTopics enumerates every topic visible to the cluster.
func (a *KafkaAdmin) ListTopics(ctx context.Context) ([]string, error) {
	conn, err := kafka.DialContext(ctx, "tcp", a.brokers[0])
	if err != nil {
		return nil, fmt.Errorf("bus: dial %s: %w", a.brokers[0], err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return nil, fmt.Errorf("bus: read partitions: %w", err)
	}
	seen := make(map[string]bool)
	var topics []string
	for _, p := range partitions {
		if !seen[p.Topic] {
			seen[p.Topic] = true
			topics = append(topics, p.Topic)
		}
	}
	return topics, nil
}

// ResetConsumerGroupToEarliest rewinds every partition of topic, for
// groupID, to its earliest available offset — the RESTART contract's
// "consumer group reset" (§4.1).
func (a *KafkaAdmin) ResetConsumerGroupToEarliest(ctx context.Context, groupID, topic string) error {
	client := &kafka.Client{Addr: kafka.TCP(a.brokers...)}

	conn, err := kafka.DialContext(ctx, "tcp", a.brokers[0])
	if err != nil {
		return fmt.Errorf("bus: dial %s: %w", a.brokers[0], err)
	}
	partitions, err := conn.ReadPartitions(topic)
	conn.Close()
	if err != nil {
		return fmt.Errorf("bus: read partitions for %s: %w", topic, err)
	}

	var partitionIDs []int
	for _, p := range partitions {
		partitionIDs = append(partitionIDs, p.ID)
	}

	offsetReq := map[string][]kafka.OffsetRequest{}
	for _, id := range partitionIDs {
		offsetReq[topic] = append(offsetReq[topic], kafka.FirstOffsetOf(id))
	}
	listResp, err := client.ListOffsets(ctx, &kafka.ListOffsetsRequest{Topics: offsetReq})
	if err != nil {
		return fmt.Errorf("bus: list earliest offsets: %w", err)
	}

	commit := map[string][]kafka.OffsetCommit{}
	for _, partitionOffsets := range listResp.Topics[topic] {
		commit[topic] = append(commit[topic], kafka.OffsetCommit{
			Partition: partitionOffsets.Partition,
			Offset:    partitionOffsets.FirstOffset,
		})
	}

	if _, err := client.OffsetCommit(ctx, &kafka.OffsetCommitRequest{
		GroupID: groupID,
		Topics:  commit,
	}); err != nil {
		return fmt.Errorf("bus: reset group %s on %s: %w", groupID, topic, err)
	}
	return nil
}

// ConsumerGroupLag reports, per partition, how many messages the group has
// yet to consume on topic (high watermark minus committed offset).
func (a *KafkaAdmin) ConsumerGroupLag(ctx context.Context, groupID, topic string) (map[int]int64, error) {
	client := &kafka.Client{Addr: kafka.TCP(a.brokers...)}

	fetchResp, err := client.OffsetFetch(ctx, &kafka.OffsetFetchRequest{
		GroupID: groupID,
		Topics:  map[string][]int{topic: nil},
	})
	if err != nil {
		return nil, fmt.Errorf("bus: fetch committed offsets: %w", err)
	}

	var partitionIDs []int
	committed := map[int]int64{}
	for _, po := range fetchResp.Topics[topic] {
		partitionIDs = append(partitionIDs, po.Partition)
		committed[po.Partition] = po.CommittedOffset
	}

	offsetReq := map[string][]kafka.OffsetRequest{}
	for _, id := range partitionIDs {
		offsetReq[topic] = append(offsetReq[topic], kafka.LastOffsetOf(id))
	}
	listResp, err := client.ListOffsets(ctx, &kafka.ListOffsetsRequest{Topics: offsetReq})
	if err != nil {
		return nil, fmt.Errorf("bus: list latest offsets: %w", err)
	}

	lag := make(map[int]int64, len(partitionIDs))
	for _, po := range listResp.Topics[topic] {
		lag[po.Partition] = po.LastOffset - committed[po.Partition]
	}
	return lag, nil
}
