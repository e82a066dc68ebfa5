package bus

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interfaces are satisfied at compile time; these assignments double as a
// regression test for the contract each Kafka-backed type must keep.
var (
	_ Producer = (*KafkaProducer)(nil)
	_ Consumer = (*KafkaConsumer)(nil)
	_ Admin    = (*KafkaAdmin)(nil)
)

func TestNewKafkaProducer_RequiresBrokersAndTopic(t *testing.T) {
	_, err := NewKafkaProducer(KafkaProducerConfig{Topic: "t"})
	assert.Error(t, err)

	_, err = NewKafkaProducer(KafkaProducerConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)
}

func TestNewKafkaProducer_AppliesDefaults(t *testing.T) {
	p, err := NewKafkaProducer(KafkaProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "t"})
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, 10*time.Second, p.writer.WriteTimeout)
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
}

func TestNewKafkaConsumer_RequiresBrokersGroupAndTopic(t *testing.T) {
	_, err := NewKafkaConsumer(KafkaConsumerConfig{GroupID: "g", Topic: "t"})
	assert.Error(t, err)

	_, err = NewKafkaConsumer(KafkaConsumerConfig{Brokers: []string{"localhost:9092"}, Topic: "t"})
	assert.Error(t, err)

	_, err = NewKafkaConsumer(KafkaConsumerConfig{Brokers: []string{"localhost:9092"}, GroupID: "g"})
	assert.Error(t, err)
}

func TestNewKafkaConsumer_Succeeds(t *testing.T) {
	c, err := NewKafkaConsumer(KafkaConsumerConfig{Brokers: []string{"localhost:9092"}, GroupID: "g", Topic: "t"})
	require.NoError(t, err)
	defer c.Close()
}

func TestNewKafkaAdmin_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaAdmin(nil)
	assert.Error(t, err)

	a, err := NewKafkaAdmin([]string{"localhost:9092"})
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestKafkaProducer_CloseOnNilIsSafe(t *testing.T) {
	var p *KafkaProducer
	assert.NoError(t, p.Close())
}

func TestKafkaConsumer_CloseOnNilIsSafe(t *testing.T) {
	var c *KafkaConsumer
	assert.NoError(t, c.Close())
}
