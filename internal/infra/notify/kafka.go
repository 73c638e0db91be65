package notify

import (
	"context"
	"time"

	"supply_go/internal/event"

	"github.com/segmentio/kafka-go"
)

// Producer is the subset of *kafka.Writer used by KafkaSink.
type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds a writer for topic. Messages are keyed by account so
// that one account's notifications stay ordered within a partition.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
}

// KafkaSink publishes notifications to a Kafka topic.
type KafkaSink struct {
	producer Producer
}

func NewKafkaSink(p Producer) *KafkaSink {
	return &KafkaSink{producer: p}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Publish(ctx context.Context, n event.Notification, payload []byte) error {
	msg := kafka.Message{
		Key:   []byte(partitionKey(n)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(n.GetType())},
			{Key: "id", Value: []byte(n.GetID())},
		},
		Time: n.GetTs().Time(),
	}
	if err := k.producer.WriteMessages(ctx, msg); err != nil {
		return publishErr(ctx, "kafka publish", err)
	}
	return nil
}

func (k *KafkaSink) Close() error {
	return k.producer.Close()
}
