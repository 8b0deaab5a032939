package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	// ErrKafkaTopicRequired is returned when the topic is empty.
	ErrKafkaTopicRequired = errors.New("messaging: kafka topic is required")
	// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
	ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")
)

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	// Brokers lists Kafka broker addresses.
	Brokers []string
	// WriteTimeout bounds a single produce request. Zero keeps the kafka-go default.
	WriteTimeout time.Duration
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka is a messaging implementation backed by a single kafka-go writer.
// The topic is set per message.
type Kafka struct {
	writer kafkaWriter
}

// NewKafka constructs a Kafka messaging client.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{writer: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}}, nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

// Publish sends a message to a Kafka topic.
func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrKafkaTopicRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	kmsg := kafka.Message{
		Topic: destination,
		Key:   msg.Key,
		Value: msg.Body,
		Time:  time.Now(),
	}
	for _, h := range msg.Headers {
		if h.Key == "" {
			continue
		}
		kmsg.Headers = append(kmsg.Headers, kafka.Header{Key: h.Key, Value: h.Value})
	}

	if err := k.writer.WriteMessages(ctx, kmsg); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: kafka publish: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: kmsg.Time}, nil
}
