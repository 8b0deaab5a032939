package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnsupported is returned when a feature is not supported by the selected broker.
//
// For example, not all brokers support delayed delivery.
var ErrUnsupported = errors.New("messaging: unsupported operation")

// Messaging is a broker-agnostic publishing client.
//
// Implementations wrap Google Pub/Sub, NSQ, Kafka or NATS. The service only
// emits events, so no consumer side is modelled here.
type Messaging interface {
	io.Closer
	Publisher
}

// Publisher publishes messages to a destination (topic/subject).
type Publisher interface {
	// Publish sends a message to the destination.
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte

	// Key is used by Kafka for partitioning.
	Key []byte

	// Headers are carried natively by Kafka and NATS and as attributes by Pub/Sub.
	Headers []Header

	// OrderingKey is used by Google Pub/Sub.
	OrderingKey string

	// Delay is used for deferred delivery (NSQ only).
	Delay time.Duration
}

// Header is a key/value pair used for message headers.
type Header struct {
	// Key is the header name.
	Key string
	// Value is the header value.
	Value []byte
}

// PublishResult carries optional broker-specific publish metadata.
type PublishResult struct {
	// MessageID is the broker-assigned message ID.
	MessageID string
	// Topic is the destination the message was published to.
	Topic string
	// Timestamp is when the message was handed to the broker.
	Timestamp time.Time
}

func headerAttributes(headers []Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}

	attrs := make(map[string]string, len(headers))
	for _, h := range headers {
		if h.Key == "" {
			continue
		}
		attrs[h.Key] = string(h.Value)
	}
	return attrs
}
