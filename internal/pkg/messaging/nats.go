package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

var (
	// ErrNATSSubjectRequired is returned when the subject is empty.
	ErrNATSSubjectRequired = errors.New("messaging: nats subject is required")
	// ErrNATSURLRequired is returned when the NATS server URL is missing.
	ErrNATSURLRequired = errors.New("messaging: nats url is required")
)

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	// URL is the NATS server address.
	URL string

	// Options are passed to the NATS client.
	Options []nats.Option
}

// NATS is a messaging implementation backed by NATS core publish.
type NATS struct {
	conn *nats.Conn
}

// NewNATS constructs a NATS messaging client.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Close drains pending publishes and closes the connection.
func (n *NATS) Close() error {
	if n.conn.IsClosed() {
		return nil
	}
	return n.conn.Drain()
}

// Publish sends a message to a NATS subject.
func (n *NATS) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrNATSSubjectRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	nmsg := nats.NewMsg(destination)
	nmsg.Data = msg.Body
	for _, h := range msg.Headers {
		if h.Key == "" {
			continue
		}
		nmsg.Header.Add(h.Key, string(h.Value))
	}

	if err := n.conn.PublishMsg(nmsg); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats flush: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}
