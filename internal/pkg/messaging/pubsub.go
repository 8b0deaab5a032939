package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

var (
	// ErrPubSubProjectIDRequired is returned when a ProjectID is required but missing.
	ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")
	// ErrPubSubTopicRequired is returned when the publish topic is empty.
	ErrPubSubTopicRequired = errors.New("messaging: pubsub topic is required")
)

// PubSubConfig configures the Google Pub/Sub implementation.
type PubSubConfig struct {
	// ProjectID is the Google Cloud project ID.
	ProjectID string
	// ClientOptions are used when creating the client.
	ClientOptions []option.ClientOption
}

// PubSub is a messaging implementation backed by Google Pub/Sub.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	closed     bool
	publishers map[string]*pubsub.Publisher
}

// NewPubSub constructs a PubSub messaging client.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}

	c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub new client: %w", err)
	}

	return &PubSub{client: c, publishers: map[string]*pubsub.Publisher{}}, nil
}

// Close stops publishers and closes the Pub/Sub client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := make([]*pubsub.Publisher, 0, len(p.publishers))
	for _, pub := range p.publishers {
		pubs = append(pubs, pub)
	}
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}

	return p.client.Close()
}

// Publish sends a message to a Pub/Sub topic and waits for the server id.
func (p *PubSub) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrPubSubTopicRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	pub, err := p.publisher(destination)
	if err != nil {
		return PublishResult{}, err
	}

	id, err := pub.Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  headerAttributes(msg.Headers),
		OrderingKey: msg.OrderingKey,
	}).Get(ctx)
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: pubsub publish: %w", err)
	}

	return PublishResult{MessageID: id, Topic: destination, Timestamp: time.Now()}, nil
}

func (p *PubSub) publisher(topic string) (*pubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, io.ErrClosedPipe
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub, nil
	}

	pub := p.client.Publisher(topic)
	if pub == nil {
		return nil, fmt.Errorf("messaging: pubsub publisher %q unavailable", topic)
	}
	p.publishers[topic] = pub
	return pub, nil
}
