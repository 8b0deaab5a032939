package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var (
	// ErrNSQTopicRequired is returned when the topic is empty.
	ErrNSQTopicRequired = errors.New("messaging: nsq topic is required")
	// ErrNSQProducerAddrRequired is returned when the producer address is missing.
	ErrNSQProducerAddrRequired = errors.New("messaging: nsq producer address is required")
)

// NSQConfig configures the NSQ implementation.
type NSQConfig struct {
	// ProducerAddr is the NSQD address for publishing.
	ProducerAddr string
	// ProducerConfig overrides the default producer config.
	ProducerConfig *nsq.Config
}

// NSQ is a messaging implementation backed by an NSQ producer.
type NSQ struct {
	producer *nsq.Producer
}

// NewNSQ constructs an NSQ messaging client.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ProducerAddr == "" {
		return nil, ErrNSQProducerAddrRequired
	}

	pcfg := cfg.ProducerConfig
	if pcfg == nil {
		pcfg = nsq.NewConfig()
	}

	p, err := nsq.NewProducer(cfg.ProducerAddr, pcfg)
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
	}
	p.SetLoggerLevel(nsq.LogLevelError)

	return &NSQ{producer: p}, nil
}

// Close stops the producer.
func (n *NSQ) Close() error {
	n.producer.Stop()
	return nil
}

// Publish sends a message to an NSQ topic. NSQ has no headers, so only the
// body is delivered.
func (n *NSQ) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrNSQTopicRequired
	}

	var err error
	if msg.Delay > 0 {
		err = n.producer.DeferredPublish(destination, msg.Delay, msg.Body)
	} else {
		err = n.producer.Publish(destination, msg.Body)
	}
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nsq publish: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}
