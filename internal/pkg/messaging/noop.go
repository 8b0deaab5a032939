package messaging

import (
	"context"
	"time"
)

// Noop drops every message. It backs the "none" driver.
type Noop struct{}

// Publish discards msg.
func (Noop) Publish(ctx context.Context, destination string, _ OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Close implements io.Closer.
func (Noop) Close() error {
	return nil
}
