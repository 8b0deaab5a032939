// Package messaging publishes domain events to a message broker.
//
// The broker is chosen at startup with NewFromDriver. Supported drivers are
// NATS, Kafka, NSQ and Google Pub/Sub, plus a no-op driver when events are
// not wanted.
package messaging
