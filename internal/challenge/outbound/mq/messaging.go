package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/trafficai/internal/challenge/usecase"
	"github.com/shandysiswandi/trafficai/internal/pkg/instrument"
	"github.com/shandysiswandi/trafficai/internal/pkg/messaging"
	"github.com/shandysiswandi/trafficai/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishOTPIssued(ctx context.Context, msg usecase.OTPIssuedEvent) error {
	ctx, span := m.ins.Tracer("challenge.outbound.mq").Start(ctx, "PublishOTPIssued")
	defer span.End()

	return m.publish(ctx, span, event.OTPIssuedDestination, msg.Identifier, event.OTPIssuedMessage{
		Identifier: msg.Identifier,
		IssuedAt:   msg.IssuedAt,
		ExpiresAt:  msg.ExpiresAt,
	})
}

func (m *Messaging) PublishOTPVerified(ctx context.Context, msg usecase.OTPVerifiedEvent) error {
	ctx, span := m.ins.Tracer("challenge.outbound.mq").Start(ctx, "PublishOTPVerified")
	defer span.End()

	return m.publish(ctx, span, event.OTPVerifiedDestination, msg.Identifier, event.OTPVerifiedMessage{
		Identifier: msg.Identifier,
		VerifiedAt: msg.VerifiedAt,
	})
}

func (m *Messaging) publish(ctx context.Context, span trace.Span, destination, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(key),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
