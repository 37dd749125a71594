package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/verimail/internal/auth/usecase"
	"github.com/shandysiswandi/verimail/internal/pkg/instrument"
	"github.com/shandysiswandi/verimail/internal/pkg/messaging"
	"github.com/shandysiswandi/verimail/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Broker
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Broker, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// publish marshals the payload and sends it with the correlation ID as
// a header. The key groups events of one actor on ordered brokers.
func (m *Messaging) publish(ctx context.Context, destination, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	return m.client.Publish(ctx, destination, messaging.Envelope{
		Body:    body,
		Key:     []byte(key),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	})
}

func (m *Messaging) PublishOtpRequested(ctx context.Context, msg usecase.OtpRequestedEvent) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishOtpRequested")
	defer span.End()

	err := m.publish(ctx, event.OtpRequestedDestination, msg.Email, event.OtpRequestedMessage{
		UserID:    msg.UserID,
		Email:     msg.Email,
		FirstName: msg.FirstName,
		Code:      msg.Code,
		ExpiresAt: msg.ExpiresAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishEmailVerified(ctx context.Context, msg usecase.EmailVerifiedEvent) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishEmailVerified")
	defer span.End()

	err := m.publish(ctx, event.EmailVerifiedDestination, msg.Email, event.EmailVerifiedMessage{
		UserID:    msg.UserID,
		Email:     msg.Email,
		FirstName: msg.FirstName,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishAuditTrail(ctx context.Context, msg usecase.AuditTrailEvent) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishAuditTrail")
	defer span.End()

	err := m.publish(ctx, event.AuditTrailDestination, msg.ActorEmail, event.AuditTrailMessage{
		Action:     msg.Action,
		ActorEmail: msg.ActorEmail,
		Outcome:    msg.Outcome,
		Detail:     msg.Detail,
		IPAddress:  msg.IPAddress,
		OccurredAt: msg.OccurredAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
