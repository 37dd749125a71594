package inbound

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shandysiswandi/verimail/internal/notification/usecase"
	"github.com/shandysiswandi/verimail/internal/pkg/instrument"
	"github.com/shandysiswandi/verimail/internal/pkg/messaging"
	"github.com/shandysiswandi/verimail/internal/pkg/uid"
	"github.com/shandysiswandi/verimail/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) OtpRequestedNotification(ctx context.Context, msg messaging.Delivery) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OtpRequestedNotification")
	defer span.End()

	// The body carries a plaintext code, so it is never logged.
	slog.InfoContext(ctx, "consume: otp requested notification")

	var payload event.OtpRequestedMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp requested notification", "error", err)
		return nil
	}

	if err := h.uc.ConsumeOtpRequested(ctx, usecase.ConsumeOtpRequestedInput{
		UserID:    payload.UserID,
		Email:     payload.Email,
		FirstName: payload.FirstName,
		Code:      payload.Code,
		ExpiresAt: time.Unix(payload.ExpiresAt, 0),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp requested", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) EmailVerifiedNotification(ctx context.Context, msg messaging.Delivery) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "EmailVerifiedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: email verified notification", "msg_body", string(body))

	var payload event.EmailVerifiedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of email verified notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeEmailVerified(ctx, usecase.ConsumeEmailVerifiedInput{
		UserID:    payload.UserID,
		Email:     payload.Email,
		FirstName: payload.FirstName,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume email verified", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}
