package inbound

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shandysiswandi/verimail/internal/audit/usecase"
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

func (h *MQHandler) AuditTrail(ctx context.Context, msg messaging.Delivery) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("audit.inbound.mq").Start(ctx, "AuditTrail")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: audit trail", "msg_body", string(body))

	var payload event.AuditTrailMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of audit trail", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeAuditTrail(ctx, usecase.ConsumeAuditTrailInput{
		Action:     payload.Action,
		ActorEmail: payload.ActorEmail,
		Outcome:    payload.Outcome,
		Detail:     payload.Detail,
		IPAddress:  payload.IPAddress,
		OccurredAt: time.Unix(payload.OccurredAt, 0),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume audit trail", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
