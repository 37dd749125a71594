package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/verimail/internal/audit/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
)

type ConsumeAuditTrailInput struct {
	Action     string `validate:"required"`
	ActorEmail string `validate:"required"`
	Outcome    string `validate:"required"`
	Detail     string
	IPAddress  string
	OccurredAt time.Time
}

// ConsumeAuditTrail persists one trail event. Events are append-only;
// there is no update or delete path.
func (s *Usecase) ConsumeAuditTrail(ctx context.Context, in ConsumeAuditTrailInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeAuditTrail")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.clock.Now()
	}

	ev := entity.AuditEvent{
		ID:         s.uid.Generate(),
		Action:     in.Action,
		ActorEmail: in.ActorEmail,
		Outcome:    in.Outcome,
		Detail:     in.Detail,
		IPAddress:  in.IPAddress,
		OccurredAt: occurredAt,
	}

	if err := s.repoDB.CreateEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "failed to repo create audit event", "action", in.Action, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
