package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/verimail/internal/audit/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
)

type QueryEventsInput struct {
	Action     string
	ActorEmail string `validate:"omitempty,email"`
	Outcome    string `validate:"omitempty,oneof=success failure"`
	DateFrom   time.Time
	DateTo     time.Time
	Size       int32 `validate:"min=0,max=100"`
	Page       int32 `validate:"min=0"`
}

type QueryEventsOutput struct {
	Events []Event
	Total  int64
	Size   int32
	Page   int32
}

type Event struct {
	ID         int64
	Action     string
	ActorEmail string
	Outcome    string
	Detail     string
	IPAddress  string
	OccurredAt time.Time
}

// QueryEvents returns a page of trail events, newest first.
func (s *Usecase) QueryEvents(ctx context.Context, in QueryEventsInput) (*QueryEventsOutput, error) {
	ctx, span := s.startSpan(ctx, "QueryEvents")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.Size <= 0 {
		in.Size = 20
	}
	if in.Page <= 0 {
		in.Page = 1
	}

	filter := entity.EventFilter{
		Action:     in.Action,
		ActorEmail: in.ActorEmail,
		Outcome:    in.Outcome,
		DateFrom:   in.DateFrom,
		DateTo:     in.DateTo,
		Size:       in.Size,
		Page:       in.Page,
	}

	events, err := s.repoDB.ListEvents(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list audit events", "error", err)
		return nil, goerror.NewServer(err)
	}

	total, err := s.repoDB.CountEvents(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count audit events", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &QueryEventsOutput{
		Events: lo.Map(events, func(ev entity.AuditEvent, _ int) Event {
			return Event{
				ID:         ev.ID,
				Action:     ev.Action,
				ActorEmail: ev.ActorEmail,
				Outcome:    ev.Outcome,
				Detail:     ev.Detail,
				IPAddress:  ev.IPAddress,
				OccurredAt: ev.OccurredAt,
			}
		}),
		Total: total,
		Size:  in.Size,
		Page:  in.Page,
	}, nil
}
