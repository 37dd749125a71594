package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/verimail/internal/audit/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
	"github.com/shandysiswandi/verimail/internal/pkg/storage"
)

const exportBatchSize int32 = 500

type ExportEventsInput struct {
	Action     string
	ActorEmail string `validate:"omitempty,email"`
	Outcome    string `validate:"omitempty,oneof=success failure"`
	DateFrom   time.Time
	DateTo     time.Time
}

type ExportEventsOutput struct {
	ObjectKey string
	URL       string
	ExpiresAt time.Time
	Count     int64
}

type exportLine struct {
	ID         int64     `json:"id,string"`
	Action     string    `json:"action"`
	ActorEmail string    `json:"actor_email"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ExportEvents writes matching trail events as JSON lines to object
// storage and returns a time-limited download URL. The export is a
// snapshot; events recorded after the call are not included.
func (s *Usecase) ExportEvents(ctx context.Context, in ExportEventsInput) (*ExportEventsOutput, error) {
	ctx, span := s.startSpan(ctx, "ExportEvents")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	filter := entity.EventFilter{
		Action:     in.Action,
		ActorEmail: in.ActorEmail,
		Outcome:    in.Outcome,
		DateFrom:   in.DateFrom,
		DateTo:     in.DateTo,
		Size:       exportBatchSize,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	var count int64
	for page := int32(1); ; page++ {
		filter.Page = page
		events, err := s.repoDB.ListEvents(ctx, filter)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo list audit events", "page", page, "error", err)
			return nil, goerror.NewServer(err)
		}
		if len(events) == 0 {
			break
		}

		for _, ev := range events {
			if err := enc.Encode(exportLine{
				ID:         ev.ID,
				Action:     ev.Action,
				ActorEmail: ev.ActorEmail,
				Outcome:    ev.Outcome,
				Detail:     ev.Detail,
				IPAddress:  ev.IPAddress,
				OccurredAt: ev.OccurredAt,
			}); err != nil {
				slog.ErrorContext(ctx, "failed to encode audit event", "event_id", ev.ID, "error", err)
				return nil, goerror.NewServer(err)
			}
			count++
		}

		if int32(len(events)) < exportBatchSize {
			break
		}
	}

	bucket := s.cfg.GetString("modules.audit.export_bucket")
	key := fmt.Sprintf("exports/%s-%s.jsonl", s.clock.Now().Format("20060102T150405"), s.oid.Generate())

	if _, err := s.store.PutObject(ctx, bucket, key, &buf, storage.PutOptions{
		Size:        int64(buf.Len()),
		ContentType: "application/x-ndjson",
		Metadata:    map[string]string{"events": fmt.Sprintf("%d", count)},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to put export object", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	expiry := s.cfg.GetMinute("modules.audit.export_url_ttl_minutes")
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	url, err := s.store.PresignGet(ctx, bucket, key, expiry)
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign export object", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ExportEventsOutput{
		ObjectKey: key,
		URL:       url,
		ExpiresAt: s.clock.Now().Add(expiry),
		Count:     count,
	}, nil
}
