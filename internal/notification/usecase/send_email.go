package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/verimail/internal/notification/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/mail"
	"github.com/shandysiswandi/verimail/internal/pkg/valueobject"
)

type sendEmailInput struct {
	Recipient    string
	Kind         entity.MailKind
	Subject      string
	Template     string
	TemplateData map[string]any
}

// sendEmail renders and delivers one message, recording the outcome in
// a delivery log. Delivery retries with fibonacci backoff; the consumer
// flow never fails because of a send error.
func (s *Usecase) sendEmail(ctx context.Context, in sendEmailInput) {
	body, err := s.renderTemplate(in.Kind.String(), in.Template, in.TemplateData)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email body", "recipient", in.Recipient, "kind", in.Kind.String(), "error", err)
		return
	}

	logID := s.uid.Generate()
	if err := s.repoDB.CreateDeliveryLog(ctx, entity.CreateDeliveryLog{
		ID:        logID,
		Recipient: in.Recipient,
		Kind:      in.Kind,
		Status:    entity.DeliveryStatusQueued,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create delivery log", "recipient", in.Recipient, "kind", in.Kind.String(), "error", err)
		return
	}

	maxRetries := s.cfg.GetInt("modules.notification.send_max_retries")
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var attempts int32
	b := retry.NewFibonacci(500 * time.Millisecond)
	b = retry.WithCappedDuration(10*time.Second, b)
	b = retry.WithMaxRetries(uint64(maxRetries), b)

	sendErr := retry.Do(ctx, b, func(ctx context.Context) error {
		attempts++
		if err := s.repoMail.Send(ctx, mail.Message{
			To:       []string{in.Recipient},
			Subject:  in.Subject,
			HTMLBody: body,
		}); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})

	up := entity.UpdateDeliveryLog{
		ID:               logID,
		Status:           entity.DeliveryStatusSent,
		Attempts:         attempts,
		ProviderResponse: valueobject.JSONMap{},
	}
	if sendErr != nil {
		up.Status = entity.DeliveryStatusFailed
		up.ProviderResponse = valueobject.JSONMap{"error": sendErr.Error()}
		slog.ErrorContext(ctx, "failed to send email", "log_id", logID, "recipient", in.Recipient, "kind", in.Kind.String(), "error", sendErr)
	}

	if err := s.repoDB.UpdateDeliveryLog(ctx, up); err != nil {
		slog.ErrorContext(ctx, "failed to repo update delivery log", "log_id", logID, "error", err)
	}
}
