package usecase

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/shandysiswandi/verimail/internal/notification/entity"
)

type ConsumeOtpRequestedInput struct {
	UserID    int64  `validate:"required,gt=0"`
	Email     string `validate:"required,email"`
	FirstName string `validate:"required"`
	Code      string `validate:"required,len=6,numeric"`
	ExpiresAt time.Time
}

// ConsumeOtpRequested emails a freshly issued verification code to its
// owner. Invalid payloads are dropped, not retried.
func (s *Usecase) ConsumeOtpRequested(ctx context.Context, in ConsumeOtpRequestedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOtpRequested")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	expiresMinutes := int(math.Round(in.ExpiresAt.Sub(s.clock.Now()).Minutes()))
	if expiresMinutes < 1 {
		expiresMinutes = 1
	}

	data := s.baseEmailTemplateData()
	data["first_name"] = in.FirstName
	data["code"] = in.Code
	data["expires_minutes"] = expiresMinutes

	s.sendEmail(ctx, sendEmailInput{
		Recipient:    in.Email,
		Kind:         entity.MailKindVerificationCode,
		Subject:      verificationCodeSubject,
		Template:     verificationCodeTemplate,
		TemplateData: data,
	})

	return nil
}
