package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/verimail/internal/notification/entity"
)

type ConsumeEmailVerifiedInput struct {
	UserID    int64  `validate:"required,gt=0"`
	Email     string `validate:"required,email"`
	FirstName string `validate:"required"`
}

// ConsumeEmailVerified emails a welcome message after a successful
// verification.
func (s *Usecase) ConsumeEmailVerified(ctx context.Context, in ConsumeEmailVerifiedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeEmailVerified")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["first_name"] = in.FirstName

	s.sendEmail(ctx, sendEmailInput{
		Recipient:    in.Email,
		Kind:         entity.MailKindWelcome,
		Subject:      welcomeSubject,
		Template:     welcomeTemplate,
		TemplateData: data,
	})

	return nil
}
