package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/verimail/internal/auth/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
)

type RequestOtpInput struct {
	Email    string `validate:"required,email"`
	ClientIP string `validate:"-"`
}

type RequestOtpOutput struct {
	// SessionToken correlates this issuance; it is not the login token.
	SessionToken string
	ExpiresAt    time.Time
}

// RequestOtp issues a fresh code for the user's email channel. The
// record is committed before the delivery event is published and stays
// committed when publishing fails.
func (s *Usecase) RequestOtp(ctx context.Context, in RequestOtpInput) (*RequestOtpOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestOtp")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		s.audit(ctx, auditActionRequestOtp, in.Email, auditOutcomeFailure, "user not found", in.ClientIP)
		return nil, goerror.NewBusiness("user not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	code, err := s.codes.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification code", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash verification code", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	sessionToken, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp session token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	expiresAt := s.clock.Now().Add(s.cfg.GetMinute("modules.auth.otp_ttl_minutes"))
	rec := entity.OtpRecord{
		ID:           s.uid.Generate(),
		UserID:       user.ID,
		CodeHash:     string(codeHash),
		SessionToken: sessionToken,
		ExpiresAt:    expiresAt,
	}

	invalidatePrior := s.cfg.GetBool("modules.auth.otp_invalidate_prior")
	if err := s.repoDB.CreateOtpRecord(ctx, rec, invalidatePrior); err != nil {
		slog.ErrorContext(ctx, "failed to repo create otp record", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishOtpRequested(ctx, OtpRequestedEvent{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		Code:      code,
		ExpiresAt: expiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish otp requested", "user_id", user.ID, "error", err)
		s.audit(ctx, auditActionRequestOtp, in.Email, auditOutcomeFailure, "code delivery failed", in.ClientIP)
		return nil, goerror.NewServerMsg(err, "failed to deliver verification code")
	}

	s.audit(ctx, auditActionRequestOtp, in.Email, auditOutcomeSuccess, "verification code issued", in.ClientIP)

	return &RequestOtpOutput{
		SessionToken: sessionToken,
		ExpiresAt:    expiresAt,
	}, nil
}
