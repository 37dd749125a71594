package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/verimail/internal/auth/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
	"github.com/shandysiswandi/verimail/internal/pkg/otp"
)

type VerifyOtpInput struct {
	Email    string `validate:"required,email"`
	Code     string `validate:"required"`
	ClientIP string `validate:"-"`
}

type VerifyOtpOutput struct {
	AccessToken   string
	ID            int64
	Email         string
	FirstName     string
	LastName      string
	EmailVerified bool
}

// invalidOtp is the single error for malformed, mismatched, expired and
// exhausted codes so callers learn nothing about record state.
func invalidOtp() error {
	return goerror.NewBusiness("invalid verification code", goerror.CodeUnauthorized)
}

// VerifyOtp consumes a matching active code and marks the email
// verified. A failed comparison against an eligible record increments
// that record's attempt counter; at MaxOtpAttempts the record goes
// permanently inert.
func (s *Usecase) VerifyOtp(ctx context.Context, in VerifyOtpInput) (*VerifyOtpOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOtp")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	// Format check before any store access; malformed input is rejected
	// uniformly whether or not the user exists.
	if !otp.IsWellFormed(in.Code) {
		s.audit(ctx, auditActionVerifyOtp, in.Email, auditOutcomeFailure, "malformed code", in.ClientIP)
		return nil, invalidOtp()
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		s.audit(ctx, auditActionVerifyOtp, in.Email, auditOutcomeFailure, "user not found", in.ClientIP)
		return nil, goerror.NewBusiness("user not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	records, err := s.repoDB.GetUnusedOtpRecords(ctx, user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get unused otp records", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	var matched *entity.OtpRecord
	for i := range records {
		rec := records[i]
		if rec.StateAt(now) != entity.OtpStateActive {
			continue
		}

		if s.hmac.Verify(rec.CodeHash, in.Code) {
			matched = &rec
			break
		}

		if err := s.repoDB.IncrementOtpAttempt(ctx, rec.ID); err != nil {
			slog.ErrorContext(ctx, "failed to repo increment otp attempt", "record_id", rec.ID, "error", err)
		}
	}

	if matched == nil {
		s.audit(ctx, auditActionVerifyOtp, in.Email, auditOutcomeFailure, "no active code matched", in.ClientIP)
		return nil, invalidOtp()
	}

	if err := s.repoDB.ConsumeOtpAndVerifyEmail(ctx, entity.ConsumeOtp{
		RecordID: matched.ID,
		UserID:   user.ID,
	}); err != nil {
		// A concurrent verifier consumed the record after the match;
		// to this caller the code is simply no longer valid.
		if errors.Is(err, goerror.ErrNotFound) {
			s.audit(ctx, auditActionVerifyOtp, in.Email, auditOutcomeFailure, "code already consumed", in.ClientIP)
			return nil, invalidOtp()
		}
		slog.ErrorContext(ctx, "failed to repo consume otp and verify email", "record_id", matched.ID, "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	accessToken, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.audit(ctx, auditActionVerifyOtp, in.Email, auditOutcomeSuccess, "email verified", in.ClientIP)

	if err := s.repoMessaging.PublishEmailVerified(ctx, EmailVerifiedEvent{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish email verified", "user_id", user.ID, "error", err)
	}

	return &VerifyOtpOutput{
		AccessToken:   accessToken,
		ID:            user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		EmailVerified: true,
	}, nil
}
