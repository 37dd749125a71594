package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	ClientIP string `validate:"-"`
}

type LoginOutput struct {
	AccessToken   string
	ID            int64
	Email         string
	FirstName     string
	LastName      string
	EmailVerified bool
}

// Login exchanges credentials for a session token. Every failure path
// records the same generic audit event; the caller still receives the
// specific error.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserLoginInfo(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		s.audit(ctx, auditActionLogin, in.Email, auditOutcomeFailure, "login failed", in.ClientIP)
		return nil, goerror.NewBusiness("user not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user login info", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.bcrypt.Verify(user.Password, in.Password) {
		slog.WarnContext(ctx, "password does not match", "user_id", user.ID)
		s.audit(ctx, auditActionLogin, in.Email, auditOutcomeFailure, "login failed", in.ClientIP)
		return nil, goerror.NewBusiness("invalid credentials", goerror.CodeUnauthorized)
	}

	if !user.EmailVerified {
		slog.WarnContext(ctx, "user email is not verified", "user_id", user.ID)
		s.audit(ctx, auditActionLogin, in.Email, auditOutcomeFailure, "login failed", in.ClientIP)
		return nil, goerror.NewBusiness("email not verified", goerror.CodeForbidden)
	}

	accessToken, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.audit(ctx, auditActionLogin, in.Email, auditOutcomeSuccess, "login succeeded", in.ClientIP)

	return &LoginOutput{
		AccessToken:   accessToken,
		ID:            user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		EmailVerified: user.EmailVerified,
	}, nil
}
