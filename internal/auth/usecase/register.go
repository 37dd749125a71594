package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/verimail/internal/auth/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
)

type RegisterInput struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required,password"`
	FirstName string `validate:"required,min=2,max=50,alphaspace"`
	LastName  string `validate:"required,min=2,max=50,alphaspace"`
	ClientIP  string `validate:"-"`
}

type RegisterOutput struct {
	ID            int64
	Email         string
	FirstName     string
	LastName      string
	EmailVerified bool
}

// Register creates an unverified account. It never issues a code; that
// is a separate explicit call.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	_, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if err == nil {
		s.audit(ctx, auditActionRegister, in.Email, auditOutcomeFailure, "email already registered", in.ClientIP)
		return nil, goerror.NewBusiness("email already registered", goerror.CodeConflict)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	hashedPassword, err := s.bcrypt.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	newUser := entity.NewUser{
		ID:        s.uid.Generate(),
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	if err := s.repoDB.CreateUser(ctx, newUser, string(hashedPassword)); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			s.audit(ctx, auditActionRegister, in.Email, auditOutcomeFailure, "email already registered", in.ClientIP)
			return nil, goerror.NewBusiness("email already registered", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo create user", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.audit(ctx, auditActionRegister, in.Email, auditOutcomeSuccess, "user registered", in.ClientIP)

	return &RegisterOutput{
		ID:            newUser.ID,
		Email:         newUser.Email,
		FirstName:     newUser.FirstName,
		LastName:      newUser.LastName,
		EmailVerified: false,
	}, nil
}
