package inbound

import (
	"context"

	"github.com/shandysiswandi/verimail/internal/auth/usecase"
	"github.com/shandysiswandi/verimail/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	RequestOtp(ctx context.Context, in usecase.RequestOtpInput) (*usecase.RequestOtpOutput, error)
	VerifyOtp(ctx context.Context, in usecase.VerifyOtpInput) (*usecase.VerifyOtpOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Account lifecycle
	r.POST("/api/v1/auth/register", end.Register)
	r.POST("/api/v1/auth/login", end.Login)

	// Email verification codes
	r.POST("/api/v1/auth/otp/request", end.RequestOtp)
	r.POST("/api/v1/auth/otp/verify", end.VerifyOtp)
}
