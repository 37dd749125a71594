package inbound

import (
	"context"

	"github.com/shandysiswandi/verimail/internal/notification/usecase"
)

type uc interface {
	ConsumeOtpRequested(ctx context.Context, in usecase.ConsumeOtpRequestedInput) error
	ConsumeEmailVerified(ctx context.Context, in usecase.ConsumeEmailVerifiedInput) error
}
