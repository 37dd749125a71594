package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/verimail/internal/pkg/idempotency"
)

const sweepLockKey = "auth:otp_expiry_sweep"

// RunExpirySweeper periodically deletes expired otp records. The sweep
// runs off the request path and is guarded by the idempotency tracker
// so only one instance performs it per interval.
func (s *Usecase) RunExpirySweeper(ctx context.Context) error {
	interval := s.cfg.GetMinute("modules.auth.otp_sweep_interval_minutes")
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweepExpired(ctx, interval)
		}
	}
}

func (s *Usecase) sweepExpired(ctx context.Context, interval time.Duration) {
	ctx, span := s.startSpan(ctx, "SweepExpiredOtpRecords")
	defer span.End()

	err := s.idemp.Exec(ctx, sweepLockKey, func(ctx context.Context) error {
		deleted, err := s.repoDB.DeleteExpiredOtpRecords(ctx, s.clock.Now())
		if err != nil {
			return err
		}

		if deleted > 0 {
			slog.InfoContext(ctx, "swept expired otp records", "deleted", deleted)
		}
		return nil
	}, idempotency.WithLockDuration(time.Minute), idempotency.WithStateTTL(interval))

	if errors.Is(err, idempotency.ErrAlreadyInProgress) ||
		errors.Is(err, idempotency.ErrAlreadyCompleted) ||
		errors.Is(err, idempotency.ErrAlreadyFailed) {
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to sweep expired otp records", "error", err)
	}
}
