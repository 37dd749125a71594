package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/verimail/internal/pkg/idempotency"
)

func TestSweepExpired(t *testing.T) {

	t.Run("DeletesUpToNow", func(t *testing.T) {

		// Arrange
		var before time.Time
		db := &fakeRepoDB{
			deleteExpiredOtpRecords: func(_ context.Context, b time.Time) (int64, error) {
				before = b
				return 3, nil
			},
		}
		uc, _ := newTestUsecase(t, db, &fakeMessaging{})

		// Act
		uc.sweepExpired(context.Background(), time.Minute)

		// Assert
		if !before.Equal(testNow) {
			t.Fatalf("expected deletion cutoff %v, got %v", testNow, before)
		}
	})

	t.Run("SkipsWhenAnotherInstanceHoldsTheLock", func(t *testing.T) {

		// Arrange
		deleted := false
		db := &fakeRepoDB{
			deleteExpiredOtpRecords: func(_ context.Context, _ time.Time) (int64, error) {
				deleted = true
				return 0, nil
			},
		}
		uc, _ := newTestUsecase(t, db, &fakeMessaging{})
		uc.idemp = &fakeIdempotency{execErr: idempotency.ErrAlreadyInProgress}

		// Act
		uc.sweepExpired(context.Background(), time.Minute)

		// Assert
		if deleted {
			t.Fatalf("expected no deletion while the lock is held elsewhere")
		}
	})
}
