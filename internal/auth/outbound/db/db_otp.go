package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/verimail/internal/auth/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
)

func (s *DB) GetUnusedOtpRecords(ctx context.Context, userID int64) (_ []entity.OtpRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetUnusedOtpRecords")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT id, user_id, code_hash, session_token, expires_at, is_used, attempt_count, created_at
		FROM auth_otp_records
		WHERE user_id = $1 AND is_used = FALSE
		ORDER BY created_at DESC`

	rows, err := s.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var records []entity.OtpRecord
	for rows.Next() {
		var r entity.OtpRecord
		if err = rows.Scan(
			&r.ID, &r.UserID, &r.CodeHash, &r.SessionToken,
			&r.ExpiresAt, &r.IsUsed, &r.AttemptCount, &r.CreatedAt,
		); err != nil {
			return nil, s.mapError(err)
		}
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return records, nil
}

// CreateOtpRecord inserts a new record. When invalidatePrior is set the
// user's outstanding unused records are marked used in the same
// transaction, so at most one record stays active.
func (s *DB) CreateOtpRecord(ctx context.Context, rec entity.OtpRecord, invalidatePrior bool) (err error) {
	ctx, span := s.startSpan(ctx, "CreateOtpRecord")
	defer func() { s.endSpan(span, err) }()

	err = s.withTx(ctx, func(ctx context.Context, tx txExecutor) error {
		if invalidatePrior {
			const invalidate = `
				UPDATE auth_otp_records
				SET is_used = TRUE
				WHERE user_id = $1 AND is_used = FALSE`
			if _, err := tx.Exec(ctx, invalidate, rec.UserID); err != nil {
				return s.mapError(err)
			}
		}

		const insert = `
			INSERT INTO auth_otp_records (id, user_id, code_hash, session_token, expires_at, is_used, attempt_count)
			VALUES ($1, $2, $3, $4, $5, FALSE, 0)`
		if _, err := tx.Exec(ctx, insert, rec.ID, rec.UserID, rec.CodeHash, rec.SessionToken, rec.ExpiresAt); err != nil {
			return s.mapError(err)
		}

		return nil
	})

	return err
}

func (s *DB) IncrementOtpAttempt(ctx context.Context, recordID int64) (err error) {
	ctx, span := s.startSpan(ctx, "IncrementOtpAttempt")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE auth_otp_records
		SET attempt_count = attempt_count + 1
		WHERE id = $1`

	tag, err := s.conn.Exec(ctx, query, recordID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// ConsumeOtpAndVerifyEmail marks the record used and the user verified
// in one transaction. The record guard keeps consumption exactly-once
// under concurrent verification.
func (s *DB) ConsumeOtpAndVerifyEmail(ctx context.Context, in entity.ConsumeOtp) (err error) {
	ctx, span := s.startSpan(ctx, "ConsumeOtpAndVerifyEmail")
	defer func() { s.endSpan(span, err) }()

	err = s.withTx(ctx, func(ctx context.Context, tx txExecutor) error {
		const consume = `
			UPDATE auth_otp_records
			SET is_used = TRUE
			WHERE id = $1 AND is_used = FALSE`
		tag, err := tx.Exec(ctx, consume, in.RecordID)
		if err != nil {
			return s.mapError(err)
		}
		if tag.RowsAffected() == 0 {
			return goerror.ErrNotFound
		}

		const verify = `
			UPDATE auth_users
			SET email_verified = TRUE, updated_at = NOW()
			WHERE id = $1`
		if _, err := tx.Exec(ctx, verify, in.UserID); err != nil {
			return s.mapError(err)
		}

		return nil
	})

	return err
}

func (s *DB) DeleteExpiredOtpRecords(ctx context.Context, before time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpiredOtpRecords")
	defer func() { s.endSpan(span, err) }()

	const query = `DELETE FROM auth_otp_records WHERE expires_at < $1`

	tag, err := s.conn.Exec(ctx, query, before)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
