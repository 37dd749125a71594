package db

import (
	"context"

	"github.com/shandysiswandi/verimail/internal/notification/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
)

func (s *DB) CreateDeliveryLog(ctx context.Context, dl entity.CreateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO delivery_logs (id, recipient, kind, status)
		VALUES ($1, $2, $3, $4)`

	_, err = s.conn.Exec(ctx, query, dl.ID, dl.Recipient, dl.Kind.String(), dl.Status)
	if err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) UpdateDeliveryLog(ctx context.Context, up entity.UpdateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	const query = `
		UPDATE delivery_logs
		SET status = $2, attempts = $3, provider_response = $4, updated_at = NOW()
		WHERE id = $1`

	tag, err := s.conn.Exec(ctx, query, up.ID, up.Status, up.Attempts, up.ProviderResponse)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
