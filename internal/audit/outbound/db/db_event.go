package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/shandysiswandi/verimail/internal/audit/entity"
)

func (s *DB) CreateEvent(ctx context.Context, ev entity.AuditEvent) (err error) {
	ctx, span := s.startSpan(ctx, "CreateEvent")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO audit_events (id, action, actor_email, outcome, detail, ip_address, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = s.conn.Exec(ctx, query,
		ev.ID, ev.Action, ev.ActorEmail, ev.Outcome, ev.Detail, ev.IPAddress, ev.OccurredAt,
	)
	if err != nil {
		return s.mapError(err)
	}

	return nil
}

// filterClause builds the WHERE clause shared by listing and counting
// so both always see the same result set.
func filterClause(filter entity.EventFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Action != "" {
		add("action = $%d", filter.Action)
	}
	if filter.ActorEmail != "" {
		add("actor_email = $%d", filter.ActorEmail)
	}
	if filter.Outcome != "" {
		add("outcome = $%d", filter.Outcome)
	}
	if !filter.DateFrom.IsZero() {
		add("occurred_at >= $%d", filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		add("occurred_at <= $%d", filter.DateTo)
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *DB) ListEvents(ctx context.Context, filter entity.EventFilter) (_ []entity.AuditEvent, err error) {
	ctx, span := s.startSpan(ctx, "ListEvents")
	defer func() { s.endSpan(span, err) }()

	where, args := filterClause(filter)

	query := `
		SELECT id, action, actor_email, outcome, detail, ip_address, occurred_at, created_at
		FROM audit_events` + where + `
		ORDER BY occurred_at DESC`

	if filter.Size > 0 {
		args = append(args, filter.Size)
		query += fmt.Sprintf(" LIMIT $%d", len(args))

		page := filter.Page
		if page < 1 {
			page = 1
		}
		args = append(args, (page-1)*filter.Size)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var events []entity.AuditEvent
	for rows.Next() {
		var ev entity.AuditEvent
		if err = rows.Scan(
			&ev.ID, &ev.Action, &ev.ActorEmail, &ev.Outcome,
			&ev.Detail, &ev.IPAddress, &ev.OccurredAt, &ev.CreatedAt,
		); err != nil {
			return nil, s.mapError(err)
		}
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return events, nil
}

func (s *DB) CountEvents(ctx context.Context, filter entity.EventFilter) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountEvents")
	defer func() { s.endSpan(span, err) }()

	where, args := filterClause(filter)

	var total int64
	err = s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM audit_events`+where, args...).Scan(&total)
	if err != nil {
		return 0, s.mapError(err)
	}

	return total, nil
}
