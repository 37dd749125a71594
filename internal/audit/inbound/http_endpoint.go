package inbound

import (
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/verimail/internal/audit/usecase"
	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
	"github.com/shandysiswandi/verimail/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for querying and exporting the
// audit trail.
type HTTPEndpoint struct {
	uc uc
}

// QueryEvents returns a page of audit trail events.
// @Summary List audit events
// @Description Returns a paginated list of audit events, newest first, with optional filters.
// @Tags Audit
// @Security BearerAuth
// @Produce json
// @Param action query string false "Filter by action name"
// @Param actor_email query string false "Filter by actor email"
// @Param outcome query string false "Filter by outcome (success|failure)"
// @Param date_from query string false "Filter by occurred_at >= date_from (RFC3339)"
// @Param date_to query string false "Filter by occurred_at <= date_to (RFC3339)"
// @Param size query int false "Pagination size"
// @Param page query int false "Pagination page"
// @Success 200 {object} router.successResponse{data=EventsResponse} "Event list"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/audit/events [get]
func (h *HTTPEndpoint) QueryEvents(r *router.Request) (any, error) {
	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}

	dateFrom, err := r.GetQueryDate("date_from", time.RFC3339)
	if err != nil {
		return nil, err
	}

	dateTo, err := r.GetQueryDate("date_to", time.RFC3339)
	if err != nil {
		return nil, err
	}

	if !dateFrom.IsZero() && !dateTo.IsZero() && dateFrom.After(dateTo) {
		return nil, goerror.NewInvalidFormat("date_from must be before date_to")
	}

	resp, err := h.uc.QueryEvents(r.Context(), usecase.QueryEventsInput{
		Action:     r.GetQuery("action"),
		ActorEmail: r.GetQuery("actor_email"),
		Outcome:    r.GetQuery("outcome"),
		DateFrom:   dateFrom,
		DateTo:     dateTo,
		Size:       size,
		Page:       page,
	})
	if err != nil {
		return nil, err
	}

	return EventsResponse{
		total: resp.Total,
		size:  resp.Size,
		page:  resp.Page,
		Events: lo.Map(resp.Events, func(ev usecase.Event, _ int) EventResponse {
			return EventResponse{
				ID:         ev.ID,
				Action:     ev.Action,
				ActorEmail: ev.ActorEmail,
				Outcome:    ev.Outcome,
				Detail:     ev.Detail,
				IPAddress:  ev.IPAddress,
				OccurredAt: ev.OccurredAt,
			}
		}),
	}, nil
}

// ExportEvents writes matching audit events to object storage.
// @Summary Export audit events
// @Description Exports matching audit events as JSON lines to object storage and returns a time-limited download URL.
// @Tags Audit
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body ExportEventsRequest true "Export filter payload"
// @Success 200 {object} router.successResponse{data=ExportEventsResponse} "Export result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/audit/exports [post]
func (h *HTTPEndpoint) ExportEvents(r *router.Request) (any, error) {
	var req ExportEventsRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if !req.DateFrom.IsZero() && !req.DateTo.IsZero() && req.DateFrom.After(req.DateTo) {
		return nil, goerror.NewInvalidFormat("date_from must be before date_to")
	}

	resp, err := h.uc.ExportEvents(r.Context(), usecase.ExportEventsInput{
		Action:     req.Action,
		ActorEmail: req.ActorEmail,
		Outcome:    req.Outcome,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
	})
	if err != nil {
		return nil, err
	}

	return ExportEventsResponse{
		ObjectKey: resp.ObjectKey,
		URL:       resp.URL,
		ExpiresAt: resp.ExpiresAt,
		Count:     resp.Count,
	}, nil
}
