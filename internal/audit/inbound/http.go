package inbound

import (
	"context"

	"github.com/shandysiswandi/verimail/internal/audit/usecase"
	"github.com/shandysiswandi/verimail/internal/pkg/router"
)

type uc interface {
	ConsumeAuditTrail(ctx context.Context, in usecase.ConsumeAuditTrailInput) error
	QueryEvents(ctx context.Context, in usecase.QueryEventsInput) (*usecase.QueryEventsOutput, error)
	ExportEvents(ctx context.Context, in usecase.ExportEventsInput) (*usecase.ExportEventsOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// need authenticated
	r.GET("/api/v1/audit/events", end.QueryEvents)
	r.POST("/api/v1/audit/exports", end.ExportEvents)
}
