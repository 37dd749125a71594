package usecase

import (
	"context"

	"github.com/shandysiswandi/verimail/internal/audit/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/clock"
	"github.com/shandysiswandi/verimail/internal/pkg/config"
	"github.com/shandysiswandi/verimail/internal/pkg/instrument"
	"github.com/shandysiswandi/verimail/internal/pkg/storage"
	"github.com/shandysiswandi/verimail/internal/pkg/uid"
	"github.com/shandysiswandi/verimail/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateEvent(ctx context.Context, ev entity.AuditEvent) error
	ListEvents(ctx context.Context, filter entity.EventFilter) ([]entity.AuditEvent, error)
	CountEvents(ctx context.Context, filter entity.EventFilter) (int64, error)
}

type Usecase struct {
	repoDB    repoDB
	store     storage.Storage
	cfg       config.Config
	validator validator.Validator
	uid       uid.NumberID
	oid       uid.StringID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Storage    storage.Storage
	Config     config.Config
	Validator  validator.Validator
	UID        uid.NumberID
	OID        uid.StringID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		store:     dep.Storage,
		cfg:       dep.Config,
		validator: dep.Validator,
		uid:       dep.UID,
		oid:       dep.OID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("audit.usecase").Start(ctx, name)
}
