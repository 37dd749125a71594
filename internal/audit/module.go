package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/verimail/internal/audit/inbound"
	"github.com/shandysiswandi/verimail/internal/audit/outbound/db"
	"github.com/shandysiswandi/verimail/internal/audit/usecase"
	"github.com/shandysiswandi/verimail/internal/pkg/clock"
	"github.com/shandysiswandi/verimail/internal/pkg/config"
	"github.com/shandysiswandi/verimail/internal/pkg/goroutine"
	"github.com/shandysiswandi/verimail/internal/pkg/instrument"
	"github.com/shandysiswandi/verimail/internal/pkg/messaging"
	"github.com/shandysiswandi/verimail/internal/pkg/router"
	"github.com/shandysiswandi/verimail/internal/pkg/storage"
	"github.com/shandysiswandi/verimail/internal/pkg/uid"
	"github.com/shandysiswandi/verimail/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context
	DBConn     *pgxpool.Pool
	Messaging  messaging.Broker
	Storage    storage.Storage
	Config     config.Config
	Instrument instrument.Instrumentation
	UID        uid.NumberID
	UUID       uid.StringID
	OID        uid.StringID
	Clock      clock.Clocker
	Goroutine  *goroutine.Manager
	Validator  validator.Validator
	Router     *router.Router
}

func New(dep Dependency) error {
	dbAudit := db.NewDB(dep.DBConn, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:     dbAudit,
		Storage:    dep.Storage,
		Config:     dep.Config,
		Validator:  dep.Validator,
		UID:        dep.UID,
		OID:        dep.OID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
