package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/verimail/internal/auth/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/clock"
	"github.com/shandysiswandi/verimail/internal/pkg/config"
	"github.com/shandysiswandi/verimail/internal/pkg/hash"
	"github.com/shandysiswandi/verimail/internal/pkg/idempotency"
	"github.com/shandysiswandi/verimail/internal/pkg/instrument"
	"github.com/shandysiswandi/verimail/internal/pkg/jwt"
	"github.com/shandysiswandi/verimail/internal/pkg/otp"
	"github.com/shandysiswandi/verimail/internal/pkg/uid"
	"github.com/shandysiswandi/verimail/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type OtpRequestedEvent struct {
	UserID    int64
	Email     string
	FirstName string
	Code      string
	ExpiresAt time.Time
}

type EmailVerifiedEvent struct {
	UserID    int64
	Email     string
	FirstName string
}

type AuditTrailEvent struct {
	Action     string
	ActorEmail string
	Outcome    string
	Detail     string
	IPAddress  string
	OccurredAt time.Time
}

type repoMessaging interface {
	PublishOtpRequested(ctx context.Context, msg OtpRequestedEvent) error
	PublishEmailVerified(ctx context.Context, msg EmailVerifiedEvent) error
	PublishAuditTrail(ctx context.Context, msg AuditTrailEvent) error
}

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserLoginInfo(ctx context.Context, email string) (*entity.UserLoginInfo, error)
	CreateUser(ctx context.Context, user entity.NewUser, passwordHash string) error

	GetUnusedOtpRecords(ctx context.Context, userID int64) ([]entity.OtpRecord, error)
	CreateOtpRecord(ctx context.Context, rec entity.OtpRecord, invalidatePrior bool) error
	IncrementOtpAttempt(ctx context.Context, recordID int64) error
	ConsumeOtpAndVerifyEmail(ctx context.Context, in entity.ConsumeOtp) error
	DeleteExpiredOtpRecords(ctx context.Context, before time.Time) (int64, error)
}

const (
	auditActionRegister   = "auth.register"
	auditActionRequestOtp = "auth.otp.request"
	auditActionVerifyOtp  = "auth.otp.verify"
	auditActionLogin      = "auth.login"

	auditOutcomeSuccess = "success"
	auditOutcomeFailure = "failure"
)

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	bcrypt        hash.Hash
	uid           uid.NumberID
	codes         otp.Generator
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Bcrypt        hash.Hash
	UID           uid.NumberID
	Codes         otp.Generator
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		bcrypt:        dep.Bcrypt,
		uid:           dep.UID,
		codes:         dep.Codes,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

// audit records a trail event. Failures never propagate so an audit
// outage cannot block the primary flow.
func (s *Usecase) audit(ctx context.Context, action, actorEmail, outcome, detail, ip string) {
	err := s.repoMessaging.PublishAuditTrail(ctx, AuditTrailEvent{
		Action:     action,
		ActorEmail: actorEmail,
		Outcome:    outcome,
		Detail:     detail,
		IPAddress:  ip,
		OccurredAt: s.clock.Now(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish audit trail", "action", action, "error", err)
	}
}
