package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/verimail/internal/auth/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/clock"
	"github.com/shandysiswandi/verimail/internal/pkg/config"
	"github.com/shandysiswandi/verimail/internal/pkg/hash"
	"github.com/shandysiswandi/verimail/internal/pkg/idempotency"
	"github.com/shandysiswandi/verimail/internal/pkg/instrument"
	"github.com/shandysiswandi/verimail/internal/pkg/jwt"
	"github.com/shandysiswandi/verimail/internal/pkg/uid"
	"github.com/shandysiswandi/verimail/internal/pkg/validator"
)

var testNow = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeRepoDB struct {
	getUserByEmail          func(ctx context.Context, email string) (*entity.User, error)
	getUserLoginInfo        func(ctx context.Context, email string) (*entity.UserLoginInfo, error)
	createUser              func(ctx context.Context, user entity.NewUser, passwordHash string) error
	getUnusedOtpRecords     func(ctx context.Context, userID int64) ([]entity.OtpRecord, error)
	createOtpRecord         func(ctx context.Context, rec entity.OtpRecord, invalidatePrior bool) error
	incrementOtpAttempt     func(ctx context.Context, recordID int64) error
	consumeOtpAndVerify     func(ctx context.Context, in entity.ConsumeOtp) error
	deleteExpiredOtpRecords func(ctx context.Context, before time.Time) (int64, error)
}

func (f *fakeRepoDB) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	return f.getUserByEmail(ctx, email)
}

func (f *fakeRepoDB) GetUserLoginInfo(ctx context.Context, email string) (*entity.UserLoginInfo, error) {
	return f.getUserLoginInfo(ctx, email)
}

func (f *fakeRepoDB) CreateUser(ctx context.Context, user entity.NewUser, passwordHash string) error {
	return f.createUser(ctx, user, passwordHash)
}

func (f *fakeRepoDB) GetUnusedOtpRecords(ctx context.Context, userID int64) ([]entity.OtpRecord, error) {
	return f.getUnusedOtpRecords(ctx, userID)
}

func (f *fakeRepoDB) CreateOtpRecord(ctx context.Context, rec entity.OtpRecord, invalidatePrior bool) error {
	return f.createOtpRecord(ctx, rec, invalidatePrior)
}

func (f *fakeRepoDB) IncrementOtpAttempt(ctx context.Context, recordID int64) error {
	return f.incrementOtpAttempt(ctx, recordID)
}

func (f *fakeRepoDB) ConsumeOtpAndVerifyEmail(ctx context.Context, in entity.ConsumeOtp) error {
	return f.consumeOtpAndVerify(ctx, in)
}

func (f *fakeRepoDB) DeleteExpiredOtpRecords(ctx context.Context, before time.Time) (int64, error) {
	return f.deleteExpiredOtpRecords(ctx, before)
}

type fakeMessaging struct {
	mu sync.Mutex

	otpRequested  []OtpRequestedEvent
	emailVerified []EmailVerifiedEvent
	auditTrails   []AuditTrailEvent

	otpRequestedErr  error
	emailVerifiedErr error
}

func (f *fakeMessaging) PublishOtpRequested(_ context.Context, msg OtpRequestedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.otpRequestedErr != nil {
		return f.otpRequestedErr
	}
	f.otpRequested = append(f.otpRequested, msg)
	return nil
}

func (f *fakeMessaging) PublishEmailVerified(_ context.Context, msg EmailVerifiedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.emailVerifiedErr != nil {
		return f.emailVerifiedErr
	}
	f.emailVerified = append(f.emailVerified, msg)
	return nil
}

func (f *fakeMessaging) PublishAuditTrail(_ context.Context, msg AuditTrailEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.auditTrails = append(f.auditTrails, msg)
	return nil
}

func (f *fakeMessaging) lastAudit(t *testing.T) AuditTrailEvent {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.auditTrails) == 0 {
		t.Fatalf("expected at least one audit trail event")
	}
	return f.auditTrails[len(f.auditTrails)-1]
}

// fakeIdempotency overrides Exec only; the embedded interface panics
// on any other call, which no usecase should make.
type fakeIdempotency struct {
	idempotency.Idempotency

	execErr error
}

func (f *fakeIdempotency) Exec(ctx context.Context, _ string, fn func(context.Context) error, _ ...idempotency.Option) error {
	if f.execErr != nil {
		return f.execErr
	}
	return fn(ctx)
}

// fakeConfig overrides only the getters the usecases read; any other
// call panics through the nil embedded interface, which is what we want
// in tests.
type fakeConfig struct {
	config.Config

	minutes map[string]time.Duration
	bools   map[string]bool
	strings map[string]string
	ints    map[string]int
}

func (f *fakeConfig) GetMinute(key string) time.Duration { return f.minutes[key] }
func (f *fakeConfig) GetBool(key string) bool            { return f.bools[key] }
func (f *fakeConfig) GetString(key string) string        { return f.strings[key] }
func (f *fakeConfig) GetInt(key string) int              { return f.ints[key] }

type seqNumberID struct {
	mu   sync.Mutex
	next int64
}

func (s *seqNumberID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	return s.next
}

type fixedCodes struct {
	code string
	err  error
}

func (f *fixedCodes) Generate() (string, error) {
	return f.code, f.err
}

const (
	testJWTSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	testCode      = "482913"
)

func newTestValidator(t *testing.T) validator.Validator {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}
	return v
}

func newTestJWT(t *testing.T, clk clock.Clocker) jwt.JWT {
	t.Helper()

	j, err := jwt.NewHS512(jwt.Config{
		Secret:     []byte(testJWTSecret),
		Issuer:     "verimail-test",
		Audiences:  []string{"verimail"},
		TTLMinutes: 15 * time.Minute,
		Clock:      clk,
		UUID:       uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("failed to build jwt: %v", err)
	}
	return j
}

func newTestUsecase(t *testing.T, db *fakeRepoDB, msg *fakeMessaging) (*Usecase, hash.Hash) {
	t.Helper()

	clk := &fakeClock{now: testNow}
	hmac := hash.NewHMACSHA256("test-hmac-secret")

	uc := New(Dependency{
		RepoDB:        db,
		RepoMessaging: msg,
		Idempotency:   &fakeIdempotency{},
		Validator:     newTestValidator(t),
		Config: &fakeConfig{
			minutes: map[string]time.Duration{
				"modules.auth.otp_ttl_minutes": 10 * time.Minute,
			},
			bools: map[string]bool{
				"modules.auth.otp_invalidate_prior": true,
			},
		},
		HMAC:       hmac,
		Bcrypt:     hash.NewBcrypt(4, ""),
		UID:        &seqNumberID{},
		Codes:      &fixedCodes{code: testCode},
		Clock:      clk,
		JWT:        newTestJWT(t, clk),
		Instrument: instrument.NewNoop(),
	})

	return uc, hmac
}

func mustHash(t *testing.T, h hash.Hash, plaintext string) string {
	t.Helper()

	hashed, err := h.Hash(plaintext)
	if err != nil {
		t.Fatalf("failed to hash %q: %v", plaintext, err)
	}
	return string(hashed)
}
