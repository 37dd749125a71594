package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/verimail/internal/notification/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/config"
	"github.com/shandysiswandi/verimail/internal/pkg/instrument"
	"github.com/shandysiswandi/verimail/internal/pkg/mail"
	"github.com/shandysiswandi/verimail/internal/pkg/validator"
)

var testNow = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeRepoDB struct {
	mu      sync.Mutex
	created []entity.CreateDeliveryLog
	updated []entity.UpdateDeliveryLog

	createErr error
	updateErr error
}

func (f *fakeRepoDB) CreateDeliveryLog(_ context.Context, dl entity.CreateDeliveryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, dl)
	return nil
}

func (f *fakeRepoDB) UpdateDeliveryLog(_ context.Context, up entity.UpdateDeliveryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, up)
	return nil
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []mail.Message
	failures int
}

// Send fails the first `failures` calls so retry behavior is observable.
func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failures > 0 {
		f.failures--
		return errSMTPUnavailable
	}
	f.sent = append(f.sent, msg)
	return nil
}

var errSMTPUnavailable = &smtpError{}

type smtpError struct{}

func (*smtpError) Error() string { return "smtp unavailable" }

type fakeConfig struct {
	config.Config

	strings map[string]string
	ints    map[string]int
}

func (f *fakeConfig) GetString(key string) string { return f.strings[key] }
func (f *fakeConfig) GetInt(key string) int       { return f.ints[key] }

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

func newTestUsecase(t *testing.T, db *fakeRepoDB, mailer *fakeMailer) *Usecase {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	return NewNotification(Dependency{
		RepoDB: db,
		Config: &fakeConfig{
			strings: map[string]string{
				"modules.notification.support_email": "support@verimail.dev",
			},
			ints: map[string]int{
				"modules.notification.send_max_retries": 2,
			},
		},
		UID:        &seqNumberID{},
		Clock:      &fakeClock{now: testNow},
		Validator:  v,
		RepoMail:   mailer,
		Instrument: instrument.NewNoop(),
	})
}
