package usecase

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/verimail/internal/audit/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/config"
	"github.com/shandysiswandi/verimail/internal/pkg/instrument"
	"github.com/shandysiswandi/verimail/internal/pkg/storage"
	"github.com/shandysiswandi/verimail/internal/pkg/validator"
)

var testNow = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeRepoDB struct {
	createEvent func(ctx context.Context, ev entity.AuditEvent) error
	listEvents  func(ctx context.Context, filter entity.EventFilter) ([]entity.AuditEvent, error)
	countEvents func(ctx context.Context, filter entity.EventFilter) (int64, error)
}

func (f *fakeRepoDB) CreateEvent(ctx context.Context, ev entity.AuditEvent) error {
	return f.createEvent(ctx, ev)
}

func (f *fakeRepoDB) ListEvents(ctx context.Context, filter entity.EventFilter) ([]entity.AuditEvent, error) {
	return f.listEvents(ctx, filter)
}

func (f *fakeRepoDB) CountEvents(ctx context.Context, filter entity.EventFilter) (int64, error) {
	return f.countEvents(ctx, filter)
}

// fakeStorage overrides only the operations the export flow touches.
type fakeStorage struct {
	storage.Storage

	mu         sync.Mutex
	putBucket  string
	putKey     string
	putBody    []byte
	putOpts    storage.PutOptions
	putErr     error
	presignErr error
}

func (f *fakeStorage) PutObject(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.putErr != nil {
		return storage.ObjectInfo{}, f.putErr
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}

	f.putBucket = bucket
	f.putKey = key
	f.putBody = body
	f.putOpts = opts

	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(body))}, nil
}

func (f *fakeStorage) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://storage.test/" + bucket + "/" + key, nil
}

type fakeConfig struct {
	config.Config

	minutes map[string]time.Duration
	strings map[string]string
}

func (f *fakeConfig) GetMinute(key string) time.Duration { return f.minutes[key] }
func (f *fakeConfig) GetString(key string) string        { return f.strings[key] }

type staticNumberID struct {
	id int64
}

func (s *staticNumberID) Generate() int64 { return s.id }

type staticStringID struct {
	id string
}

func (s *staticStringID) Generate() string { return s.id }

func newTestUsecase(t *testing.T, db *fakeRepoDB, store *fakeStorage) *Usecase {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	return New(Dependency{
		RepoDB:    db,
		Storage:   store,
		Validator: v,
		Config: &fakeConfig{
			strings: map[string]string{
				"modules.audit.export_bucket": "audit-exports",
			},
			minutes: map[string]time.Duration{
				"modules.audit.export_url_ttl_minutes": 30 * time.Minute,
			},
		},
		UID:        &staticNumberID{id: 5001},
		OID:        &staticStringID{id: "65f1a2b3c4d5e6f708091a2b"},
		Clock:      &fakeClock{now: testNow},
		Instrument: instrument.NewNoop(),
	})
}
