package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/verimail/internal/audit/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
)

func TestExportEvents(t *testing.T) {

	t.Run("Success", func(t *testing.T) {

		// Arrange
		events := []entity.AuditEvent{
			{ID: 1, Action: "auth.login", ActorEmail: "ana@example.com", Outcome: "success", OccurredAt: testNow},
			{ID: 2, Action: "auth.register", ActorEmail: "bo@example.com", Outcome: "failure", Detail: "email already registered", OccurredAt: testNow.Add(-time.Hour)},
		}
		db := &fakeRepoDB{
			listEvents: func(_ context.Context, filter entity.EventFilter) ([]entity.AuditEvent, error) {
				if filter.Page == 1 {
					return events, nil
				}
				return nil, nil
			},
		}
		store := &fakeStorage{}
		uc := newTestUsecase(t, db, store)

		// Act
		out, err := uc.ExportEvents(context.Background(), ExportEventsInput{})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.Count != 2 {
			t.Fatalf("expected 2 exported events, got %d", out.Count)
		}
		if store.putBucket != "audit-exports" {
			t.Fatalf("expected bucket audit-exports, got %q", store.putBucket)
		}
		if !strings.HasPrefix(out.ObjectKey, "exports/") || !strings.HasSuffix(out.ObjectKey, ".jsonl") {
			t.Fatalf("unexpected object key %q", out.ObjectKey)
		}
		if out.URL != "https://storage.test/audit-exports/"+out.ObjectKey {
			t.Fatalf("unexpected download url %q", out.URL)
		}
		if want := testNow.Add(30 * time.Minute); !out.ExpiresAt.Equal(want) {
			t.Fatalf("expected url expiry %v, got %v", want, out.ExpiresAt)
		}
		if store.putOpts.ContentType != "application/x-ndjson" || store.putOpts.Metadata["events"] != "2" {
			t.Fatalf("unexpected put options: %+v", store.putOpts)
		}

		lines := bytes.Split(bytes.TrimSpace(store.putBody), []byte("\n"))
		if len(lines) != 2 {
			t.Fatalf("expected 2 JSON lines, got %d", len(lines))
		}
		var first map[string]any
		if err := json.Unmarshal(lines[0], &first); err != nil {
			t.Fatalf("first line is not valid JSON: %v", err)
		}
		if first["id"] != "1" || first["action"] != "auth.login" {
			t.Fatalf("unexpected first line: %v", first)
		}
		if _, ok := first["detail"]; ok {
			t.Fatalf("expected empty detail to be omitted: %v", first)
		}
	})

	t.Run("EmptyResult", func(t *testing.T) {

		// Arrange
		db := &fakeRepoDB{
			listEvents: func(_ context.Context, _ entity.EventFilter) ([]entity.AuditEvent, error) {
				return nil, nil
			},
		}
		store := &fakeStorage{}
		uc := newTestUsecase(t, db, store)

		// Act
		out, err := uc.ExportEvents(context.Background(), ExportEventsInput{})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.Count != 0 {
			t.Fatalf("expected zero events, got %d", out.Count)
		}
		if len(store.putBody) != 0 {
			t.Fatalf("expected an empty object, got %d bytes", len(store.putBody))
		}
	})

	t.Run("PutFailure", func(t *testing.T) {

		// Arrange
		db := &fakeRepoDB{
			listEvents: func(_ context.Context, _ entity.EventFilter) ([]entity.AuditEvent, error) {
				return nil, nil
			},
		}
		store := &fakeStorage{putErr: errors.New("bucket unavailable")}
		uc := newTestUsecase(t, db, store)

		// Act
		out, err := uc.ExportEvents(context.Background(), ExportEventsInput{})

		// Assert
		if out != nil {
			t.Fatalf("expected nil output, got %+v", out)
		}
		var ge *goerror.Error
		if !errors.As(err, &ge) || ge.Code() != goerror.CodeInternal {
			t.Fatalf("expected internal error, got %v", err)
		}
	})

	t.Run("BadActorEmail", func(t *testing.T) {

		// Arrange
		uc := newTestUsecase(t, &fakeRepoDB{}, &fakeStorage{})

		// Act
		_, err := uc.ExportEvents(context.Background(), ExportEventsInput{ActorEmail: "not-an-email"})

		// Assert
		var ge *goerror.Error
		if !errors.As(err, &ge) || ge.Code() != goerror.CodeInvalidInput {
			t.Fatalf("expected invalid input error, got %v", err)
		}
	})
}
