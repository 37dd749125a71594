package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/verimail/internal/notification/entity"
)

func TestConsumeOtpRequested(t *testing.T) {
	validInput := ConsumeOtpRequestedInput{
		UserID:    42,
		Email:     "ana@example.com",
		FirstName: "Ana",
		Code:      "482913",
		ExpiresAt: testNow.Add(10 * time.Minute),
	}

	t.Run("Success", func(t *testing.T) {

		// Arrange
		db := &fakeRepoDB{}
		mailer := &fakeMailer{}
		uc := newTestUsecase(t, db, mailer)

		// Act
		err := uc.ConsumeOtpRequested(context.Background(), validInput)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(mailer.sent) != 1 {
			t.Fatalf("expected one email, got %d", len(mailer.sent))
		}
		msg := mailer.sent[0]
		if len(msg.To) != 1 || msg.To[0] != "ana@example.com" {
			t.Fatalf("unexpected recipient: %v", msg.To)
		}
		if msg.Subject != verificationCodeSubject {
			t.Fatalf("unexpected subject %q", msg.Subject)
		}
		if !strings.Contains(msg.HTMLBody, "482913") {
			t.Fatalf("expected the code in the body")
		}
		if !strings.Contains(msg.HTMLBody, "Ana") {
			t.Fatalf("expected the first name in the body")
		}
		if !strings.Contains(msg.HTMLBody, "10") {
			t.Fatalf("expected the expiry minutes in the body")
		}

		if len(db.created) != 1 || db.created[0].Kind != entity.MailKindVerificationCode || db.created[0].Status != entity.DeliveryStatusQueued {
			t.Fatalf("unexpected delivery log creation: %+v", db.created)
		}
		if len(db.updated) != 1 || db.updated[0].Status != entity.DeliveryStatusSent || db.updated[0].Attempts != 1 {
			t.Fatalf("unexpected delivery log update: %+v", db.updated)
		}
	})

	t.Run("ExpiredCodeStillSaysOneMinute", func(t *testing.T) {

		// Arrange
		mailer := &fakeMailer{}
		uc := newTestUsecase(t, &fakeRepoDB{}, mailer)
		in := validInput
		in.ExpiresAt = testNow.Add(-time.Minute)

		// Act
		err := uc.ConsumeOtpRequested(context.Background(), in)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(mailer.sent) != 1 {
			t.Fatalf("expected one email, got %d", len(mailer.sent))
		}
		if !strings.Contains(mailer.sent[0].HTMLBody, "1 minute") {
			t.Fatalf("expected a one minute floor in the body")
		}
	})

	t.Run("InvalidPayloadDropped", func(t *testing.T) {
		cases := map[string]ConsumeOtpRequestedInput{
			"MissingUserID": {Email: "ana@example.com", FirstName: "Ana", Code: "482913"},
			"BadEmail":      {UserID: 42, Email: "nope", FirstName: "Ana", Code: "482913"},
			"ShortCode":     {UserID: 42, Email: "ana@example.com", FirstName: "Ana", Code: "123"},
			"AlphaCode":     {UserID: 42, Email: "ana@example.com", FirstName: "Ana", Code: "12ab56"},
		}

		for name, in := range cases {
			t.Run(name, func(t *testing.T) {

				// Arrange
				db := &fakeRepoDB{}
				mailer := &fakeMailer{}
				uc := newTestUsecase(t, db, mailer)

				// Act
				err := uc.ConsumeOtpRequested(context.Background(), in)

				// Assert
				// Invalid payloads are acknowledged so the broker does not
				// redeliver them.
				if err != nil {
					t.Fatalf("expected nil error for dropped payload, got %v", err)
				}
				if len(mailer.sent) != 0 || len(db.created) != 0 {
					t.Fatalf("expected no email and no delivery log for dropped payload")
				}
			})
		}
	})

	t.Run("SendFailureRecordedAsFailed", func(t *testing.T) {

		// Arrange
		// Max retries is 2 in the test config, so 3 straight failures
		// exhaust the budget.
		db := &fakeRepoDB{}
		mailer := &fakeMailer{failures: 3}
		uc := newTestUsecase(t, db, mailer)

		// Act
		err := uc.ConsumeOtpRequested(context.Background(), validInput)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(db.updated) != 1 {
			t.Fatalf("expected one delivery log update, got %d", len(db.updated))
		}
		up := db.updated[0]
		if up.Status != entity.DeliveryStatusFailed || up.Attempts != 3 {
			t.Fatalf("unexpected delivery log update: %+v", up)
		}
		if up.ProviderResponse["error"] == nil {
			t.Fatalf("expected the provider error to be recorded: %+v", up.ProviderResponse)
		}
	})

	t.Run("RetrySucceedsAfterTransientFailure", func(t *testing.T) {

		// Arrange
		db := &fakeRepoDB{}
		mailer := &fakeMailer{failures: 1}
		uc := newTestUsecase(t, db, mailer)

		// Act
		err := uc.ConsumeOtpRequested(context.Background(), validInput)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(mailer.sent) != 1 {
			t.Fatalf("expected the retried send to land, got %d", len(mailer.sent))
		}
		if len(db.updated) != 1 || db.updated[0].Status != entity.DeliveryStatusSent || db.updated[0].Attempts != 2 {
			t.Fatalf("unexpected delivery log update: %+v", db.updated)
		}
	})
}
