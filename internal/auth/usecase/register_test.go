package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/verimail/internal/auth/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
)

func TestRegister(t *testing.T) {
	validInput := RegisterInput{
		Email:     "ana@example.com",
		Password:  "correct horse",
		FirstName: "Ana",
		LastName:  "Marin",
		ClientIP:  "10.0.0.1",
	}

	t.Run("Success", func(t *testing.T) {

		// Arrange
		var created entity.NewUser
		var createdHash string
		db := &fakeRepoDB{
			getUserByEmail: func(_ context.Context, _ string) (*entity.User, error) {
				return nil, goerror.ErrNotFound
			},
			createUser: func(_ context.Context, user entity.NewUser, passwordHash string) error {
				created = user
				createdHash = passwordHash
				return nil
			},
		}
		msg := &fakeMessaging{}
		uc, _ := newTestUsecase(t, db, msg)

		// Act
		out, err := uc.Register(context.Background(), validInput)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.Email != validInput.Email || out.FirstName != "Ana" || out.LastName != "Marin" {
			t.Fatalf("unexpected output projection: %+v", out)
		}
		if out.EmailVerified {
			t.Fatalf("expected new account to be unverified")
		}
		if created.ID == 0 || created.ID != out.ID {
			t.Fatalf("expected generated id to be persisted and returned, got %d and %d", created.ID, out.ID)
		}
		if createdHash == validInput.Password || createdHash == "" {
			t.Fatalf("expected password to be stored hashed")
		}
		audit := msg.lastAudit(t)
		if audit.Action != "auth.register" || audit.Outcome != "success" || audit.IPAddress != "10.0.0.1" {
			t.Fatalf("unexpected audit event: %+v", audit)
		}
	})

	t.Run("EmailAlreadyRegistered", func(t *testing.T) {

		// Arrange
		db := &fakeRepoDB{
			getUserByEmail: func(_ context.Context, email string) (*entity.User, error) {
				return &entity.User{ID: 7, Email: email}, nil
			},
		}
		msg := &fakeMessaging{}
		uc, _ := newTestUsecase(t, db, msg)

		// Act
		out, err := uc.Register(context.Background(), validInput)

		// Assert
		if out != nil {
			t.Fatalf("expected nil output, got %+v", out)
		}
		var ge *goerror.Error
		if !errors.As(err, &ge) || ge.Code() != goerror.CodeConflict {
			t.Fatalf("expected conflict error, got %v", err)
		}
		if audit := msg.lastAudit(t); audit.Outcome != "failure" {
			t.Fatalf("expected failure audit event, got %+v", audit)
		}
	})

	t.Run("CreateRace", func(t *testing.T) {

		// Arrange
		db := &fakeRepoDB{
			getUserByEmail: func(_ context.Context, _ string) (*entity.User, error) {
				return nil, goerror.ErrNotFound
			},
			createUser: func(_ context.Context, _ entity.NewUser, _ string) error {
				return goerror.ErrConflict
			},
		}
		uc, _ := newTestUsecase(t, db, &fakeMessaging{})

		// Act
		_, err := uc.Register(context.Background(), validInput)

		// Assert
		var ge *goerror.Error
		if !errors.As(err, &ge) || ge.Code() != goerror.CodeConflict {
			t.Fatalf("expected conflict error, got %v", err)
		}
	})

	t.Run("ValidationFailures", func(t *testing.T) {
		cases := map[string]RegisterInput{
			"MissingEmail":     {Password: "correct horse", FirstName: "Ana", LastName: "Marin"},
			"BadEmail":         {Email: "not-an-email", Password: "correct horse", FirstName: "Ana", LastName: "Marin"},
			"ShortPassword":    {Email: "ana@example.com", Password: "short", FirstName: "Ana", LastName: "Marin"},
			"NumericFirstName": {Email: "ana@example.com", Password: "correct horse", FirstName: "An4", LastName: "Marin"},
			"ShortLastName":    {Email: "ana@example.com", Password: "correct horse", FirstName: "Ana", LastName: "M"},
		}

		for name, in := range cases {
			t.Run(name, func(t *testing.T) {

				// Arrange
				uc, _ := newTestUsecase(t, &fakeRepoDB{}, &fakeMessaging{})

				// Act
				out, err := uc.Register(context.Background(), in)

				// Assert
				if out != nil {
					t.Fatalf("expected nil output, got %+v", out)
				}
				var ge *goerror.Error
				if !errors.As(err, &ge) || ge.Code() != goerror.CodeInvalidInput {
					t.Fatalf("expected invalid input error, got %v", err)
				}
			})
		}
	})

	t.Run("LookupServerError", func(t *testing.T) {

		// Arrange
		db := &fakeRepoDB{
			getUserByEmail: func(_ context.Context, _ string) (*entity.User, error) {
				return nil, errors.New("connection reset")
			},
		}
		uc, _ := newTestUsecase(t, db, &fakeMessaging{})

		// Act
		_, err := uc.Register(context.Background(), validInput)

		// Assert
		var ge *goerror.Error
		if !errors.As(err, &ge) || ge.Code() != goerror.CodeInternal {
			t.Fatalf("expected internal error, got %v", err)
		}
	})
}
