package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/verimail/internal/auth/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
	"github.com/shandysiswandi/verimail/internal/pkg/hash"
)

func TestLogin(t *testing.T) {
	bcrypt := hash.NewBcrypt(4, "")

	loginInfo := func(t *testing.T, password string, verified bool) *entity.UserLoginInfo {
		t.Helper()
		return &entity.UserLoginInfo{
			ID:            42,
			Email:         "ana@example.com",
			FirstName:     "Ana",
			LastName:      "Marin",
			Password:      mustHash(t, bcrypt, password),
			EmailVerified: verified,
		}
	}

	t.Run("Success", func(t *testing.T) {

		// Arrange
		db := &fakeRepoDB{
			getUserLoginInfo: func(_ context.Context, _ string) (*entity.UserLoginInfo, error) {
				return loginInfo(t, "correct horse", true), nil
			},
		}
		msg := &fakeMessaging{}
		uc, _ := newTestUsecase(t, db, msg)

		// Act
		out, err := uc.Login(context.Background(), LoginInput{
			Email:    "ana@example.com",
			Password: "correct horse",
			ClientIP: "10.0.0.1",
		})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.AccessToken == "" {
			t.Fatalf("expected an access token")
		}
		if out.ID != 42 || out.Email != "ana@example.com" || !out.EmailVerified {
			t.Fatalf("unexpected output projection: %+v", out)
		}
		audit := msg.lastAudit(t)
		if audit.Action != "auth.login" || audit.Outcome != "success" {
			t.Fatalf("unexpected audit event: %+v", audit)
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {

		// Arrange
		db := &fakeRepoDB{
			getUserLoginInfo: func(_ context.Context, _ string) (*entity.UserLoginInfo, error) {
				return nil, goerror.ErrNotFound
			},
		}
		msg := &fakeMessaging{}
		uc, _ := newTestUsecase(t, db, msg)

		// Act
		out, err := uc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "whatever1"})

		// Assert
		if out != nil {
			t.Fatalf("expected nil output, got %+v", out)
		}
		var ge *goerror.Error
		if !errors.As(err, &ge) || ge.Code() != goerror.CodeNotFound {
			t.Fatalf("expected not found error, got %v", err)
		}
		if audit := msg.lastAudit(t); audit.Outcome != "failure" {
			t.Fatalf("expected failure audit event, got %+v", audit)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {

		// Arrange
		db := &fakeRepoDB{
			getUserLoginInfo: func(_ context.Context, _ string) (*entity.UserLoginInfo, error) {
				return loginInfo(t, "correct horse", true), nil
			},
		}
		uc, _ := newTestUsecase(t, db, &fakeMessaging{})

		// Act
		_, err := uc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "wrong horse"})

		// Assert
		var ge *goerror.Error
		if !errors.As(err, &ge) || ge.Code() != goerror.CodeUnauthorized {
			t.Fatalf("expected unauthorized error, got %v", err)
		}
	})

	t.Run("EmailNotVerified", func(t *testing.T) {

		// Arrange
		db := &fakeRepoDB{
			getUserLoginInfo: func(_ context.Context, _ string) (*entity.UserLoginInfo, error) {
				return loginInfo(t, "correct horse", false), nil
			},
		}
		uc, _ := newTestUsecase(t, db, &fakeMessaging{})

		// Act
		_, err := uc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "correct horse"})

		// Assert
		var ge *goerror.Error
		if !errors.As(err, &ge) || ge.Code() != goerror.CodeForbidden {
			t.Fatalf("expected forbidden error, got %v", err)
		}
	})

	t.Run("MissingPassword", func(t *testing.T) {

		// Arrange
		uc, _ := newTestUsecase(t, &fakeRepoDB{}, &fakeMessaging{})

		// Act
		_, err := uc.Login(context.Background(), LoginInput{Email: "ana@example.com"})

		// Assert
		var ge *goerror.Error
		if !errors.As(err, &ge) || ge.Code() != goerror.CodeInvalidInput {
			t.Fatalf("expected invalid input error, got %v", err)
		}
	})
}
