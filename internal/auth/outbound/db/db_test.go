package db

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/verimail/internal/auth/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/goerror"
	"github.com/shandysiswandi/verimail/internal/pkg/instrument"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const schema = `
CREATE TABLE auth_users (
	id             BIGINT PRIMARY KEY,
	email          TEXT NOT NULL UNIQUE,
	first_name     TEXT NOT NULL,
	last_name      TEXT NOT NULL,
	email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE auth_user_credentials (
	user_id    BIGINT PRIMARY KEY REFERENCES auth_users(id) ON DELETE CASCADE,
	password   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE auth_otp_records (
	id            BIGINT PRIMARY KEY,
	user_id       BIGINT NOT NULL REFERENCES auth_users(id) ON DELETE CASCADE,
	code_hash     TEXT NOT NULL,
	session_token TEXT NOT NULL,
	expires_at    TIMESTAMPTZ NOT NULL,
	is_used       BOOLEAN NOT NULL DEFAULT FALSE,
	attempt_count SMALLINT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

var testStore *DB

// TestMain starts one postgres container shared by all tests in the
// package. Run with -short to skip the container-backed tests.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("verimail_test"),
		tcpostgres.WithUsername("verimail"),
		tcpostgres.WithPassword("verimail"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort(nat.Port("5432/tcp")),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		log.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	testStore = NewDB(pool, instrument.NewNoop())

	code := m.Run()

	pool.Close()
	if err := testcontainers.TerminateContainer(ctr); err != nil {
		log.Printf("failed to terminate postgres container: %v", err)
	}

	os.Exit(code)
}

func requireStore(t *testing.T) *DB {
	t.Helper()

	if testStore == nil {
		t.Skip("container-backed test; run without -short")
	}
	return testStore
}

func seedUser(t *testing.T, store *DB, id int64, email string) {
	t.Helper()

	err := store.CreateUser(context.Background(), entity.NewUser{
		ID:        id,
		Email:     email,
		FirstName: "Ana",
		LastName:  "Marin",
	}, "$2a$04$fakehashfakehashfakehash")
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
}

func TestCreateAndGetUser(t *testing.T) {
	store := requireStore(t)
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {

		// Arrange
		seedUser(t, store, 101, "roundtrip@example.com")

		// Act
		user, err := store.GetUserByEmail(ctx, "roundtrip@example.com")

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != 101 || user.FirstName != "Ana" || user.EmailVerified {
			t.Fatalf("unexpected user: %+v", user)
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {

		// Arrange
		seedUser(t, store, 102, "dup@example.com")

		// Act
		err := store.CreateUser(ctx, entity.NewUser{
			ID:        103,
			Email:     "dup@example.com",
			FirstName: "Bo",
			LastName:  "Chen",
		}, "hash")

		// Assert
		if !errors.Is(err, goerror.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("DuplicateLeavesNoPartialRows", func(t *testing.T) {

		// Arrange
		// The failed insert above ran in a transaction, so neither table
		// may hold rows for the losing id.
		var n int
		err := testStore.conn.QueryRow(ctx,
			"SELECT COUNT(*) FROM auth_user_credentials WHERE user_id = $1", int64(103)).Scan(&n)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 0 {
			t.Fatalf("expected no credential rows for rolled back user, got %d", n)
		}
	})

	t.Run("NotFound", func(t *testing.T) {

		// Act
		_, err := store.GetUserByEmail(ctx, "ghost@example.com")

		// Assert
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestGetUserLoginInfo(t *testing.T) {
	store := requireStore(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {

		// Arrange
		seedUser(t, store, 110, "login@example.com")

		// Act
		info, err := store.GetUserLoginInfo(ctx, "login@example.com")

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if info.ID != 110 || info.Password == "" || info.EmailVerified {
			t.Fatalf("unexpected login info: %+v", info)
		}
	})

	t.Run("NotFound", func(t *testing.T) {

		// Act
		_, err := store.GetUserLoginInfo(ctx, "ghost@example.com")

		// Assert
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestOtpRecordLifecycle(t *testing.T) {
	store := requireStore(t)
	ctx := context.Background()
	expiresAt := time.Now().Add(10 * time.Minute)

	t.Run("CreateInvalidatesPrior", func(t *testing.T) {

		// Arrange
		seedUser(t, store, 120, "otp@example.com")
		first := entity.OtpRecord{ID: 201, UserID: 120, CodeHash: "h1", SessionToken: "s1", ExpiresAt: expiresAt}
		second := entity.OtpRecord{ID: 202, UserID: 120, CodeHash: "h2", SessionToken: "s2", ExpiresAt: expiresAt}

		// Act
		if err := store.CreateOtpRecord(ctx, first, true); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := store.CreateOtpRecord(ctx, second, true); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		// Assert
		records, err := store.GetUnusedOtpRecords(ctx, 120)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(records) != 1 || records[0].ID != 202 {
			t.Fatalf("expected only the newest record to stay unused, got %+v", records)
		}
	})

	t.Run("IncrementAttempt", func(t *testing.T) {

		// Arrange
		seedUser(t, store, 121, "otp-attempt@example.com")
		rec := entity.OtpRecord{ID: 210, UserID: 121, CodeHash: "h", SessionToken: "s", ExpiresAt: expiresAt}
		if err := store.CreateOtpRecord(ctx, rec, false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		// Act
		if err := store.IncrementOtpAttempt(ctx, 210); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := store.IncrementOtpAttempt(ctx, 210); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		// Assert
		records, err := store.GetUnusedOtpRecords(ctx, 121)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(records) != 1 || records[0].AttemptCount != 2 {
			t.Fatalf("expected attempt count 2, got %+v", records)
		}
	})

	t.Run("IncrementMissingRecord", func(t *testing.T) {

		// Act
		err := store.IncrementOtpAttempt(ctx, 999999)

		// Assert
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("ConsumeVerifiesEmailExactlyOnce", func(t *testing.T) {

		// Arrange
		seedUser(t, store, 122, "otp-consume@example.com")
		rec := entity.OtpRecord{ID: 220, UserID: 122, CodeHash: "h", SessionToken: "s", ExpiresAt: expiresAt}
		if err := store.CreateOtpRecord(ctx, rec, false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		// Act
		err := store.ConsumeOtpAndVerifyEmail(ctx, entity.ConsumeOtp{RecordID: 220, UserID: 122})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		user, err := store.GetUserByEmail(ctx, "otp-consume@example.com")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !user.EmailVerified {
			t.Fatalf("expected the user to be verified")
		}

		// A second consume must not find the record again.
		err = store.ConsumeOtpAndVerifyEmail(ctx, entity.ConsumeOtp{RecordID: 220, UserID: 122})
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected not found on double consume, got %v", err)
		}
	})

	t.Run("DeleteExpired", func(t *testing.T) {

		// Arrange
		seedUser(t, store, 123, "otp-sweep@example.com")
		expired := entity.OtpRecord{ID: 230, UserID: 123, CodeHash: "h", SessionToken: "s", ExpiresAt: time.Now().Add(-time.Hour)}
		active := entity.OtpRecord{ID: 231, UserID: 123, CodeHash: "h", SessionToken: "s", ExpiresAt: expiresAt}
		if err := store.CreateOtpRecord(ctx, expired, false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := store.CreateOtpRecord(ctx, active, false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		// Act
		deleted, err := store.DeleteExpiredOtpRecords(ctx, time.Now())

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if deleted < 1 {
			t.Fatalf("expected at least one deleted record, got %d", deleted)
		}
		records, err := store.GetUnusedOtpRecords(ctx, 123)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(records) != 1 || records[0].ID != 231 {
			t.Fatalf("expected only the active record to survive, got %+v", records)
		}
	})
}
