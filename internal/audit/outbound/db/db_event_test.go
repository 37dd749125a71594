package db

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/verimail/internal/audit/entity"
	"github.com/shandysiswandi/verimail/internal/pkg/instrument"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const schema = `
CREATE TABLE audit_events (
	id          BIGINT PRIMARY KEY,
	action      TEXT NOT NULL,
	actor_email TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	ip_address  TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

var testStore *DB

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

func seedEvents(t *testing.T, store *DB, base time.Time) {
	t.Helper()

	events := []entity.AuditEvent{
		{ID: 1, Action: "auth.login", ActorEmail: "ana@example.com", Outcome: "success", IPAddress: "10.0.0.1", OccurredAt: base},
		{ID: 2, Action: "auth.login", ActorEmail: "ana@example.com", Outcome: "failure", Detail: "login failed", OccurredAt: base.Add(-time.Hour)},
		{ID: 3, Action: "auth.register", ActorEmail: "bo@example.com", Outcome: "success", OccurredAt: base.Add(-2 * time.Hour)},
		{ID: 4, Action: "auth.otp.verify", ActorEmail: "ana@example.com", Outcome: "success", OccurredAt: base.Add(-3 * time.Hour)},
	}
	for _, ev := range events {
		if err := store.CreateEvent(context.Background(), ev); err != nil {
			t.Fatalf("failed to seed event %d: %v", ev.ID, err)
		}
	}
}

func TestEventQueries(t *testing.T) {
	store := requireStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	seedEvents(t, store, base)

	t.Run("ListAllNewestFirst", func(t *testing.T) {

		// Act
		events, err := store.ListEvents(ctx, entity.EventFilter{})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(events) != 4 {
			t.Fatalf("expected 4 events, got %d", len(events))
		}
		for i := 1; i < len(events); i++ {
			if events[i].OccurredAt.After(events[i-1].OccurredAt) {
				t.Fatalf("expected newest first ordering, got %v before %v", events[i-1].OccurredAt, events[i].OccurredAt)
			}
		}
	})

	t.Run("FilterByActionAndOutcome", func(t *testing.T) {

		// Arrange
		filter := entity.EventFilter{Action: "auth.login", Outcome: "failure"}

		// Act
		events, err := store.ListEvents(ctx, filter)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(events) != 1 || events[0].ID != 2 || events[0].Detail != "login failed" {
			t.Fatalf("unexpected events: %+v", events)
		}

		total, err := store.CountEvents(ctx, filter)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if total != 1 {
			t.Fatalf("expected count 1, got %d", total)
		}
	})

	t.Run("FilterByDateRange", func(t *testing.T) {

		// Arrange
		filter := entity.EventFilter{
			DateFrom: base.Add(-150 * time.Minute),
			DateTo:   base.Add(-30 * time.Minute),
		}

		// Act
		events, err := store.ListEvents(ctx, filter)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(events) != 2 || events[0].ID != 2 || events[1].ID != 3 {
			t.Fatalf("unexpected events: %+v", events)
		}
	})

	t.Run("Pagination", func(t *testing.T) {

		// Arrange
		filter := entity.EventFilter{Size: 2, Page: 2}

		// Act
		events, err := store.ListEvents(ctx, filter)

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(events) != 2 || events[0].ID != 3 || events[1].ID != 4 {
			t.Fatalf("unexpected second page: %+v", events)
		}

		// The count ignores paging and covers the full result set.
		total, err := store.CountEvents(ctx, filter)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if total != 4 {
			t.Fatalf("expected count 4, got %d", total)
		}
	})
}
