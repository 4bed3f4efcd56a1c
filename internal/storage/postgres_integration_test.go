//go:build integration

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/safar/go-storefront/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := database.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func TestPostgresStoreContract(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runKVContract(t, NewPostgresStore(db))
}

func TestPostgresStoreConcurrentBatches(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	kv := NewPostgresStore(db)

	concurrency := 10
	var wg sync.WaitGroup
	errs := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var b Batch
			b.Put(KeyToken, fmt.Sprintf("token-%d", i))
			b.Put(KeyUser, fmt.Sprintf(`{"id":"user-%d"}`, i))
			errs <- kv.Apply(ctx, b)
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Apply batch: %v", err)
		}
	}

	token, err := kv.Get(ctx, KeyToken)
	if err != nil {
		t.Fatalf("Get token: %v", err)
	}
	user, err := kv.Get(ctx, KeyUser)
	if err != nil {
		t.Fatalf("Get user: %v", err)
	}

	var n int
	if _, err := fmt.Sscanf(token, "token-%d", &n); err != nil {
		t.Fatalf("Unexpected token %q", token)
	}
	if want := fmt.Sprintf(`{"id":"user-%d"}`, n); user != want {
		t.Errorf("Token and user come from different batches: %s vs %s", token, user)
	}
}

func TestTransactionRollsBackOnPanic(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	kv := NewPostgresStore(db)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("Expected panic to propagate")
			}
		}()
		database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `INSERT INTO kv_entries (key, value) VALUES ('token', 'half')`); err != nil {
				return err
			}
			panic("boom")
		})
	}()

	if _, err := kv.Get(ctx, KeyToken); err != ErrNotFound {
		t.Errorf("Get after rolled back panic = %v, want ErrNotFound", err)
	}
}
