package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/safar/go-storefront/internal/config"
)

// NewConnection opens and pings the Postgres database backing the
// key-value store.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the kv_entries table when it does not exist yet.
// scripts/run_migrations.go applies the same DDL from migrations/.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	return WithTransaction(ctx, db, DefaultTxOptions(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, kvSchema); err != nil {
			return fmt.Errorf("create kv_entries: %w", err)
		}
		return nil
	})
}
