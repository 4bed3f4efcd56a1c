package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/lib/pq"
	"github.com/safar/go-storefront/internal/database"
)

// PostgresStore keeps entries in the kv_entries table. Batches run in a
// serializable transaction retried on serialization failures.
type PostgresStore struct {
	db     *sql.DB
	ownsDB bool
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = $1`,
		key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (p *PostgresStore) Apply(ctx context.Context, b Batch) error {
	if b.Empty() {
		return nil
	}

	sets := b.sets()
	keys := make([]string, 0, len(sets))
	for k := range sets {
		keys = append(keys, k)
	}
	// Stable write order keeps concurrent batches from deadlocking.
	sort.Strings(keys)

	return database.WithRetry(ctx, p.db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		for _, k := range keys {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO kv_entries (key, value, updated_at)
				 VALUES ($1, $2, NOW())
				 ON CONFLICT (key) DO UPDATE
				 SET value = EXCLUDED.value,
				     updated_at = NOW()`,
				k, sets[k])
			if err != nil {
				return fmt.Errorf("upsert %s: %w", k, err)
			}
		}

		if len(b.Delete) > 0 {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM kv_entries WHERE key = ANY($1)`,
				pq.Array(b.Delete))
			if err != nil {
				return fmt.Errorf("delete keys: %w", err)
			}
		}

		return nil
	})
}

func (p *PostgresStore) Close() error {
	if p.ownsDB {
		return p.db.Close()
	}
	return nil
}
