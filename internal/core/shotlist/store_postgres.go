// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/cinescript/internal/platform/database/schema"
	"github.com/taibuivan/cinescript/internal/platform/dberr"
	"github.com/taibuivan/cinescript/internal/platform/postgres"
)

// PostgresKeyValueStore implements [KeyValueStore] on the app.kv_entry table.
type PostgresKeyValueStore struct {
	pool *pgxpool.Pool
}

// NewPostgresKeyValueStore creates a new PostgreSQL-backed [KeyValueStore].
func NewPostgresKeyValueStore(pool *pgxpool.Pool) *PostgresKeyValueStore {
	return &PostgresKeyValueStore{pool: pool}
}

// Get implements [KeyValueStore].
func (repository *PostgresKeyValueStore) Get(context context.Context, key string) (string, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.AppKVEntry.Value, schema.AppKVEntry.Table, schema.AppKVEntry.Key)

	var value string
	err := repository.pool.QueryRow(context, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrKeyNotFound
		}
		return "", dberr.Wrap(err, "get_kv_entry")
	}

	return value, nil
}

/*
SetMany upserts every entry inside one transaction.

Parameters:
  - context: context.Context
  - entries: map[string]string

Returns:
  - error: Database errors (the transaction is rolled back)
*/
func (repository *PostgresKeyValueStore) SetMany(context context.Context, entries map[string]string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, NOW())
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = NOW()
	`,
		schema.AppKVEntry.Table, schema.AppKVEntry.Key, schema.AppKVEntry.Value, schema.AppKVEntry.UpdatedAt,
		schema.AppKVEntry.Key, schema.AppKVEntry.Value, schema.AppKVEntry.Value, schema.AppKVEntry.UpdatedAt,
	)

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_kv_transaction")
	}

	// No-op once committed
	defer transaction.Rollback(context)

	for key, value := range entries {
		if _, err := transaction.Exec(context, query, key, value); err != nil {
			return dberr.Wrap(err, "upsert_kv_entry")
		}
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_kv_transaction")
	}

	return nil
}

// Ping implements [KeyValueStore].
func (repository *PostgresKeyValueStore) Ping(context context.Context) error {
	return postgres.Ping(context, repository.pool)
}
