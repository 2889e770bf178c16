// Package kvstore is a small json key-value layer over sqlite with the
// overlay semantics of browser extension storage: a write touches only
// the keys it names, everything else is left as is.
package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Get returns the raw json values for the requested keys. Missing keys
// are simply absent from the result, never an error.
func (s Store) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		var value string
		err := s.db.QueryRowContext(
			ctx, "SELECT value FROM kv WHERE key = ?", key,
		).Scan(&value)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[key] = json.RawMessage(value)
	}
	return out, nil
}

// GetJSON unmarshals the value stored under `key` into `out`, reporting
// whether the key existed.
func (s Store) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	values, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	raw, ok := values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

// SetMerge upserts every given key in one transaction. Keys not named
// in `values` are untouched.
func (s Store) SetMerge(ctx context.Context, values map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for key, value := range values {
		serialized, err := json.Marshal(value)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, string(serialized), now,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Clear drops every stored key.
func (s Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv")
	return err
}
