package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/five82/cbzmeta/internal/comic"
)

// Compile-time interface verification.
var _ comic.KeyValueStore = (*KeyValueStore)(nil)

// KeyValueStore implements comic.KeyValueStore using SQLite.
type KeyValueStore struct {
	db *DB
}

// NewKeyValueStore creates a new KeyValueStore.
func NewKeyValueStore(db *DB) *KeyValueStore {
	return &KeyValueStore{db: db}
}

// Get returns the value stored under namespace/key.
func (s *KeyValueStore) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM preferences WHERE namespace = ? AND key = ?
	`, namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under namespace/key, replacing any previous value.
func (s *KeyValueStore) Set(ctx context.Context, namespace, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, namespace, key, value, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Delete removes namespace/key. Missing keys are not an error.
func (s *KeyValueStore) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM preferences WHERE namespace = ? AND key = ?
	`, namespace, key)
	return err
}
