package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/colonyops/wreckit/internal/core/kv"
	"github.com/colonyops/wreckit/internal/data/db"
)

// KVStore is the kv_store table exposed as a kv.Store. Expiry is stored as
// unix nanoseconds; NULL never expires.
type KVStore struct {
	db  *db.DB
	now func() time.Time
}

var _ kv.Store = (*KVStore)(nil)

func NewKVStore(db *db.DB) *KVStore {
	return &KVStore{db: db, now: time.Now}
}

// Get decodes the value for key into dest. An expired row is removed on read.
func (s *KVStore) Get(ctx context.Context, key string, dest any) error {
	var (
		value   []byte
		expires sql.NullInt64
	)
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv_store WHERE key = ?`, key,
	).Scan(&value, &expires)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return kv.ErrNotFound
	case err != nil:
		return fmt.Errorf("kv get %q: %w", key, err)
	}

	if expires.Valid && expires.Int64 < s.now().UnixNano() {
		_ = s.Delete(ctx, key)
		return kv.ErrNotFound
	}

	if err := json.Unmarshal(value, dest); err != nil {
		return fmt.Errorf("kv decode %q: %w", key, err)
	}
	return nil
}

// Put upserts value. created_at is kept from the first write.
func (s *KVStore) Put(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv encode %q: %w", key, err)
	}

	now := s.now()
	var expires sql.NullInt64
	if ttl > 0 {
		expires = sql.NullInt64{Int64: now.Add(ttl).UnixNano(), Valid: true}
	}

	_, err = s.db.Conn().ExecContext(ctx, `
		INSERT INTO kv_store (key, value, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value      = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		key, data, expires, now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("kv put %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Conn().ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

// Keys returns the live keys that start with prefix, in key order.
func (s *KVStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT key FROM kv_store
		WHERE substr(key, 1, ?) = ?
		  AND (expires_at IS NULL OR expires_at >= ?)
		ORDER BY key`,
		utf8.RuneCountInString(prefix), prefix, s.now().UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("kv keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("kv keys: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// SweepExpired deletes every row whose expiry has passed and returns how many
// were removed.
func (s *KVStore) SweepExpired(ctx context.Context) (int64, error) {
	res, err := s.db.Conn().ExecContext(ctx,
		`DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at < ?`,
		s.now().UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("kv sweep: %w", err)
	}
	return res.RowsAffected()
}
