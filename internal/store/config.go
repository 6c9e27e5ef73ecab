package store

import (
	"context"
	"database/sql"
)

// SetConfig persists one key/value configuration row — used so a
// scoring-weight change made at runtime (e.g. via the CLI) survives a
// process restart.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO config (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		return wrapErr("store.SetConfig", err)
	})
}

// GetConfig fetches one configuration value. ok is false if key is unset.
func (s *Store) GetConfig(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapErr("store.GetConfig", err)
	}
	return value, true, nil
}

// GetAllConfig returns every persisted configuration key/value pair.
func (s *Store) GetAllConfig(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM config`)
	if err != nil {
		return nil, wrapErr("store.GetAllConfig", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, wrapErr("store.GetAllConfig", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}
