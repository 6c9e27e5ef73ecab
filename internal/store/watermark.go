package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/clinistack/vetcore/internal/types"
)

// SetSyncWatermark records what remoteID last acknowledged.
func (s *Store) SetSyncWatermark(ctx context.Context, w types.SyncWatermark) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sync_watermarks (remote_id, root, n_leaves, acked_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(remote_id) DO UPDATE SET root = excluded.root, n_leaves = excluded.n_leaves, acked_at = excluded.acked_at
		`, w.RemoteID, w.Root[:], w.NLeaves, w.AckedAt.UTC().Format(time.RFC3339Nano))
		return wrapErr("store.SetSyncWatermark", err)
	})
}

// SyncWatermark fetches the last-known (root, n) pair for a named remote.
func (s *Store) SyncWatermark(ctx context.Context, remoteID string) (types.SyncWatermark, bool, error) {
	var w types.SyncWatermark
	var hash []byte
	var ackedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT remote_id, root, n_leaves, acked_at FROM sync_watermarks WHERE remote_id = ?
	`, remoteID).Scan(&w.RemoteID, &hash, &w.NLeaves, &ackedAt)
	if err == sql.ErrNoRows {
		return types.SyncWatermark{}, false, nil
	}
	if err != nil {
		return types.SyncWatermark{}, false, wrapErr("store.SyncWatermark", err)
	}
	w.Root = to32(hash)
	if t, err := time.Parse(time.RFC3339Nano, ackedAt); err == nil {
		w.AckedAt = t
	}
	return w, true, nil
}
