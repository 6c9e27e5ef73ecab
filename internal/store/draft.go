package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinistack/vetcore/internal/types"
)

// CreateDraft implements draft.Store.
func (s *Store) CreateDraft(ctx context.Context, d types.EncounterDraft) error {
	items, err := json.Marshal(d.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO drafts (draft_id, patient_local_id, transcript, items_json, status, reviewer_id, created_at, closed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
		`, d.DraftID, d.PatientLocalID, d.Transcript, string(items), string(d.Status), d.ReviewerID, d.CreatedAt.UTC().Format(time.RFC3339Nano))
		return wrapErr("store.CreateDraft", err)
	})
}

// GetDraft implements draft.Store.
func (s *Store) GetDraft(ctx context.Context, draftID string) (types.EncounterDraft, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT draft_id, patient_local_id, transcript, items_json, status, reviewer_id, created_at, closed_at
		FROM drafts WHERE draft_id = ?
	`, draftID)
	d, err := scanDraft(row)
	if err == sql.ErrNoRows {
		return types.EncounterDraft{}, false, nil
	}
	if err != nil {
		return types.EncounterDraft{}, false, wrapErr("store.GetDraft", err)
	}
	return d, true, nil
}

// UpdateDraft implements draft.Store. Drafts are small enough that a
// full-row replace is simpler and safer than column-level diffing.
func (s *Store) UpdateDraft(ctx context.Context, d types.EncounterDraft) error {
	items, err := json.Marshal(d.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	var closedAt sql.NullString
	if d.ClosedAt != nil {
		closedAt = sql.NullString{String: d.ClosedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE drafts SET transcript = ?, items_json = ?, status = ?, reviewer_id = ?, closed_at = ?
			WHERE draft_id = ?
		`, d.Transcript, string(items), string(d.Status), d.ReviewerID, closedAt, d.DraftID)
		return wrapErr("store.UpdateDraft", err)
	})
}

// ListOpenDrafts implements draft.Store.
func (s *Store) ListOpenDrafts(ctx context.Context) ([]types.EncounterDraft, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT draft_id, patient_local_id, transcript, items_json, status, reviewer_id, created_at, closed_at
		FROM drafts WHERE status = ?
	`, string(types.DraftOpen))
	if err != nil {
		return nil, wrapErr("store.ListOpenDrafts", err)
	}
	defer rows.Close()

	var out []types.EncounterDraft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, wrapErr("store.ListOpenDrafts", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDraft(row rowScanner) (types.EncounterDraft, error) {
	var d types.EncounterDraft
	var items, status, createdAt string
	var closedAt sql.NullString
	if err := row.Scan(&d.DraftID, &d.PatientLocalID, &d.Transcript, &items, &status, &d.ReviewerID, &createdAt, &closedAt); err != nil {
		return types.EncounterDraft{}, err
	}
	if err := json.Unmarshal([]byte(items), &d.Items); err != nil {
		return types.EncounterDraft{}, fmt.Errorf("unmarshal items: %w", err)
	}
	d.Status = types.DraftStatus(status)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		d.CreatedAt = t
	}
	if closedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, closedAt.String); err == nil {
			d.ClosedAt = &t
		}
	}
	return d, nil
}
