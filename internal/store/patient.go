package store

import (
	"context"
	"database/sql"

	"github.com/clinistack/vetcore/internal/types"
	"github.com/clinistack/vetcore/internal/verr"
)

// CreatePatient inserts a new patient row.
func (s *Store) CreatePatient(ctx context.Context, p types.Patient) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO patients (local_id, server_id, name, species, weight_kg)
			VALUES (?, NULLIF(?, ''), ?, ?, ?)
		`, p.LocalID, p.ServerID, p.Name, p.Species, p.WeightKg)
		return wrapErr("store.CreatePatient", err)
	})
}

// GetPatient implements draft.Store's patient lookup by local id.
func (s *Store) GetPatient(ctx context.Context, localID string) (types.Patient, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT local_id, COALESCE(server_id, ''), name, species, weight_kg
		FROM patients WHERE local_id = ?
	`, localID)

	var p types.Patient
	err := row.Scan(&p.LocalID, &p.ServerID, &p.Name, &p.Species, &p.WeightKg)
	if err == sql.ErrNoRows {
		return types.Patient{}, false, nil
	}
	if err != nil {
		return types.Patient{}, false, wrapErr("store.GetPatient", err)
	}
	return p, true, nil
}

// AttachServerID records the server-assigned id a patient receives the
// first time it syncs. It implements reject-on-conflict: if serverID is
// already attached to a different local patient, the call fails with
// UniqueViolation and neither patient row is touched.
func (s *Store) AttachServerID(ctx context.Context, localID, serverID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var existingLocalID string
		err := tx.QueryRowContext(ctx, `SELECT local_id FROM patients WHERE server_id = ?`, serverID).Scan(&existingLocalID)
		if err != nil && err != sql.ErrNoRows {
			return wrapErr("store.AttachServerID", err)
		}
		if err == nil && existingLocalID != localID {
			return verr.New("store.AttachServerID", verr.UniqueViolation)
		}

		res, err := tx.ExecContext(ctx, `UPDATE patients SET server_id = ? WHERE local_id = ?`, serverID, localID)
		if err != nil {
			return wrapErr("store.AttachServerID", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapErr("store.AttachServerID", err)
		}
		if n == 0 {
			return verr.New("store.AttachServerID", verr.NotFound)
		}
		return nil
	})
}
