package store

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/clinistack/vetcore/internal/verr"
)

// wrapErr maps a raw database/sql or sqlite driver error to a verr.Kind
// from the taxonomy shared across components.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return verr.New(op, verr.NotFound)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") {
		return verr.Wrap(op, verr.UniqueViolation, err)
	}
	return verr.Wrap(op, verr.IO, err)
}
