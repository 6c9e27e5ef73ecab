// Package merkle implements the append-only Merkle commit log: canonical
// encoding of reviewed encounters, domain-separated leaf/internal hashing,
// the RFC-6962-shaped tree, and inclusion proof generation/verification.
package merkle

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/clinistack/vetcore/internal/types"
	"github.com/clinistack/vetcore/internal/verr"
)

var errNegativeQuantity = fmt.Errorf("line item quantity must be non-negative")

// Encode serializes e as the length-prefixed, field-ordered byte stream
// that is part of the stable hash contract: changing field order or
// encoding here invalidates every proof issued against the existing log.
//
// Layout: draft_id, patient identity (1-byte kind tag + id), reviewer_id,
// reviewed_at as RFC3339 bytes, an 8-byte little-endian line item count,
// then each line item's {sku, quantity, unit, route, species} in order,
// then the raw 32-byte transcript digest. Variable-width fields carry a
// leading 4-byte little-endian length; quantity is 8 raw bytes (IEEE 754
// bit pattern, little-endian).
func Encode(e types.ReviewedEncounter) []byte {
	var buf bytes.Buffer

	writeString(&buf, e.DraftID)
	buf.WriteByte(byte(e.Patient.Kind))
	writeString(&buf, e.Patient.ID)
	writeString(&buf, e.ReviewerID)
	writeString(&buf, e.ReviewedAt.UTC().Format("2006-01-02T15:04:05Z07:00"))

	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(e.LineItems)))
	buf.Write(countBuf[:])

	for _, item := range e.LineItems {
		writeString(&buf, item.SKU)
		var qtyBuf [8]byte
		binary.LittleEndian.PutUint64(qtyBuf[:], math.Float64bits(item.Quantity))
		buf.Write(qtyBuf[:])
		writeString(&buf, item.Unit)
		writeString(&buf, item.Route)
		writeString(&buf, item.Species)
	}

	buf.Write(e.TranscriptDigest[:])

	return buf.Bytes()
}

// Decode is Encode's inverse: it reconstructs the ReviewedEncounter a
// leaf's canonical bytes were built from, for callers (the compliance
// export) that need the full encounter record back rather than just its
// hash.
func Decode(canonical []byte) (types.ReviewedEncounter, error) {
	r := bytes.NewReader(canonical)

	draftID, err := readString(r)
	if err != nil {
		return types.ReviewedEncounter{}, verr.Wrap("merkle.Decode", verr.Consistency, err)
	}

	kindByte, err := r.ReadByte()
	if err != nil {
		return types.ReviewedEncounter{}, verr.Wrap("merkle.Decode", verr.Consistency, err)
	}
	patientID, err := readString(r)
	if err != nil {
		return types.ReviewedEncounter{}, verr.Wrap("merkle.Decode", verr.Consistency, err)
	}

	reviewerID, err := readString(r)
	if err != nil {
		return types.ReviewedEncounter{}, verr.Wrap("merkle.Decode", verr.Consistency, err)
	}

	reviewedAtStr, err := readString(r)
	if err != nil {
		return types.ReviewedEncounter{}, verr.Wrap("merkle.Decode", verr.Consistency, err)
	}
	reviewedAt, err := time.Parse("2006-01-02T15:04:05Z07:00", reviewedAtStr)
	if err != nil {
		return types.ReviewedEncounter{}, verr.Wrap("merkle.Decode", verr.Consistency, err)
	}

	var countBuf [8]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return types.ReviewedEncounter{}, verr.Wrap("merkle.Decode", verr.Consistency, err)
	}
	count := binary.LittleEndian.Uint64(countBuf[:])

	items := make([]types.LineItem, 0, count)
	for i := uint64(0); i < count; i++ {
		sku, err := readString(r)
		if err != nil {
			return types.ReviewedEncounter{}, verr.Wrap("merkle.Decode", verr.Consistency, err)
		}
		var qtyBuf [8]byte
		if _, err := io.ReadFull(r, qtyBuf[:]); err != nil {
			return types.ReviewedEncounter{}, verr.Wrap("merkle.Decode", verr.Consistency, err)
		}
		unit, err := readString(r)
		if err != nil {
			return types.ReviewedEncounter{}, verr.Wrap("merkle.Decode", verr.Consistency, err)
		}
		route, err := readString(r)
		if err != nil {
			return types.ReviewedEncounter{}, verr.Wrap("merkle.Decode", verr.Consistency, err)
		}
		species, err := readString(r)
		if err != nil {
			return types.ReviewedEncounter{}, verr.Wrap("merkle.Decode", verr.Consistency, err)
		}
		items = append(items, types.LineItem{
			SKU:      sku,
			Quantity: math.Float64frombits(binary.LittleEndian.Uint64(qtyBuf[:])),
			Unit:     unit,
			Route:    route,
			Species:  species,
		})
	}

	var digest [32]byte
	if _, err := io.ReadFull(r, digest[:]); err != nil {
		return types.ReviewedEncounter{}, verr.Wrap("merkle.Decode", verr.Consistency, err)
	}

	return types.ReviewedEncounter{
		DraftID:          draftID,
		Patient:          types.PatientIdentity{Kind: types.PatientIDKind(kindByte), ID: patientID},
		ReviewerID:       reviewerID,
		ReviewedAt:       reviewedAt,
		LineItems:        items,
		TranscriptDigest: digest,
	}, nil
}

func readString(r *bytes.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func writeString(buf *bytes.Buffer, s string) {
	b := []byte(s)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
}

// validate rejects encounters that cannot be encoded at all: the encoding
// is only defined for non-negative line item quantities and a draft id
// and patient id that are actually set.
func validate(e types.ReviewedEncounter) error {
	if e.DraftID == "" {
		return verr.New("merkle.Encode", verr.InvalidInput)
	}
	if e.Patient.ID == "" {
		return verr.New("merkle.Encode", verr.InvalidInput)
	}
	for i, item := range e.LineItems {
		if item.Quantity < 0 {
			return verr.Wrap(fmt.Sprintf("merkle.Encode line_item[%d]", i), verr.InvalidInput, errNegativeQuantity)
		}
	}
	return nil
}
