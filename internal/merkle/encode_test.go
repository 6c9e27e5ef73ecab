package merkle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinistack/vetcore/internal/types"
)

func sampleReviewedEncounter() types.ReviewedEncounter {
	return types.ReviewedEncounter{
		DraftID:    "draft-9",
		Patient:    types.PatientIdentity{Kind: types.PatientIDServer, ID: "srv-9"},
		ReviewerID: "vet-9",
		ReviewedAt: time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC),
		LineItems: []types.LineItem{
			{SKU: "CARP-75", Quantity: 2, Unit: types.UnitMg, Route: types.RoutePO, Species: "dog"},
			{SKU: "MARO-10", Quantity: 1, Unit: types.UnitML, Route: types.RouteSQ, Species: "cat"},
		},
		TranscriptDigest: [32]byte{1, 2, 3, 4},
	}
}

func TestDecodeInvertsEncode(t *testing.T) {
	e := sampleReviewedEncounter()
	canonical := Encode(e)

	got, err := Decode(canonical)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestDecodeTruncatedInputFails(t *testing.T) {
	canonical := Encode(sampleReviewedEncounter())
	_, err := Decode(canonical[:len(canonical)-10])
	assert.Error(t, err)
}
