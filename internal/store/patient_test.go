package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinistack/vetcore/internal/types"
	"github.com/clinistack/vetcore/internal/verr"
)

func TestCreateAndGetPatient(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.CreatePatient(ctx, types.Patient{LocalID: "p1", Name: "Fido", Species: "dog", WeightKg: mgPtr(20)}))

	got, ok, err := s.GetPatient(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Fido", got.Name)
	assert.Equal(t, "", got.ServerID)
}

func TestAttachServerIDSucceedsOnce(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.CreatePatient(ctx, types.Patient{LocalID: "p1"}))
	require.NoError(t, s.AttachServerID(ctx, "p1", "srv-1"))

	got, ok, err := s.GetPatient(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "srv-1", got.ServerID)
}

func TestAttachServerIDRejectsConflictingReuse(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.CreatePatient(ctx, types.Patient{LocalID: "p1"}))
	require.NoError(t, s.CreatePatient(ctx, types.Patient{LocalID: "p2"}))
	require.NoError(t, s.AttachServerID(ctx, "p1", "srv-1"))

	err = s.AttachServerID(ctx, "p2", "srv-1")
	require.Error(t, err)
	assert.Equal(t, verr.UniqueViolation, verr.KindOf(err))

	got, ok, err := s.GetPatient(ctx, "p2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "", got.ServerID, "p2 untouched on conflict")
}

func TestAttachServerIDUnknownPatientNotFound(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	err = s.AttachServerID(context.Background(), "missing", "srv-1")
	require.Error(t, err)
	assert.Equal(t, verr.NotFound, verr.KindOf(err))
}
