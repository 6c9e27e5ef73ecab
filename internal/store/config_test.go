package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetConfig(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SetConfig(ctx, "scoring.name_weight", "0.5"))

	got, ok, err := s.GetConfig(ctx, "scoring.name_weight")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0.5", got)

	require.NoError(t, s.SetConfig(ctx, "scoring.name_weight", "0.6"))
	got, _, err = s.GetConfig(ctx, "scoring.name_weight")
	require.NoError(t, err)
	assert.Equal(t, "0.6", got, "upsert overwrites")
}

func TestGetConfigMissingKeyNotOK(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.GetConfig(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetAllConfig(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SetConfig(ctx, "a", "1"))
	require.NoError(t, s.SetConfig(ctx, "b", "2"))

	all, err := s.GetAllConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, all)
}
