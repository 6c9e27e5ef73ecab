package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadReadsYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	yaml := `
store_path: /var/lib/vetcore/clinic.db
lock_timeout: 10s
scoring:
  name_weight: 0.5
  species_weight: 0.2
  route_weight: 0.2
  dose_weight: 0.1
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/vetcore/clinic.db", cfg.StorePath)
	assert.Equal(t, 0.5, cfg.Weights.Name)
}

func TestLoadEnvOverridesYAMLAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("store_path: /from-yaml.db\n"), 0o644))

	t.Setenv("VETCORE_STORE_PATH", "/from-env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from-env.db", cfg.StorePath)
}

func TestLoadEnvWeightOverride(t *testing.T) {
	t.Setenv("VETCORE_NAME_WEIGHT", "0.7")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Weights.Name)
}
