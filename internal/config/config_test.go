package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poke-lang/poke/internal/config"
)

func TestLoadWithNoFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadAppliesYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poke.yaml")
	require.NoError(t, os.WriteFile(path, []byte("datadir: /opt/poke\nload_path: \"%DATADIR%:/extra\"\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "/opt/poke", cfg.DataDir)
	require.Equal(t, "%DATADIR%:/extra", cfg.LoadPath)
}

func TestLoadEnvironmentOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poke.yaml")
	require.NoError(t, os.WriteFile(path, []byte("datadir: /opt/poke\n"), 0o644))

	t.Setenv("POKE_DATADIR", "/env/poke")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "/env/poke", cfg.DataDir)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}
