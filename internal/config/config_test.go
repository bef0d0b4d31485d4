package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAccountFromEnvDefaults(t *testing.T) {
	os.Unsetenv("DATA_REF")
	os.Unsetenv("START_CASH")
	cfg := LoadAccountFromEnv()
	require.Equal(t, "BTC-USD", cfg.DataRef)
	require.Equal(t, 10000.0, cfg.StartCash)
}

func TestLoadEngineConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runonce: false\nstart_cash: 25000\n"), 0o600))

	cfg, err := LoadEngineConfig(path)
	require.NoError(t, err)
	require.False(t, cfg.Runonce)
	require.Equal(t, 25000.0, cfg.StartCash)
	require.True(t, cfg.Preload) // untouched default survives partial override
}
