package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "mock", cfg.Provider.Name)
	assert.Equal(t, 3, cfg.Dispatch.MaxRespondersPerTurn)
	assert.Equal(t, 20*time.Second, cfg.Dispatch.PerPersonaTimeout.Std())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FAMSIM_STORE", "file")
	t.Setenv("FAMSIM_STORE_DIR", "/tmp/famsim-test")
	t.Setenv("FAMSIM_MAX_RESPONDERS", "5")
	t.Setenv("FAMSIM_TURN_DEADLINE", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "/tmp/famsim-test", cfg.Store.Dir)
	assert.Equal(t, 5, cfg.Dispatch.MaxRespondersPerTurn)
	assert.Equal(t, 90*time.Second, cfg.Dispatch.TurnDeadline.Std())
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":7070"
store:
  backend: redis
  redis_addr: "localhost:6379"
dispatch:
  per_persona_timeout: 5s
`), 0o644))
	t.Setenv("FAMSIM_CONFIG", path)
	t.Setenv("PORT", "7071") // env wins over file

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7071", cfg.Server.Addr)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 5*time.Second, cfg.Dispatch.PerPersonaTimeout.Std())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("FAMSIM_STORE", "postgres")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("FAMSIM_PERSONA_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}
