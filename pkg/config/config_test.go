package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "memory", cfg.Coordination.Backend)
	assert.Equal(t, 10*time.Second, cfg.Election.LeasePeriod)
	assert.Equal(t, "/omid/tso-lease", cfg.Election.LeasePath)
	assert.Equal(t, "/omid/current-tso", cfg.Election.CurrentPath)
	assert.Equal(t, "sqlite", cfg.Ledger.Driver)
	assert.Equal(t, ":8080", cfg.API.ListenAddr)
	assert.NoError(t, Validate(cfg))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Coordination.Backend)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: DEBUG
  format: json
  output: stdout
shutdown_timeout: 5s
coordination:
  backend: etcd
  etcd:
    endpoints: ["127.0.0.1:2379"]
election:
  lease_period: 8s
api:
  listen_addr: "127.0.0.1:9000"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "etcd", cfg.Coordination.Backend)
	assert.Equal(t, []string{"127.0.0.1:2379"}, cfg.Coordination.Etcd.Endpoints)
	assert.Equal(t, 8*time.Second, cfg.Election.LeasePeriod)
	assert.Equal(t, 8*time.Second, cfg.Election.PromotionStopTimeout) // defaults to one lease period
	assert.Equal(t, "127.0.0.1:9000", cfg.API.ListenAddr)
}

func TestValidateRejectsBadBackend(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Coordination.Backend = "not-a-backend"
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsZeroShutdownTimeout(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.ShutdownTimeout = 0
	assert.Error(t, Validate(cfg))
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Election.HostAndPort = "10.0.0.5:9090"
	require.NoError(t, SaveConfig(cfg, path))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:9090", reloaded.Election.HostAndPort)
}
