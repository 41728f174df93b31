package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "SAM_STORAGE_BACKEND", "SAM_DB_PATH", "SAM_COUCH_URL", "SAM_LOG_LEVEL", "SAM_ADDR", "CHARM_HOST"} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 3, cfg.Inference.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Inference.Backoff)
	assert.Equal(t, 50, cfg.Inference.SearchContextLimit)
	assert.Equal(t, 200, cfg.Inference.SearchBodyPrefix)
	assert.Equal(t, 30*time.Second, cfg.Reminders.Interval)
	assert.Equal(t, time.Minute, cfg.Reminders.Window)
	assert.Equal(t, 50, cfg.Notifications.HistoryCap)
	assert.Equal(t, 5*time.Second, cfg.Notifications.BannerDuration)
	require.NoError(t, Validate(cfg))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage:
  backend: memory
inference:
  model: gemini-test
  backoff: 250ms
reminders:
  interval: 10s
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv("GEMINI_API_KEY", "k-123")
	t.Setenv("SAM_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "gemini-test", cfg.Inference.Model)
	assert.Equal(t, 250*time.Millisecond, cfg.Inference.Backoff)
	assert.Equal(t, 10*time.Second, cfg.Reminders.Interval)
	assert.Equal(t, "k-123", cfg.Inference.APIKey)
	assert.Equal(t, "warn", cfg.Log.Level)
	// untouched sections keep defaults
	assert.Equal(t, 50, cfg.Notifications.HistoryCap)
}

func TestValidateRejectsBadBackend(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "floppy"
	assert.Error(t, Validate(cfg))
}

func TestValidateCouchNeedsURL(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "couch"
	assert.Error(t, Validate(cfg))

	cfg.Storage.CouchURL = "http://localhost:5984"
	assert.NoError(t, Validate(cfg))
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")

	assert.Equal(t, "/tmp/cfg/sam", ConfigDir())
	assert.Equal(t, "/tmp/cfg/sam/config.yaml", ConfigPath())
	assert.Equal(t, "/tmp/data/sam/sam.db", DefaultDBPath())
}
