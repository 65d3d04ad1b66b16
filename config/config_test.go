package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
database:
  driver: postgres
  dsn: "host=localhost user=notify"
redis:
  addr: "localhost:6379"
bus:
  buffer: 64
`), 0o600))

	t.Setenv("NOTIFY_BUS_MAX_LISTENERS", "5")
	t.Setenv("NOTIFY_AUTH_TOKEN_TTL", "1h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 64, cfg.Bus.Buffer)
	assert.Equal(t, 5, cfg.Bus.MaxListeners)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	// 默认值
	assert.Equal(t, "nt_", cfg.Database.TablePrefix)
	assert.Equal(t, 256, cfg.Notify.MaxAncestorDepth)
}

func TestLoad_Validation(t *testing.T) {
	t.Setenv("NOTIFY_REDIS_ADDR", "")
	t.Setenv("NOTIFY_AUTH_MODE", "redis")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("NOTIFY_AUTH_MODE", "jwt")
	t.Setenv("NOTIFY_AUTH_JWT_SECRET", "s3cret")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "jwt", cfg.Auth.Mode)

	t.Setenv("NOTIFY_BUS_RELAY", "true")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
