package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devlink/internal/app"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := app.LoadConfig("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Link.TTL)
	assert.Equal(t, 256, cfg.QR.Size)
	assert.Equal(t, "M", cfg.QR.Level)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, ".devlink", filepath.Base(cfg.Home))
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	path := writeFile(t, "devlink.yaml", `
home: /var/lib/devlink
store:
  backend: redis
  redisAddr: cache:6379
  redisDB: 2
link:
  ttl: 90s
qr:
  size: 512
  level: H
log:
  format: json
`)
	t.Setenv("DEVLINK_STORE_REDISADDR", "override:6380")
	t.Setenv("DEVLINK_LOG_LEVEL", "debug")
	t.Setenv("DEVLINK_METRICS_ENABLED", "true")
	t.Setenv("DEVLINK_NOT_A_SETTING", "ignored")

	cfg, err := app.LoadConfig(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/devlink", cfg.Home)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "override:6380", cfg.Store.RedisAddr)
	assert.Equal(t, 2, cfg.Store.RedisDB)
	assert.Equal(t, 90*time.Second, cfg.Link.TTL)
	assert.Equal(t, 512, cfg.QR.Size)
	assert.Equal(t, "H", cfg.QR.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	const key = "DEVLINK_STORE_PASSPHRASE"
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
	dotenv := writeFile(t, ".env", key+"=from-dotenv\n")

	cfg, err := app.LoadConfig("", dotenv)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Store.Passphrase)
}

func TestLoadConfig_EnvWithoutDefault(t *testing.T) {
	t.Setenv("DEVLINK_HOME", "/srv/devlink")
	t.Setenv("DEVLINK_STORE_PASSPHRASE", "s3cret")
	t.Setenv("DEVLINK_STORE_REDISPASSWORD", "hunter2")
	t.Setenv("DEVLINK_STORE_DSN", "file:devices.db")
	t.Setenv("DEVLINK_METRICS_TEXTFILE", "/tmp/devlink.prom")

	cfg, err := app.LoadConfig("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "/srv/devlink", cfg.Home)
	assert.Equal(t, "s3cret", cfg.Store.Passphrase)
	assert.Equal(t, "hunter2", cfg.Store.RedisPassword)
	assert.Equal(t, "file:devices.db", cfg.Store.DSN)
	assert.Equal(t, "/tmp/devlink.prom", cfg.Metrics.Textfile)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"backend": "store:\n  backend: mongo\n",
		"ttl":     "link:\n  ttl: -1m\n",
		"qr":      "qr:\n  level: Z\n",
		"log":     "log:\n  format: xml\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "devlink.yaml", content)
			_, err := app.LoadConfig(path, filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := app.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
