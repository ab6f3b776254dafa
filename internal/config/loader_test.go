package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("VITANOTE_AUTH_JWT_SECRET", testSecret)
	t.Setenv("VITANOTE_SERVER_HTTP_PORT", "9191")
	t.Setenv("VITANOTE_SERVER_CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret.Value())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	// untouched values keep their defaults
	assert.Equal(t, "vitanote.db", cfg.Database.Path)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  http_port: 8088
  shutdown_timeout: 3s
database:
  path: /tmp/vita.db
auth:
  jwt_secret: "`+testSecret+`"
  token_ttl: 1h
thresholds:
  glucose_high: 9.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/tmp/vita.db", cfg.Database.Path)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 9.5, cfg.Thresholds.GlucoseHigh)
	assert.Equal(t, 3.9, cfg.Thresholds.GlucoseLow)
}

func TestLoad_TOMLFile(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[server]
http_port = 7070

[auth]
jwt_secret = "`+testSecret+`"
issuer = "vitanote-test"

[logging]
format = "console"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "vitanote-test", cfg.Auth.Issuer)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  http_port: 8088
auth:
  jwt_secret: "`+testSecret+`"
`)
	t.Setenv("VITANOTE_SERVER_HTTP_PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("VITANOTE_AUTH_JWT_SECRET", testSecret)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5080, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing secret fails validation", func(t *testing.T) {
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt_secret")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeConfig(t, "config.ini", "port=1")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported config file extension")
	})

	t.Run("world writable file", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", "server:\n  http_port: 1\n")
		require.NoError(t, os.Chmod(path, 0666))
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insecure config file permissions")
	})
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.http_port", envKey("VITANOTE_SERVER_HTTP_PORT"))
	assert.Equal(t, "events.nats_url", envKey("VITANOTE_EVENTS_NATS_URL"))
	assert.Equal(t, "debug", envKey("VITANOTE_DEBUG"))
}
