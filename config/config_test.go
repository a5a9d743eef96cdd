package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: "5000"
database:
  driver: memory
jwt:
  access_secret: file-access
  refresh_secret: file-refresh
  access_ttl: 5m
push:
  vapid_public_key: pub
  vapid_private_key: priv
  vapid_subject: mailto:ops@example.com
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	dir := writeConfig(t, sampleConfig)
	require.NoError(t, LoadConfig(dir))

	assert.Equal(t, "5000", AppConfig.Server.Port)
	assert.Equal(t, 5*time.Minute, AppConfig.JWT.AccessTTL)
	assert.Equal(t, 720*time.Hour, AppConfig.JWT.RefreshTTL, "unset durations take the default")
	assert.Equal(t, 4, AppConfig.Notifications.Workers)
	assert.True(t, AppConfig.PushConfigured())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, sampleConfig)
	t.Setenv("JWT_REFRESH_SECRET", "env-refresh")
	t.Setenv("SERVER_PORT", "6000")

	require.NoError(t, LoadConfig(dir))
	assert.Equal(t, "env-refresh", AppConfig.JWT.RefreshSecret)
	assert.Equal(t, "6000", AppConfig.Server.Port)
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "b")
	require.NoError(t, LoadConfig(t.TempDir()))
	assert.Equal(t, "memory", AppConfig.Database.Driver)
	assert.False(t, AppConfig.PushConfigured())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.JWT.AccessSecret = "a"
		c.JWT.RefreshSecret = "b"
		c.JWT.AccessTTL = time.Minute
		c.JWT.RefreshTTL = time.Hour
		c.Database.Driver = "postgres"
		return c
	}

	c := valid()
	assert.NoError(t, c.Validate())

	c = valid()
	c.JWT.RefreshSecret = "a"
	assert.Error(t, c.Validate(), "equal secrets must be rejected")

	c = valid()
	c.JWT.AccessSecret = ""
	assert.Error(t, c.Validate())

	c = valid()
	c.JWT.AccessTTL = 0
	assert.Error(t, c.Validate())

	c = valid()
	c.Database.Driver = "mongo"
	assert.Error(t, c.Validate())
}
