package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
ingest:
  workers: 8
youtube:
  timeout: 3s
cache:
  ttl: 0s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8, cfg.Ingest.Workers)
	assert.Equal(t, 3*time.Second, cfg.YouTube.Timeout)
	assert.Equal(t, 2, cfg.YouTube.MaxRetries)
	assert.Equal(t, time.Duration(0), cfg.Cache.TTL)
	assert.Equal(t, "perspectize", cfg.Database.DBName)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://app:secret@db:5432/perspectize")
	t.Setenv("DATABASE_PASSWORD", "pw")
	t.Setenv("YOUTUBE_API_KEY", "k1,k2")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: 8080\n"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:secret@db:5432/perspectize", cfg.Database.URL)
	assert.Equal(t, "pw", cfg.Database.Password)
	assert.Equal(t, "k1,k2", cfg.YouTube.APIKey)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadConfig_InvalidDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "mysql://root:hunter2@db/app")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.NotContains(t, err.Error(), "hunter2")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad mode", func(c *Config) { c.Server.Mode = "verbose" }},
		{"no workers", func(c *Config) { c.Ingest.Workers = 0 }},
		{"rate limit without window", func(c *Config) { c.RateLimit.Window = 0 }},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }},
		{"no redis", func(c *Config) { c.Redis.Addrs = nil }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestServerConfig_Addr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:80", ServerConfig{Host: "127.0.0.1", Port: 80}.Addr())
}
