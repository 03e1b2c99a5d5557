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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "https://rickandmortyapi.com/graphql", cfg.Directory.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Directory.Timeout)

	assert.Equal(t, DriverSQLite, cfg.FavoritesStore.Driver)
	assert.Equal(t, "./favorites.db", cfg.FavoritesStore.SQLite.Path)

	assert.Equal(t, 30*time.Minute, cfg.Sessions.IdleTTL)
	assert.Equal(t, time.Second, cfg.Sessions.Cooldown)

	assert.True(t, cfg.RateLimiter.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CHARACTER_HUB_SERVER_PORT", "9000")
	t.Setenv("CHARACTER_HUB_DIRECTORY_TIMEOUT", "3s")
	t.Setenv("CHARACTER_HUB_FAVORITES_STORE_DRIVER", "memory")
	t.Setenv("CHARACTER_HUB_AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Directory.Timeout)
	assert.Equal(t, DriverMemory, cfg.FavoritesStore.Driver)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 8181
favorites_store:
  driver: redis
  redis:
    host: cache.internal
    port: 6380
sessions:
  idle_ttl: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, DriverRedis, cfg.FavoritesStore.Driver)
	assert.Equal(t, "cache.internal", cfg.FavoritesStore.Redis.Host)
	assert.Equal(t, 6380, cfg.FavoritesStore.Redis.Port)
	assert.Equal(t, 5*time.Minute, cfg.Sessions.IdleTTL)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Directory: DirectoryConfig{
			Endpoint: "http://localhost:4000/graphql",
			Timeout:  5 * time.Second,
		},
		FavoritesStore: FavoritesStoreConfig{Driver: DriverMemory},
		Sessions:       SessionsConfig{IdleTTL: time.Minute, Cooldown: time.Second},
		RateLimiter: RateLimiterConfig{
			Enabled:           true,
			RequestsPerSecond: 10,
			BurstSize:         5,
		},
		Metrics: MetricsConfig{Enabled: true, Port: 9090, Path: "/metrics"},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 0 }},
		{"missing endpoint", func(c *Config) { c.Directory.Endpoint = "" }},
		{"zero directory timeout", func(c *Config) { c.Directory.Timeout = 0 }},
		{"unknown driver", func(c *Config) { c.FavoritesStore.Driver = "mongo" }},
		{"sqlite without path", func(c *Config) { c.FavoritesStore.Driver = DriverSQLite }},
		{"postgres without host", func(c *Config) { c.FavoritesStore.Driver = DriverPostgres }},
		{"redis without host", func(c *Config) { c.FavoritesStore.Driver = DriverRedis }},
		{"zero idle ttl", func(c *Config) { c.Sessions.IdleTTL = 0 }},
		{"negative cooldown", func(c *Config) { c.Sessions.Cooldown = -time.Second }},
		{"zero rps", func(c *Config) { c.RateLimiter.RequestsPerSecond = 0 }},
		{"zero burst", func(c *Config) { c.RateLimiter.BurstSize = 0 }},
		{"invalid metrics port", func(c *Config) { c.Metrics.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
