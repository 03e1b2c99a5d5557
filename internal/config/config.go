// Package config provides configuration management for the character hub service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported favorites store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config holds all configuration for the service.
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Directory      DirectoryConfig      `mapstructure:"directory"`
	FavoritesStore FavoritesStoreConfig `mapstructure:"favorites_store"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Sessions       SessionsConfig       `mapstructure:"sessions"`
	RateLimiter    RateLimiterConfig    `mapstructure:"rate_limiter"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
	Logging        LoggingConfig        `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DirectoryConfig holds the upstream character directory configuration.
type DirectoryConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxResponseSize int64         `mapstructure:"max_response_size"`
}

// FavoritesStoreConfig selects and configures the favorites store driver.
type FavoritesStoreConfig struct {
	Driver   string         `mapstructure:"driver"`
	Timeout  time.Duration  `mapstructure:"timeout"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// SQLiteConfig holds the SQLite driver configuration.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig holds the PostgreSQL driver configuration.
type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MinConnections int    `mapstructure:"min_connections"`
}

// RedisConfig holds the Redis driver configuration.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// SessionsConfig controls the lifetime of per-user favorites engines.
type SessionsConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
}

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/character-hub/")
	}

	v.SetEnvPrefix("CHARACTER_HUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Missing config file is fine, defaults and env still apply
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Directory defaults
	v.SetDefault("directory.endpoint", "https://rickandmortyapi.com/graphql")
	v.SetDefault("directory.timeout", "10s")
	v.SetDefault("directory.max_response_size", 4<<20)

	// Favorites store defaults
	v.SetDefault("favorites_store.driver", DriverSQLite)
	v.SetDefault("favorites_store.timeout", "5s")
	v.SetDefault("favorites_store.sqlite.path", "./favorites.db")
	v.SetDefault("favorites_store.postgres.host", "localhost")
	v.SetDefault("favorites_store.postgres.port", 5432)
	v.SetDefault("favorites_store.postgres.database", "character_hub")
	v.SetDefault("favorites_store.postgres.user", "character_hub")
	v.SetDefault("favorites_store.postgres.max_connections", 20)
	v.SetDefault("favorites_store.postgres.min_connections", 2)
	v.SetDefault("favorites_store.redis.host", "localhost")
	v.SetDefault("favorites_store.redis.port", 6379)
	v.SetDefault("favorites_store.redis.db", 0)

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")

	// Session defaults
	v.SetDefault("sessions.idle_ttl", "30m")
	v.SetDefault("sessions.sweep_interval", "1m")
	v.SetDefault("sessions.cooldown", "1s")

	// Rate limiter defaults
	v.SetDefault("rate_limiter.enabled", true)
	v.SetDefault("rate_limiter.requests_per_second", 100.0)
	v.SetDefault("rate_limiter.burst_size", 50)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Directory.Endpoint == "" {
		return fmt.Errorf("directory endpoint is required")
	}

	if c.Directory.Timeout <= 0 {
		return fmt.Errorf("directory timeout must be positive")
	}

	switch c.FavoritesStore.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.FavoritesStore.SQLite.Path == "" {
			return fmt.Errorf("favorites_store.sqlite.path is required")
		}
	case DriverPostgres:
		if c.FavoritesStore.Postgres.Host == "" || c.FavoritesStore.Postgres.Database == "" {
			return fmt.Errorf("favorites_store.postgres host and database are required")
		}
	case DriverRedis:
		if c.FavoritesStore.Redis.Host == "" {
			return fmt.Errorf("favorites_store.redis.host is required")
		}
	default:
		return fmt.Errorf("unknown favorites store driver: %q", c.FavoritesStore.Driver)
	}

	if c.Sessions.IdleTTL <= 0 {
		return fmt.Errorf("sessions idle ttl must be positive")
	}

	if c.Sessions.Cooldown < 0 {
		return fmt.Errorf("sessions cooldown must not be negative")
	}

	if c.RateLimiter.Enabled {
		if c.RateLimiter.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limiter requests per second must be positive")
		}
		if c.RateLimiter.BurstSize <= 0 {
			return fmt.Errorf("rate limiter burst size must be positive")
		}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
		}
	}

	return nil
}
