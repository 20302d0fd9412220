package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lk2023060901/perspectize-backend/internal/middleware"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/database"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/redis"
	"github.com/lk2023060901/perspectize-backend/internal/youtube"
	"github.com/spf13/viper"
)

// DefaultPath is used when no -config flag is given
const DefaultPath = "configs/config.yaml"

type Config struct {
	Server    ServerConfig               `mapstructure:"server"`
	Database  database.Config            `mapstructure:"database"`
	Redis     redis.Config               `mapstructure:"redis"`
	Log       logger.Config              `mapstructure:"log"`
	YouTube   youtube.Config             `mapstructure:"youtube"`
	Ingest    IngestConfig               `mapstructure:"ingest"`
	RateLimit middleware.RateLimitConfig `mapstructure:"ratelimit"`
	Metrics   MetricsConfig              `mapstructure:"metrics"`
	Cache     CacheConfig                `mapstructure:"cache"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr is the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type IngestConfig struct {
	// Workers bounds concurrent URL processing within a batch. 1 ingests
	// sequentially.
	Workers int `mapstructure:"workers"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type CacheConfig struct {
	// TTL of cached query results. 0 disables the query cache.
	TTL time.Duration `mapstructure:"ttl"`
}

// Default returns the configuration used for keys absent from the file
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Mode:            "release",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database:  *database.DefaultConfig(),
		Redis:     *redis.DefaultConfig(),
		Log:       *logger.DefaultConfig(),
		YouTube:   *youtube.DefaultConfig(),
		Ingest:    IngestConfig{Workers: 4},
		RateLimit: middleware.DefaultRateLimitConfig(),
		Metrics:   MetricsConfig{Enabled: true, Path: "/metrics"},
		Cache:     CacheConfig{TTL: 5 * time.Minute},
	}
}

// LoadConfig reads .env files, the YAML file at path and the environment.
// An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config := Default()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// loadEnvFiles loads .env.local, then .env. Variables already set win, so
// .env.local overrides .env.
func loadEnvFiles() error {
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func applyEnvOverrides(c *Config) error {
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		if err := database.ValidateDatabaseURL(raw); err != nil {
			return fmt.Errorf("invalid DATABASE_URL %s: %w", database.SanitizeDSN(raw), err)
		}
		c.Database.URL = raw
	}
	if pw := os.Getenv("DATABASE_PASSWORD"); pw != "" {
		c.Database.Password = pw
	}
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		c.YouTube.APIKey = key
	}
	return nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("server mode must be debug, release or test, got %q", c.Server.Mode)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if c.Ingest.Workers < 1 {
		return errors.New("ingest workers must be >= 1")
	}
	if c.RateLimit.Enabled && (c.RateLimit.MaxRequests <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("ratelimit max_requests and window must be > 0 when enabled")
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache ttl must be >= 0")
	}
	return nil
}
