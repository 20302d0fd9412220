package redis

import (
	"errors"
	"time"
)

// Config Redis configuration. One address means a single node; several
// addresses mean a cluster; a MasterName switches to sentinel failover.
type Config struct {
	Addrs      []string `mapstructure:"addrs"`
	MasterName string   `mapstructure:"master_name"`

	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	PoolSize     int `mapstructure:"pool_size"`
	MinIdleConns int `mapstructure:"min_idle_conns"`

	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`

	MaxRetries int `mapstructure:"max_retries"`

	// KeyPrefix namespaces every key the application writes
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DefaultConfig returns a single-node configuration on localhost
func DefaultConfig() *Config {
	return &Config{
		Addrs:        []string{"localhost:6379"},
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		MaxRetries:   3,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if len(c.Addrs) == 0 {
		return errors.New("redis: at least one address is required")
	}
	for _, addr := range c.Addrs {
		if addr == "" {
			return errors.New("redis: empty address")
		}
	}
	if c.DB < 0 {
		return errors.New("redis: db must be >= 0")
	}
	if c.DB != 0 && len(c.Addrs) > 1 && c.MasterName == "" {
		return errors.New("redis: cluster mode only supports db 0")
	}
	if c.PoolSize < 0 || c.MinIdleConns < 0 {
		return errors.New("redis: pool sizes must be >= 0")
	}
	return nil
}
