// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github-repo-explorer/internal/cache"
	"github-repo-explorer/internal/github"
	"github-repo-explorer/internal/syncer"
)

// Storage drivers for the favorites blob.
const (
	StorageBolt     = "bolt"
	StoragePostgres = "postgres"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel    string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr    string        `mapstructure:"HTTP_ADDR"`
	GithubURL   string        `mapstructure:"GITHUB_API_URL"`
	GithubToken string        `mapstructure:"GITHUB_TOKEN"`
	UserAgent   string        `mapstructure:"USER_AGENT"`
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	BoltPath      string `mapstructure:"BOLT_PATH"`
	DBURL         string `mapstructure:"DB_URL"`
	MigrationsURL string `mapstructure:"MIGRATIONS_URL"`

	CacheCapacity           int           `mapstructure:"CACHE_CAPACITY"`
	CacheShards             int           `mapstructure:"CACHE_SHARDS"`
	CacheTTL                time.Duration `mapstructure:"CACHE_TTL"`
	CacheEvictionPercentage int           `mapstructure:"CACHE_EVICTION_PERCENTAGE"`

	RetryMax             uint64        `mapstructure:"RETRY_MAX"`
	RetryInitialInterval time.Duration `mapstructure:"RETRY_INITIAL_INTERVAL"`
	RetryMaxInterval     time.Duration `mapstructure:"RETRY_MAX_INTERVAL"`

	FavoritesFetchConcurrency int `mapstructure:"FAVORITES_FETCH_CONCURRENCY"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	cacheDefaults := cache.DefaultConfig()
	retryDefaults := syncer.DefaultRetryPolicy()

	// Set default values
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GITHUB_API_URL", "https://api.github.com/")
	v.SetDefault("GITHUB_TOKEN", "")
	v.SetDefault("USER_AGENT", github.DefaultUserAgent)
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("STORAGE_DRIVER", StorageBolt)
	v.SetDefault("BOLT_PATH", "favorites.db")
	v.SetDefault("DB_URL", "")
	v.SetDefault("MIGRATIONS_URL", "file://migrations")
	v.SetDefault("CACHE_CAPACITY", cacheDefaults.Capacity)
	v.SetDefault("CACHE_SHARDS", cacheDefaults.NumShards)
	v.SetDefault("CACHE_TTL", cacheDefaults.TTL.String())
	v.SetDefault("CACHE_EVICTION_PERCENTAGE", cacheDefaults.EvictionPercentage)
	v.SetDefault("RETRY_MAX", retryDefaults.MaxRetries)
	v.SetDefault("RETRY_INITIAL_INTERVAL", retryDefaults.InitialInterval.String())
	v.SetDefault("RETRY_MAX_INTERVAL", retryDefaults.MaxInterval.String())
	v.SetDefault("FAVORITES_FETCH_CONCURRENCY", 8)

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageBolt:
		if c.BoltPath == "" {
			return errors.New("BOLT_PATH is required when STORAGE_DRIVER is bolt")
		}
	case StoragePostgres:
		if c.DBURL == "" {
			return errors.New("DB_URL is required when STORAGE_DRIVER is postgres")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageBolt, StoragePostgres, c.StorageDriver)
	}
	if c.GithubURL == "" {
		return errors.New("GITHUB_API_URL is a required configuration field")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if c.FavoritesFetchConcurrency < 1 {
		return errors.New("FAVORITES_FETCH_CONCURRENCY must be at least 1")
	}
	if c.RetryInitialInterval <= 0 || c.RetryMaxInterval < c.RetryInitialInterval {
		return errors.New("RETRY_INITIAL_INTERVAL must be positive and not exceed RETRY_MAX_INTERVAL")
	}
	return c.Cache().Validate()
}

// Cache returns the query cache settings.
func (c *Config) Cache() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Capacity = c.CacheCapacity
	cfg.NumShards = c.CacheShards
	cfg.TTL = c.CacheTTL
	cfg.EvictionPercentage = c.CacheEvictionPercentage
	return cfg
}

// Retry returns the read retry policy.
func (c *Config) Retry() syncer.RetryPolicy {
	policy := syncer.DefaultRetryPolicy()
	policy.MaxRetries = c.RetryMax
	policy.InitialInterval = c.RetryInitialInterval
	policy.MaxInterval = c.RetryMaxInterval
	return policy
}

// GitHub returns the remote client options.
func (c *Config) GitHub() github.Options {
	return github.Options{
		BaseURL:   c.GithubURL,
		Token:     c.GithubToken,
		UserAgent: c.UserAgent,
		Timeout:   c.HTTPTimeout,
	}
}
