package cache

import (
	"time"

	"github.com/viccon/sturdyc"
)

// ProcessLifetime is the TTL used when entries should never expire on their own.
const ProcessLifetime = 100 * 365 * 24 * time.Hour

// Config holds the sizing of the in-memory query cache.
type Config struct {
	// Capacity bounds the number of entries; sturdyc evicts
	// EvictionPercentage of them once it is reached.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	NumShards int

	// TTL is how long a fetched entry stays valid. Search and detail entries
	// are refreshed only on explicit request, so this defaults to ProcessLifetime.
	TTL time.Duration

	// EvictionPercentage must be between 1 and 100.
	EvictionPercentage int

	// EvictionInterval sets how often expired entries are swept. Zero uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults for a single-user session.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          64,
		TTL:                ProcessLifetime,
		EvictionPercentage: 10,
	}
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}
	return nil
}

func (c Config) sturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
