// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-repo-explorer/internal/cache"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults need no environment", func(t *testing.T) {
		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, StorageBolt, cfg.StorageDriver)
		assert.Empty(t, cfg.GithubToken)
		assert.Equal(t, cache.ProcessLifetime, cfg.Cache().TTL)

		retry := cfg.Retry()
		assert.Equal(t, uint64(3), retry.MaxRetries)
		assert.Equal(t, time.Second, retry.InitialInterval)
		assert.Equal(t, 30*time.Second, retry.MaxInterval)
		assert.Equal(t, float64(2), retry.Multiplier)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("HTTP_ADDR", ":9090")
		t.Setenv("GITHUB_TOKEN", "secret")
		t.Setenv("CACHE_CAPACITY", "50")
		t.Setenv("RETRY_MAX", "1")
		t.Setenv("HTTP_TIMEOUT", "5s")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, ":9090", cfg.HTTPAddr)
		assert.Equal(t, 50, cfg.Cache().Capacity)
		assert.Equal(t, uint64(1), cfg.Retry().MaxRetries)
		gh := cfg.GitHub()
		assert.Equal(t, "secret", gh.Token)
		assert.Equal(t, 5*time.Second, gh.Timeout)
	})

	t.Run("postgres requires DB_URL", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", StoragePostgres)

		_, err := LoadConfig()

		assert.EqualError(t, err, "DB_URL is required when STORAGE_DRIVER is postgres")
	})

	t.Run("rejects unknown storage driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "sqlite")

		_, err := LoadConfig()

		assert.Error(t, err)
	})

	t.Run("rejects invalid cache sizing", func(t *testing.T) {
		t.Setenv("CACHE_EVICTION_PERCENTAGE", "0")

		_, err := LoadConfig()

		var cfgErr *cache.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "EvictionPercentage", cfgErr.Field)
	})
}
