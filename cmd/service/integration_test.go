//go:build integration

// cmd/service/integration_test.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github-repo-explorer/internal/config"
)

func setupTestDatabase(ctx context.Context, t *testing.T) string {
	// Start a postgres container
	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestService_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	connStr := setupTestDatabase(ctx, t)

	// Setup a mock GitHub API server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repositories/123":
			fmt.Fprint(w, `{"id": 123, "owner": {"login": "test-owner"}, "name": "test-repo", "full_name": "test-owner/test-repo"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		}
	}))
	defer server.Close()

	t.Setenv("STORAGE_DRIVER", config.StoragePostgres)
	t.Setenv("DB_URL", connStr)
	t.Setenv("MIGRATIONS_URL", "file://../../migrations")
	t.Setenv("GITHUB_API_URL", server.URL)
	t.Setenv("RETRY_INITIAL_INTERVAL", "1ms")
	t.Setenv("RETRY_MAX_INTERVAL", "5ms")
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	blobs, err := openStorage(ctx, cfg, logger)
	require.NoError(t, err)
	defer blobs.Close()

	router, err := newRouter(cfg, blobs, logger)
	require.NoError(t, err)

	// --- ACT ---
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/v1/favorites/123", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	// A fresh router shares nothing but the database.
	restarted, err := newRouter(cfg, blobs, logger)
	require.NoError(t, err)

	// --- ASSERT ---
	rr = httptest.NewRecorder()
	restarted.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/favorites/ids", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[123]`, rr.Body.String())

	rr = httptest.NewRecorder()
	restarted.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/favorites", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"full_name":"test-owner/test-repo"`)

	rr = httptest.NewRecorder()
	restarted.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/repositories/999", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
