// cmd/service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github-repo-explorer/internal/api"
	"github-repo-explorer/internal/cache"
	"github-repo-explorer/internal/config"
	"github-repo-explorer/internal/favorites"
	"github-repo-explorer/internal/github"
	"github-repo-explorer/internal/storage"
	"github-repo-explorer/internal/syncer"
	"github-repo-explorer/internal/views"
)

// blobBackend is a favorites.BlobStore that owns a connection.
type blobBackend interface {
	favorites.BlobStore
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully", "storage_driver", cfg.StorageDriver, "authenticated", cfg.GithubToken != "")

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Open the favorites storage
	blobs, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer blobs.Close()

	// 5. Initialize application components
	router, err := newRouter(cfg, blobs, logger)
	if err != nil {
		return err
	}

	// 6. Serve until a shutdown signal arrives
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received. Exiting.")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// openStorage connects the configured blob backend and, for postgres, applies migrations.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (blobBackend, error) {
	var blobs blobBackend
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		dbpool, err := pgxpool.New(ctx, cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := storage.RunMigrations(cfg.MigrationsURL, cfg.DBURL); err != nil {
			dbpool.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		logger.Info("Database migrations applied successfully")
		blobs = storage.NewPostgres(dbpool)
	default:
		db, err := storage.NewBolt(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt database: %w", err)
		}
		blobs = db
	}

	if err := blobs.Ping(ctx); err != nil {
		_ = blobs.Close()
		return nil, fmt.Errorf("favorites storage is unreachable: %w", err)
	}
	logger.Info("Favorites storage ready", "driver", cfg.StorageDriver)
	return blobs, nil
}

// newRouter wires client, cache, sync layer and views behind the HTTP API.
func newRouter(cfg *config.Config, blobs favorites.BlobStore, logger *slog.Logger) (http.Handler, error) {
	ghClient, err := github.NewClient(cfg.GitHub(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create github client: %w", err)
	}
	queryCache, err := cache.New(cfg.Cache())
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}

	favStore := favorites.NewStore(blobs, logger)
	appSyncer := syncer.NewSyncer(queryCache, ghClient, favStore, logger, cfg.Retry())
	favView := views.NewFavorites(appSyncer, favStore, cfg.FavoritesFetchConcurrency, logger)

	return api.NewRouter(appSyncer, favView, logger), nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
