package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"neuropulse/internal/auth"
	"neuropulse/internal/config"
	"neuropulse/internal/db"
	api "neuropulse/internal/http"
	"neuropulse/internal/logger"
	"neuropulse/internal/models"
	"neuropulse/internal/onboarding"
	"neuropulse/internal/repo"
	"neuropulse/internal/service"
	"neuropulse/internal/storage"
	"neuropulse/internal/storage/memory"
	"neuropulse/internal/storage/postgres"
	"neuropulse/internal/storage/sqlite"
	"neuropulse/internal/tracker"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// backends opens the state backend and account repository for the configured
// driver. The returned cleanup releases them.
func backends(ctx context.Context, cfg config.Config, log *zap.Logger) (storage.Backend, service.UserRepo, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect db: %w", err)
		}
		if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.New(pool), repo.New(pool), pool.Close, nil
	case config.DriverSQLite:
		b, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Warn("sqlite driver keeps accounts in memory", zap.String("path", cfg.SQLitePath))
		return b, repo.NewMemory(), func() { _ = b.Close() }, nil
	default:
		log.Warn("memory driver: nothing is persisted")
		return memory.New(), repo.NewMemory(), func() {}, nil
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	backend, users, cleanup, err := backends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	authManager := auth.NewManager(cfg.JWTSecret)
	adapter := storage.NewAdapter(backend, log.Named("storage"), models.ProfileThresholds())
	svc := service.New(users, authManager, log.Named("service"))

	handler := &api.API{
		Tracker:       tracker.New(adapter),
		Service:       svc,
		Auth:          authManager,
		Onboarding:    onboarding.NewRegistry(),
		Log:           log.Named("http"),
		Origins:       strings.Split(cfg.CORSOrigin, ","),
		AuthRateLimit: cfg.AuthRateLimit,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("port", cfg.Port), zap.String("driver", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
