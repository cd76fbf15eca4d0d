package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/tablekit/internal/archive"
	"github.com/JonMunkholm/tablekit/internal/config"
	"github.com/JonMunkholm/tablekit/internal/core"
	"github.com/JonMunkholm/tablekit/internal/logging"
	"github.com/JonMunkholm/tablekit/internal/metrics"
	"github.com/JonMunkholm/tablekit/internal/storage"
	"github.com/JonMunkholm/tablekit/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	store, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.Storage.Driver,
		SQLitePath:  cfg.Storage.SQLitePath,
		DatabaseURL: cfg.Storage.DatabaseURL,
		MaxConns:    cfg.Storage.MaxConns,
	})
	if err != nil {
		slog.Error("failed to open column storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("column storage ready", "driver", cfg.Storage.Driver)

	archiver, err := archive.Open(ctx, archive.Options{
		Driver: cfg.Archive.Driver,
		Dir:    cfg.Archive.Dir,
		S3: archive.S3Config{
			Bucket:    cfg.Archive.S3Bucket,
			Region:    cfg.Archive.S3Region,
			Endpoint:  cfg.Archive.S3Endpoint,
			PathStyle: cfg.Archive.S3PathStyle,
			Prefix:    cfg.Archive.S3Prefix,
		},
	})
	if err != nil {
		slog.Error("failed to open export archive", "driver", cfg.Archive.Driver, "error", err)
		os.Exit(1)
	}

	rules, err := core.ParseRules(cfg.Table.NumericColumns, cfg.Table.ValidationRules)
	if err != nil {
		slog.Error("invalid validation rules", "error", err)
		os.Exit(1)
	}

	collector := metrics.New(true)

	service, err := core.NewService(ctx, store, core.Options{
		Namespace:            cfg.Storage.Namespace,
		Seed:                 cfg.Table.Seed,
		PageSize:             cfg.Table.PageSize,
		Rules:                &rules,
		MaxImportSize:        cfg.Import.MaxFileSize,
		MaxConcurrentImports: cfg.Import.MaxConcurrent,
		ImportWait:           cfg.Import.MaxWaitTime,
		Archiver:             archiver,
		Observer:             collector,
		AuditEntries:         cfg.Table.AuditEntries,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	opts := web.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxImportSize:  cfg.Import.MaxFileSize,
		TrustedProxies: cfg.Security.TrustedProxies,
		EnableCSP:      cfg.Security.EnableCSP,
		Metrics:        collector,
	}
	if cfg.Rate.Enabled {
		opts.RequestsPerMinute = cfg.Rate.RequestsPerMinute
		opts.ImportsPerMinute = cfg.Rate.ImportLimit
	}
	if cfg.Security.RequireAPIKey {
		opts.APIKeys = cfg.Security.APIKeys
	}
	server := web.NewServer(service, opts)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	if cfg.Archive.SnapshotInterval > 0 {
		go service.StartSnapshotScheduler(jobCtx, cfg.Archive.SnapshotInterval)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.ImportStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
