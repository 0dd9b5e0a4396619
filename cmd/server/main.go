package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/packlist/internal/config"
	"github.com/JonMunkholm/packlist/internal/core"
	"github.com/JonMunkholm/packlist/internal/logging"
	"github.com/JonMunkholm/packlist/internal/web"
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

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"output_dir", cfg.Output.Dir,
		"generator", cfg.Generator.Script,
		"generation_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		slog.Error("failed to create output directory", "dir", cfg.Output.Dir, "error", err)
		os.Exit(1)
	}

	service := core.NewService(cfg, nil, nil)
	server := web.NewServer(cfg, service)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartRetentionSweeper(jobCtx, core.RetentionConfig{
		MaxAge:   cfg.Output.Retention,
		Interval: cfg.Output.CleanupInterval,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let running generators finish writing before the process exits.
		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for generations to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("generations did not complete in time", "error", err)
			} else {
				slog.Info("all generations completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
