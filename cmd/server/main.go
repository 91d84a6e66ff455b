package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"velorent-backend/internal/bootstrap"
	"velorent-backend/internal/config"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/scheduler"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "velorent-server",
		Short:        "Rental scheduling and availability API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config/config.dev.yaml", "Path to configuration file (empty for environment only)")
	return cmd
}

func run(configPath string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Velorent Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "timezone", cfg.Rentals.Timezone)
	logger.Info("Storage configuration", "driver", cfg.Storage.Driver, "notifications", cfg.Storage.Notifications)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, nil)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		return err
	}
	defer app.Close()

	if cfg.Scheduler.InProcess {
		cronScheduler, err := scheduler.NewScheduler(app.JobRunner())
		if err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server error", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
		return err
	}
	logger.Info("Server stopped. Goodbye!")
	return nil
}
