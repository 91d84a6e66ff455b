package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"velorent-backend/internal/bootstrap"
	"velorent-backend/internal/config"
	"velorent-backend/internal/jobs"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/scheduler"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		runOnce    string
	)

	cmd := &cobra.Command{
		Use:          "velorent-cronjob",
		Short:        "Nightly reminder and booking audit jobs",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, runOnce)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config/config.dev.yaml", "Path to configuration file (empty for environment only)")
	cmd.Flags().StringVar(&runOnce, "run-once", "", "Run a specific job once and exit (e.g., '"+jobs.JobAuditBookings+"', '"+jobs.JobAllNightly+"')")
	return cmd
}

func run(configPath, runOnce string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Velorent Cronjob Runner...", "log_level", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, nil)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		return err
	}
	defer app.Close()

	jobRunner := app.JobRunner()

	// Check if running a single job
	if runOnce != "" {
		logger.Info("Running job once", "job", runOnce)
		if err := jobRunner.RunJob(runOnce); err != nil {
			logger.Error("Unknown job name", "job", runOnce)
			return fmt.Errorf("%w; available jobs: %s", err, strings.Join(jobRunner.JobNames(), ", "))
		}
		logger.Info("Job execution completed", "job", runOnce)
		return nil
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		return err
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
	return nil
}
