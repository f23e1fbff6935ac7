package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"docforge-hq/warden/pkg/admission"
	"docforge-hq/warden/pkg/admission/catalog"
	"docforge-hq/warden/pkg/admission/storage"
	"docforge-hq/warden/pkg/blob"
	"docforge-hq/warden/pkg/config"
	"docforge-hq/warden/pkg/jobs"
	"docforge-hq/warden/pkg/retention"
	"docforge-hq/warden/pkg/telemetry/health"
	"docforge-hq/warden/pkg/telemetry/logging"
	"docforge-hq/warden/pkg/users"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Warden daemon",
	Long: `Start the Warden daemon with the specified configuration.

The daemon opens the admission and job databases, starts the retention
reconciler, and serves health and metrics endpoints on the configured
listen address.

Examples:
  # Start with default config
  warden run

  # Start with custom config
  warden run --config /etc/warden/config.yaml

  # Override listen address
  warden run --listen 0.0.0.0:9090

  # Run the retention reconciler without deleting anything
  warden run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "log retention deletions without performing them")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if runFlags.dryRun {
		cfg.Retention.DryRun = true
	}

	logger, err := logging.Setup(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	logger.Info("Starting warden",
		"version", Version,
		"config", cfgFile,
		"listen_address", cfg.Server.ListenAddress,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Admission storage (settings and quotas share one database).
	admissionStore, err := storage.NewSQLiteStoreWithConfig(storage.SQLiteStoreConfig{
		DBPath:      cfg.Storage.AdmissionPath,
		BusyTimeout: cfg.Storage.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to open admission database: %w", err)
	}
	defer admissionStore.Close()

	// Conversion job storage.
	jobsConfig := jobs.DefaultSQLiteConfig()
	jobsConfig.Path = cfg.Storage.JobsPath
	if cfg.Storage.BusyTimeout > 0 {
		jobsConfig.BusyTimeout = cfg.Storage.BusyTimeout
	}
	jobStore, err := jobs.NewSQLiteStore(jobsConfig)
	if err != nil {
		return fmt.Errorf("failed to open jobs database: %w", err)
	}
	defer jobStore.Close()

	// Blob storage for conversion payloads held in cloud storage.
	var blobStore blob.Store
	if cfg.Blob.Bucket != "" {
		s3Store, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:   cfg.Blob.Bucket,
			Region:   cfg.Blob.Region,
			Endpoint: cfg.Blob.Endpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to create blob store: %w", err)
		}
		blobStore = s3Store
	} else {
		logger.Warn("No blob bucket configured, cloud payload deletion is disabled")
		blobStore = blob.NewMemoryStore()
	}

	var admissionMetrics *admission.Metrics
	var retentionMetrics *retention.Metrics
	metricsEnabled := cfg.Telemetry.Metrics.Enabled != nil && *cfg.Telemetry.Metrics.Enabled
	if metricsEnabled {
		admissionMetrics = admission.NewMetrics()
		retentionMetrics = retention.NewMetrics()
	}

	directory := users.NewStaticDirectory(cfg.Admission.AdminUserIDs)
	cat := catalog.New(cfg.Admission.CatalogEntries())

	manager := admission.NewManager(
		directory,
		admissionStore.Settings(),
		admissionStore.Quotas(),
		cat,
		admission.Config{
			RateLimit: cfg.Admission.RateLimitConfig(),
			Quota:     cfg.Admission.QuotaConfig(),
		},
		admissionMetrics,
		logger,
	)

	reconciler := retention.NewReconciler(
		jobStore,
		blobStore,
		cfg.Retention.ReconcilerConfig(),
		retentionMetrics,
		logger,
	)

	if cfg.Retention.Schedule != "" {
		scheduler := retention.NewScheduler(reconciler, cfg.Retention.Schedule)
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start retention scheduler: %w", err)
		}
		defer scheduler.Stop()
		if next := scheduler.NextRun(); next != nil {
			logger.Info("Retention scheduler started", "next_run", next)
		}
	} else {
		go func() {
			if err := reconciler.Run(ctx); err != nil {
				logger.Error("Retention reconciler stopped", "error", err)
			}
		}()
	}

	// Rebuild the policy catalog on file changes. The swap flushes cached
	// resolutions so the new policies take effect immediately.
	watcher, err := config.NewWatcher(cfgFile, logger)
	if err != nil {
		logger.Warn("Configuration watcher unavailable", "error", err)
	} else {
		go func() {
			err := watcher.Watch(ctx, func(newCfg *config.Config) {
				manager.ReloadPolicies(catalog.New(newCfg.Admission.CatalogEntries()))
			})
			if err != nil {
				logger.Warn("Configuration watcher exited", "error", err)
			}
		}()
	}

	checker := health.New(0)
	checker.Register("jobs_db", func(ctx context.Context) error {
		_, err := jobStore.Count(ctx)
		return err
	})
	checker.Register("admission_db", func(ctx context.Context) error {
		_, err := admissionStore.Settings().GetByUserID(ctx, "healthcheck")
		return err
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.Handler())
	if metricsEnabled {
		mux.Handle(cfg.Telemetry.Metrics.Path, promhttp.Handler())
	}

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddress,
		Handler: mux,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", cfg.Server.ListenAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", "error", err)
		return err
	}

	logger.Info("Warden stopped")
	return nil
}
