package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"breakapp-hq/tally/pkg/budget"
	"breakapp-hq/tally/pkg/budget/storage"
	"breakapp-hq/tally/pkg/budget/threshold"
	"breakapp-hq/tally/pkg/config"
	"breakapp-hq/tally/pkg/server"
	"breakapp-hq/tally/pkg/telemetry/health"
	"breakapp-hq/tally/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	watch         bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the tally API server",
	Long: `Start the tally API server with the specified configuration.

The server exposes the budget engine over a JSON REST API, along with
health probes and Prometheus metrics.

Examples:
  # Start with default config
  tally run

  # Start with custom config
  tally run --config /etc/tally/tally.yaml

  # Override listen address
  tally run --listen 0.0.0.0:9090

  # Reload configuration on file changes
  tally run --watch

  # Validate config without starting the server
  tally run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "reload configuration on file changes")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.GetConfig()

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

	setupLogging(&cfg.Telemetry.Logging)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage backend
	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	fmt.Printf("✓ Storage initialized (%s backend)\n", cfg.Storage.Backend)

	// Metrics
	var collector *metrics.Collector
	var budgetMetrics *budget.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(nil)
		budgetMetrics = budget.NewMetrics(collector.Registry())
	}

	// Budget service
	svc := budget.NewService(budget.ServiceConfig{
		Store: store,
		Thresholds: threshold.Config{
			CriticalMultiplier: cfg.Budgets.CriticalMultiplier,
			ExceededMultiplier: cfg.Budgets.ExceededMultiplier,
		},
		Metrics:          budgetMetrics,
		MaxChargeRetries: cfg.Budgets.MaxChargeRetries,
	})

	// Expired-budget sweeper
	if cfg.Budgets.SweepSchedule != "" {
		sweeper := budget.NewSweeper(svc, cfg.Budgets.SweepSchedule)
		if err := sweeper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start sweeper: %w", err)
		}
		defer sweeper.Stop()
		if next := sweeper.NextRun(); next != nil {
			slog.Debug("budget sweeper scheduled", "next_run", next)
		}
	}

	// Health checks
	checker := health.New(0)
	checker.RegisterCheck("storage", func(ctx context.Context) error {
		_, err := store.ListBudgets(ctx)
		return err
	})

	// Config hot-reload
	if runFlags.watch {
		watcher, err := config.NewWatcher(cfgFile, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to create config watcher: %w", err)
		}
		go func() {
			_ = watcher.Watch(ctx, func() error {
				if err := config.ReloadConfig(cfgFile); err != nil {
					return err
				}
				setupLogging(&config.GetConfig().Telemetry.Logging)
				return nil
			})
		}()
		defer watcher.Stop()
	}

	srv := server.NewServer(cfg, svc, checker, collector, server.VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})

	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Blocks until a shutdown signal or server error
	return srv.Start(ctx)
}

// newStore builds the configured storage backend.
func newStore(cfg *config.Config) (budget.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return storage.NewSQLiteStoreWithConfig(storage.SQLiteStoreConfig{
			DBPath:           cfg.Storage.SQLite.Path,
			SnapshotInterval: cfg.Storage.SQLite.SnapshotInterval,
			BusyTimeout:      cfg.Storage.SQLite.BusyTimeout,
		})
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// setupLogging installs the process-wide slog default from config.
func setupLogging(cfg *config.LoggingConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
