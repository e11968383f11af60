package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for correctness and consistency.
// It returns an error describing the first problem found.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validateStorage(&cfg.Storage); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := validateBudgets(&cfg.Budgets); err != nil {
		return fmt.Errorf("budgets: %w", err)
	}
	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

func validateServer(s *ServerConfig) error {
	if s.ListenAddress == "" {
		return fmt.Errorf("listen_address cannot be empty")
	}
	if s.ReadTimeout < 0 {
		return fmt.Errorf("read_timeout cannot be negative")
	}
	if s.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout cannot be negative")
	}
	if s.IdleTimeout < 0 {
		return fmt.Errorf("idle_timeout cannot be negative")
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if s.MaxHeaderBytes < 0 {
		return fmt.Errorf("max_header_bytes cannot be negative")
	}
	return nil
}

func validateStorage(s *StorageConfig) error {
	switch s.Backend {
	case "memory":
		return nil
	case "sqlite":
		if s.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path cannot be empty")
		}
		if s.SQLite.BusyTimeout < 0 {
			return fmt.Errorf("sqlite.busy_timeout cannot be negative")
		}
		if s.SQLite.SnapshotInterval < 0 {
			return fmt.Errorf("sqlite.snapshot_interval cannot be negative")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %q (must be \"memory\" or \"sqlite\")", s.Backend)
	}
}

func validateBudgets(b *BudgetsConfig) error {
	if b.DefaultWarningThreshold <= 0 || b.DefaultWarningThreshold >= 1 {
		return fmt.Errorf("default_warning_threshold must be in (0,1), got %.2f", b.DefaultWarningThreshold)
	}
	if b.CriticalMultiplier < b.DefaultWarningThreshold {
		return fmt.Errorf("critical_multiplier %.2f cannot be below default_warning_threshold %.2f",
			b.CriticalMultiplier, b.DefaultWarningThreshold)
	}
	if b.ExceededMultiplier < b.CriticalMultiplier {
		return fmt.Errorf("exceeded_multiplier %.2f cannot be below critical_multiplier %.2f",
			b.ExceededMultiplier, b.CriticalMultiplier)
	}
	if b.MaxChargeRetries < 1 {
		return fmt.Errorf("max_charge_retries must be at least 1, got %d", b.MaxChargeRetries)
	}
	if b.SweepSchedule != "" {
		if _, err := cron.ParseStandard(b.SweepSchedule); err != nil {
			return fmt.Errorf("invalid sweep_schedule %q: %w", b.SweepSchedule, err)
		}
	}
	return nil
}

func validateTelemetry(t *TelemetryConfig) error {
	switch t.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", t.Logging.Level)
	}

	switch t.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", t.Logging.Format)
	}

	if t.Metrics.Enabled && t.Metrics.Path == "" {
		return fmt.Errorf("metrics.path cannot be empty when metrics are enabled")
	}
	return nil
}
