package config

import "time"

// Default configuration values.
const (
	DefaultListenAddress   = ":8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20 // 1 MB

	DefaultStorageBackend         = "memory"
	DefaultSQLitePath             = "tally.db"
	DefaultSQLiteBusyTimeout      = 5 * time.Second
	DefaultSQLiteSnapshotInterval = 5 * time.Minute

	DefaultWarningThreshold   = 0.8
	DefaultCriticalMultiplier = 1.0
	DefaultExceededMultiplier = 1.2
	DefaultMaxChargeRetries   = 3

	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultMetricsPath = "/metrics"
)

// ApplyDefaults fills in default values for any unset configuration fields.
// Explicitly set fields are never overwritten.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Storage.SQLite.SnapshotInterval == 0 {
		cfg.Storage.SQLite.SnapshotInterval = DefaultSQLiteSnapshotInterval
	}

	// Budget defaults
	if cfg.Budgets.DefaultWarningThreshold == 0 {
		cfg.Budgets.DefaultWarningThreshold = DefaultWarningThreshold
	}
	if cfg.Budgets.CriticalMultiplier == 0 {
		cfg.Budgets.CriticalMultiplier = DefaultCriticalMultiplier
	}
	if cfg.Budgets.ExceededMultiplier == 0 {
		cfg.Budgets.ExceededMultiplier = DefaultExceededMultiplier
	}
	if cfg.Budgets.MaxChargeRetries == 0 {
		cfg.Budgets.MaxChargeRetries = DefaultMaxChargeRetries
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// NewDefaultConfig returns a configuration with all defaults applied.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Telemetry.Metrics.Enabled = true
	return cfg
}
