package config

import "time"

// Config is the root configuration for the tally budget service.
type Config struct {
	// Server configures the HTTP API listener.
	Server ServerConfig `yaml:"server"`

	// Storage configures the persistence backend.
	Storage StorageConfig `yaml:"storage"`

	// Budgets configures engine-wide budget defaults.
	Budgets BudgetsConfig `yaml:"budgets"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on (e.g., ":8080").
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum keep-alive idle time.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// StorageConfig configures the persistence backend.
type StorageConfig struct {
	// Backend selects the store implementation: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig configures the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for locks before failing.
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// SnapshotInterval is how often to checkpoint the WAL.
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

// BudgetsConfig configures engine-wide budget defaults.
type BudgetsConfig struct {
	// DefaultWarningThreshold applies to budgets created without an
	// explicit warning threshold. Must be in (0,1).
	DefaultWarningThreshold float64 `yaml:"default_warning_threshold"`

	// CriticalMultiplier is the utilization ratio at which a budget
	// becomes critical. Must be >= the warning threshold.
	CriticalMultiplier float64 `yaml:"critical_multiplier"`

	// ExceededMultiplier is the utilization ratio at which a budget is
	// considered exceeded. Must be >= CriticalMultiplier.
	ExceededMultiplier float64 `yaml:"exceeded_multiplier"`

	// MaxChargeRetries bounds optimistic-concurrency retries per charge.
	MaxChargeRetries int `yaml:"max_charge_retries"`

	// SweepSchedule is the cron expression for the expired-budget sweeper.
	// Empty disables the sweeper.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is the output format: json or text.
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics endpoint on.
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for scraping (default "/metrics").
	Path string `yaml:"path"`
}
