package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced with defaults; explicit values are
// preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyCoordinationDefaults(&cfg.Coordination)
	applyElectionDefaults(&cfg.Election)
	applyLedgerDefaults(&cfg.Ledger)
	applyArchiveDefaults(&cfg.Archive)
	applyAPIDefaults(&cfg.API)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyCoordinationDefaults(cfg *CoordinationConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
	if cfg.Badger.Dir == "" {
		cfg.Badger.Dir = "/var/lib/tso-lease/cs"
	}
	if cfg.Etcd.DialTimeout == 0 {
		cfg.Etcd.DialTimeout = 5 * time.Second
	}
}

func applyElectionDefaults(cfg *ElectionConfig) {
	if cfg.LeasePeriod == 0 {
		cfg.LeasePeriod = 10 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = cfg.LeasePeriod
	}
	if cfg.PromotionStopTimeout == 0 {
		cfg.PromotionStopTimeout = cfg.LeasePeriod
	}
	if cfg.LeasePath == "" {
		cfg.LeasePath = "/omid/tso-lease"
	}
	if cfg.CurrentPath == "" {
		cfg.CurrentPath = "/omid/current-tso"
	}
}

func applyLedgerDefaults(cfg *LedgerConfig) {
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	if cfg.DSN == "" && cfg.Driver == "sqlite" {
		cfg.DSN = "/var/lib/tso-lease/ledger.db"
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLife == 0 {
		cfg.ConnMaxLife = time.Hour
	}
}

func applyArchiveDefaults(cfg *ArchiveConfig) {
	if cfg.Enabled && cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
}

func applyAPIDefaults(cfg *APIConfig) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.OperatorUsername == "" {
		cfg.OperatorUsername = "admin"
	}
}

// GetDefaultConfig returns a Config populated entirely with defaults,
// used when no configuration file is found.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
