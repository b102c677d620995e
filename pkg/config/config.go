package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for a tso-lease replica.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (TSOLEASE_*), for keys present in the
//     configuration file and for api.jwt_secret (highest priority)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// No per-setting CLI flags are bound. When no configuration file is
// found, Load returns the defaults alone.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics controls Prometheus metrics collection.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Coordination configures the CS Gateway backend used for lease
	// and epoch storage.
	Coordination CoordinationConfig `mapstructure:"coordination" yaml:"coordination"`

	// Election configures the Lease Scheduler/Controller (C5/C6).
	Election ElectionConfig `mapstructure:"election" yaml:"election"`

	// Ledger configures the optional promotion-audit ledger.
	Ledger LedgerConfig `mapstructure:"ledger" yaml:"ledger"`

	// Archive configures optional S3 export of ledger rows.
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`

	// API configures the control/observability HTTP server.
	API APIConfig `mapstructure:"api" yaml:"api"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format.
	// Valid values: text, json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written.
	// Valid values: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use a non-TLS connection.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig controls Prometheus metrics collection. Metrics are
// served on the control API's /metrics route; Port is not read by any
// server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// CoordinationConfig selects and configures the CS Gateway backend.
type CoordinationConfig struct {
	// Backend selects the Gateway implementation.
	// Valid values: etcd, badger, memory.
	Backend string `mapstructure:"backend" validate:"required,oneof=etcd badger memory" yaml:"backend"`

	// Etcd configures the etcd backend, used when Backend == "etcd".
	Etcd EtcdConfig `mapstructure:"etcd" yaml:"etcd"`

	// Badger configures the embedded badger backend, used when
	// Backend == "badger".
	Badger BadgerConfig `mapstructure:"badger" yaml:"badger"`
}

// EtcdConfig configures the clientv3-backed Gateway.
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints" yaml:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	Username    string        `mapstructure:"username" yaml:"username,omitempty"`
	Password    string        `mapstructure:"password" yaml:"password,omitempty"`
}

// BadgerConfig configures the embedded single-node Gateway.
type BadgerConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// ElectionConfig configures the Lease Controller/Scheduler.
type ElectionConfig struct {
	// HostAndPort identifies this replica in LEASE/CURRENT payloads.
	// If empty, it is derived from NetworkInterfaceName/Port (or, failing
	// that, the API listen address) at startup.
	HostAndPort string `mapstructure:"host_port" yaml:"host_port,omitempty"`

	// NetworkInterfaceName, if set, selects the interface whose first
	// site-local (else first non-loopback) address forms the host
	// half of HostAndPort when HostAndPort is not set explicitly.
	NetworkInterfaceName string `mapstructure:"network_interface_name" yaml:"network_interface_name,omitempty"`

	// Port is the TCP port advertised in HostAndPort when it is
	// derived from NetworkInterfaceName rather than set explicitly.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port,omitempty"`

	// LeasePeriod is the full lease duration; a guard window of
	// LeasePeriod/4 is subtracted from the next renewal fire time, not
	// from endLeaseMs itself.
	LeasePeriod time.Duration `mapstructure:"lease_period" validate:"required,gt=0" yaml:"lease_period"`

	// PollInterval bounds how long the scheduler sleeps between
	// cycles even when no renewal is imminent. Defaults to LeasePeriod.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval,omitempty"`

	// PromotionStopTimeout bounds how long Stop waits for an
	// in-flight promotion job to finish. Defaults to one LeasePeriod.
	PromotionStopTimeout time.Duration `mapstructure:"promotion_stop_timeout" yaml:"promotion_stop_timeout,omitempty"`

	// LeasePath is the coordination service path holding the LEASE
	// record. Defaults to "/omid/tso-lease".
	LeasePath string `mapstructure:"lease_path" yaml:"lease_path,omitempty"`

	// CurrentPath is the coordination service path holding the
	// CURRENT record. Defaults to "/omid/current-tso".
	CurrentPath string `mapstructure:"current_tso_path" yaml:"current_tso_path,omitempty"`
}

// LedgerConfig configures the optional promotion-audit ledger.
type LedgerConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Driver selects the GORM dialect. Valid values: sqlite, postgres.
	Driver string `mapstructure:"driver" validate:"omitempty,oneof=sqlite postgres" yaml:"driver"`

	// DSN is the data source name; for sqlite, a file path (or
	// ":memory:"); for postgres, a libpq connection string.
	DSN string `mapstructure:"dsn" yaml:"dsn,omitempty"`

	MaxOpenConns int           `mapstructure:"max_open_conns" yaml:"max_open_conns,omitempty"`
	MaxIdleConns int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns,omitempty"`
	ConnMaxLife  time.Duration `mapstructure:"conn_max_life" yaml:"conn_max_life,omitempty"`
}

// ArchiveConfig configures optional S3 export of ledger rows.
type ArchiveConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Bucket   string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Region   string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	// Interval, if positive, additionally exports on a background
	// ticker while the process runs. A final export always runs on
	// shutdown regardless of this setting. Zero disables the ticker
	// and exports only on shutdown.
	Interval time.Duration `mapstructure:"interval" yaml:"interval,omitempty"`
}

// APIConfig configures the control/observability HTTP server.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr" validate:"required" yaml:"listen_addr"`

	// JWTSecret signs operator tokens issued by `tso-leasectl login`.
	// Override via TSOLEASE_API_JWT_SECRET; never checked into a config
	// file in production.
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret,omitempty"`

	// TokenTTL is how long an issued operator token remains valid.
	TokenTTL time.Duration `mapstructure:"token_ttl" yaml:"token_ttl,omitempty"`

	// OperatorUsername/OperatorPasswordHash are the single shared
	// operator credential (bcrypt hash), analogous to the teacher's
	// admin bootstrap user but without a backing user database.
	OperatorUsername     string `mapstructure:"operator_username" yaml:"operator_username,omitempty"`
	OperatorPasswordHash string `mapstructure:"operator_password_hash" yaml:"operator_password_hash,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages when no
// config file is found.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  tso-lease init\n\n"+
				"Or specify a custom config file:\n"+
				"  tso-lease <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags using
// go-playground/validator.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// SaveConfig saves the configuration to the specified file path in
// YAML format, respecting yaml tags.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variable and config
// file settings.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("TSOLEASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api.jwt_secret")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. Returns
// (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns the combined mapstructure decode hook.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook converts strings and numbers to time.Duration so
// config files can use human-readable durations like "30s", "5m".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path, preferring
// XDG_CONFIG_HOME, then ~/.config, falling back to the current
// directory.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "tso-lease")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "tso-lease")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
