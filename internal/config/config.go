package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from file, env and flags.
// User-facing preferences (theme, notifications, ...) are not here; they are
// persisted through the store as model.Settings.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer" yaml:"analyzer"`
	Scan     ScanConfig     `mapstructure:"scan" yaml:"scan"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

// LoggerConfig configures the zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to color names for the console encoder.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// StorageConfig selects where settings, history and analytics persist.
type StorageConfig struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	Dir         string `mapstructure:"dir" yaml:"dir"`
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`
}

// AnalyzerConfig tunes the heuristics.
type AnalyzerConfig struct {
	DefaultScheme     string `mapstructure:"default_scheme" yaml:"default_scheme"`
	SafeThreshold     int    `mapstructure:"safe_threshold" yaml:"safe_threshold"`
	MaxSubdomainDepth int    `mapstructure:"max_subdomain_depth" yaml:"max_subdomain_depth"`
	MaxURLLength      int    `mapstructure:"max_url_length" yaml:"max_url_length"`
	RulesFile         string `mapstructure:"rules_file" yaml:"rules_file"`
	// Rules restricts the rule set further than the scan depth does.
	// Comma-separated rule names; empty means no restriction.
	Rules string `mapstructure:"rules" yaml:"rules"`
}

// MaxWindowSize caps scan.window_size.
const MaxWindowSize = 10

// ScanConfig controls the orchestrator. WindowSize may shrink the rolling
// window but never grow it past MaxWindowSize.
type ScanConfig struct {
	WindowSize      int           `mapstructure:"window_size" yaml:"window_size"`
	SimulateLatency bool          `mapstructure:"simulate_latency" yaml:"simulate_latency"`
	Latency         time.Duration `mapstructure:"latency" yaml:"latency"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	RateLimit       float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst           int           `mapstructure:"burst" yaml:"burst"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBatch        int           `mapstructure:"max_batch" yaml:"max_batch"`
}

// DefaultDataDir is ~/.linksentry, or ./.linksentry when the home directory
// cannot be resolved.
func DefaultDataDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return ".linksentry"
	}
	return filepath.Join(home, ".linksentry")
}

// NewDefaultConfig returns a Config populated only with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// Defaults always decode; a failure here is a programming error.
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "linksentry")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Storage --
	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.dir", DefaultDataDir())
	v.SetDefault("storage.database_url", "")

	// -- Analyzer --
	v.SetDefault("analyzer.default_scheme", "https")
	v.SetDefault("analyzer.safe_threshold", 50)
	v.SetDefault("analyzer.max_subdomain_depth", 3)
	v.SetDefault("analyzer.max_url_length", 100)
	v.SetDefault("analyzer.rules_file", "")
	v.SetDefault("analyzer.rules", "")

	// -- Scan --
	v.SetDefault("scan.window_size", 10)
	v.SetDefault("scan.simulate_latency", false)
	v.SetDefault("scan.latency", "1500ms")

	// -- Server --
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.burst", 10)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_batch", 500)
}

// NewConfigFromViper decodes and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Storage.Dir == "" {
			errs = append(errs, errors.New("storage.dir is required for the file backend"))
		}
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("storage.database_url is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be one of memory, file, postgres (got %q)", c.Storage.Backend))
	}
	if c.Analyzer.SafeThreshold <= 0 || c.Analyzer.SafeThreshold > 100 {
		errs = append(errs, fmt.Errorf("analyzer.safe_threshold must be within 1..100 (got %d)", c.Analyzer.SafeThreshold))
	}
	if c.Analyzer.MaxSubdomainDepth < 0 {
		errs = append(errs, errors.New("analyzer.max_subdomain_depth must not be negative"))
	}
	if c.Analyzer.MaxURLLength <= 0 {
		errs = append(errs, errors.New("analyzer.max_url_length must be a positive integer"))
	}
	if c.Scan.WindowSize <= 0 || c.Scan.WindowSize > MaxWindowSize {
		errs = append(errs, fmt.Errorf("scan.window_size must be within 1..%d (got %d)", MaxWindowSize, c.Scan.WindowSize))
	}
	if c.Scan.Latency < 0 {
		errs = append(errs, errors.New("scan.latency must not be negative"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	if c.Server.MaxBatch <= 0 {
		errs = append(errs, errors.New("server.max_batch must be a positive integer"))
	}
	return errors.Join(errs...)
}
