package config

import (
	"time"
)

// Source kinds
const (
	SourceKindMock   = "mock"
	SourceKindHTTP   = "http"
	SourceKindLedger = "ledger"
)

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Resilience ResilienceConfig `mapstructure:"resilience"`
	Sources    []SourceConfig   `mapstructure:"sources"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CacheConfig selects and tunes the transaction cache
type CacheConfig struct {
	Backend         string        `mapstructure:"backend"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Namespace       string        `mapstructure:"namespace"`
	// AllowClear enables clearing the whole remote cache
	AllowClear bool `mapstructure:"allow_clear"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ResilienceConfig is the per-source retry, timeout and breaker policy
type ResilienceConfig struct {
	AttemptTimeout   time.Duration `mapstructure:"attempt_timeout"`
	MaxRetries       int           `mapstructure:"max_retries"`
	BackoffBase      float64       `mapstructure:"backoff_base"`
	BackoffUnit      time.Duration `mapstructure:"backoff_unit"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	OpenDuration     time.Duration `mapstructure:"open_duration"`
}

// SourceConfig registers one upstream source
type SourceConfig struct {
	Name string `mapstructure:"name"`
	Kind string `mapstructure:"kind"`

	// http
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`

	// mock
	RecordsPerDay int           `mapstructure:"records_per_day"`
	FailureRate   float64       `mapstructure:"failure_rate"`
	Latency       time.Duration `mapstructure:"latency"`
	Seed          uint64        `mapstructure:"seed"`
	Currency      string        `mapstructure:"currency"`
}

// DatabaseConfig holds PostgreSQL configuration for the ledger source
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second, // must cover retries with backoff
			ShutdownTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:         CacheBackendMemory,
			TTL:             10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			Namespace:       "aggregator:",
			AllowClear:      false,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			Password:     "",
			DB:           0,
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Resilience: ResilienceConfig{
			AttemptTimeout:   5 * time.Second,
			MaxRetries:       3,
			BackoffBase:      2,
			BackoffUnit:      time.Second,
			FailureThreshold: 5,
			OpenDuration:     30 * time.Second,
		},
		Sources: DefaultSources(),
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "aggregator",
			Password:        "",
			Name:            "ledger",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// DefaultSources returns three simulated banks of varying reliability
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "bank-a", Kind: SourceKindMock, RecordsPerDay: 8, FailureRate: 0.05, Latency: 50 * time.Millisecond, Seed: 1, Currency: "USD"},
		{Name: "bank-b", Kind: SourceKindMock, RecordsPerDay: 5, FailureRate: 0.10, Latency: 120 * time.Millisecond, Seed: 2, Currency: "USD"},
		{Name: "bank-c", Kind: SourceKindMock, RecordsPerDay: 3, FailureRate: 0.20, Latency: 300 * time.Millisecond, Seed: 3, Currency: "EUR"},
	}
}

// UsesLedger reports whether any source reads from the database
func (c *Config) UsesLedger() bool {
	for _, s := range c.Sources {
		if s.Kind == SourceKindLedger {
			return true
		}
	}
	return false
}
