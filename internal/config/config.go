// Package config provides configuration management for the duplicate review service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the duplicate review service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Backend contains project backend client settings.
	Backend BackendConfig `mapstructure:"backend"`
	// Redis contains Redis settings for the statistics cache.
	Redis RedisConfig `mapstructure:"redis"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BackendConfig holds project backend client configuration.
type BackendConfig struct {
	// BaseURL is the project backend base URL.
	BaseURL string `mapstructure:"base_url"`
	// Token is the bearer credential for backend requests
	// (loaded from DUPREVIEW_BACKEND_TOKEN env var).
	Token string `mapstructure:"-"`
	// Timeout is the timeout for backend API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum burst of requests.
	BurstSize int `mapstructure:"burst_size"`
	// UserAgent overrides the default User-Agent header.
	UserAgent string `mapstructure:"user_agent"`
}

// RedisConfig holds Redis settings for the duplicate statistics cache.
type RedisConfig struct {
	// Enabled switches the statistics cache from in-memory to Redis.
	Enabled bool `mapstructure:"enabled"`
	// Addr is the Redis server address (host:port).
	Addr string `mapstructure:"addr"`
	// Password is the Redis password (loaded from DUPREVIEW_REDIS_PASSWORD env var).
	Password string `mapstructure:"-"`
	// DB is the Redis database number.
	DB int `mapstructure:"db"`
	// TTL bounds how long a cached statistics entry survives without refresh.
	TTL time.Duration `mapstructure:"ttl"`
	// KeyPrefix namespaces cache keys.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace is the metric name prefix.
	Namespace string `mapstructure:"namespace"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("DUPREVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/duplicate-review-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.Backend.Token = os.Getenv("DUPREVIEW_BACKEND_TOKEN")
	cfg.Redis.Password = os.Getenv("DUPREVIEW_REDIS_PASSWORD")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Backend defaults
	// The bearer token is loaded exclusively from DUPREVIEW_BACKEND_TOKEN (see loadSecrets).
	v.SetDefault("backend.base_url", "http://localhost:3000")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.rate_limit", 10.0)
	v.SetDefault("backend.burst_size", 10)
	v.SetDefault("backend.user_agent", "")

	// Redis defaults (disabled by default, in-memory cache is used instead)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "24h")
	v.SetDefault("redis.key_prefix", "dupreview:stats:")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "duplicate_review")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate backend config
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base URL: %s", c.Backend.BaseURL)
	}
	if c.Backend.RateLimit <= 0 {
		return fmt.Errorf("backend rate limit must be positive")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}

	// Validate Redis config
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required when redis is enabled")
		}
		if c.Redis.TTL <= 0 {
			return fmt.Errorf("redis ttl must be positive")
		}
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}
